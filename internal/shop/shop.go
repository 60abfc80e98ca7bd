// Package shop owns the state of one coffee shop and exposes every command
// the tills, the kitchen and the back office issue against it.
package shop

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chrisdamba/brewpos/internal/accounts"
	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/coupons"
	"github.com/chrisdamba/brewpos/internal/events"
	"github.com/chrisdamba/brewpos/internal/feedback"
	"github.com/chrisdamba/brewpos/internal/inventory"
	"github.com/chrisdamba/brewpos/internal/invoice"
	"github.com/chrisdamba/brewpos/internal/loyalty"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/orders"
	"github.com/chrisdamba/brewpos/internal/repositories"
	"go.uber.org/zap"
)

var ErrEmptyCart = errors.New("cart is empty")

// Shop is the explicit application state. Checkout and every other command
// that touches stock, points or orders runs under mu.
type Shop struct {
	mu sync.Mutex

	config    *models.Config
	catalog   *catalog.Catalog
	inventory *inventory.Ledger
	loyalty   *loyalty.Ledger
	orders    *orders.Store
	coupons   *coupons.Book
	feedback  *feedback.Box
	accounts  *accounts.Service
	archive   *invoice.Archive
	publisher *events.Publisher
	sales     []models.Sale

	now      func() time.Time
	rng      *rand.Rand
	hashCost int
	logger   *zap.Logger
}

type Option func(*Shop)

func WithClock(now func() time.Time) Option {
	return func(s *Shop) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Shop) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRand seeds order number generation.
func WithRand(rng *rand.Rand) Option {
	return func(s *Shop) { s.rng = rng }
}

func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *Shop) { s.catalog = cat }
}

// WithPublisher streams every state change as an event.
func WithPublisher(p *events.Publisher) Option {
	return func(s *Shop) { s.publisher = p }
}

// WithArchive files receipts and restock invoices.
func WithArchive(a *invoice.Archive) Option {
	return func(s *Shop) { s.archive = a }
}

func WithHashCost(cost int) Option {
	return func(s *Shop) { s.hashCost = cost }
}

// New opens a shop with the configured stock and coupons.
func New(cfg *models.Config, accountRepo repositories.AccountRepository, loyaltyRepo repositories.LoyaltyRepository, opts ...Option) (*Shop, error) {
	s := &Shop{
		config: cfg,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	loc := cfg.Location()
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	s.catalog = s.catalog.WithLocation(loc)
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(cfg.Seed))
	}

	s.inventory = inventory.NewLedger(s.catalog, cfg.InitialInventory,
		inventory.WithClock(s.now),
		inventory.WithLogger(s.logger),
	)
	s.loyalty = loyalty.NewLedger(loyaltyRepo, s.now, s.logger)
	s.orders = orders.NewStore(s.rng, s.now)
	s.coupons = coupons.NewBook(loc)
	s.feedback = feedback.NewBox()

	accountOpts := []accounts.Option{accounts.WithClock(s.now), accounts.WithLogger(s.logger)}
	if s.hashCost > 0 {
		accountOpts = append(accountOpts, accounts.WithHashCost(s.hashCost))
	}
	s.accounts = accounts.NewService(accountRepo, accountOpts...)

	for _, c := range cfg.Coupons {
		if _, err := s.coupons.Create(c, s.now()); err != nil {
			return nil, fmt.Errorf("configured coupon %q: %w", c.Code, err)
		}
	}
	return s, nil
}

func (s *Shop) Catalog() *catalog.Catalog { return s.catalog }

func (s *Shop) Currency() string { return s.config.Currency }

// Offer is the promotion running right now.
func (s *Shop) Offer() models.DailyOffer {
	return s.catalog.OfferFor(s.now())
}

func (s *Shop) Signup(ctx context.Context, username, password string, role models.Role) (*models.Account, error) {
	return s.accounts.Signup(ctx, username, password, role)
}

func (s *Shop) Login(ctx context.Context, username, password string, role models.Role) (*models.Account, error) {
	return s.accounts.Login(ctx, username, password, role)
}

func (s *Shop) Accounts(ctx context.Context, role models.Role) ([]*models.Account, error) {
	return s.accounts.List(ctx, role)
}

type LoyaltySummary struct {
	Username string
	Balance  int
	// Worth is what the balance buys at checkout.
	Worth   string
	History []models.LoyaltyEntry
}

func (s *Shop) publish(eventType string, ev events.Event) {
	if err := s.publisher.Publish(s.now(), eventType, ev); err != nil {
		s.logger.Error("event not published", zap.String("event_type", eventType), zap.Error(err))
	}
}
