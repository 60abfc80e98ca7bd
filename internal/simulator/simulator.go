// Package simulator drives a shop through a range of trading days with
// synthetic customers, so the event stream and reports have realistic data.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/chrisdamba/brewpos/internal/accounts"
	"github.com/chrisdamba/brewpos/internal/factories"
	"github.com/chrisdamba/brewpos/internal/inventory"
	"github.com/chrisdamba/brewpos/internal/loyalty"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/orders"
	"github.com/chrisdamba/brewpos/internal/reporting"
	"github.com/chrisdamba/brewpos/internal/shop"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Stats counts what happened during a run.
type Stats struct {
	Customers    int
	OrdersPlaced int
	Rejected     int
	CouponErrors int
	PickedUp     int
	Restocks     int
	Feedback     int
}

type Simulator struct {
	Config      *models.Config
	Customers   []factories.Customer
	CurrentTime time.Time
	Rng         *rand.Rand
	EventQueue  *models.EventQueue
	Stats       Stats

	customerFactory *factories.CustomerFactory
	cartFactory     *factories.CartFactory
	feedbackFactory *factories.FeedbackFactory
	progressOut     io.Writer
	logger          *zap.Logger
}

type pendingOrder struct {
	number   int
	customer factories.Customer
	coffee   string
	wait     time.Duration
}

type Option func(*Simulator)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgressWriter draws a progress bar, one step per trading day, on w.
func WithProgressWriter(w io.Writer) Option {
	return func(s *Simulator) { s.progressOut = w }
}

func NewSimulator(config *models.Config, opts ...Option) *Simulator {
	sim := &Simulator{
		Config:      config,
		CurrentTime: config.StartDate,
		Rng:         rand.New(rand.NewSource(config.Seed)),
		EventQueue:  models.NewEventQueue(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(sim)
	}
	return sim
}

// Now is the simulated clock. Pass it to the shop so every record carries
// simulated time.
func (s *Simulator) Now() time.Time {
	return s.CurrentTime
}

func (s *Simulator) initializeData(ctx context.Context, sh *shop.Shop) error {
	cat := sh.Catalog()
	s.customerFactory = factories.NewCustomerFactory(s.Rng, cat)
	s.cartFactory = factories.NewCartFactory(s.Rng, cat)
	s.feedbackFactory = factories.NewFeedbackFactory(s.Rng)

	s.Customers = s.customerFactory.CreateCustomers(s.Config.InitialCustomers, s.Config.CardPaymentRate)
	for _, c := range s.Customers {
		if !c.Loyal {
			continue
		}
		// a durable store keeps accounts from earlier runs
		_, err := sh.Signup(ctx, c.Username, c.Password, models.RoleCustomer)
		if err != nil && !errors.Is(err, accounts.ErrDuplicateUsername) {
			return fmt.Errorf("failed to sign up %s: %w", c.Username, err)
		}
	}
	s.Stats.Customers = len(s.Customers)
	return nil
}

// Run trades every day from the start date up to the end date, then drains
// the queue so every order placed is also collected.
func (s *Simulator) Run(ctx context.Context, sh *shop.Shop) (reporting.SalesReport, error) {
	if len(s.Customers) == 0 {
		if err := s.initializeData(ctx, sh); err != nil {
			return reporting.SalesReport{}, err
		}
	}
	if len(s.Customers) == 0 {
		return reporting.SalesReport{}, errors.New("no customers to simulate")
	}

	loc := s.Config.Location()
	start := startOfDay(s.Config.StartDate.In(loc))
	end := s.Config.EndDate.In(loc)
	days := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		s.scheduleDay(d)
		days++
	}

	out := s.progressOut
	if out == nil {
		out = io.Discard
	}
	bar := progressbar.NewOptions(days,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("simulating"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	s.logger.Info("simulation starting",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("days", days),
		zap.Int("customers", len(s.Customers)),
	)

	for event := s.EventQueue.Dequeue(); event != nil; event = s.EventQueue.Dequeue() {
		if err := ctx.Err(); err != nil {
			return reporting.SalesReport{}, err
		}
		s.CurrentTime = event.Time
		if err := s.processEvent(ctx, sh, event); err != nil {
			return reporting.SalesReport{}, err
		}
		if event.Type == models.EventCloseDay {
			_ = bar.Add(1)
		}
	}
	_ = bar.Finish()

	s.logger.Info("simulation completed",
		zap.Int("orders", s.Stats.OrdersPlaced),
		zap.Int("rejected", s.Stats.Rejected),
		zap.Int("restocks", s.Stats.Restocks),
		zap.Int("feedback", s.Stats.Feedback),
		zap.Int("peak_hour", reporting.PeakHour(sh.Dashboard().Metrics)),
	)
	return sh.SalesReport(reporting.PeriodMonthly), nil
}

func (s *Simulator) scheduleDay(day time.Time) {
	n := s.ordersForDay(day)
	for i := 0; i < n; i++ {
		c := s.Customers[s.Rng.Intn(len(s.Customers))]
		s.EventQueue.Enqueue(&models.Event{Time: s.orderTime(day), Type: models.EventPlaceOrder, Data: c})
	}
	s.EventQueue.Enqueue(&models.Event{
		Time: day.Add(time.Duration(s.Config.ClosingHour) * time.Hour),
		Type: models.EventCloseDay,
		Data: day,
	})
}

func (s *Simulator) processEvent(ctx context.Context, sh *shop.Shop, event *models.Event) error {
	switch event.Type {
	case models.EventPlaceOrder:
		return s.handlePlaceOrder(ctx, sh, event.Data.(factories.Customer))
	case models.EventOrderReady:
		return s.handleOrderReady(sh, event.Data.(pendingOrder))
	case models.EventPickUpOrder:
		return s.handlePickUp(sh, event.Data.(pendingOrder))
	case models.EventSubmitFeedback:
		return s.handleFeedback(sh, event.Data.(pendingOrder))
	case models.EventCheckStock:
		return s.handleCheckStock(sh)
	case models.EventCloseDay:
		s.handleCloseDay(sh, event.Data.(time.Time))
	}
	return nil
}

func (s *Simulator) handlePlaceOrder(ctx context.Context, sh *shop.Shop, c factories.Customer) error {
	req := shop.PlaceOrderRequest{
		CustomerName: c.Name,
		Cart:         s.cartFactory.CreateCart(c),
		Payment:      s.cartFactory.CreatePayment(c, s.CurrentTime),
	}
	if c.Loyal {
		req.Username = c.Username
		req.RedeemPoints = s.pointsToRedeem(ctx, sh, c)
	}
	if coupons := sh.Coupons(); len(coupons) > 0 && s.Rng.Float64() < 0.1 {
		req.CouponCode = coupons[s.Rng.Intn(len(coupons))].Code
	}

	res, err := sh.PlaceOrder(ctx, req)
	switch {
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, loyalty.ErrInsufficientPoints),
		errors.Is(err, orders.ErrOrderNumbersExhausted):
		s.Stats.Rejected++
		s.logger.Debug("order rejected", zap.String("customer", c.Name), zap.Error(err))
		s.EventQueue.Enqueue(&models.Event{Time: s.CurrentTime, Type: models.EventCheckStock})
		return nil
	case err != nil:
		return fmt.Errorf("order for %s failed: %w", c.Name, err)
	}

	s.Stats.OrdersPlaced++
	if res.CouponErr != nil {
		s.Stats.CouponErrors++
	}
	p := pendingOrder{number: res.OrderNumber, customer: c, coffee: res.Rows[0].CoffeeType, wait: res.EstimatedWait}
	s.EventQueue.Enqueue(&models.Event{Time: s.CurrentTime.Add(res.EstimatedWait), Type: models.EventOrderReady, Data: p})
	s.EventQueue.Enqueue(&models.Event{Time: s.CurrentTime, Type: models.EventCheckStock})
	return nil
}

// pointsToRedeem spends whole tens of points some of the time.
func (s *Simulator) pointsToRedeem(ctx context.Context, sh *shop.Shop, c factories.Customer) int {
	if s.Rng.Float64() >= c.RedeemPercent {
		return 0
	}
	summary, err := sh.LoyaltySummary(ctx, c.Username)
	if err != nil {
		return 0
	}
	return summary.Balance / 10 * 10
}

func (s *Simulator) handleOrderReady(sh *shop.Shop, p pendingOrder) error {
	if err := sh.AdvanceOrder(p.number); err != nil {
		return err
	}
	pickupDelay := time.Duration(1+s.Rng.Intn(10)) * time.Minute
	s.EventQueue.Enqueue(&models.Event{Time: s.CurrentTime.Add(pickupDelay), Type: models.EventPickUpOrder, Data: p})
	return nil
}

func (s *Simulator) handlePickUp(sh *shop.Shop, p pendingOrder) error {
	if err := sh.CompleteOrder(p.number); err != nil {
		return err
	}
	s.Stats.PickedUp++
	if s.Rng.Float64() < s.Config.FeedbackRate {
		delay := time.Duration(5+s.Rng.Intn(25)) * time.Minute
		s.EventQueue.Enqueue(&models.Event{Time: s.CurrentTime.Add(delay), Type: models.EventSubmitFeedback, Data: p})
	}
	return nil
}

func (s *Simulator) handleFeedback(sh *shop.Shop, p pendingOrder) error {
	entry := s.feedbackFactory.CreateFeedback(p.customer, p.coffee, s.rating(4.2), s.rating(serviceMean(p.wait)), s.CurrentTime)
	if err := sh.SubmitFeedback(entry); err != nil {
		return err
	}
	s.Stats.Feedback++
	return nil
}

// handleCheckStock restocks whatever has fallen below its alert level.
func (s *Simulator) handleCheckStock(sh *shop.Shop) error {
	if !s.Config.AutoRestock {
		return nil
	}
	for _, alert := range sh.LowStock() {
		amount := s.Config.RestockAmount.Level(alert.Resource)
		if amount <= 0 {
			continue
		}
		if _, err := sh.Restock(alert.Resource, amount); err != nil {
			return err
		}
		s.Stats.Restocks++
	}
	return nil
}

func (s *Simulator) handleCloseDay(sh *shop.Shop, day time.Time) {
	report := sh.SalesReport(reporting.PeriodDaily)
	s.logger.Info("day closed",
		zap.String("day", day.Format(time.DateOnly)),
		zap.Int("orders", report.Orders),
		zap.String("revenue", report.Revenue.StringFixed(2)),
		zap.String("best_selling", report.BestSelling),
	)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
