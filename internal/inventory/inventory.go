// Package inventory keeps the shop's stock counters and its restock log.
package inventory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidAmount     = errors.New("restock amount must be positive")
	ErrUnknownResource   = errors.New("unknown resource")
)

// InsufficientStockError names the first counter that could not cover a request.
type InsufficientStockError struct {
	Resource  models.Resource
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient %s: need %d%s, have %d%s",
		e.Resource, e.Required, e.Resource.Unit(), e.Available, e.Resource.Unit())
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Per-cup averages used to estimate how many drinks the stock still covers.
const (
	avgBeansPerCup = 12
	avgMilkPerCup  = 80
	avgSugarPerCup = 5
)

type Ledger struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	state    models.InventoryState
	restocks []models.RestockEntry
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLedger(cat *catalog.Catalog, initial models.InventoryState, opts ...Option) *Ledger {
	l := &Ledger{
		catalog: cat,
		state:   initial,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Required computes the stock one cart line consumes: the size's ingredient
// usage per cup, the add-on extras per cup, and one cup each.
func Required(cat *catalog.Catalog, item models.LineItem) (models.InventoryState, error) {
	usage, err := cat.Usage(item.CoffeeType, item.Size)
	if err != nil {
		return models.InventoryState{}, err
	}
	perCup := models.InventoryState{
		CoffeeBeans: usage.CoffeeBeans,
		Milk:        usage.Milk,
		Sugar:       usage.Sugar,
		Cups:        1,
	}
	seen := make(map[string]bool, len(item.AddOns))
	for _, name := range item.AddOns {
		if seen[name] {
			continue
		}
		seen[name] = true
		a, err := cat.AddOn(name)
		if err != nil {
			return models.InventoryState{}, err
		}
		switch a.ExtraResource {
		case models.ResourceMilk:
			perCup.Milk += a.ExtraAmount
		case models.ResourceSugar:
			perCup.Sugar += a.ExtraAmount
		case models.ResourceCoffeeBeans:
			perCup.CoffeeBeans += a.ExtraAmount
		}
	}
	q := item.Quantity
	return models.InventoryState{
		CoffeeBeans: perCup.CoffeeBeans * q,
		Milk:        perCup.Milk * q,
		Sugar:       perCup.Sugar * q,
		Cups:        perCup.Cups * q,
	}, nil
}

func (l *Ledger) requiredAll(items []models.LineItem) (models.InventoryState, error) {
	var total models.InventoryState
	for _, item := range items {
		if item.Quantity < 1 {
			return models.InventoryState{}, fmt.Errorf("invalid quantity %d for %s", item.Quantity, item.CoffeeType)
		}
		req, err := Required(l.catalog, item)
		if err != nil {
			return models.InventoryState{}, err
		}
		total = total.Add(req)
	}
	return total, nil
}

// covers reports the first resource, in beans, milk, sugar, cups order, that
// the current stock cannot cover.
func (l *Ledger) covers(req models.InventoryState) error {
	for _, r := range models.Resources {
		if have, need := l.state.Level(r), req.Level(r); have < need {
			return &InsufficientStockError{Resource: r, Required: need, Available: have}
		}
	}
	return nil
}

// Check reports whether one line can be made from current stock.
func (l *Ledger) Check(item models.LineItem) error {
	return l.CheckAll([]models.LineItem{item})
}

// CheckAll checks the cart's combined requirement, so two lines that each fit
// alone but not together are rejected.
func (l *Ledger) CheckAll(items []models.LineItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	req, err := l.requiredAll(items)
	if err != nil {
		return err
	}
	return l.covers(req)
}

func (l *Ledger) Commit(item models.LineItem) error {
	return l.CommitAll([]models.LineItem{item})
}

// CommitAll deducts the cart's requirement. It re-checks under the lock and
// deducts nothing if any counter would go negative.
func (l *Ledger) CommitAll(items []models.LineItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	req, err := l.requiredAll(items)
	if err != nil {
		return err
	}
	if err := l.covers(req); err != nil {
		return err
	}
	l.state = models.InventoryState{
		CoffeeBeans: l.state.CoffeeBeans - req.CoffeeBeans,
		Milk:        l.state.Milk - req.Milk,
		Sugar:       l.state.Sugar - req.Sugar,
		Cups:        l.state.Cups - req.Cups,
	}
	l.logger.Debug("inventory committed",
		zap.Int("coffee_beans", l.state.CoffeeBeans),
		zap.Int("milk", l.state.Milk),
		zap.Int("sugar", l.state.Sugar),
		zap.Int("cups", l.state.Cups),
	)
	return nil
}

// RestockCost prices a delivery: per 100 units for ingredients, per piece for cups.
func RestockCost(cat *catalog.Catalog, r models.Resource, amount int) (decimal.Decimal, error) {
	price, ok := cat.RestockPrice(r)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownResource, r)
	}
	qty := decimal.NewFromInt(int64(amount))
	if r == models.ResourceCups {
		return qty.Mul(price), nil
	}
	return qty.Div(decimal.NewFromInt(100)).Mul(price), nil
}

func (l *Ledger) Restock(r models.Resource, amount int) (models.RestockEntry, error) {
	if amount <= 0 {
		return models.RestockEntry{}, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	cost, err := RestockCost(l.catalog, r, amount)
	if err != nil {
		return models.RestockEntry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	switch r {
	case models.ResourceCoffeeBeans:
		l.state.CoffeeBeans += amount
	case models.ResourceMilk:
		l.state.Milk += amount
	case models.ResourceSugar:
		l.state.Sugar += amount
	case models.ResourceCups:
		l.state.Cups += amount
	}
	entry := models.RestockEntry{Item: r, Amount: amount, Cost: cost, Timestamp: l.now()}
	l.restocks = append(l.restocks, entry)
	l.logger.Info("restocked",
		zap.String("resource", string(r)),
		zap.Int("amount", amount),
		zap.String("cost", cost.StringFixed(2)),
	)
	return entry, nil
}

func (l *Ledger) Snapshot() models.InventoryState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Ledger) RestockHistory() []models.RestockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.RestockEntry(nil), l.restocks...)
}

// RestockSpend sums the cost of every delivery so far.
func (l *Ledger) RestockSpend() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.RestockHistory() {
		total = total.Add(e.Cost)
	}
	return total
}

// StockValue prices the stock on hand at restock prices.
func (l *Ledger) StockValue() decimal.Decimal {
	state := l.Snapshot()
	total := decimal.Zero
	for _, r := range models.Resources {
		cost, err := RestockCost(l.catalog, r, state.Level(r))
		if err != nil {
			continue
		}
		total = total.Add(cost)
	}
	return total
}

// LowStock lists the counters that have fallen below their threshold.
func (l *Ledger) LowStock(thresholds models.InventoryState) []models.Resource {
	state := l.Snapshot()
	var low []models.Resource
	for _, r := range models.Resources {
		if state.Level(r) < thresholds.Level(r) {
			low = append(low, r)
		}
	}
	return low
}

// EstimatedCups is how many average drinks the stock still covers.
func (l *Ledger) EstimatedCups() int {
	s := l.Snapshot()
	return min(s.CoffeeBeans/avgBeansPerCup, s.Milk/avgMilkPerCup, s.Sugar/avgSugarPerCup, s.Cups)
}
