package shop

import (
	"context"
	"time"

	"github.com/chrisdamba/brewpos/internal/events"
	"github.com/chrisdamba/brewpos/internal/invoice"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/pricing"
	"github.com/chrisdamba/brewpos/internal/reporting"
	"go.uber.org/zap"
)

type RestockResult struct {
	Entry models.RestockEntry
	Level int
}

func (s *Shop) Restock(item models.Resource, amount int) (RestockResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, err := s.inventory.Restock(item, amount)
	if err != nil {
		return RestockResult{}, err
	}
	level := s.inventory.Snapshot().Level(item)
	s.publish(events.TypeRestock, &events.RestockEvent{
		Item:   string(item),
		Amount: int32(amount),
		Cost:   entry.Cost.InexactFloat64(),
		Level:  int32(level),
	})
	return RestockResult{Entry: entry, Level: level}, nil
}

// RestockInvoice renders the whole restock history and archives it when an
// archive is configured.
func (s *Shop) RestockInvoice(ctx context.Context) (text, path string, err error) {
	now := s.now()
	text = invoice.RestockText(s.inventory.RestockHistory(), now, s.config.Currency)
	if s.archive == nil {
		return text, "", nil
	}
	path, err = s.archive.Store(ctx, invoice.RestockName(now), now, text)
	return text, path, err
}

func (s *Shop) Inventory() models.InventoryState {
	return s.inventory.Snapshot()
}

func (s *Shop) RestockHistory() []models.RestockEntry {
	return s.inventory.RestockHistory()
}

// LowStock lists resources under the configured alert levels.
func (s *Shop) LowStock() []reporting.LowStockAlert {
	return reporting.LowStockAlerts(s.inventory.Snapshot(), s.inventory.LowStock(s.config.LowStock))
}

// AdvanceOrder marks every row of an order Ready.
func (s *Shop) AdvanceOrder(orderNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.orders.Advance(orderNumber)
	if err != nil {
		return err
	}
	s.logger.Info("order ready", zap.Int("order_number", orderNumber))
	s.publish(events.TypeOrderReady, &events.OrderReadyEvent{
		OrderNumber: int32(orderNumber),
		Status:      models.OrderStatusReady,
		PlacedAt:    rows[0].Timestamp.Unix(),
	})
	return nil
}

// CompleteOrder hands a Ready order over to the customer.
func (s *Shop) CompleteOrder(orderNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.orders.Complete(orderNumber)
	if err != nil {
		return err
	}
	s.logger.Info("order picked up", zap.Int("order_number", orderNumber))
	s.publish(events.TypeOrderPickedUp, &events.OrderPickupEvent{
		OrderNumber: int32(orderNumber),
		Status:      models.OrderStatusPickedUp,
		PlacedAt:    rows[0].Timestamp.Unix(),
		PickupTime:  rows[0].PickedUpAt.Unix(),
	})
	return nil
}

func (s *Shop) OrderStatus(orderNumber int) (string, error) {
	return s.orders.Status(orderNumber)
}

func (s *Shop) ActiveOrders() []models.PlacedOrder { return s.orders.Active() }

func (s *Shop) ReadyForPickup() []models.PlacedOrder { return s.orders.ReadyForPickup() }

// OrderHistory includes picked up orders.
func (s *Shop) OrderHistory() []models.PlacedOrder { return s.orders.History() }

func (s *Shop) Kitchen() []reporting.KitchenTicket {
	return reporting.KitchenQueue(s.catalog, s.orders.Kitchen())
}

func (s *Shop) Sales() []models.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Sale(nil), s.sales...)
}

func (s *Shop) SubmitFeedback(entry models.FeedbackEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	if err := s.feedback.Submit(entry); err != nil {
		return err
	}
	s.publish(events.TypeFeedback, &events.FeedbackEvent{
		Name:            entry.Name,
		CoffeePurchased: entry.CoffeePurchased,
		CoffeeRating:    int32(entry.CoffeeRating),
		ServiceRating:   int32(entry.ServiceRating),
		Comment:         entry.Comment,
	})
	return nil
}

func (s *Shop) Feedback() []models.FeedbackEntry { return s.feedback.List() }

func (s *Shop) CreateCoupon(c models.Coupon) (models.Coupon, error) {
	created, err := s.coupons.Create(c, s.now())
	if err != nil {
		return models.Coupon{}, err
	}
	s.logger.Info("coupon created",
		zap.String("code", created.Code),
		zap.String("discount", created.DiscountAmount.StringFixed(2)),
		zap.Time("expires", created.ExpirationDate),
	)
	return created, nil
}

func (s *Shop) Coupons() []models.Coupon { return s.coupons.List() }

func (s *Shop) LoyaltySummary(ctx context.Context, username string) (LoyaltySummary, error) {
	bal, err := s.loyalty.Balance(ctx, username)
	if err != nil {
		return LoyaltySummary{}, err
	}
	history, err := s.loyalty.History(ctx, username)
	if err != nil {
		return LoyaltySummary{}, err
	}
	return LoyaltySummary{
		Username: username,
		Balance:  bal,
		Worth:    s.config.Currency + pricing.RedemptionValue(bal).StringFixed(2),
		History:  history,
	}, nil
}

func (s *Shop) SalesReport(period reporting.Period) reporting.SalesReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reporting.BuildSalesReport(reporting.SalesInput{
		Period:       period,
		Now:          s.now(),
		Location:     s.config.Location(),
		Catalog:      s.catalog,
		Sales:        s.sales,
		Orders:       s.orders.History(),
		Stock:        s.inventory.Snapshot(),
		StockValue:   s.inventory.StockValue(),
		RestockSpend: s.inventory.RestockSpend(),
	})
}

func (s *Shop) Dashboard() reporting.Dashboard {
	s.mu.Lock()
	sales := append([]models.Sale(nil), s.sales...)
	s.mu.Unlock()

	coffee, service := s.feedback.Averages()
	return reporting.Dashboard{
		Metrics:          reporting.BuildMetrics(sales, s.orders.History()),
		Inventory:        s.inventory.Snapshot(),
		EstimatedCups:    s.inventory.EstimatedCups(),
		LowStock:         s.LowStock(),
		ActiveOrders:     len(s.orders.Active()),
		ReadyForPickup:   len(s.orders.ReadyForPickup()),
		Feedback:         len(s.feedback.List()),
		AvgCoffeeRating:  coffee,
		AvgServiceRating: service,
	}
}

// Now is the shop clock, which the simulator advances.
func (s *Shop) Now() time.Time { return s.now() }
