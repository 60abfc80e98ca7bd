package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/brewpos/internal/events"
	"github.com/chrisdamba/brewpos/internal/invoice"
	"github.com/chrisdamba/brewpos/internal/loyalty"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/payment"
	"github.com/chrisdamba/brewpos/internal/pricing"
	"github.com/chrisdamba/brewpos/internal/reporting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PlaceOrderRequest struct {
	// Username is the loyalty account; empty for a guest.
	Username     string
	CustomerName string
	Cart         []models.LineItem
	Payment      payment.Details
	CouponCode   string
	RedeemPoints int
}

func (r PlaceOrderRequest) customer() string {
	if name := strings.TrimSpace(r.CustomerName); name != "" {
		return name
	}
	if r.Username != "" {
		return r.Username
	}
	return "Guest"
}

type OrderResult struct {
	OrderNumber   int
	Sale          models.Sale
	Quote         pricing.CartQuote
	Rows          []models.PlacedOrder
	Receipt       string
	ReceiptPath   string
	EstimatedWait time.Duration
	// LoyaltyBalance is the balance after the order, zero for guests.
	LoyaltyBalance int
	// CouponErr is set when the code given did not resolve; the order went
	// through without a coupon discount.
	CouponErr error
}

// Quote prices a cart as checkout would right now, without touching stock or points.
func (s *Shop) Quote(cart []models.LineItem, couponCode string, redeemPoints int) (pricing.CartQuote, error) {
	if len(cart) == 0 {
		return pricing.CartQuote{}, ErrEmptyCart
	}
	now := s.now()
	discount := decimal.Zero
	if strings.TrimSpace(couponCode) != "" {
		d, err := s.coupons.Discount(couponCode, now)
		if err != nil {
			return pricing.CartQuote{}, err
		}
		discount = d
	}
	return pricing.Quote(s.catalog, cart, s.catalog.OfferFor(now), discount, redeemPoints)
}

// EstimateWait is how long a new cart would wait behind the kitchen queue.
func (s *Shop) EstimateWait(cart []models.LineItem) time.Duration {
	return reporting.EstimateWait(s.catalog, s.orders.Active(), cart)
}

// PlaceOrder runs checkout as one critical section. Any failure before the
// stock is committed leaves stock, points and orders as they were; a bad
// coupon does not fail the order and is reported in OrderResult.CouponErr.
func (s *Shop) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResult, error) {
	if len(req.Cart) == 0 {
		return nil, ErrEmptyCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	customer := req.customer()
	logger := s.logger.With(zap.String("customer", customer))

	if err := payment.Validate(req.Payment, now); err != nil {
		logger.Info("payment rejected", zap.String("method", req.Payment.Method), zap.Error(err))
		return nil, err
	}

	result := &OrderResult{}
	couponDiscount := decimal.Zero
	couponCode := ""
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		c, err := s.coupons.Resolve(code, now)
		if err != nil {
			logger.Info("coupon rejected", zap.String("code", code), zap.Error(err))
			result.CouponErr = err
		} else {
			couponDiscount = c.DiscountAmount
			couponCode = c.Code
		}
	}

	offer := s.catalog.OfferFor(now)
	quote, err := pricing.Quote(s.catalog, req.Cart, offer, couponDiscount, req.RedeemPoints)
	if err != nil {
		return nil, err
	}
	items := make([]models.LineItem, len(quote.Lines))
	for i, l := range quote.Lines {
		items[i] = l.Item
	}

	enrolled := req.Username != "" && s.loyalty.Enrolled(ctx, req.Username)
	if req.RedeemPoints > 0 {
		if !enrolled {
			return nil, fmt.Errorf("%w: %s has no loyalty account", loyalty.ErrInsufficientPoints, customer)
		}
		bal, err := s.loyalty.Balance(ctx, req.Username)
		if err != nil {
			return nil, err
		}
		if bal < req.RedeemPoints {
			return nil, fmt.Errorf("%w: requested %d, balance %d", loyalty.ErrInsufficientPoints, req.RedeemPoints, bal)
		}
	}

	if err := s.inventory.CheckAll(items); err != nil {
		logger.Warn("order refused", zap.Error(err))
		return nil, err
	}

	orderNumber, err := s.orders.NextOrderNumber()
	if err != nil {
		return nil, err
	}
	wait := reporting.EstimateWait(s.catalog, s.orders.Active(), items)

	var loyaltyEvents []events.LoyaltyEvent
	var loyaltyTypes []string
	redeemed := 0
	if req.RedeemPoints > 0 {
		bal, err := s.loyalty.Redeem(ctx, req.Username, req.RedeemPoints)
		if err != nil {
			return nil, err
		}
		redeemed = req.RedeemPoints
		result.LoyaltyBalance = bal
		loyaltyTypes = append(loyaltyTypes, events.TypePointsRedeemed)
		loyaltyEvents = append(loyaltyEvents, events.LoyaltyEvent{
			Username:    req.Username,
			Points:      int32(-redeemed),
			Balance:     int32(bal),
			Description: models.LoyaltyRedeemedDescription,
		})
	}

	awarded := 0
	if enrolled && quote.PointsEarned > 0 {
		bal, err := s.loyalty.Award(ctx, req.Username, quote.PointsEarned)
		if err != nil {
			s.refund(ctx, req.Username, redeemed)
			return nil, err
		}
		awarded = quote.PointsEarned
		result.LoyaltyBalance = bal
		loyaltyTypes = append(loyaltyTypes, events.TypePointsEarned)
		loyaltyEvents = append(loyaltyEvents, events.LoyaltyEvent{
			Username:    req.Username,
			Points:      int32(awarded),
			Balance:     int32(bal),
			Description: models.LoyaltyEarnedDescription,
		})
	} else if enrolled && redeemed == 0 {
		result.LoyaltyBalance, _ = s.loyalty.Balance(ctx, req.Username)
	}

	if err := s.inventory.CommitAll(items); err != nil {
		logger.Error("stock commit failed after check", zap.Error(err))
		s.refund(ctx, req.Username, redeemed)
		s.clawBack(ctx, req.Username, awarded)
		return nil, err
	}

	rows, err := s.orders.Create(orderNumber, customer, items, now)
	if err != nil {
		// the number was drawn under this lock and is unused, so this is a bug
		logger.Error("order rows not stored", zap.Int("order_number", orderNumber), zap.Error(err))
		return nil, err
	}

	sale := models.Sale{
		TransactionID:  uuid.NewString(),
		OrderNumber:    orderNumber,
		CustomerName:   customer,
		PaymentMethod:  req.Payment.Method,
		CartTotal:      quote.CartTotal,
		CouponCode:     couponCode,
		CouponDiscount: quote.CouponDiscount,
		PointsRedeemed: redeemed,
		PointsValue:    quote.RedemptionValue,
		FinalPrice:     quote.DisplayPrice(),
		PointsEarned:   awarded,
		Timestamp:      now,
	}
	s.sales = append(s.sales, sale)

	result.OrderNumber = orderNumber
	result.Sale = sale
	result.Quote = quote
	result.Rows = rows
	result.EstimatedWait = wait
	result.Receipt = invoice.Receipt{Sale: sale, Lines: items, Currency: s.config.Currency}.Text()
	if s.archive != nil {
		path, err := s.archive.Store(ctx, invoice.ReceiptName(orderNumber), now, result.Receipt)
		if err != nil {
			logger.Error("receipt not archived", zap.Int("order_number", orderNumber), zap.Error(err))
		}
		result.ReceiptPath = path
	}

	logger.Info("order placed",
		zap.Int("order_number", orderNumber),
		zap.String("final_price", sale.FinalPrice.StringFixed(2)),
		zap.Int("points_earned", awarded),
		zap.Int("points_redeemed", redeemed),
	)

	s.publish(events.TypeOrderPlaced, &events.OrderPlacedEvent{
		OrderNumber:    int32(orderNumber),
		TransactionID:  sale.TransactionID,
		CustomerName:   customer,
		Items:          describeItems(items),
		Cups:           int32(cups(items)),
		PaymentMethod:  sale.PaymentMethod,
		DailyOffer:     offer.Description,
		CartTotal:      sale.CartTotal.InexactFloat64(),
		CouponCode:     couponCode,
		CouponDiscount: sale.CouponDiscount.InexactFloat64(),
		PointsRedeemed: int32(redeemed),
		FinalPrice:     sale.FinalPrice.InexactFloat64(),
		PointsEarned:   int32(awarded),
		Status:         models.OrderStatusBeingProcessed,
		EstimatedWait:  int64(wait / time.Second),
	})
	for i := range loyaltyEvents {
		s.publish(loyaltyTypes[i], &loyaltyEvents[i])
	}
	return result, nil
}

// refund gives back points redeemed by a checkout that then failed.
func (s *Shop) refund(ctx context.Context, username string, points int) {
	if points == 0 {
		return
	}
	bal, err := s.loyalty.Refund(ctx, username, points)
	if err != nil {
		s.logger.Error("redeemed points not refunded", zap.String("username", username), zap.Int("points", points), zap.Error(err))
		return
	}
	s.publish(events.TypePointsRefunded, &events.LoyaltyEvent{
		Username:    username,
		Points:      int32(points),
		Balance:     int32(bal),
		Description: models.LoyaltyRefundedDescription,
	})
}

func (s *Shop) clawBack(ctx context.Context, username string, points int) {
	if points == 0 {
		return
	}
	if _, err := s.loyalty.Redeem(ctx, username, points); err != nil && !errors.Is(err, loyalty.ErrInsufficientPoints) {
		s.logger.Error("awarded points not reversed", zap.String("username", username), zap.Int("points", points), zap.Error(err))
	}
}

func describeItems(items []models.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, l := range items {
		p := fmt.Sprintf("%dx %s %s", l.Quantity, l.Size, l.CoffeeType)
		if len(l.AddOns) > 0 {
			p += " (" + strings.Join(l.AddOns, ", ") + ")"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "; ")
}

func cups(items []models.LineItem) int {
	n := 0
	for _, l := range items {
		n += l.Quantity
	}
	return n
}
