package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one cart selection. Price is filled in by the pricing engine.
type LineItem struct {
	CoffeeType string          `json:"coffee_type"`
	Size       Size            `json:"size"`
	AddOns     []string        `json:"add_ons"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

type PlacedOrder struct {
	ID           string          `json:"id"`
	OrderNumber  int             `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	CoffeeType   string          `json:"coffee_type"`
	Quantity     int             `json:"quantity"`
	Size         Size            `json:"size"`
	AddOns       string          `json:"add_ons"` // comma separated, as printed on the ticket
	Price        decimal.Decimal `json:"price"`
	Timestamp    time.Time       `json:"timestamp"`
	Status       string          `json:"status"`
	PickedUpAt   time.Time       `json:"picked_up_at,omitempty"`
}

// AddOnList splits the serialized add-ons back into names.
func (o PlacedOrder) AddOnList() []string {
	if o.AddOns == "" {
		return nil
	}
	return strings.Split(o.AddOns, ", ")
}

// Sale is the checkout-level record of what a customer actually paid for one order number.
type Sale struct {
	TransactionID  string          `json:"transaction_id"`
	OrderNumber    int             `json:"order_number"`
	CustomerName   string          `json:"customer_name"`
	PaymentMethod  string          `json:"payment_method"`
	CartTotal      decimal.Decimal `json:"cart_total"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	PointsRedeemed int             `json:"points_redeemed"`
	PointsValue    decimal.Decimal `json:"points_value"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	PointsEarned   int             `json:"points_earned"`
	Timestamp      time.Time       `json:"timestamp"`
}

type OrderMetrics struct {
	TotalOrders   int
	TotalRevenue  decimal.Decimal
	AvgOrderValue decimal.Decimal
	PeakHours     map[int]int    // Hour -> Order Count
	PopularItems  map[string]int // CoffeeType -> Cups
}
