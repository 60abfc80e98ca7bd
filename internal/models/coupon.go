package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Coupon struct {
	Code           string          `json:"code" mapstructure:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount" mapstructure:"discount"`
	ExpirationDate time.Time       `json:"expiration_date" mapstructure:"expires"`
}
