// Package payment simulates the card and cash checks made at the till.
package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/brewpos/internal/models"
)

var (
	ErrInvalidPaymentDetails = errors.New("invalid card details")
	ErrInvalidExpiryFormat   = errors.New("invalid expiry date format, expected MM/YY")
	ErrCardExpired           = errors.New("card has expired")
	ErrUnknownMethod         = errors.New("unknown payment method")
)

type Details struct {
	Method         string `json:"method"`
	CardNumber     string `json:"-"`
	CardholderName string `json:"cardholder_name,omitempty"`
	Expiry         string `json:"-"` // MM/YY
	CVV            string `json:"-"`
}

func (d Details) IsCard() bool {
	return d.Method == models.PaymentCreditCard || d.Method == models.PaymentDebitCard
}

// Validate accepts cash outright. Cards need a parseable expiry that is not
// before the current month, a 16 digit number and a 3 digit CVV.
func Validate(d Details, now time.Time) error {
	switch {
	case d.Method == models.PaymentCash:
		return nil
	case !d.IsCard():
		return fmt.Errorf("%w: %q", ErrUnknownMethod, d.Method)
	}

	month, year, err := parseExpiry(d.Expiry)
	if err != nil {
		return err
	}
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return fmt.Errorf("%w: %s", ErrCardExpired, d.Expiry)
	}
	if !digits(d.CardNumber, 16) || !digits(d.CVV, 3) {
		return ErrInvalidPaymentDetails
	}
	return nil
}

func parseExpiry(s string) (month, year int, err error) {
	mm, yy, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || len(yy) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidExpiryFormat, s)
	}
	month, err = strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidExpiryFormat, s)
	}
	y, err := strconv.Atoi(yy)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidExpiryFormat, s)
	}
	return month, 2000 + y, nil
}

func digits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
