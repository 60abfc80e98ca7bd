// Package coupons is the admin-managed book of flat discount codes.
package coupons

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCoupon   = errors.New("invalid coupon or coupon has expired")
	ErrDuplicateCoupon = errors.New("an active coupon already uses this code")
	ErrInvalidDiscount = errors.New("coupon needs a code and a positive discount")
)

type Book struct {
	mu      sync.RWMutex
	coupons []models.Coupon
	loc     *time.Location
}

func NewBook(loc *time.Location) *Book {
	if loc == nil {
		loc = time.Local
	}
	return &Book{loc: loc}
}

// Create adds a coupon. A code may be reused once every earlier coupon with
// that code has expired as of now.
func (b *Book) Create(c models.Coupon, now time.Time) (models.Coupon, error) {
	c.Code = strings.TrimSpace(c.Code)
	if c.Code == "" || !c.DiscountAmount.IsPositive() {
		return models.Coupon{}, ErrInvalidDiscount
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.coupons {
		if existing.Code == c.Code && b.activeOn(existing, now) {
			return models.Coupon{}, fmt.Errorf("%w: %s", ErrDuplicateCoupon, c.Code)
		}
	}
	b.coupons = append(b.coupons, c)
	return c, nil
}

// Resolve finds an active coupon for code on the given day.
func (b *Book) Resolve(code string, at time.Time) (models.Coupon, error) {
	code = strings.TrimSpace(code)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for i := len(b.coupons) - 1; i >= 0; i-- {
		c := b.coupons[i]
		if c.Code == code && b.activeOn(c, at) {
			return c, nil
		}
	}
	return models.Coupon{}, fmt.Errorf("%w: %q", ErrInvalidCoupon, code)
}

// Discount is Resolve reduced to the amount, zero when the code is not usable.
func (b *Book) Discount(code string, at time.Time) (decimal.Decimal, error) {
	c, err := b.Resolve(code, at)
	if err != nil {
		return decimal.Zero, err
	}
	return c.DiscountAmount, nil
}

func (b *Book) List() []models.Coupon {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Coupon(nil), b.coupons...)
}

// activeOn compares calendar days, so a coupon works through its expiry date.
func (b *Book) activeOn(c models.Coupon, at time.Time) bool {
	y1, m1, d1 := c.ExpirationDate.In(b.loc).Date()
	y2, m2, d2 := at.In(b.loc).Date()
	expires := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !expires.Before(today)
}
