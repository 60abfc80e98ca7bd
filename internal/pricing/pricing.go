// Package pricing turns a cart into money: per-line offers, then coupon and
// loyalty redemption against the cart total.
package pricing

import (
	"errors"
	"fmt"

	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownItem       = catalog.ErrUnknownItem
	ErrUnknownAddOn      = catalog.ErrUnknownAddOn
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidRedemption = errors.New("redeemed points must not be negative")
)

// PointsPerCurrencyUnit is how many loyalty points buy one unit of currency.
const PointsPerCurrencyUnit = 10

type LineQuote struct {
	Item      models.LineItem
	UnitPrice decimal.Decimal // base price plus add-ons, before offers
	Subtotal  decimal.Decimal // unit price times quantity
	Total     decimal.Decimal
	Offer     models.OfferKind // offer that changed this line, or none
}

// Discount is what the daily offer took off this line.
func (q LineQuote) Discount() decimal.Decimal {
	return q.Subtotal.Sub(q.Total)
}

type CartQuote struct {
	Lines           []LineQuote
	Offer           models.DailyOffer
	CartTotal       decimal.Decimal
	CouponDiscount  decimal.Decimal
	RedeemedPoints  int
	RedemptionValue decimal.Decimal
	// FinalPrice is unrounded; points are earned on it.
	FinalPrice   decimal.Decimal
	PointsEarned int
	DoublePoints bool
}

// DisplayPrice is the final price rounded to cents.
func (q CartQuote) DisplayPrice() decimal.Decimal {
	return q.FinalPrice.Round(2)
}

// PriceLineItem prices one cart line under the day's offer. Add-ons listed
// more than once are charged once.
func PriceLineItem(cat *catalog.Catalog, item models.LineItem, offer models.DailyOffer) (LineQuote, error) {
	if item.Quantity < 1 {
		return LineQuote{}, fmt.Errorf("%w: %s x%d", ErrInvalidQuantity, item.CoffeeType, item.Quantity)
	}
	unit, err := cat.Price(item.CoffeeType, item.Size)
	if err != nil {
		return LineQuote{}, err
	}
	seen := make(map[string]bool, len(item.AddOns))
	for _, name := range item.AddOns {
		if seen[name] {
			continue
		}
		seen[name] = true
		p, err := cat.AddOnPrice(name)
		if err != nil {
			return LineQuote{}, err
		}
		unit = unit.Add(p)
	}

	q := LineQuote{
		Item:      item,
		UnitPrice: unit,
		Subtotal:  unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		Offer:     models.OfferNone,
	}
	q.Total = q.Subtotal

	switch {
	case offer.Kind == models.OfferBOGO && offer.AppliesToCoffee(item.CoffeeType):
		q.Total = q.Subtotal.Div(decimal.NewFromInt(2))
		q.Offer = models.OfferBOGO
	case offer.Kind == models.OfferPercentDiscount && offer.AppliesToCoffee(item.CoffeeType):
		q.Total = q.Subtotal.Mul(decimal.NewFromInt(1).Sub(offer.Percent))
		q.Offer = models.OfferPercentDiscount
	}
	q.Item.Price = q.Total
	return q, nil
}

// Quote prices a whole cart. The coupon discount and the redeemed points are
// flat subtractions from the cart total and the result never goes below zero.
// Whether the customer owns the points is the loyalty ledger's call.
func Quote(cat *catalog.Catalog, cart []models.LineItem, offer models.DailyOffer, couponDiscount decimal.Decimal, redeemPoints int) (CartQuote, error) {
	if redeemPoints < 0 {
		return CartQuote{}, fmt.Errorf("%w: %d", ErrInvalidRedemption, redeemPoints)
	}
	if couponDiscount.IsNegative() {
		couponDiscount = decimal.Zero
	}

	q := CartQuote{
		Offer:           offer,
		CartTotal:       decimal.Zero,
		CouponDiscount:  couponDiscount,
		RedeemedPoints:  redeemPoints,
		RedemptionValue: RedemptionValue(redeemPoints),
		DoublePoints:    offer.Kind == models.OfferDoublePoints,
	}
	for i, item := range cart {
		lq, err := PriceLineItem(cat, item, offer)
		if err != nil {
			return CartQuote{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		q.Lines = append(q.Lines, lq)
		q.CartTotal = q.CartTotal.Add(lq.Total)
	}

	q.FinalPrice = decimal.Max(decimal.Zero, q.CartTotal.Sub(q.CouponDiscount).Sub(q.RedemptionValue))
	q.PointsEarned = PointsEarned(q.FinalPrice, offer)
	return q, nil
}

// RedemptionValue is floor(points / 10) currency units.
func RedemptionValue(points int) decimal.Decimal {
	if points <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(points / PointsPerCurrencyUnit))
}

// PointsEarned awards one point per whole currency unit paid, doubled on a
// double points day.
func PointsEarned(finalPrice decimal.Decimal, offer models.DailyOffer) int {
	if !finalPrice.IsPositive() {
		return 0
	}
	points := int(finalPrice.Floor().IntPart())
	if offer.Kind == models.OfferDoublePoints {
		points *= 2
	}
	return points
}
