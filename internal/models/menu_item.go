package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Size string

type OfferKind string

type MenuItem struct {
	CoffeeType string                   `json:"coffee_type"`
	Prices     map[Size]decimal.Decimal `json:"prices"`
}

type AddOn struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	// ExtraResource is the stock counter the add-on draws from, per cup.
	ExtraResource Resource `json:"extra_resource"`
	ExtraAmount   int      `json:"extra_amount"`
}

// IngredientUsage is the stock consumed by one cup of a coffee in a given size.
type IngredientUsage struct {
	CoffeeBeans int `json:"beans_g"`
	Milk        int `json:"milk_ml"`
	Sugar       int `json:"sugar_g"`
}

type DailyOffer struct {
	Day         time.Weekday    `json:"day"`
	Description string          `json:"description"`
	AppliesTo   string          `json:"applies_to"`
	Kind        OfferKind       `json:"kind"`
	Percent     decimal.Decimal `json:"percent,omitempty"`
}

// AppliesToCoffee reports whether the offer targets this coffee by name.
func (o DailyOffer) AppliesToCoffee(coffeeType string) bool {
	return o.AppliesTo == coffeeType
}
