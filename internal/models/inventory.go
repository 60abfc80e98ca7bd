package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Resource string

type InventoryState struct {
	CoffeeBeans int `json:"coffee_beans" mapstructure:"coffee_beans"`
	Milk        int `json:"milk" mapstructure:"milk"`
	Sugar       int `json:"sugar" mapstructure:"sugar"`
	Cups        int `json:"cups" mapstructure:"cups"`
}

// Level returns the counter for r, or zero for an unknown resource.
func (s InventoryState) Level(r Resource) int {
	switch r {
	case ResourceCoffeeBeans:
		return s.CoffeeBeans
	case ResourceMilk:
		return s.Milk
	case ResourceSugar:
		return s.Sugar
	case ResourceCups:
		return s.Cups
	}
	return 0
}

// Add returns a copy of s with every counter of other added to it.
func (s InventoryState) Add(other InventoryState) InventoryState {
	return InventoryState{
		CoffeeBeans: s.CoffeeBeans + other.CoffeeBeans,
		Milk:        s.Milk + other.Milk,
		Sugar:       s.Sugar + other.Sugar,
		Cups:        s.Cups + other.Cups,
	}
}

type RestockEntry struct {
	Item      Resource        `json:"item"`
	Amount    int             `json:"amount"`
	Cost      decimal.Decimal `json:"cost"`
	Timestamp time.Time       `json:"timestamp"`
}

// Unit is the display unit of a stock counter.
func (r Resource) Unit() string {
	switch r {
	case ResourceCoffeeBeans, ResourceSugar:
		return "g"
	case ResourceMilk:
		return "ml"
	default:
		return "units"
	}
}
