// Package reporting derives read-only summaries from sales, order rows and stock.
package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/inventory"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", fmt.Errorf("unknown report period %q (want daily, weekly or monthly)", s)
}

// Contains reports whether t falls in the period ending at now.
// Weekly is a rolling seven days; daily and monthly are calendar based.
func (p Period) Contains(t, now time.Time, loc *time.Location) bool {
	t, now = t.In(loc), now.In(loc)
	switch p {
	case PeriodDaily:
		y1, m1, d1 := t.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case PeriodWeekly:
		return !t.Before(now.AddDate(0, 0, -7)) && !t.After(now)
	case PeriodMonthly:
		return t.Year() == now.Year() && t.Month() == now.Month()
	}
	return false
}

type IngredientUsage struct {
	Resource    models.Resource
	Used        int
	Remaining   int
	PercentUsed decimal.Decimal
}

type SalesReport struct {
	Period        Period
	GeneratedAt   time.Time
	Orders        int
	Revenue       decimal.Decimal
	CoffeeSales   map[string]int
	BestSelling   string
	LeastPopular  string
	Ingredients   []IngredientUsage
	StockValue    decimal.Decimal
	RestockSpend  decimal.Decimal
	InventoryCost decimal.Decimal
	Profit        decimal.Decimal
}

type SalesInput struct {
	Period       Period
	Now          time.Time
	Location     *time.Location
	Catalog      *catalog.Catalog
	Sales        []models.Sale
	Orders       []models.PlacedOrder
	Stock        models.InventoryState
	StockValue   decimal.Decimal
	RestockSpend decimal.Decimal
}

// BuildSalesReport summarises the period. Revenue skips sales that came to
// nothing after discounts. Inventory cost is the value of stock on hand plus
// everything spent on restocking.
func BuildSalesReport(in SalesInput) SalesReport {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	r := SalesReport{
		Period:        in.Period,
		GeneratedAt:   in.Now,
		Revenue:       decimal.Zero,
		CoffeeSales:   make(map[string]int),
		StockValue:    in.StockValue,
		RestockSpend:  in.RestockSpend,
		InventoryCost: in.StockValue.Add(in.RestockSpend),
	}

	for _, s := range in.Sales {
		if !in.Period.Contains(s.Timestamp, in.Now, loc) || !s.FinalPrice.IsPositive() {
			continue
		}
		r.Orders++
		r.Revenue = r.Revenue.Add(s.FinalPrice)
	}

	var used models.InventoryState
	for _, o := range in.Orders {
		if !in.Period.Contains(o.Timestamp, in.Now, loc) {
			continue
		}
		r.CoffeeSales[o.CoffeeType] += o.Quantity
		req, err := inventory.Required(in.Catalog, models.LineItem{
			CoffeeType: o.CoffeeType,
			Size:       o.Size,
			AddOns:     o.AddOnList(),
			Quantity:   o.Quantity,
		})
		if err == nil {
			used = used.Add(req)
		}
	}
	r.BestSelling, r.LeastPopular = extremes(r.CoffeeSales)

	for _, res := range models.Resources {
		u, left := used.Level(res), in.Stock.Level(res)
		pct := decimal.Zero
		if left > 0 {
			pct = decimal.NewFromInt(int64(u * 100)).DivRound(decimal.NewFromInt(int64(u+left)), 2)
		}
		r.Ingredients = append(r.Ingredients, IngredientUsage{Resource: res, Used: u, Remaining: left, PercentUsed: pct})
	}

	r.Profit = r.Revenue.Sub(r.InventoryCost)
	return r
}

// extremes picks the most and least sold coffee, breaking ties alphabetically.
func extremes(sales map[string]int) (best, least string) {
	names := make([]string, 0, len(sales))
	for n := range sales {
		names = append(names, n)
	}
	sort.Strings(names)
	for i, n := range names {
		if i == 0 || sales[n] > sales[best] {
			best = n
		}
		if i == 0 || sales[n] < sales[least] {
			least = n
		}
	}
	return best, least
}

// Text renders the report for a terminal.
func (r SalesReport) Text(currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sales Report (%s) as of %s\n", r.Period, r.GeneratedAt.Format("2006-01-02 15:04"))
	if r.Orders == 0 && len(r.CoffeeSales) == 0 {
		fmt.Fprintln(&b, "No sales data available for the selected period.")
		return b.String()
	}
	fmt.Fprintf(&b, "Orders: %d\n", r.Orders)
	fmt.Fprintf(&b, "Total Revenue: %s%s\n", currency, r.Revenue.StringFixed(2))

	names := make([]string, 0, len(r.CoffeeSales))
	for n := range r.CoffeeSales {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(&b, "Coffee Sales by Type:")
	for _, n := range names {
		fmt.Fprintf(&b, "  %-18s %d\n", n, r.CoffeeSales[n])
	}
	fmt.Fprintf(&b, "Best-selling Coffee Type: %s\n", r.BestSelling)
	fmt.Fprintf(&b, "Least Popular Coffee Type: %s\n", r.LeastPopular)

	fmt.Fprintln(&b, "Ingredient Usage:")
	for _, u := range r.Ingredients {
		fmt.Fprintf(&b, "  %-13s %6d %-5s %6s%%\n", u.Resource, u.Used, u.Resource.Unit(), u.PercentUsed.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total Inventory Cost (Including Restocking): %s%s\n", currency, r.InventoryCost.StringFixed(2))
	fmt.Fprintf(&b, "Total Profit: %s%s\n", currency, r.Profit.StringFixed(2))
	return b.String()
}
