package reporting

import (
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
)

type LowStockAlert struct {
	Resource models.Resource
	Level    int
	Unit     string
}

type Dashboard struct {
	Metrics          models.OrderMetrics
	Inventory        models.InventoryState
	EstimatedCups    int
	LowStock         []LowStockAlert
	ActiveOrders     int
	ReadyForPickup   int
	Feedback         int
	AvgCoffeeRating  decimal.Decimal
	AvgServiceRating decimal.Decimal
}

// BuildMetrics aggregates checkouts by hour and order rows by coffee.
func BuildMetrics(sales []models.Sale, rows []models.PlacedOrder) models.OrderMetrics {
	m := models.OrderMetrics{
		TotalRevenue:  decimal.Zero,
		AvgOrderValue: decimal.Zero,
		PeakHours:     make(map[int]int),
		PopularItems:  make(map[string]int),
	}
	for _, s := range sales {
		m.TotalOrders++
		m.TotalRevenue = m.TotalRevenue.Add(s.FinalPrice)
		m.PeakHours[s.Timestamp.Hour()]++
	}
	for _, r := range rows {
		m.PopularItems[r.CoffeeType] += r.Quantity
	}
	if m.TotalOrders > 0 {
		m.AvgOrderValue = m.TotalRevenue.DivRound(decimal.NewFromInt(int64(m.TotalOrders)), 2)
	}
	return m
}

// PeakHour returns the busiest hour of day, or -1 with no sales.
func PeakHour(m models.OrderMetrics) int {
	best, count := -1, 0
	for h := 0; h < 24; h++ {
		if m.PeakHours[h] > count {
			best, count = h, m.PeakHours[h]
		}
	}
	return best
}

func LowStockAlerts(stock models.InventoryState, low []models.Resource) []LowStockAlert {
	alerts := make([]LowStockAlert, 0, len(low))
	for _, r := range low {
		alerts = append(alerts, LowStockAlert{Resource: r, Level: stock.Level(r), Unit: r.Unit()})
	}
	return alerts
}
