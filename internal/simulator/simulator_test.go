package simulator

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/repositories/memory"
	"github.com/chrisdamba/brewpos/internal/shop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *models.Config {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return &models.Config{
		Seed:             99,
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, 3),
		Timezone:         "UTC",
		Currency:         "RM",
		InitialCustomers: 20,
		OrdersPerDay:     15,
		OpeningHour:      7,
		ClosingHour:      19,
		FeedbackRate:     0.5,
		CardPaymentRate:  0.5,
		InitialInventory: models.InventoryState{CoffeeBeans: 5000, Milk: 10000, Sugar: 2000, Cups: 30},
		LowStock:         models.InventoryState{CoffeeBeans: 200, Milk: 200, Sugar: 200, Cups: 20},
		AutoRestock:      true,
		RestockAmount:    models.InventoryState{CoffeeBeans: 1000, Milk: 2000, Sugar: 500, Cups: 200},
		Coupons: []models.Coupon{
			{Code: "SPRING", DiscountAmount: decimal.NewFromInt(2), ExpirationDate: start.AddDate(0, 0, 1)},
		},
	}
}

func TestRun_TradesEveryOrderThrough(t *testing.T) {
	cfg := testConfig()
	sim := NewSimulator(cfg, WithProgressWriter(io.Discard))
	repo := memory.NewStore()
	sh, err := shop.New(cfg, repo, repo, shop.WithClock(sim.Now), shop.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)

	report, err := sim.Run(context.Background(), sh)
	require.NoError(t, err)

	assert.Equal(t, 20, sim.Stats.Customers)
	assert.Positive(t, sim.Stats.OrdersPlaced)
	assert.Equal(t, sim.Stats.OrdersPlaced, sim.Stats.PickedUp)
	assert.Len(t, sh.Sales(), sim.Stats.OrdersPlaced)
	assert.Empty(t, sh.ActiveOrders())
	assert.Zero(t, sim.EventQueue.Len())
	assert.Len(t, sh.Feedback(), sim.Stats.Feedback)
	assert.Positive(t, sim.Stats.Restocks)
	assert.NotEmpty(t, sh.RestockHistory())

	for _, s := range sh.Sales() {
		assert.False(t, s.FinalPrice.IsNegative())
		assert.False(t, s.Timestamp.Before(cfg.StartDate))
	}
	for _, r := range []models.Resource{models.ResourceCoffeeBeans, models.ResourceMilk, models.ResourceSugar, models.ResourceCups} {
		assert.GreaterOrEqual(t, sh.Inventory().Level(r), 0)
	}
	assert.NotEmpty(t, report.BestSelling)
}

func TestRun_Cancelled(t *testing.T) {
	cfg := testConfig()
	sim := NewSimulator(cfg)
	repo := memory.NewStore()
	sh, err := shop.New(cfg, repo, repo, shop.WithClock(sim.Now), shop.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Run(ctx, sh)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrderTime_WithinOpeningHours(t *testing.T) {
	sim := NewSimulator(testConfig())
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	morning := 0
	for i := 0; i < 2000; i++ {
		ts := sim.orderTime(day)
		require.GreaterOrEqual(t, ts.Hour(), 7)
		require.Less(t, ts.Hour(), 19)
		if ts.Hour() >= 7 && ts.Hour() <= 10 {
			morning++
		}
	}
	// four of twelve hours carry the rush weights
	assert.Greater(t, morning, 2000/3)
}

func TestRating_Clamped(t *testing.T) {
	sim := NewSimulator(testConfig())
	for i := 0; i < 500; i++ {
		r := sim.rating(4.2)
		require.GreaterOrEqual(t, r, 1)
		require.LessOrEqual(t, r, 5)
	}
	assert.Equal(t, 2.8, serviceMean(25*time.Minute))
}
