package shop

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrisdamba/brewpos/internal/cloudwriter"
	"github.com/chrisdamba/brewpos/internal/coupons"
	"github.com/chrisdamba/brewpos/internal/events"
	"github.com/chrisdamba/brewpos/internal/inventory"
	"github.com/chrisdamba/brewpos/internal/invoice"
	"github.com/chrisdamba/brewpos/internal/loyalty"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/orders"
	"github.com/chrisdamba/brewpos/internal/payment"
	"github.com/chrisdamba/brewpos/internal/reporting"
	"github.com/chrisdamba/brewpos/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	monday    = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	wednesday = time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC)
	sunday    = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	cash      = payment.Details{Method: models.PaymentCash}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingSink struct {
	mu     sync.Mutex
	topics []string
	msgs   [][]byte
}

func (r *recordingSink) WriteMessage(topic string, msg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.msgs = append(r.msgs, msg)
	return nil
}

func testConfig() *models.Config {
	return &models.Config{
		Seed:             7,
		Timezone:         "UTC",
		Currency:         "RM",
		InitialInventory: models.InventoryState{CoffeeBeans: 1000, Milk: 1000, Sugar: 1000, Cups: 100},
		LowStock:         models.InventoryState{CoffeeBeans: 200, Milk: 200, Sugar: 200, Cups: 20},
	}
}

type fixture struct {
	shop  *Shop
	clock *clock
	sink  *recordingSink
	repo  *memory.Store
}

func newFixture(t *testing.T, at time.Time, cfg *models.Config, opts ...Option) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	f := &fixture{clock: &clock{t: at}, sink: &recordingSink{}, repo: memory.NewStore()}
	opts = append([]Option{
		WithClock(f.clock.now),
		WithRand(rand.New(rand.NewSource(1))),
		WithPublisher(events.NewPublisher(f.sink, nil)),
		WithHashCost(bcrypt.MinCost),
	}, opts...)
	s, err := New(cfg, f.repo, f.repo, opts...)
	require.NoError(t, err)
	f.shop = s
	return f
}

func (f *fixture) enroll(t *testing.T, username string, points int) {
	t.Helper()
	ctx := context.Background()
	_, err := f.shop.Signup(ctx, username, "secret", models.RoleCustomer)
	require.NoError(t, err)
	if points > 0 {
		_, err = f.shop.loyalty.Award(ctx, username, points)
		require.NoError(t, err)
	}
}

func latte(size models.Size, qty int, addOns ...string) models.LineItem {
	return models.LineItem{CoffeeType: "Latte", Size: size, Quantity: qty, AddOns: addOns}
}

func TestPlaceOrder_MondayLatte(t *testing.T) {
	f := newFixture(t, monday, nil)
	f.enroll(t, "aina", 0)

	res, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{
		Username: "aina",
		Cart:     []models.LineItem{latte(models.SizeMedium, 1)},
		Payment:  cash,
	})
	require.NoError(t, err)

	assert.True(t, dec("6.075").Equal(res.Quote.CartTotal))
	assert.True(t, dec("6.08").Equal(res.Sale.FinalPrice))
	assert.Equal(t, 6, res.Sale.PointsEarned)
	assert.Equal(t, 6, res.LoyaltyBalance)
	assert.Nil(t, res.CouponErr)
	assert.GreaterOrEqual(t, res.OrderNumber, 1000)
	assert.LessOrEqual(t, res.OrderNumber, 9999)
	assert.Equal(t, 3*time.Minute, res.EstimatedWait)
	assert.Contains(t, res.Receipt, "Total Price: RM6.08")
	assert.Contains(t, res.Receipt, "Customer Name: aina")

	assert.Equal(t, models.InventoryState{CoffeeBeans: 988, Milk: 850, Sugar: 995, Cups: 99}, f.shop.Inventory())

	status, err := f.shop.OrderStatus(res.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusBeingProcessed, status)
	require.Len(t, res.Rows, 1)
	assert.True(t, dec("6.075").Equal(res.Rows[0].Price))

	require.Equal(t, []string{events.TopicOrderPlaced, events.TopicLoyalty}, f.sink.topics)
	var placed events.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(f.sink.msgs[0], &placed))
	assert.Equal(t, int32(res.OrderNumber), placed.OrderNumber)
	assert.Equal(t, 6.08, placed.FinalPrice)
	assert.Equal(t, "1x medium Latte", placed.Items)
	assert.Equal(t, monday.Unix(), placed.Timestamp)
}

func TestPlaceOrder_InsufficientStockLeavesStateUntouched(t *testing.T) {
	cfg := testConfig()
	cfg.InitialInventory.Milk = 150
	f := newFixture(t, monday, cfg)
	f.enroll(t, "aina", 50)

	_, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{
		Username:     "aina",
		Cart:         []models.LineItem{latte(models.SizeLarge, 1, models.AddOnExtraMilk)},
		Payment:      cash,
		RedeemPoints: 20,
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	var shortage *inventory.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, models.ResourceMilk, shortage.Resource)

	assert.Equal(t, cfg.InitialInventory, f.shop.Inventory())
	summary, err := f.shop.LoyaltySummary(context.Background(), "aina")
	require.NoError(t, err)
	assert.Equal(t, 50, summary.Balance)
	assert.Len(t, summary.History, 1)
	assert.Empty(t, f.shop.Sales())
	assert.Empty(t, f.shop.ActiveOrders())
	assert.Empty(t, f.sink.topics)
}

func TestPlaceOrder_CartIsCheckedAsAWhole(t *testing.T) {
	cfg := testConfig()
	cfg.InitialInventory.Cups = 2
	f := newFixture(t, monday, cfg)

	_, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{
		Cart:    []models.LineItem{latte(models.SizeSmall, 2), latte(models.SizeSmall, 1)},
		Payment: cash,
	})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 2, f.shop.Inventory().Cups)
}

func TestPlaceOrder_Coupons(t *testing.T) {
	f := newFixture(t, wednesday, nil)
	_, err := f.shop.CreateCoupon(models.Coupon{Code: "FIVE", DiscountAmount: dec("5"), ExpirationDate: wednesday})
	require.NoError(t, err)
	_, err = f.shop.CreateCoupon(models.Coupon{Code: "FIVE", DiscountAmount: dec("1"), ExpirationDate: sunday})
	require.ErrorIs(t, err, coupons.ErrDuplicateCoupon)

	americanos := []models.LineItem{{CoffeeType: "Americano", Size: models.SizeSmall, Quantity: 2}}

	t.Run("unknown code is reported and ignored", func(t *testing.T) {
		res, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{Cart: americanos, Payment: cash, CouponCode: "NOPE"})
		require.NoError(t, err)
		assert.ErrorIs(t, res.CouponErr, coupons.ErrInvalidCoupon)
		assert.True(t, dec("3.75").Equal(res.Sale.FinalPrice))
		assert.Empty(t, res.Sale.CouponCode)
	})

	t.Run("discount floors the price at zero", func(t *testing.T) {
		res, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{Cart: americanos, Payment: cash, CouponCode: "FIVE"})
		require.NoError(t, err)
		assert.Nil(t, res.CouponErr)
		assert.True(t, res.Sale.FinalPrice.IsZero())
		assert.Equal(t, 0, res.Sale.PointsEarned)
		assert.Equal(t, "FIVE", res.Sale.CouponCode)
	})

	t.Run("expired after its date", func(t *testing.T) {
		f.clock.advance(24 * time.Hour)
		res, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{Cart: americanos, Payment: cash, CouponCode: "FIVE"})
		require.NoError(t, err)
		assert.ErrorIs(t, res.CouponErr, coupons.ErrInvalidCoupon)
	})
}

func TestPlaceOrder_Redemption(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday, nil)
	f.enroll(t, "aina", 35)

	_, err := f.shop.PlaceOrder(ctx, PlaceOrderRequest{
		Username: "aina", Cart: []models.LineItem{latte(models.SizeMedium, 1)}, Payment: cash, RedeemPoints: 40,
	})
	require.ErrorIs(t, err, loyalty.ErrInsufficientPoints)

	_, err = f.shop.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerName: "walk-in", Cart: []models.LineItem{latte(models.SizeMedium, 1)}, Payment: cash, RedeemPoints: 10,
	})
	require.ErrorIs(t, err, loyalty.ErrInsufficientPoints)
	assert.Equal(t, 100, f.shop.Inventory().Cups)

	res, err := f.shop.PlaceOrder(ctx, PlaceOrderRequest{
		Username: "aina", Cart: []models.LineItem{latte(models.SizeMedium, 1)}, Payment: cash, RedeemPoints: 35,
	})
	require.NoError(t, err)
	// 35 points buy 3.00 off 6.075
	assert.True(t, dec("3").Equal(res.Sale.PointsValue))
	assert.True(t, dec("3.08").Equal(res.Sale.FinalPrice))
	assert.Equal(t, 3, res.Sale.PointsEarned)
	assert.Equal(t, 3, res.LoyaltyBalance)

	summary, err := f.shop.LoyaltySummary(ctx, "aina")
	require.NoError(t, err)
	sum := 0
	for _, e := range summary.History {
		sum += e.Delta
	}
	assert.Equal(t, summary.Balance, sum)
	assert.Equal(t, models.LoyaltyEarnedDescription, summary.History[0].Description)
	assert.Equal(t, models.LoyaltyRedeemedDescription, summary.History[1].Description)
	assert.Equal(t, "RM0.00", summary.Worth)
}

func TestPlaceOrder_DoublePointsSunday(t *testing.T) {
	f := newFixture(t, sunday, nil)
	f.enroll(t, "aina", 0)
	res, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{
		Username: "aina", Cart: []models.LineItem{latte(models.SizeLarge, 1)}, Payment: cash,
	})
	require.NoError(t, err)
	assert.Equal(t, 16, res.Sale.PointsEarned)
}

func TestPlaceOrder_Rejections(t *testing.T) {
	f := newFixture(t, monday, nil)
	ctx := context.Background()

	_, err := f.shop.PlaceOrder(ctx, PlaceOrderRequest{Payment: cash})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.shop.PlaceOrder(ctx, PlaceOrderRequest{
		Cart:    []models.LineItem{latte(models.SizeSmall, 1)},
		Payment: payment.Details{Method: models.PaymentCreditCard, CardNumber: "1234", CVV: "123", Expiry: "12/30"},
	})
	assert.ErrorIs(t, err, payment.ErrInvalidPaymentDetails)

	_, err = f.shop.PlaceOrder(ctx, PlaceOrderRequest{
		Cart:    []models.LineItem{latte(models.SizeSmall, 1)},
		Payment: payment.Details{Method: models.PaymentDebitCard, CardNumber: "1234567812345678", CVV: "123", Expiry: "1230"},
	})
	assert.ErrorIs(t, err, payment.ErrInvalidExpiryFormat)

	res, err := f.shop.PlaceOrder(ctx, PlaceOrderRequest{
		Cart:    []models.LineItem{latte(models.SizeSmall, 1)},
		Payment: payment.Details{Method: models.PaymentDebitCard, CardNumber: "1234567812345678", CVV: "123", Expiry: "04/24"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentDebitCard, res.Sale.PaymentMethod)
	assert.Len(t, f.shop.Sales(), 1)
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t, monday, nil)
	res, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName: "Ben",
		Cart:         []models.LineItem{latte(models.SizeSmall, 1), latte(models.SizeLarge, 2, models.AddOnExtraSugar)},
		Payment:      cash,
	})
	require.NoError(t, err)
	n := res.OrderNumber

	kitchen := f.shop.Kitchen()
	require.Len(t, kitchen, 1)
	assert.Equal(t, n, kitchen[0].OrderNumber)
	assert.Equal(t, 2*time.Minute+5*time.Minute+30*time.Second, kitchen[0].PrepTime)

	require.ErrorIs(t, f.shop.CompleteOrder(n), orders.ErrInvalidTransition)

	f.clock.advance(5 * time.Minute)
	require.NoError(t, f.shop.AdvanceOrder(n))
	require.ErrorIs(t, f.shop.AdvanceOrder(n), orders.ErrInvalidTransition)
	assert.Len(t, f.shop.ReadyForPickup(), 2)
	assert.Empty(t, f.shop.Kitchen())

	f.clock.advance(2 * time.Minute)
	require.NoError(t, f.shop.CompleteOrder(n))
	assert.Empty(t, f.shop.ActiveOrders())
	history := f.shop.OrderHistory()
	require.Len(t, history, 2)
	assert.Equal(t, models.OrderStatusPickedUp, history[0].Status)

	require.ErrorIs(t, f.shop.AdvanceOrder(1), orders.ErrOrderNotFound)

	assert.Equal(t, []string{events.TopicOrderPlaced, events.TopicOrderReady, events.TopicOrderPickup}, f.sink.topics)
	var pickup events.OrderPickupEvent
	require.NoError(t, json.Unmarshal(f.sink.msgs[2], &pickup))
	assert.Equal(t, monday.Unix(), pickup.PlacedAt)
	assert.Equal(t, monday.Add(7*time.Minute).Unix(), pickup.PickupTime)
}

func TestRestockAndInvoice(t *testing.T) {
	dir := t.TempDir()
	archive := invoice.NewArchive(cloudwriter.NewLocalWriterFactory(dir), "invoices", nil)
	f := newFixture(t, monday, nil, WithArchive(archive))

	res, err := f.shop.Restock(models.ResourceCoffeeBeans, 500)
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(res.Entry.Cost))
	assert.Equal(t, 1500, res.Level)

	_, err = f.shop.Restock(models.ResourceMilk, 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidAmount)

	text, path, err := f.shop.RestockInvoice(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "Total Cost: RM6.00")
	assert.Equal(t, "2024/03/restock_invoice_20240304_093000.txt", path)
	stored, err := os.ReadFile(filepath.Join(dir, "invoices", filepath.FromSlash(path)))
	require.NoError(t, err)
	assert.Equal(t, text, string(stored))

	order, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{Cart: []models.LineItem{latte(models.SizeSmall, 1)}, Payment: cash})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "invoices", filepath.FromSlash(order.ReceiptPath)))

	require.Equal(t, events.TopicRestock, f.sink.topics[0])
	var ev events.RestockEvent
	require.NoError(t, json.Unmarshal(f.sink.msgs[0], &ev))
	assert.Equal(t, int32(1500), ev.Level)
}

func TestFeedbackAndDashboard(t *testing.T) {
	cfg := testConfig()
	cfg.InitialInventory.Cups = 21
	f := newFixture(t, monday, cfg)

	_, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{Cart: []models.LineItem{latte(models.SizeMedium, 2)}, Payment: cash})
	require.NoError(t, err)

	require.NoError(t, f.shop.SubmitFeedback(models.FeedbackEntry{Name: "Ben", CoffeePurchased: "Latte", CoffeeRating: 5, ServiceRating: 4}))
	require.Error(t, f.shop.SubmitFeedback(models.FeedbackEntry{Name: "Ben", CoffeeRating: 6, ServiceRating: 4}))
	require.Len(t, f.shop.Feedback(), 1)
	assert.Equal(t, monday, f.shop.Feedback()[0].Timestamp)

	d := f.shop.Dashboard()
	assert.Equal(t, 1, d.Metrics.TotalOrders)
	assert.True(t, dec("12.15").Equal(d.Metrics.TotalRevenue))
	assert.Equal(t, 2, d.Metrics.PopularItems["Latte"])
	assert.Equal(t, 1, d.ActiveOrders)
	assert.Equal(t, 1, d.Feedback)
	assert.True(t, dec("5").Equal(d.AvgCoffeeRating))
	require.Len(t, d.LowStock, 1)
	assert.Equal(t, models.ResourceCups, d.LowStock[0].Resource)
	// milk limits it: 700ml at 80ml a cup
	assert.Equal(t, 8, d.EstimatedCups)

	report := f.shop.SalesReport(reporting.PeriodDaily)
	assert.Equal(t, 1, report.Orders)
	assert.Equal(t, 2, report.CoffeeSales["Latte"])
	assert.Equal(t, "Latte", report.BestSelling)
}

func TestPlaceOrder_ConcurrentCheckoutNeverOversells(t *testing.T) {
	cfg := testConfig()
	cfg.InitialInventory.Cups = 10
	f := newFixture(t, monday, cfg)

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.shop.PlaceOrder(context.Background(), PlaceOrderRequest{Cart: []models.LineItem{latte(models.SizeSmall, 1)}, Payment: cash})
			if err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, placed)
	assert.Equal(t, 0, f.shop.Inventory().Cups)
	assert.Len(t, f.shop.Sales(), 10)

	seen := make(map[int]bool)
	for _, s := range f.shop.Sales() {
		assert.False(t, seen[s.OrderNumber])
		seen[s.OrderNumber] = true
	}
}

func TestNew_SeedsConfiguredCoupons(t *testing.T) {
	cfg := testConfig()
	cfg.Coupons = []models.Coupon{{Code: "WELCOME", DiscountAmount: dec("2"), ExpirationDate: sunday}}
	f := newFixture(t, monday, cfg)
	require.Len(t, f.shop.Coupons(), 1)

	q, err := f.shop.Quote([]models.LineItem{latte(models.SizeMedium, 1)}, "WELCOME", 0)
	require.NoError(t, err)
	assert.True(t, dec("4.075").Equal(q.FinalPrice))

	_, err = f.shop.Quote([]models.LineItem{latte(models.SizeMedium, 1)}, "BOGUS", 0)
	assert.ErrorIs(t, err, coupons.ErrInvalidCoupon)
}
