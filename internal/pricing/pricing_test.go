package pricing

import (
	"testing"
	"time"

	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	monday    = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	wednesday = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	saturday  = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	sunday    = time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
)

func newCatalog() *catalog.Catalog {
	return catalog.Default().WithLocation(time.UTC)
}

func TestQuote_MondayLatte(t *testing.T) {
	cat := newCatalog()
	cart := []models.LineItem{{CoffeeType: "Latte", Size: models.SizeMedium, Quantity: 1}}

	q, err := Quote(cat, cart, cat.OfferFor(monday), decimal.Zero, 0)
	require.NoError(t, err)

	assert.True(t, q.CartTotal.Equal(decimal.RequireFromString("6.075")), q.CartTotal.String())
	assert.Equal(t, "6.08", q.DisplayPrice().StringFixed(2))
	assert.Equal(t, 6, q.PointsEarned)
	assert.Equal(t, models.OfferPercentDiscount, q.Lines[0].Offer)
	assert.Equal(t, "0.675", q.Lines[0].Discount().String())
}

func TestQuote_WednesdayBOGO(t *testing.T) {
	cat := newCatalog()
	cart := []models.LineItem{{CoffeeType: "Americano", Size: models.SizeSmall, Quantity: 2}}

	q, err := Quote(cat, cart, cat.OfferFor(wednesday), decimal.Zero, 0)
	require.NoError(t, err)
	assert.Equal(t, "7.50", q.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "3.75", q.CartTotal.StringFixed(2))
}

func TestQuote_OffersApplyPerLine(t *testing.T) {
	cat := newCatalog()
	cart := []models.LineItem{
		{CoffeeType: "Latte", Size: models.SizeSmall, Quantity: 1, AddOns: []string{models.AddOnExtraMilk}},
		{CoffeeType: "Cappuccino", Size: models.SizeSmall, Quantity: 1},
	}

	q, err := Quote(cat, cart, cat.OfferFor(monday), decimal.Zero, 0)
	require.NoError(t, err)
	// (5.25 + 0.90) * 0.9 + 5.00
	assert.Equal(t, "10.535", q.CartTotal.String())
	assert.Equal(t, models.OfferNone, q.Lines[1].Offer)
}

func TestQuote_FinalPriceNeverNegative(t *testing.T) {
	cat := newCatalog()
	cart := []models.LineItem{{CoffeeType: "Americano", Size: models.SizeSmall, Quantity: 1}}

	q, err := Quote(cat, cart, cat.OfferFor(saturday), decimal.NewFromInt(3), 50)
	require.NoError(t, err)
	assert.True(t, q.FinalPrice.IsZero())
	assert.Equal(t, 0, q.PointsEarned)
	assert.Equal(t, "5", q.RedemptionValue.String())
}

func TestQuote_DoublePointsSunday(t *testing.T) {
	cat := newCatalog()
	cart := []models.LineItem{{CoffeeType: "Caramel Macchiato", Size: models.SizeLarge, Quantity: 1, AddOns: []string{models.AddOnExtraSugar}}}

	q, err := Quote(cat, cart, cat.OfferFor(sunday), decimal.Zero, 0)
	require.NoError(t, err)
	assert.Equal(t, "10.20", q.FinalPrice.StringFixed(2))
	assert.True(t, q.DoublePoints)
	assert.Equal(t, 20, q.PointsEarned)
}

func TestQuote_Rejections(t *testing.T) {
	cat := newCatalog()
	offer := cat.OfferFor(saturday)

	_, err := Quote(cat, []models.LineItem{{CoffeeType: "Latte", Size: models.SizeSmall, Quantity: 0}}, offer, decimal.Zero, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = Quote(cat, []models.LineItem{{CoffeeType: "Flat White", Size: models.SizeSmall, Quantity: 1}}, offer, decimal.Zero, 0)
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = Quote(cat, []models.LineItem{{CoffeeType: "Latte", Size: models.SizeSmall, Quantity: 1, AddOns: []string{"Syrup"}}}, offer, decimal.Zero, 0)
	assert.ErrorIs(t, err, ErrUnknownAddOn)

	_, err = Quote(cat, nil, offer, decimal.Zero, -1)
	assert.ErrorIs(t, err, ErrInvalidRedemption)
}

func TestRedemptionValue(t *testing.T) {
	assert.Equal(t, "0", RedemptionValue(9).String())
	assert.Equal(t, "1", RedemptionValue(10).String())
	assert.Equal(t, "4", RedemptionValue(49).String())
}
