package invoice

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrisdamba/brewpos/internal/cloudwriter"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func TestReceiptText(t *testing.T) {
	r := Receipt{
		Currency: "RM",
		Sale: models.Sale{
			OrderNumber:    4821,
			CustomerName:   "Amy",
			PaymentMethod:  models.PaymentCash,
			CouponCode:     "WELCOME",
			CouponDiscount: decimal.NewFromInt(1),
			FinalPrice:     decimal.RequireFromString("5.075"),
			PointsEarned:   5,
			Timestamp:      at,
		},
		Lines: []models.LineItem{
			{CoffeeType: "Latte", Size: models.SizeMedium, Quantity: 1, Price: decimal.RequireFromString("6.075")},
		},
	}

	text := r.Text()
	assert.Contains(t, text, "Order Number: 4821\n")
	assert.Contains(t, text, "Customer Name: Amy\n")
	assert.Contains(t, text, "Coffee Type: Latte\n")
	assert.Contains(t, text, "Size: Medium\n")
	assert.Contains(t, text, "Add-ons: None\n")
	assert.Contains(t, text, "Coupon WELCOME: -RM1.00\n")
	assert.Contains(t, text, "Total Price: RM5.08\n")
	assert.Contains(t, text, "Order Time: 2024-03-04 09:30:00\n")
	assert.Equal(t, "invoice_4821.txt", ReceiptName(4821))
}

func TestRestockText(t *testing.T) {
	text := RestockText([]models.RestockEntry{
		{Item: models.ResourceCoffeeBeans, Amount: 500, Cost: decimal.RequireFromString("6"), Timestamp: at},
		{Item: models.ResourceCups, Amount: 100, Cost: decimal.RequireFromString("2"), Timestamp: at},
	}, at, "RM")

	assert.Contains(t, text, "Coffee Shop Restock Invoice\n")
	assert.Contains(t, text, "| coffee_beans      | 500       | RM6.00      | 2024-03-04 09:30:00 |\n")
	assert.Contains(t, text, "Total Cost: RM8.00\n")
	assert.Equal(t, "restock_invoice_20240304_093000.txt", RestockName(at))
}

func TestArchiveStore(t *testing.T) {
	root := t.TempDir()
	a := NewArchive(cloudwriter.NewLocalWriterFactory(root), "", nil)

	p, err := a.Store(context.Background(), ReceiptName(4821), at, "receipt")
	require.NoError(t, err)
	assert.Equal(t, "2024/03/invoice_4821.txt", p)

	got, err := os.ReadFile(filepath.Join(root, "2024", "03", "invoice_4821.txt"))
	require.NoError(t, err)
	assert.Equal(t, "receipt", string(got))
}
