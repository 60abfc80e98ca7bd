// Package invoice renders order receipts and restock invoices as plain text
// and archives them.
package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/brewpos/internal/cloudwriter"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	banner     = "=========================="
	rule       = "-------------------------------------------------"
)

type Receipt struct {
	Sale     models.Sale
	Lines    []models.LineItem
	Currency string
}

// Text renders the receipt handed to the customer.
func (r Receipt) Text() string {
	var b strings.Builder
	fmt.Fprintln(&b, banner)
	fmt.Fprintln(&b, "   Coffee Shop Invoice")
	fmt.Fprintln(&b, banner)
	fmt.Fprintf(&b, "Order Number: %d\n", r.Sale.OrderNumber)
	fmt.Fprintf(&b, "Customer Name: %s\n", r.Sale.CustomerName)
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "Coffee Type: %s\n", l.CoffeeType)
		fmt.Fprintf(&b, "Size: %s\n", capitalize(string(l.Size)))
		fmt.Fprintf(&b, "Quantity: %d\n", l.Quantity)
		fmt.Fprintf(&b, "Add-ons: %s\n", addOns(l.AddOns))
		fmt.Fprintf(&b, "Line Price: %s\n", r.money(l.Price))
	}
	if r.Sale.CouponCode != "" && r.Sale.CouponDiscount.IsPositive() {
		fmt.Fprintf(&b, "Coupon %s: -%s\n", r.Sale.CouponCode, r.money(r.Sale.CouponDiscount))
	}
	if r.Sale.PointsRedeemed > 0 {
		fmt.Fprintf(&b, "Points Redeemed: %d (-%s)\n", r.Sale.PointsRedeemed, r.money(r.Sale.PointsValue))
	}
	fmt.Fprintf(&b, "Total Price: %s\n", r.money(r.Sale.FinalPrice))
	fmt.Fprintf(&b, "Payment: %s\n", r.Sale.PaymentMethod)
	if r.Sale.PointsEarned > 0 {
		fmt.Fprintf(&b, "Points Earned: %d\n", r.Sale.PointsEarned)
	}
	fmt.Fprintf(&b, "Order Time: %s\n", r.Sale.Timestamp.Format(timeLayout))
	fmt.Fprintln(&b, banner)
	fmt.Fprintln(&b, "Thank you for your purchase!")
	return b.String()
}

func (r Receipt) money(d decimal.Decimal) string {
	return r.Currency + d.StringFixed(2)
}

// ReceiptName is the archive object name for an order's receipt.
func ReceiptName(orderNumber int) string {
	return fmt.Sprintf("invoice_%d.txt", orderNumber)
}

// RestockText renders every delivery in entries as one invoice.
func RestockText(entries []models.RestockEntry, issuedAt time.Time, currency string) string {
	var b strings.Builder
	fmt.Fprintln(&b, "Coffee Shop Restock Invoice")
	fmt.Fprintf(&b, "Date: %s\n", issuedAt.Format(timeLayout))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "| %-17s | %-9s | %-11s | %-19s |\n", "Item", "Amount", "Cost ("+currency+")", "Time")
	fmt.Fprintln(&b, rule)
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Cost)
		fmt.Fprintf(&b, "| %-17s | %-9d | %-11s | %-19s |\n",
			e.Item, e.Amount, currency+e.Cost.StringFixed(2), e.Timestamp.Format(timeLayout))
	}
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total Cost: %s%s\n", currency, total.StringFixed(2))
	return b.String()
}

func RestockName(issuedAt time.Time) string {
	return fmt.Sprintf("restock_invoice_%s.txt", issuedAt.Format("20060102_150405"))
}

// Archive stores rendered documents through a cloudwriter factory, which
// is either a local directory or an S3 bucket.
type Archive struct {
	factory cloudwriter.CloudWriterFactory
	bucket  string
	logger  *zap.Logger
}

func NewArchive(factory cloudwriter.CloudWriterFactory, bucket string, logger *zap.Logger) *Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{factory: factory, bucket: bucket, logger: logger}
}

// Store writes text under name, filed in a year/month folder.
func (a *Archive) Store(ctx context.Context, name string, at time.Time, text string) (string, error) {
	objectPath := fmt.Sprintf("%04d/%02d/%s", at.Year(), at.Month(), name)
	w, err := a.factory.NewWriter(ctx, a.bucket, objectPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", objectPath, err)
	}
	if _, err := w.Write([]byte(text)); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", objectPath, err)
	}
	a.logger.Debug("document archived", zap.String("path", objectPath))
	return objectPath, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func addOns(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}
