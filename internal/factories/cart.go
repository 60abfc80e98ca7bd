package factories

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/payment"
	"github.com/jaswdr/faker"
)

type CartFactory struct {
	fake faker.Faker
	rng  *rand.Rand
	cat  *catalog.Catalog
}

func NewCartFactory(rng *rand.Rand, cat *catalog.Catalog) *CartFactory {
	return &CartFactory{
		fake: faker.NewWithSeed(rand.NewSource(rng.Int63())),
		rng:  rng,
		cat:  cat,
	}
}

// CreateCart builds what the customer orders on one visit: mostly their
// favourite, sometimes something else, in one or two lines.
func (f *CartFactory) CreateCart(c Customer) []models.LineItem {
	lines := 1
	if c.MaxCups > 1 && f.rng.Float64() < 0.3 {
		lines = 2
	}
	coffees := f.cat.CoffeeTypes()

	remaining := c.MaxCups
	cart := make([]models.LineItem, 0, lines)
	for i := 0; i < lines; i++ {
		coffee := c.Favourite
		if i > 0 || f.rng.Float64() < 0.3 {
			coffee = coffees[f.rng.Intn(len(coffees))]
		}
		size := c.PreferredSize
		if f.rng.Float64() < 0.2 {
			size = models.Sizes[f.rng.Intn(len(models.Sizes))]
		}
		var addOns []string
		if c.SweetTooth {
			addOns = append(addOns, models.AddOnExtraSugar)
		}
		if c.ExtraMilk {
			addOns = append(addOns, models.AddOnExtraMilk)
		}
		qty := 1
		if room := remaining - (lines - i - 1); room > 1 {
			qty = 1 + f.rng.Intn(room)
		}
		remaining -= qty
		cart = append(cart, models.LineItem{CoffeeType: coffee, Size: size, AddOns: addOns, Quantity: qty})
	}
	return cart
}

// CreatePayment pays by card for card payers, with details that pass
// validation at the given time, and cash otherwise.
func (f *CartFactory) CreatePayment(c Customer, at time.Time) payment.Details {
	if !c.CardPayer {
		return payment.Details{Method: models.PaymentCash}
	}
	method := models.PaymentCreditCard
	if f.rng.Float64() < 0.4 {
		method = models.PaymentDebitCard
	}
	expiry := at.AddDate(1+f.rng.Intn(4), 0, 0)
	return payment.Details{
		Method:         method,
		CardNumber:     fmt.Sprintf("%016d", f.rng.Int63n(1e16)),
		CardholderName: c.Name,
		Expiry:         expiry.Format("01/06"),
		CVV:            fmt.Sprintf("%03d", f.rng.Intn(1000)),
	}
}
