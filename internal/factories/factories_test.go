package factories

import (
	"math/rand"
	"testing"
	"time"

	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/payment"
	"github.com/chrisdamba/brewpos/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCustomers_UniqueUsernames(t *testing.T) {
	cf := NewCustomerFactory(rand.New(rand.NewSource(3)), catalog.Default())
	customers := cf.CreateCustomers(200, 0.5)

	seen := make(map[string]bool)
	for _, c := range customers {
		require.NotEmpty(t, c.Username)
		assert.False(t, seen[c.Username], c.Username)
		seen[c.Username] = true
		assert.NotEmpty(t, c.Password)
		assert.Contains(t, catalog.Default().CoffeeTypes(), c.Favourite)
	}
}

func TestCreateCart_PricesAndPays(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	cat := catalog.Default()
	cf := NewCustomerFactory(rng, cat)
	carts := NewCartFactory(rng, cat)
	at := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		c := cf.CreateCustomer(0.5)
		cart := carts.CreateCart(c)
		require.NotEmpty(t, cart)
		cups := 0
		for _, l := range cart {
			cups += l.Quantity
		}
		assert.LessOrEqual(t, cups, c.MaxCups)

		_, err := pricing.Quote(cat, cart, cat.OfferFor(at), pricing.RedemptionValue(0), 0)
		require.NoError(t, err)
		assert.NoError(t, payment.Validate(carts.CreatePayment(c, at), at))
	}
}

func TestCreateFeedback(t *testing.T) {
	ff := NewFeedbackFactory(rand.New(rand.NewSource(5)))
	at := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	entry := ff.CreateFeedback(Customer{Name: "Aina Rahman"}, "Latte", 5, 4, at)
	assert.Equal(t, "Aina Rahman", entry.Name)
	assert.Equal(t, "Latte", entry.CoffeePurchased)
	assert.Equal(t, at, entry.Timestamp)
	assert.NotEmpty(t, entry.Comment)
}
