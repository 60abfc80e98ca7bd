package factories

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/jaswdr/faker"
)

type Segment struct {
	Name string
	// Ratio is the share of customers in the segment.
	Ratio float64
	// Loyal customers have an account and collect points.
	Loyal         bool
	RedeemPercent float64
	MaxCups       int
}

var DefaultSegments = []Segment{
	{Name: "regular", Ratio: 0.45, Loyal: true, RedeemPercent: 0.3, MaxCups: 2},
	{Name: "office", Ratio: 0.2, Loyal: true, RedeemPercent: 0.1, MaxCups: 4},
	{Name: "walk-in", Ratio: 0.35, Loyal: false, MaxCups: 2},
}

// Customer is a simulated shopper and the habits the simulator orders with.
type Customer struct {
	Username      string
	Password      string
	Name          string
	Segment       string
	Loyal         bool
	RedeemPercent float64
	MaxCups       int
	Favourite     string
	PreferredSize models.Size
	SweetTooth    bool
	ExtraMilk     bool
	CardPayer     bool
}

type CustomerFactory struct {
	fake faker.Faker
	rng  *rand.Rand
	cat  *catalog.Catalog
	seen map[string]bool
}

func NewCustomerFactory(rng *rand.Rand, cat *catalog.Catalog) *CustomerFactory {
	return &CustomerFactory{
		fake: faker.NewWithSeed(rand.NewSource(rng.Int63())),
		rng:  rng,
		cat:  cat,
		seen: make(map[string]bool),
	}
}

func (cf *CustomerFactory) assignSegment() Segment {
	r := cf.rng.Float64()
	acc := 0.0
	for _, s := range DefaultSegments {
		acc += s.Ratio
		if r < acc {
			return s
		}
	}
	return DefaultSegments[len(DefaultSegments)-1]
}

// CreateCustomer draws a shopper. Usernames are unique per factory.
func (cf *CustomerFactory) CreateCustomer(cardPaymentRate float64) Customer {
	segment := cf.assignSegment()
	person := cf.fake.Person()
	first, last := person.FirstName(), person.LastName()

	username := cf.username(first, last)
	coffees := cf.cat.CoffeeTypes()
	return Customer{
		Username:      username,
		Password:      cf.fake.Internet().Password(),
		Name:          first + " " + last,
		Segment:       segment.Name,
		Loyal:         segment.Loyal,
		RedeemPercent: segment.RedeemPercent,
		MaxCups:       segment.MaxCups,
		Favourite:     coffees[cf.rng.Intn(len(coffees))],
		PreferredSize: models.Sizes[cf.rng.Intn(len(models.Sizes))],
		SweetTooth:    cf.rng.Float64() < 0.25,
		ExtraMilk:     cf.rng.Float64() < 0.2,
		CardPayer:     cf.rng.Float64() < cardPaymentRate,
	}
}

func (cf *CustomerFactory) username(first, last string) string {
	base := strings.ToLower(first + "." + last)
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r == '.' {
			return r
		}
		return -1
	}, base)
	name := base
	for i := 2; cf.seen[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	cf.seen[name] = true
	return name
}

// CreateCustomers draws n shoppers.
func (cf *CustomerFactory) CreateCustomers(n int, cardPaymentRate float64) []Customer {
	out := make([]Customer, n)
	for i := range out {
		out[i] = cf.CreateCustomer(cardPaymentRate)
	}
	return out
}
