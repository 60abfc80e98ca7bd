// Package catalog holds the shop's immutable tables: menu prices, add-ons,
// ingredient usage, daily offers, restock prices and preparation times.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownItem  = errors.New("unknown menu item")
	ErrUnknownAddOn = errors.New("unknown add-on")
)

type Catalog struct {
	menu          map[string]models.MenuItem
	order         []string
	addOns        map[string]models.AddOn
	usage         map[string]map[models.Size]models.IngredientUsage
	offers        map[time.Weekday]models.DailyOffer
	restockPrices map[models.Resource]decimal.Decimal
	prepTimes     map[models.Size]time.Duration
	addOnPrepTime time.Duration
	location      *time.Location
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Default returns the coffee shop's standing menu.
func Default() *Catalog {
	c := &Catalog{
		menu:          make(map[string]models.MenuItem),
		addOns:        make(map[string]models.AddOn),
		usage:         make(map[string]map[models.Size]models.IngredientUsage),
		offers:        make(map[time.Weekday]models.DailyOffer),
		addOnPrepTime: 30 * time.Second,
		location:      time.Local,
	}

	c.addCoffee("Americano", [3]string{"3.75", "5.00", "7.50"}, [3]models.IngredientUsage{
		{CoffeeBeans: 9, Milk: 10, Sugar: 5},
		{CoffeeBeans: 12, Milk: 10, Sugar: 5},
		{CoffeeBeans: 15, Milk: 10, Sugar: 5},
	})
	c.addCoffee("Cappuccino", [3]string{"5.00", "6.50", "8.00"}, [3]models.IngredientUsage{
		{CoffeeBeans: 9, Milk: 60, Sugar: 5},
		{CoffeeBeans: 12, Milk: 80, Sugar: 5},
		{CoffeeBeans: 15, Milk: 100, Sugar: 5},
	})
	c.addCoffee("Latte", [3]string{"5.25", "6.75", "8.25"}, [3]models.IngredientUsage{
		{CoffeeBeans: 9, Milk: 100, Sugar: 5},
		{CoffeeBeans: 12, Milk: 150, Sugar: 5},
		{CoffeeBeans: 15, Milk: 200, Sugar: 5},
	})
	c.addCoffee("Caramel Macchiato", [3]string{"4.50", "7.00", "9.50"}, [3]models.IngredientUsage{
		{CoffeeBeans: 9, Milk: 90, Sugar: 5},
		{CoffeeBeans: 12, Milk: 130, Sugar: 5},
		{CoffeeBeans: 15, Milk: 180, Sugar: 5},
	})

	c.addOns[models.AddOnExtraSugar] = models.AddOn{
		Name: models.AddOnExtraSugar, Price: price("0.70"),
		ExtraResource: models.ResourceSugar, ExtraAmount: 5,
	}
	c.addOns[models.AddOnExtraMilk] = models.AddOn{
		Name: models.AddOnExtraMilk, Price: price("0.90"),
		ExtraResource: models.ResourceMilk, ExtraAmount: 30,
	}

	tenPercent := price("0.1")
	for _, o := range []models.DailyOffer{
		{Day: time.Monday, Description: "10% off on all lattes", AppliesTo: "Latte", Kind: models.OfferPercentDiscount, Percent: tenPercent},
		{Day: time.Tuesday, Description: "10% off on all cappuccinos", AppliesTo: "Cappuccino", Kind: models.OfferPercentDiscount, Percent: tenPercent},
		{Day: time.Wednesday, Description: "Buy 1 Get 1 Free on all Americanos", AppliesTo: "Americano", Kind: models.OfferBOGO},
		{Day: time.Thursday, Description: "10% off on all americano", AppliesTo: "Americano", Kind: models.OfferPercentDiscount, Percent: tenPercent},
		{Day: time.Friday, Description: "10% off on all Caramel Macchiatos", AppliesTo: "Caramel Macchiato", Kind: models.OfferPercentDiscount, Percent: tenPercent},
		{Day: time.Saturday, Description: "Relax and enjoy - no special offers today!", AppliesTo: models.OfferAppliesToAny, Kind: models.OfferNone},
		{Day: time.Sunday, Description: "Double loyalty points on all purchases", AppliesTo: models.OfferAppliesToAll, Kind: models.OfferDoublePoints},
	} {
		c.offers[o.Day] = o
	}

	c.restockPrices = map[models.Resource]decimal.Decimal{
		models.ResourceCoffeeBeans: price("1.20"), // per 100g
		models.ResourceMilk:        price("0.70"), // per 100ml
		models.ResourceSugar:       price("0.20"), // per 100g
		models.ResourceCups:        price("0.02"), // per cup
	}
	c.prepTimes = map[models.Size]time.Duration{
		models.SizeSmall:  2 * time.Minute,
		models.SizeMedium: 3 * time.Minute,
		models.SizeLarge:  5 * time.Minute,
	}
	return c
}

func (c *Catalog) addCoffee(name string, prices [3]string, usage [3]models.IngredientUsage) {
	item := models.MenuItem{CoffeeType: name, Prices: make(map[models.Size]decimal.Decimal)}
	c.usage[name] = make(map[models.Size]models.IngredientUsage)
	for i, size := range models.Sizes {
		item.Prices[size] = price(prices[i])
		c.usage[name][size] = usage[i]
	}
	c.menu[name] = item
	c.order = append(c.order, name)
}

// WithLocation returns a copy of the catalog that resolves daily offers in loc.
func (c *Catalog) WithLocation(loc *time.Location) *Catalog {
	cp := *c
	if loc != nil {
		cp.location = loc
	}
	return &cp
}

// Menu lists the coffees in menu order.
func (c *Catalog) Menu() []models.MenuItem {
	items := make([]models.MenuItem, 0, len(c.order))
	for _, name := range c.order {
		items = append(items, c.menu[name])
	}
	return items
}

func (c *Catalog) CoffeeTypes() []string {
	return append([]string(nil), c.order...)
}

// AddOns lists the add-ons sorted by name.
func (c *Catalog) AddOns() []models.AddOn {
	out := make([]models.AddOn, 0, len(c.addOns))
	for _, a := range c.addOns {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Catalog) Price(coffeeType string, size models.Size) (decimal.Decimal, error) {
	item, ok := c.menu[coffeeType]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownItem, coffeeType)
	}
	p, ok := item.Prices[size]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s (%s)", ErrUnknownItem, coffeeType, size)
	}
	return p, nil
}

func (c *Catalog) AddOn(name string) (models.AddOn, error) {
	a, ok := c.addOns[name]
	if !ok {
		return models.AddOn{}, fmt.Errorf("%w: %s", ErrUnknownAddOn, name)
	}
	return a, nil
}

func (c *Catalog) AddOnPrice(name string) (decimal.Decimal, error) {
	a, err := c.AddOn(name)
	if err != nil {
		return decimal.Zero, err
	}
	return a.Price, nil
}

func (c *Catalog) Usage(coffeeType string, size models.Size) (models.IngredientUsage, error) {
	sizes, ok := c.usage[coffeeType]
	if !ok {
		return models.IngredientUsage{}, fmt.Errorf("%w: %s", ErrUnknownItem, coffeeType)
	}
	u, ok := sizes[size]
	if !ok {
		return models.IngredientUsage{}, fmt.Errorf("%w: %s (%s)", ErrUnknownItem, coffeeType, size)
	}
	return u, nil
}

// OfferFor returns the promotion running on t's calendar day in the shop's timezone.
func (c *Catalog) OfferFor(t time.Time) models.DailyOffer {
	day := t.In(c.location).Weekday()
	if o, ok := c.offers[day]; ok {
		return o
	}
	return models.DailyOffer{Day: day, Kind: models.OfferNone, AppliesTo: models.OfferAppliesToAny}
}

func (c *Catalog) Offers() []models.DailyOffer {
	out := make([]models.DailyOffer, 0, len(c.offers))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if o, ok := c.offers[d]; ok {
			out = append(out, o)
		}
	}
	return out
}

func (c *Catalog) RestockPrice(r models.Resource) (decimal.Decimal, bool) {
	p, ok := c.restockPrices[r]
	return p, ok
}

// PrepTime estimates how long the barista needs for one line of an order.
func (c *Catalog) PrepTime(size models.Size, addOns int) time.Duration {
	return c.prepTimes[size] + time.Duration(addOns)*c.addOnPrepTime
}
