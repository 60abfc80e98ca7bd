package factories

import (
	"math/rand"
	"strings"
	"time"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/jaswdr/faker"
)

type FeedbackFactory struct {
	fake faker.Faker
	rng  *rand.Rand
}

func NewFeedbackFactory(rng *rand.Rand) *FeedbackFactory {
	return &FeedbackFactory{fake: faker.NewWithSeed(rand.NewSource(rng.Int63())), rng: rng}
}

var (
	praise    = []string{"Lovely", "Great", "Smooth", "Perfect", "Rich"}
	complaint = []string{"Too bitter", "Lukewarm", "Watery", "Too sweet", "Slow service"}
)

// CreateFeedback writes a comment that matches the ratings given.
func (ff *FeedbackFactory) CreateFeedback(c Customer, coffee string, coffeeRating, serviceRating int, at time.Time) models.FeedbackEntry {
	var opener string
	if coffeeRating+serviceRating >= 7 {
		opener = praise[ff.rng.Intn(len(praise))]
	} else {
		opener = complaint[ff.rng.Intn(len(complaint))]
	}
	comment := opener + ". " + strings.TrimSpace(ff.fake.Lorem().Sentence(6))
	return models.FeedbackEntry{
		Name:            c.Name,
		CoffeePurchased: coffee,
		CoffeeRating:    coffeeRating,
		ServiceRating:   serviceRating,
		Comment:         comment,
		Timestamp:       at,
	}
}
