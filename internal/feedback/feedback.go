// Package feedback collects customer ratings.
package feedback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/shopspring/decimal"
)

var ErrInvalidRating = errors.New("ratings must be between 1 and 5")

type Box struct {
	mu      sync.RWMutex
	entries []models.FeedbackEntry
}

func NewBox() *Box {
	return &Box{}
}

func (b *Box) Submit(entry models.FeedbackEntry) error {
	if !validRating(entry.CoffeeRating) || !validRating(entry.ServiceRating) {
		return fmt.Errorf("%w: coffee %d, service %d", ErrInvalidRating, entry.CoffeeRating, entry.ServiceRating)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	return nil
}

func (b *Box) List() []models.FeedbackEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.FeedbackEntry(nil), b.entries...)
}

// Averages returns the mean coffee and service ratings, zero when empty.
func (b *Box) Averages() (coffee, service decimal.Decimal) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.entries) == 0 {
		return decimal.Zero, decimal.Zero
	}
	var c, s int64
	for _, e := range b.entries {
		c += int64(e.CoffeeRating)
		s += int64(e.ServiceRating)
	}
	n := decimal.NewFromInt(int64(len(b.entries)))
	return decimal.NewFromInt(c).DivRound(n, 2), decimal.NewFromInt(s).DivRound(n, 2)
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}
