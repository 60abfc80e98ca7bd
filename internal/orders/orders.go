// Package orders keeps placed orders and moves them through
// Being Processed, Ready and Picked Up.
package orders

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrOrderNumbersExhausted = errors.New("no order numbers left")
	ErrOrderNumberInUse      = errors.New("order number already has rows")
)

const (
	minOrderNumber = 1000
	maxOrderNumber = 9999
)

// Store holds every order row placed in the session. Picked up rows stay in
// the store with their terminal status so reports can still see them.
type Store struct {
	mu     sync.Mutex
	rng    *rand.Rand
	issued map[int]bool
	rows   []*models.PlacedOrder
	now    func() time.Time
}

func NewStore(rng *rand.Rand, now func() time.Time) *Store {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Store{rng: rng, issued: make(map[int]bool), now: now}
}

// NextOrderNumber draws random four digit numbers until it finds one never
// issued before in this session.
func (s *Store) NextOrderNumber() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.issued) > maxOrderNumber-minOrderNumber {
		return 0, ErrOrderNumbersExhausted
	}
	for {
		n := minOrderNumber + s.rng.Intn(maxOrderNumber-minOrderNumber+1)
		if !s.issued[n] {
			s.issued[n] = true
			return n, nil
		}
	}
}

// Create stores one row per cart line, all sharing orderNumber.
func (s *Store) Create(orderNumber int, customer string, lines []models.LineItem, at time.Time) ([]models.PlacedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.OrderNumber == orderNumber {
			return nil, fmt.Errorf("%w: %d", ErrOrderNumberInUse, orderNumber)
		}
	}
	s.issued[orderNumber] = true

	created := make([]models.PlacedOrder, 0, len(lines))
	for _, l := range lines {
		row := &models.PlacedOrder{
			ID:           uuid.NewString(),
			OrderNumber:  orderNumber,
			CustomerName: customer,
			CoffeeType:   l.CoffeeType,
			Quantity:     l.Quantity,
			Size:         l.Size,
			AddOns:       strings.Join(l.AddOns, ", "),
			Price:        l.Price,
			Timestamp:    at,
			Status:       models.OrderStatusBeingProcessed,
		}
		s.rows = append(s.rows, row)
		created = append(created, *row)
	}
	return created, nil
}

// Advance marks an order Ready once the kitchen has made it.
func (s *Store) Advance(orderNumber int) ([]models.PlacedOrder, error) {
	return s.transition(orderNumber, models.OrderStatusBeingProcessed, models.OrderStatusReady)
}

// Complete records the pickup of a Ready order.
func (s *Store) Complete(orderNumber int) ([]models.PlacedOrder, error) {
	return s.transition(orderNumber, models.OrderStatusReady, models.OrderStatusPickedUp)
}

func (s *Store) transition(orderNumber int, from, to string) ([]models.PlacedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.PlacedOrder
	for _, r := range s.rows {
		if r.OrderNumber == orderNumber {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderNumber)
	}
	for _, r := range matched {
		if r.Status != from {
			return nil, fmt.Errorf("%w: order %d is %s, want %s", ErrInvalidTransition, orderNumber, r.Status, from)
		}
	}

	now := s.now()
	out := make([]models.PlacedOrder, 0, len(matched))
	for _, r := range matched {
		r.Status = to
		if to == models.OrderStatusPickedUp {
			r.PickedUpAt = now
		}
		out = append(out, *r)
	}
	return out, nil
}

// Status returns the status shared by the order's rows.
func (s *Store) Status(orderNumber int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.OrderNumber == orderNumber {
			return r.Status, nil
		}
	}
	return "", fmt.Errorf("%w: %d", ErrOrderNotFound, orderNumber)
}

func (s *Store) filter(keep func(*models.PlacedOrder) bool) []models.PlacedOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PlacedOrder
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, *r)
		}
	}
	return out
}

// Active lists rows not yet picked up.
func (s *Store) Active() []models.PlacedOrder {
	return s.filter(func(o *models.PlacedOrder) bool { return o.Status != models.OrderStatusPickedUp })
}

func (s *Store) Kitchen() []models.PlacedOrder {
	return s.filter(func(o *models.PlacedOrder) bool { return o.Status == models.OrderStatusBeingProcessed })
}

func (s *Store) ReadyForPickup() []models.PlacedOrder {
	return s.filter(func(o *models.PlacedOrder) bool { return o.Status == models.OrderStatusReady })
}

// History lists every row in placement order, picked up ones included.
func (s *Store) History() []models.PlacedOrder {
	return s.filter(func(*models.PlacedOrder) bool { return true })
}
