// Package memory implements the repositories in process memory, for tests and
// runs without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/repositories"
)

// Store implements both AccountRepository and LoyaltyRepository.
type Store struct {
	mu       sync.RWMutex
	accounts map[models.Role]map[string]*models.Account
	history  map[string][]models.LoyaltyEntry
}

var (
	_ repositories.AccountRepository = (*Store)(nil)
	_ repositories.LoyaltyRepository = (*Store)(nil)
)

func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.accounts = map[models.Role]map[string]*models.Account{
		models.RoleCustomer: {},
		models.RoleAdmin:    {},
	}
	s.history = make(map[string][]models.LoyaltyEntry)
}

func (s *Store) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName, ok := s.accounts[account.Role]
	if !ok {
		return fmt.Errorf("unknown role %q", account.Role)
	}
	if _, exists := byName[account.Username]; exists {
		return fmt.Errorf("%w: %s %s", repositories.ErrDuplicate, account.Role, account.Username)
	}
	cp := *account
	byName[account.Username] = &cp
	return nil
}

func (s *Store) GetByUsername(ctx context.Context, role models.Role, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[role][username]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", repositories.ErrNotFound, role, username)
	}
	cp := *a
	return &cp, nil
}

func (s *Store) GetAll(ctx context.Context, role models.Role) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Account, 0, len(s.accounts[role]))
	for _, a := range s.accounts[role] {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) Count(ctx context.Context, role models.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts[role]), nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *Store) AddPoints(ctx context.Context, entry models.LoyaltyEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[models.RoleCustomer][entry.Username]
	if !ok {
		return 0, fmt.Errorf("%w: customer %s", repositories.ErrNotFound, entry.Username)
	}
	if a.LoyaltyPoints+entry.Delta < 0 {
		return a.LoyaltyPoints, repositories.ErrNegativeBalance
	}
	a.LoyaltyPoints += entry.Delta
	s.history[entry.Username] = append(s.history[entry.Username], entry)
	return a.LoyaltyPoints, nil
}

func (s *Store) Balance(ctx context.Context, username string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[models.RoleCustomer][username]
	if !ok {
		return 0, fmt.Errorf("%w: customer %s", repositories.ErrNotFound, username)
	}
	return a.LoyaltyPoints, nil
}

// History returns the newest entry first.
func (s *Store) History(ctx context.Context, username string) ([]models.LoyaltyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.history[username]
	out := make([]models.LoyaltyEntry, len(rows))
	for i, e := range rows {
		out[len(rows)-1-i] = e
	}
	return out, nil
}
