package repositories

import (
	"context"
	"errors"

	"github.com/chrisdamba/brewpos/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrNegativeBalance = errors.New("points balance would go negative")
)

// AccountRepository stores customer and admin logins. Usernames are unique per role.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByUsername(ctx context.Context, role models.Role, username string) (*models.Account, error)
	GetAll(ctx context.Context, role models.Role) ([]*models.Account, error)
	Count(ctx context.Context, role models.Role) (int, error)
	DeleteAll(ctx context.Context) error
}

// LoyaltyRepository keeps customer point balances and their history.
// AddPoints changes the balance and appends the history row in one step, so a
// balance always equals the sum of its history deltas.
type LoyaltyRepository interface {
	AddPoints(ctx context.Context, entry models.LoyaltyEntry) (int, error)
	Balance(ctx context.Context, username string) (int, error)
	History(ctx context.Context, username string) ([]models.LoyaltyEntry, error)
}
