package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func table(role models.Role) (string, error) {
	switch role {
	case models.RoleCustomer:
		return "customers", nil
	case models.RoleAdmin:
		return "admins", nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	var (
		query string
		args  []any
	)
	switch account.Role {
	case models.RoleCustomer:
		query = `
            INSERT INTO customers (username, password_hash, loyalty_points, created_at)
            VALUES ($1, $2, $3, $4)`
		args = []any{account.Username, account.PasswordHash, account.LoyaltyPoints, account.CreatedAt}
	case models.RoleAdmin:
		query = `
            INSERT INTO admins (username, password_hash, created_at)
            VALUES ($1, $2, $3)`
		args = []any{account.Username, account.PasswordHash, account.CreatedAt}
	default:
		return fmt.Errorf("unknown role %q", account.Role)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", repositories.ErrDuplicate, account.Role, account.Username)
		}
		return err
	}
	return nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, role models.Role, username string) (*models.Account, error) {
	t, err := table(role)
	if err != nil {
		return nil, err
	}
	query := `SELECT username, password_hash, created_at, ` + pointsColumn(role) + ` FROM ` + t + ` WHERE username = $1`

	account := &models.Account{Role: role}
	err = r.pool.QueryRow(ctx, query, username).Scan(
		&account.Username,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.LoyaltyPoints,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", repositories.ErrNotFound, role, username)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) GetAll(ctx context.Context, role models.Role) ([]*models.Account, error) {
	t, err := table(role)
	if err != nil {
		return nil, err
	}
	query := `SELECT username, password_hash, created_at, ` + pointsColumn(role) + ` FROM ` + t + ` ORDER BY username`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account := &models.Account{Role: role}
		if err := rows.Scan(
			&account.Username,
			&account.PasswordHash,
			&account.CreatedAt,
			&account.LoyaltyPoints,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) Count(ctx context.Context, role models.Role) (int, error) {
	t, err := table(role)
	if err != nil {
		return 0, err
	}
	var count int
	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+t).Scan(&count)
	return count, err
}

func (r *AccountRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE loyalty_points_history, customers, admins`)
	return err
}

// admins carry no points; select a constant so both tables scan alike.
func pointsColumn(role models.Role) string {
	if role == models.RoleCustomer {
		return "loyalty_points"
	}
	return "0"
}
