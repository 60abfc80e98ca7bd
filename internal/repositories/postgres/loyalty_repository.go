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

type LoyaltyRepository struct {
	pool *pgxpool.Pool
}

func NewLoyaltyRepository(pool *pgxpool.Pool) *LoyaltyRepository {
	return &LoyaltyRepository{pool: pool}
}

// AddPoints updates the balance and writes the history row in one transaction.
// The guarded UPDATE refuses to take the balance below zero.
func (r *LoyaltyRepository) AddPoints(ctx context.Context, entry models.LoyaltyEntry) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var balance int
	err = tx.QueryRow(ctx, `
        UPDATE customers
        SET loyalty_points = loyalty_points + $2
        WHERE username = $1 AND loyalty_points + $2 >= 0
        RETURNING loyalty_points`,
		entry.Username, entry.Delta,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		var current int
		err = tx.QueryRow(ctx, `SELECT loyalty_points FROM customers WHERE username = $1`, entry.Username).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: customer %s", repositories.ErrNotFound, entry.Username)
		}
		if err != nil {
			return 0, err
		}
		return current, repositories.ErrNegativeBalance
	}
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO loyalty_points_history (username, points, description, timestamp)
        VALUES ($1, $2, $3, $4)`,
		entry.Username, entry.Delta, entry.Description, entry.Timestamp,
	)
	if err != nil {
		return 0, err
	}
	return balance, tx.Commit(ctx)
}

func (r *LoyaltyRepository) Balance(ctx context.Context, username string) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `SELECT loyalty_points FROM customers WHERE username = $1`, username).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: customer %s", repositories.ErrNotFound, username)
	}
	return balance, err
}

func (r *LoyaltyRepository) History(ctx context.Context, username string) ([]models.LoyaltyEntry, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT username, points, description, timestamp
        FROM loyalty_points_history
        WHERE username = $1
        ORDER BY timestamp DESC, id DESC`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LoyaltyEntry
	for rows.Next() {
		var e models.LoyaltyEntry
		if err := rows.Scan(&e.Username, &e.Delta, &e.Description, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
