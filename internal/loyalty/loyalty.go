// Package loyalty awards and redeems customer points with an auditable history.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/repositories"
	"go.uber.org/zap"
)

var (
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
	ErrInvalidPoints      = errors.New("points must be positive")
	ErrNotEnrolled        = errors.New("customer is not enrolled in the loyalty program")
)

type Ledger struct {
	repo   repositories.LoyaltyRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewLedger(repo repositories.LoyaltyRepository, now func() time.Time, logger *zap.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{repo: repo, now: now, logger: logger}
}

// Enrolled reports whether username has a loyalty account.
func (l *Ledger) Enrolled(ctx context.Context, username string) bool {
	_, err := l.repo.Balance(ctx, username)
	return err == nil
}

func (l *Ledger) Balance(ctx context.Context, username string) (int, error) {
	bal, err := l.repo.Balance(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrNotEnrolled, username)
	}
	return bal, err
}

// History lists the customer's point movements, newest first.
func (l *Ledger) History(ctx context.Context, username string) ([]models.LoyaltyEntry, error) {
	return l.repo.History(ctx, username)
}

func (l *Ledger) Award(ctx context.Context, username string, points int) (int, error) {
	return l.add(ctx, username, points, models.LoyaltyEarnedDescription)
}

// Refund returns points taken by a redemption whose checkout did not go through.
func (l *Ledger) Refund(ctx context.Context, username string, points int) (int, error) {
	return l.add(ctx, username, points, models.LoyaltyRefundedDescription)
}

// Redeem takes points from the balance. It changes nothing and returns
// ErrInsufficientPoints when the balance cannot cover the request.
func (l *Ledger) Redeem(ctx context.Context, username string, points int) (int, error) {
	if points <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPoints, points)
	}
	bal, err := l.repo.AddPoints(ctx, models.LoyaltyEntry{
		Username:    username,
		Delta:       -points,
		Description: models.LoyaltyRedeemedDescription,
		Timestamp:   l.now(),
	})
	switch {
	case errors.Is(err, repositories.ErrNegativeBalance):
		l.logger.Info("redemption refused",
			zap.String("username", username),
			zap.Int("requested", points),
			zap.Int("balance", bal),
		)
		return bal, fmt.Errorf("%w: requested %d, balance %d", ErrInsufficientPoints, points, bal)
	case errors.Is(err, repositories.ErrNotFound):
		return 0, fmt.Errorf("%w: %s", ErrNotEnrolled, username)
	case err != nil:
		return 0, fmt.Errorf("failed to redeem points: %w", err)
	}
	return bal, nil
}

func (l *Ledger) add(ctx context.Context, username string, points int, description string) (int, error) {
	if points <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPoints, points)
	}
	bal, err := l.repo.AddPoints(ctx, models.LoyaltyEntry{
		Username:    username,
		Delta:       points,
		Description: description,
		Timestamp:   l.now(),
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrNotEnrolled, username)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add points: %w", err)
	}
	return bal, nil
}
