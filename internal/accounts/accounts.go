// Package accounts signs customers and admins up and logs them in.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateUsername     = errors.New("username already exists")
	ErrAuthenticationFailure = errors.New("invalid username or password")
	ErrInvalidCredentials    = errors.New("username and password are required")
)

type Service struct {
	repo   repositories.AccountRepository
	cost   int
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Service)

// WithHashCost lowers the bcrypt cost, for tests and bulk seeding.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo repositories.AccountRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Signup(ctx context.Context, username, password string, role models.Role) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	s.logger.Info("account created", zap.String("username", username), zap.String("role", string(role)))
	return account, nil
}

// Login returns the account when the password matches. Unknown users and bad
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, username, password string, role models.Role) (*models.Account, error) {
	account, err := s.repo.GetByUsername(ctx, role, strings.TrimSpace(username))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAuthenticationFailure
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("username", username))
		return nil, ErrAuthenticationFailure
	}
	return account, nil
}

func (s *Service) List(ctx context.Context, role models.Role) ([]*models.Account, error) {
	return s.repo.GetAll(ctx, role)
}
