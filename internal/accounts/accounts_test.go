package accounts

import (
	"context"
	"testing"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), WithHashCost(bcrypt.MinCost))

	acc, err := svc.Signup(ctx, "amy", "latte-lover", models.RoleCustomer)
	require.NoError(t, err)
	assert.NotEqual(t, "latte-lover", acc.PasswordHash)

	_, err = svc.Signup(ctx, "amy", "other", models.RoleCustomer)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	// admins live in their own table
	_, err = svc.Signup(ctx, "amy", "boss", models.RoleAdmin)
	require.NoError(t, err)

	got, err := svc.Login(ctx, "amy", "latte-lover", models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, got.Role)

	_, err = svc.Login(ctx, "amy", "wrong", models.RoleCustomer)
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
	_, err = svc.Login(ctx, "nobody", "x", models.RoleCustomer)
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
	_, err = svc.Login(ctx, "amy", "latte-lover", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
}

func TestSignup_RequiresCredentials(t *testing.T) {
	svc := NewService(memory.NewStore(), WithHashCost(bcrypt.MinCost))
	_, err := svc.Signup(context.Background(), "  ", "pw", models.RoleCustomer)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashesAreSalted(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), WithHashCost(bcrypt.MinCost))
	a, err := svc.Signup(ctx, "amy", "same", models.RoleCustomer)
	require.NoError(t, err)
	b, err := svc.Signup(ctx, "bob", "same", models.RoleCustomer)
	require.NoError(t, err)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}
