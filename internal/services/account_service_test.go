package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

func newAccountService(t *testing.T) *AccountService {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewAccountService(repo, testLogger(), time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "Farmer@Example.com", "Farmer", "supersecret")
	require.NoError(t, err)
	require.Positive(t, id)

	// Email lookup is case-insensitive via normalization.
	token, expiresAt, err := svc.Login(ctx, "farmer@example.com", "supersecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	userID, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, userID)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "farmer@example.com", "Farmer", "supersecret")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "farmer@example.com", "wrongpass")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	// Unknown emails look identical to wrong passwords.
	_, _, err = svc.Login(ctx, "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "Farmer", "supersecret")
	assert.Error(t, err)

	_, err = svc.Register(ctx, "farmer@example.com", "Farmer", "short")
	assert.Error(t, err)

	_, err = svc.Register(ctx, "farmer@example.com", "Farmer", "supersecret")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "farmer@example.com", "Other", "supersecret")
	assert.ErrorIs(t, err, core.ErrEmailTaken)
}
