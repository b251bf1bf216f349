package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

// AccountService handles registration, login and session resolution. Sessions
// are opaque random tokens stored server-side with an expiry.
type AccountService struct {
	repo       *storage.Repository
	logger     *log.Logger
	sessionTTL time.Duration
}

func NewAccountService(repo *storage.Repository, logger *log.Logger, sessionTTL time.Duration) *AccountService {
	return &AccountService{
		repo:       repo,
		logger:     logger.WithComponent(log.ComponentAccounts),
		sessionTTL: sessionTTL,
	}
}

// Register creates a user with a bcrypt-hashed password.
func (s *AccountService) Register(ctx context.Context, email, name, password string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user := core.User{Email: email, Name: strings.TrimSpace(name)}
	if err := user.Validate(); err != nil {
		return 0, err
	}
	if len(password) < 8 {
		return 0, fmt.Errorf("%w: password too short (min 8 characters)", core.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "user registered", log.FieldUserID, id)
	return id, nil
}

// Login verifies credentials and opens a session, returning the token and its
// expiry. Unknown emails and wrong passwords are indistinguishable to the
// caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return "", time.Time{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", time.Time{}, core.ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().UTC().Add(s.sessionTTL)
	if err := s.repo.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		return "", time.Time{}, err
	}

	s.logger.InfoContext(ctx, "user logged in", log.FieldUserID, user.ID)
	return token, expiresAt, nil
}

// Logout invalidates a session token. Unknown tokens are a no-op.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

// Authenticate resolves a session token to a user id. Expired or unknown
// tokens return ErrNotFound.
func (s *AccountService) Authenticate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, core.ErrNotFound
	}
	return s.repo.SessionUser(ctx, token, time.Now().UTC())
}

// PurgeExpiredSessions removes sessions past their expiry. The worker runs
// this on a schedule.
func (s *AccountService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, time.Now().UTC())
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
