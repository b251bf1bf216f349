package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
)

type userRow struct {
	ID           int64  `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

func (u userRow) toCore() core.User {
	return core.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    parseDateTime(u.CreatedAt),
	}
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) (int64, error) {
	query, args, err := sq.Insert("users").
		Columns("email", "name", "password_hash").
		Values(u.Email, u.Name, u.PasswordHash).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert user: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return 0, core.ErrEmailTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		"SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?", email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return row.toCore(), nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		"SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return row.toCore(), nil
}

// Sessions

func (r *Repository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, fmtDateTime(expiresAt))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SessionUser resolves a session token to its user id. Expired or unknown
// tokens yield ErrNotFound.
func (r *Repository) SessionUser(ctx context.Context, token string, now time.Time) (int64, error) {
	var userID int64
	err := r.db.GetContext(ctx, &userID,
		"SELECT user_id FROM sessions WHERE token = ? AND expires_at > ?",
		token, fmtDateTime(now))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get session: %w", err)
	}
	return userID, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", fmtDateTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
