// Package storage implements the SQLite persistence layer. Every query over
// owned record kinds is scoped to the requesting user through the ownership
// chain (batches.user_id, or animals -> batches for measurements) before any
// filter is applied; user id 0 short-circuits to an empty result.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sqlx.DB
}

// New opens (creating if necessary) the SQLite database at dbPath, runs
// pending migrations and returns a ready repository. Foreign keys are
// enforced on every connection; cascades and SET NULL depend on it.
func New(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

// Ping probes the database, backing the readiness endpoint.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Date/time columns are stored as TEXT in the formats below; the repository
// converts at the boundary so core stays on time.Time.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

func fmtDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func fmtDateTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		// Some drivers hand back full timestamps for date columns.
		t, err = time.Parse(dateTimeLayout, s)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

func parseDateTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		t, err = time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given column ("table.column").
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
