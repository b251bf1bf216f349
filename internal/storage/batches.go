package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
)

type batchRow struct {
	ID        int64          `db:"id"`
	UserID    int64          `db:"user_id"`
	Name      string         `db:"name"`
	Address   string         `db:"address"`
	IsActive  bool           `db:"is_active"`
	ImagePath sql.NullString `db:"image_path"`
	CreatedAt string         `db:"created_at"`
	UpdatedAt string         `db:"updated_at"`
}

func (b batchRow) toCore() core.Batch {
	return core.Batch{
		ID:        b.ID,
		UserID:    b.UserID,
		Name:      b.Name,
		Address:   b.Address,
		IsActive:  b.IsActive,
		ImagePath: b.ImagePath.String,
		CreatedAt: parseDateTime(b.CreatedAt),
		UpdatedAt: parseDateTime(b.UpdatedAt),
	}
}

var batchColumns = []string{
	"batches.id", "batches.user_id", "batches.name", "batches.address",
	"batches.is_active", "batches.image_path", "batches.created_at", "batches.updated_at",
}

// scopedBatches restricts the select to batches owned by userID.
func scopedBatches(userID int64) sq.SelectBuilder {
	return sq.Select(batchColumns...).
		From("batches").
		Where(sq.Eq{"batches.user_id": userID})
}

// containsPattern builds a case-insensitive substring LIKE pattern.
func containsPattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// ListBatches returns the batches visible to userID, narrowed by the given
// filters. An unauthenticated user (id 0) sees nothing.
func (r *Repository) ListBatches(ctx context.Context, userID int64, f scope.Filters) ([]core.Batch, error) {
	if userID <= 0 {
		return []core.Batch{}, nil
	}

	builder := scopedBatches(userID)
	if f.Search != "" {
		pat := containsPattern(f.Search)
		builder = builder.Where(sq.Or{
			sq.Expr("LOWER(batches.name) LIKE ?", pat),
			sq.Expr("LOWER(batches.address) LIKE ?", pat),
		})
	}
	builder = builder.OrderBy(scope.BatchOrderClause(f.Order))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list batches: %w", err)
	}

	var rows []batchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	batches := make([]core.Batch, len(rows))
	for i, row := range rows {
		batches[i] = row.toCore()
	}
	return batches, nil
}

func (r *Repository) GetBatch(ctx context.Context, userID, id int64) (core.Batch, error) {
	if userID <= 0 {
		return core.Batch{}, core.ErrNotFound
	}

	query, args, err := scopedBatches(userID).Where(sq.Eq{"batches.id": id}).ToSql()
	if err != nil {
		return core.Batch{}, fmt.Errorf("build get batch: %w", err)
	}

	var row batchRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Batch{}, core.ErrNotFound
	}
	if err != nil {
		return core.Batch{}, fmt.Errorf("get batch: %w", err)
	}
	return row.toCore(), nil
}

func (r *Repository) CreateBatch(ctx context.Context, b core.Batch) (int64, error) {
	query, args, err := sq.Insert("batches").
		Columns("user_id", "name", "address", "is_active").
		Values(b.UserID, b.Name, b.Address, b.IsActive).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert batch: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	return res.LastInsertId()
}

// UpdateBatch updates name, address and active flag of a batch owned by
// userID. Rows outside the user's scope report ErrNotFound.
func (r *Repository) UpdateBatch(ctx context.Context, userID int64, b core.Batch) error {
	query, args, err := sq.Update("batches").
		Set("name", b.Name).
		Set("address", b.Address).
		Set("is_active", b.IsActive).
		Set("updated_at", sq.Expr("strftime('%Y-%m-%d %H:%M:%S', 'now')")).
		Where(sq.Eq{"id": b.ID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update batch: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return requireRow(res)
}

// SetBatchImage stores the image path and returns the previous one (empty if
// none) so callers can schedule cleanup of the replaced file.
func (r *Repository) SetBatchImage(ctx context.Context, userID, id int64, imagePath string) (string, error) {
	old, err := r.GetBatch(ctx, userID, id)
	if err != nil {
		return "", err
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE batches SET image_path = ?, updated_at = strftime('%Y-%m-%d %H:%M:%S', 'now') WHERE id = ? AND user_id = ?",
		sql.NullString{String: imagePath, Valid: imagePath != ""}, id, userID)
	if err != nil {
		return "", fmt.Errorf("set batch image: %w", err)
	}
	return old.ImagePath, nil
}

// DeleteBatch removes a batch owned by userID and returns its image path for
// cleanup. Animals cascade, which in turn cascades measurements; cost rows
// referencing deleted animals survive with the reference cleared.
func (r *Repository) DeleteBatch(ctx context.Context, userID, id int64) (string, error) {
	b, err := r.GetBatch(ctx, userID, id)
	if err != nil {
		return "", err
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM batches WHERE id = ? AND user_id = ?", id, userID); err != nil {
		return "", fmt.Errorf("delete batch: %w", err)
	}
	return b.ImagePath, nil
}

// BatchOption is the (id, name) projection used to populate filter selects.
type BatchOption struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

func (r *Repository) BatchOptions(ctx context.Context, userID int64) ([]BatchOption, error) {
	if userID <= 0 {
		return []BatchOption{}, nil
	}

	var opts []BatchOption
	err := r.db.SelectContext(ctx, &opts,
		"SELECT id, name FROM batches WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("batch options: %w", err)
	}
	return opts, nil
}

// BatchImagePaths returns every stored image path across all users; the
// cleanup worker diffs this against the media directory.
func (r *Repository) BatchImagePaths(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.db.SelectContext(ctx, &paths,
		"SELECT image_path FROM batches WHERE image_path IS NOT NULL AND image_path != ''")
	if err != nil {
		return nil, fmt.Errorf("batch image paths: %w", err)
	}
	return paths, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
