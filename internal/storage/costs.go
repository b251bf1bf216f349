package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
)

type costRow struct {
	ID          int64         `db:"id"`
	BatchID     int64         `db:"batch_id"`
	AnimalID    sql.NullInt64 `db:"animal_id"`
	Type        string        `db:"type"`
	Description string        `db:"description"`
	AmountCents int64         `db:"amount_cents"`
	Date        string        `db:"date"`
	Notes       string        `db:"notes"`
	CreatedAt   string        `db:"created_at"`
	UpdatedAt   string        `db:"updated_at"`
}

func (c costRow) toCore() core.Cost {
	return core.Cost{
		ID:          c.ID,
		BatchID:     c.BatchID,
		AnimalID:    c.AnimalID.Int64,
		Type:        core.CostType(c.Type),
		Description: c.Description,
		Amount:      core.Money{Cents: c.AmountCents},
		Date:        parseDate(c.Date),
		Notes:       c.Notes,
		CreatedAt:   parseDateTime(c.CreatedAt),
		UpdatedAt:   parseDateTime(c.UpdatedAt),
	}
}

var costColumns = []string{
	"costs.id", "costs.batch_id", "costs.animal_id", "costs.type", "costs.description",
	"costs.amount_cents", "costs.date", "costs.notes", "costs.created_at", "costs.updated_at",
}

// scopedCosts restricts the select to costs whose batch belongs to userID.
func scopedCosts(userID int64) sq.SelectBuilder {
	return sq.Select(costColumns...).
		From("costs").
		Join("batches ON batches.id = costs.batch_id").
		Where(sq.Eq{"batches.user_id": userID})
}

// applyCostFilters narrows a scoped cost select; date bounds are inclusive
// on both ends.
func applyCostFilters(builder sq.SelectBuilder, f scope.Filters) sq.SelectBuilder {
	if f.Search != "" {
		pat := containsPattern(f.Search)
		builder = builder.Where(sq.Or{
			sq.Expr("LOWER(costs.description) LIKE ?", pat),
			sq.Expr("LOWER(costs.notes) LIKE ?", pat),
		})
	}
	if f.BatchID > 0 {
		builder = builder.Where(sq.Eq{"costs.batch_id": f.BatchID})
	}
	if f.AnimalID > 0 {
		builder = builder.Where(sq.Eq{"costs.animal_id": f.AnimalID})
	}
	if f.CostType != "" {
		builder = builder.Where(sq.Eq{"costs.type": string(f.CostType)})
	}
	if !f.DateStart.IsZero() {
		builder = builder.Where(sq.GtOrEq{"costs.date": fmtDate(f.DateStart)})
	}
	if !f.DateEnd.IsZero() {
		builder = builder.Where(sq.LtOrEq{"costs.date": fmtDate(f.DateEnd)})
	}
	return builder
}

// ListCosts returns the costs visible to userID ordered by event date
// descending, ties broken by id descending for determinism.
func (r *Repository) ListCosts(ctx context.Context, userID int64, f scope.Filters) ([]core.Cost, error) {
	if userID <= 0 {
		return []core.Cost{}, nil
	}

	builder := applyCostFilters(scopedCosts(userID), f).
		OrderBy("costs.date DESC", "costs.id DESC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list costs: %w", err)
	}

	var rows []costRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}

	costs := make([]core.Cost, len(rows))
	for i, row := range rows {
		costs[i] = row.toCore()
	}
	return costs, nil
}

func (r *Repository) GetCost(ctx context.Context, userID, id int64) (core.Cost, error) {
	if userID <= 0 {
		return core.Cost{}, core.ErrNotFound
	}

	query, args, err := scopedCosts(userID).Where(sq.Eq{"costs.id": id}).ToSql()
	if err != nil {
		return core.Cost{}, fmt.Errorf("build get cost: %w", err)
	}

	var row costRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Cost{}, core.ErrNotFound
	}
	if err != nil {
		return core.Cost{}, fmt.Errorf("get cost: %w", err)
	}
	return row.toCore(), nil
}

// CreateCost inserts a cost under a batch the user owns. A referenced animal
// must belong to the same batch; this is enforced here, at write time, so
// the read path can assume the invariant.
func (r *Repository) CreateCost(ctx context.Context, userID int64, c core.Cost) (int64, error) {
	if _, err := r.GetBatch(ctx, userID, c.BatchID); err != nil {
		return 0, err
	}
	if c.AnimalID > 0 {
		ok, err := r.animalInBatch(ctx, c.AnimalID, c.BatchID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, core.ErrAnimalBatchMismatch
		}
	}

	animalID := sql.NullInt64{Int64: c.AnimalID, Valid: c.AnimalID > 0}
	query, args, err := sq.Insert("costs").
		Columns("batch_id", "animal_id", "type", "description", "amount_cents", "date", "notes").
		Values(c.BatchID, animalID, string(c.Type), c.Description, c.Amount.Cents, fmtDate(c.Date), c.Notes).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert cost: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert cost: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) UpdateCost(ctx context.Context, userID int64, c core.Cost) error {
	if _, err := r.GetCost(ctx, userID, c.ID); err != nil {
		return err
	}
	if _, err := r.GetBatch(ctx, userID, c.BatchID); err != nil {
		return err
	}
	if c.AnimalID > 0 {
		ok, err := r.animalInBatch(ctx, c.AnimalID, c.BatchID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrAnimalBatchMismatch
		}
	}

	animalID := sql.NullInt64{Int64: c.AnimalID, Valid: c.AnimalID > 0}
	query, args, err := sq.Update("costs").
		Set("batch_id", c.BatchID).
		Set("animal_id", animalID).
		Set("type", string(c.Type)).
		Set("description", c.Description).
		Set("amount_cents", c.Amount.Cents).
		Set("date", fmtDate(c.Date)).
		Set("notes", c.Notes).
		Set("updated_at", sq.Expr("strftime('%Y-%m-%d %H:%M:%S', 'now')")).
		Where(sq.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update cost: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update cost: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteCost(ctx context.Context, userID, id int64) error {
	if _, err := r.GetCost(ctx, userID, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM costs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete cost: %w", err)
	}
	return nil
}
