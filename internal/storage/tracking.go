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

type weightRow struct {
	ID       int64   `db:"id"`
	AnimalID int64   `db:"animal_id"`
	Date     string  `db:"date"`
	Kilos    float64 `db:"kilos"`
	Notes    string  `db:"notes"`
}

func (w weightRow) toCore() core.Weight {
	return core.Weight{
		ID:       w.ID,
		AnimalID: w.AnimalID,
		Date:     parseDateTime(w.Date),
		Kilos:    w.Kilos,
		Notes:    w.Notes,
	}
}

type productionRow struct {
	ID       int64   `db:"id"`
	AnimalID int64   `db:"animal_id"`
	Date     string  `db:"date"`
	Type     string  `db:"type"`
	Quantity float64 `db:"quantity"`
}

func (p productionRow) toCore() core.Production {
	return core.Production{
		ID:       p.ID,
		AnimalID: p.AnimalID,
		Date:     parseDateTime(p.Date),
		Type:     p.Type,
		Quantity: p.Quantity,
	}
}

// scopedMeasurements restricts a measurement table (weights or productions)
// to records whose animal's batch belongs to userID.
func scopedMeasurements(table string, columns []string, userID int64) sq.SelectBuilder {
	return sq.Select(columns...).
		From(table).
		Join("animals ON animals.id = " + table + ".animal_id").
		Join("batches ON batches.id = animals.batch_id").
		Where(sq.Eq{"batches.user_id": userID})
}

// applyMeasurementFilters narrows by batch, animal and inclusive date range.
func applyMeasurementFilters(builder sq.SelectBuilder, table string, f scope.Filters) sq.SelectBuilder {
	if f.BatchID > 0 {
		builder = builder.Where(sq.Eq{"animals.batch_id": f.BatchID})
	}
	if f.AnimalID > 0 {
		builder = builder.Where(sq.Eq{table + ".animal_id": f.AnimalID})
	}
	if !f.DateStart.IsZero() {
		builder = builder.Where(sq.GtOrEq{table + ".date": fmtDate(f.DateStart)})
	}
	if !f.DateEnd.IsZero() {
		// Timestamps sort lexicographically after the bare date, so pad the
		// inclusive end bound to the last second of the day.
		builder = builder.Where(sq.LtOrEq{table + ".date": fmtDate(f.DateEnd) + " 23:59:59"})
	}
	return builder
}

var weightColumns = []string{"weights.id", "weights.animal_id", "weights.date", "weights.kilos", "weights.notes"}

func (r *Repository) ListWeights(ctx context.Context, userID int64, f scope.Filters) ([]core.Weight, error) {
	if userID <= 0 {
		return []core.Weight{}, nil
	}

	builder := applyMeasurementFilters(scopedMeasurements("weights", weightColumns, userID), "weights", f).
		OrderBy("weights.date DESC", "weights.id DESC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list weights: %w", err)
	}

	var rows []weightRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}

	weights := make([]core.Weight, len(rows))
	for i, row := range rows {
		weights[i] = row.toCore()
	}
	return weights, nil
}

func (r *Repository) CreateWeight(ctx context.Context, userID int64, w core.Weight) (int64, error) {
	if _, err := r.GetAnimal(ctx, userID, w.AnimalID); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO weights (animal_id, date, kilos, notes) VALUES (?, ?, ?, ?)",
		w.AnimalID, fmtDateTime(w.Date), w.Kilos, w.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert weight: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) DeleteWeight(ctx context.Context, userID, id int64) error {
	if userID <= 0 {
		return core.ErrNotFound
	}

	query, args, err := scopedMeasurements("weights", []string{"weights.id"}, userID).
		Where(sq.Eq{"weights.id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build get weight: %w", err)
	}

	var existing int64
	err = r.db.GetContext(ctx, &existing, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get weight: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM weights WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete weight: %w", err)
	}
	return nil
}

var productionColumns = []string{"productions.id", "productions.animal_id", "productions.date", "productions.type", "productions.quantity"}

func (r *Repository) ListProductions(ctx context.Context, userID int64, f scope.Filters) ([]core.Production, error) {
	if userID <= 0 {
		return []core.Production{}, nil
	}

	builder := applyMeasurementFilters(scopedMeasurements("productions", productionColumns, userID), "productions", f)
	if f.ProductionType != "" {
		builder = builder.Where(sq.Expr("LOWER(productions.type) LIKE ?", containsPattern(f.ProductionType)))
	}
	builder = builder.OrderBy("productions.date DESC", "productions.id DESC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list productions: %w", err)
	}

	var rows []productionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list productions: %w", err)
	}

	productions := make([]core.Production, len(rows))
	for i, row := range rows {
		productions[i] = row.toCore()
	}
	return productions, nil
}

func (r *Repository) CreateProduction(ctx context.Context, userID int64, p core.Production) (int64, error) {
	if _, err := r.GetAnimal(ctx, userID, p.AnimalID); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO productions (animal_id, date, type, quantity) VALUES (?, ?, ?, ?)",
		p.AnimalID, fmtDateTime(p.Date), p.Type, p.Quantity)
	if err != nil {
		return 0, fmt.Errorf("insert production: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) DeleteProduction(ctx context.Context, userID, id int64) error {
	if userID <= 0 {
		return core.ErrNotFound
	}

	query, args, err := scopedMeasurements("productions", []string{"productions.id"}, userID).
		Where(sq.Eq{"productions.id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build get production: %w", err)
	}

	var existing int64
	err = r.db.GetContext(ctx, &existing, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get production: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM productions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete production: %w", err)
	}
	return nil
}
