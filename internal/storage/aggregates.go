package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
)

// Grouped aggregation primitives for the dashboard. The store does the
// grouping and summing; labels and rounding are applied by the aggregation
// service. Month keys come back as "YYYY-MM" strings from substr() over the
// TEXT date columns.

type LabelCount struct {
	Label string `db:"label"`
	Total int64  `db:"total"`
}

type LabelCents struct {
	Label      string `db:"label"`
	TotalCents int64  `db:"total_cents"`
}

type MonthValue struct {
	Month string  `db:"ym"`
	Value float64 `db:"value"`
}

type MonthCents struct {
	Month      string `db:"ym"`
	TotalCents int64  `db:"total_cents"`
}

func (r *Repository) selectAll(ctx context.Context, dest any, builder sq.SelectBuilder, op string) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	if err := r.db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Repository) getOne(ctx context.Context, dest any, builder sq.SelectBuilder, op string) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	if err := r.db.GetContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Batches & animals

func (r *Repository) CountBatches(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, nil
	}
	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(1) FROM batches WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return n, nil
}

// scopedAnimalAgg builds an animal aggregation select with the dashboard
// filters (batch, species substring) applied.
func scopedAnimalAgg(userID int64, f scope.Filters, columns ...string) sq.SelectBuilder {
	builder := sq.Select(columns...).
		From("animals").
		Join("batches ON batches.id = animals.batch_id").
		Where(sq.Eq{"batches.user_id": userID})
	if f.BatchID > 0 {
		builder = builder.Where(sq.Eq{"animals.batch_id": f.BatchID})
	}
	if f.Species != "" {
		builder = builder.Where(sq.Expr("LOWER(animals.species) LIKE ?", containsPattern(f.Species)))
	}
	return builder
}

func (r *Repository) CountAnimals(ctx context.Context, userID int64, f scope.Filters) (int64, error) {
	if userID <= 0 {
		return 0, nil
	}
	var n int64
	err := r.getOne(ctx, &n, scopedAnimalAgg(userID, f, "COUNT(animals.id)"), "count animals")
	return n, err
}

// AnimalsPerBatch groups animal counts by batch name. Ordering is by name
// unless countDesc is set.
func (r *Repository) AnimalsPerBatch(ctx context.Context, userID int64, f scope.Filters, countDesc bool) ([]LabelCount, error) {
	if userID <= 0 {
		return []LabelCount{}, nil
	}
	builder := scopedAnimalAgg(userID, f, "batches.name AS label", "COUNT(animals.id) AS total").
		GroupBy("batches.name")
	if countDesc {
		builder = builder.OrderBy("total DESC")
	} else {
		builder = builder.OrderBy("label ASC")
	}
	var rows []LabelCount
	err := r.selectAll(ctx, &rows, builder, "animals per batch")
	return rows, err
}

func (r *Repository) AnimalsPerSpecies(ctx context.Context, userID int64, f scope.Filters) ([]LabelCount, error) {
	if userID <= 0 {
		return []LabelCount{}, nil
	}
	builder := scopedAnimalAgg(userID, f, "animals.species AS label", "COUNT(animals.id) AS total").
		GroupBy("animals.species").
		OrderBy("total DESC")
	var rows []LabelCount
	err := r.selectAll(ctx, &rows, builder, "animals per species")
	return rows, err
}

func (r *Repository) AnimalsPerSex(ctx context.Context, userID int64, f scope.Filters) ([]LabelCount, error) {
	if userID <= 0 {
		return []LabelCount{}, nil
	}
	builder := scopedAnimalAgg(userID, f, "animals.sex AS label", "COUNT(animals.id) AS total").
		GroupBy("animals.sex").
		OrderBy("total DESC")
	var rows []LabelCount
	err := r.selectAll(ctx, &rows, builder, "animals per sex")
	return rows, err
}

// Tracking

func scopedWeightAgg(userID int64, f scope.Filters, columns ...string) sq.SelectBuilder {
	return applyMeasurementFilters(
		scopedMeasurements("weights", columns, userID), "weights", f)
}

func scopedProductionAgg(userID int64, f scope.Filters, columns ...string) sq.SelectBuilder {
	builder := applyMeasurementFilters(
		scopedMeasurements("productions", columns, userID), "productions", f)
	if f.ProductionType != "" {
		builder = builder.Where(sq.Expr("LOWER(productions.type) LIKE ?", containsPattern(f.ProductionType)))
	}
	return builder
}

type countAvg struct {
	Total int64   `db:"total"`
	Avg   float64 `db:"avg"`
}

type countSum struct {
	Total int64   `db:"total"`
	Sum   float64 `db:"sum"`
}

// WeightStats returns the weighing count and average kilos; an empty scope
// yields (0, 0).
func (r *Repository) WeightStats(ctx context.Context, userID int64, f scope.Filters) (int64, float64, error) {
	if userID <= 0 {
		return 0, 0, nil
	}
	var row countAvg
	builder := scopedWeightAgg(userID, f,
		"COUNT(weights.id) AS total", "COALESCE(AVG(weights.kilos), 0) AS avg")
	if err := r.getOne(ctx, &row, builder, "weight stats"); err != nil {
		return 0, 0, err
	}
	return row.Total, row.Avg, nil
}

// ProductionStats returns the production record count and quantity sum; an
// empty scope yields (0, 0).
func (r *Repository) ProductionStats(ctx context.Context, userID int64, f scope.Filters) (int64, float64, error) {
	if userID <= 0 {
		return 0, 0, nil
	}
	var row countSum
	builder := scopedProductionAgg(userID, f,
		"COUNT(productions.id) AS total", "COALESCE(SUM(productions.quantity), 0) AS sum")
	if err := r.getOne(ctx, &row, builder, "production stats"); err != nil {
		return 0, 0, err
	}
	return row.Total, row.Sum, nil
}

// MonthlyWeightAvg averages kilos per calendar month, chronologically.
func (r *Repository) MonthlyWeightAvg(ctx context.Context, userID int64, f scope.Filters) ([]MonthValue, error) {
	if userID <= 0 {
		return []MonthValue{}, nil
	}
	builder := scopedWeightAgg(userID, f,
		"substr(weights.date, 1, 7) AS ym", "AVG(weights.kilos) AS value").
		GroupBy("ym").
		OrderBy("ym ASC")
	var rows []MonthValue
	err := r.selectAll(ctx, &rows, builder, "monthly weight avg")
	return rows, err
}

// MonthlyProductionSum sums quantities per calendar month, chronologically.
func (r *Repository) MonthlyProductionSum(ctx context.Context, userID int64, f scope.Filters) ([]MonthValue, error) {
	if userID <= 0 {
		return []MonthValue{}, nil
	}
	builder := scopedProductionAgg(userID, f,
		"substr(productions.date, 1, 7) AS ym", "SUM(productions.quantity) AS value").
		GroupBy("ym").
		OrderBy("ym ASC")
	var rows []MonthValue
	err := r.selectAll(ctx, &rows, builder, "monthly production sum")
	return rows, err
}

// Costs

func scopedCostAgg(userID int64, f scope.Filters, columns ...string) sq.SelectBuilder {
	builder := sq.Select(columns...).
		From("costs").
		Join("batches ON batches.id = costs.batch_id").
		Where(sq.Eq{"batches.user_id": userID})
	return applyCostFilters(builder, f)
}

type countCents struct {
	Total int64 `db:"total"`
	Cents int64 `db:"cents"`
}

// CostStats returns the cost record count and amount sum in cents; an empty
// scope yields (0, 0).
func (r *Repository) CostStats(ctx context.Context, userID int64, f scope.Filters) (int64, int64, error) {
	if userID <= 0 {
		return 0, 0, nil
	}
	var row countCents
	builder := scopedCostAgg(userID, f,
		"COUNT(costs.id) AS total", "COALESCE(SUM(costs.amount_cents), 0) AS cents")
	if err := r.getOne(ctx, &row, builder, "cost stats"); err != nil {
		return 0, 0, err
	}
	return row.Total, row.Cents, nil
}

func (r *Repository) CostsByType(ctx context.Context, userID int64, f scope.Filters) ([]LabelCents, error) {
	if userID <= 0 {
		return []LabelCents{}, nil
	}
	builder := scopedCostAgg(userID, f,
		"costs.type AS label", "SUM(costs.amount_cents) AS total_cents").
		GroupBy("costs.type").
		OrderBy("total_cents DESC")
	var rows []LabelCents
	err := r.selectAll(ctx, &rows, builder, "costs by type")
	return rows, err
}

func (r *Repository) CostsByBatch(ctx context.Context, userID int64, f scope.Filters) ([]LabelCents, error) {
	if userID <= 0 {
		return []LabelCents{}, nil
	}
	builder := scopedCostAgg(userID, f,
		"batches.name AS label", "SUM(costs.amount_cents) AS total_cents").
		GroupBy("batches.name").
		OrderBy("total_cents DESC")
	var rows []LabelCents
	err := r.selectAll(ctx, &rows, builder, "costs by batch")
	return rows, err
}

// CostsByAnimal sums costs per referenced animal. General costs (no animal)
// are excluded here by the inner join while still counting toward the
// batch-level sums above.
func (r *Repository) CostsByAnimal(ctx context.Context, userID int64, f scope.Filters) ([]LabelCents, error) {
	if userID <= 0 {
		return []LabelCents{}, nil
	}
	builder := scopedCostAgg(userID, f,
		"COALESCE(animals.code, animals.species) AS label", "SUM(costs.amount_cents) AS total_cents").
		Join("animals ON animals.id = costs.animal_id").
		GroupBy("costs.animal_id").
		OrderBy("total_cents DESC")
	var rows []LabelCents
	err := r.selectAll(ctx, &rows, builder, "costs by animal")
	return rows, err
}

// MonthlyCostSum sums amounts per calendar month, chronologically.
func (r *Repository) MonthlyCostSum(ctx context.Context, userID int64, f scope.Filters) ([]MonthCents, error) {
	if userID <= 0 {
		return []MonthCents{}, nil
	}
	builder := scopedCostAgg(userID, f,
		"substr(costs.date, 1, 7) AS ym", "SUM(costs.amount_cents) AS total_cents").
		GroupBy("ym").
		OrderBy("ym ASC")
	var rows []MonthCents
	err := r.selectAll(ctx, &rows, builder, "monthly cost sum")
	return rows, err
}
