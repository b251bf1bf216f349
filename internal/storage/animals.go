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

type animalRow struct {
	ID        int64          `db:"id"`
	BatchID   int64          `db:"batch_id"`
	Code      sql.NullString `db:"code"`
	Species   string         `db:"species"`
	Breed     sql.NullString `db:"breed"`
	Sex       string         `db:"sex"`
	BirthDate string         `db:"birth_date"`
}

func (a animalRow) toCore() core.Animal {
	return core.Animal{
		ID:        a.ID,
		BatchID:   a.BatchID,
		Code:      a.Code.String,
		Species:   a.Species,
		Breed:     a.Breed.String,
		Sex:       core.Sex(a.Sex),
		BirthDate: parseDate(a.BirthDate),
	}
}

var animalColumns = []string{
	"animals.id", "animals.batch_id", "animals.code", "animals.species",
	"animals.breed", "animals.sex", "animals.birth_date",
}

// scopedAnimals restricts the select to animals whose batch belongs to
// userID.
func scopedAnimals(userID int64) sq.SelectBuilder {
	return sq.Select(animalColumns...).
		From("animals").
		Join("batches ON batches.id = animals.batch_id").
		Where(sq.Eq{"batches.user_id": userID})
}

// nullable maps an empty string to NULL so optional unique columns do not
// collide on "".
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListAnimals returns the animals visible to userID in insertion order,
// newest first.
func (r *Repository) ListAnimals(ctx context.Context, userID int64, f scope.Filters) ([]core.Animal, error) {
	if userID <= 0 {
		return []core.Animal{}, nil
	}

	builder := scopedAnimals(userID)
	if f.Search != "" {
		pat := containsPattern(f.Search)
		builder = builder.Where(sq.Or{
			sq.Expr("LOWER(animals.code) LIKE ?", pat),
			sq.Expr("LOWER(animals.species) LIKE ?", pat),
			sq.Expr("LOWER(animals.breed) LIKE ?", pat),
		})
	}
	if f.BatchID > 0 {
		builder = builder.Where(sq.Eq{"animals.batch_id": f.BatchID})
	}
	if f.Sex != "" {
		builder = builder.Where(sq.Eq{"animals.sex": string(f.Sex)})
	}
	builder = builder.OrderBy("animals.id DESC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list animals: %w", err)
	}

	var rows []animalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list animals: %w", err)
	}

	animals := make([]core.Animal, len(rows))
	for i, row := range rows {
		animals[i] = row.toCore()
	}
	return animals, nil
}

func (r *Repository) GetAnimal(ctx context.Context, userID, id int64) (core.Animal, error) {
	if userID <= 0 {
		return core.Animal{}, core.ErrNotFound
	}

	query, args, err := scopedAnimals(userID).Where(sq.Eq{"animals.id": id}).ToSql()
	if err != nil {
		return core.Animal{}, fmt.Errorf("build get animal: %w", err)
	}

	var row animalRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Animal{}, core.ErrNotFound
	}
	if err != nil {
		return core.Animal{}, fmt.Errorf("get animal: %w", err)
	}
	return row.toCore(), nil
}

// CreateAnimal inserts an animal under a batch the user owns. The batch
// ownership check happens first so foreign records report ErrNotFound
// instead of leaking.
func (r *Repository) CreateAnimal(ctx context.Context, userID int64, a core.Animal) (int64, error) {
	if _, err := r.GetBatch(ctx, userID, a.BatchID); err != nil {
		return 0, err
	}

	query, args, err := sq.Insert("animals").
		Columns("batch_id", "code", "species", "breed", "sex", "birth_date").
		Values(a.BatchID, nullable(a.Code), a.Species, nullable(a.Breed), string(a.Sex), fmtDate(a.BirthDate)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert animal: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "animals.code") {
			return 0, core.ErrCodeTaken
		}
		return 0, fmt.Errorf("insert animal: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) UpdateAnimal(ctx context.Context, userID int64, a core.Animal) error {
	if _, err := r.GetAnimal(ctx, userID, a.ID); err != nil {
		return err
	}
	if _, err := r.GetBatch(ctx, userID, a.BatchID); err != nil {
		return err
	}

	query, args, err := sq.Update("animals").
		Set("batch_id", a.BatchID).
		Set("code", nullable(a.Code)).
		Set("species", a.Species).
		Set("breed", nullable(a.Breed)).
		Set("sex", string(a.Sex)).
		Set("birth_date", fmtDate(a.BirthDate)).
		Where(sq.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update animal: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "animals.code") {
			return core.ErrCodeTaken
		}
		return fmt.Errorf("update animal: %w", err)
	}
	return requireRow(res)
}

// DeleteAnimal removes an animal in the user's scope. Its measurements
// cascade; cost rows keep their data with the animal reference cleared.
func (r *Repository) DeleteAnimal(ctx context.Context, userID, id int64) error {
	if _, err := r.GetAnimal(ctx, userID, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM animals WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete animal: %w", err)
	}
	return nil
}

// AnimalOption is the projection used to populate per-animal filter selects.
type AnimalOption struct {
	ID        int64  `db:"id" json:"id"`
	Code      string `db:"code" json:"code"`
	Species   string `db:"species" json:"species"`
	BatchID   int64  `db:"batch_id" json:"batch_id"`
	BatchName string `db:"batch_name" json:"batch_name"`
}

func (r *Repository) AnimalOptions(ctx context.Context, userID int64) ([]AnimalOption, error) {
	if userID <= 0 {
		return []AnimalOption{}, nil
	}

	var opts []AnimalOption
	err := r.db.SelectContext(ctx, &opts, `
		SELECT animals.id, COALESCE(animals.code, '') AS code, animals.species,
		       animals.batch_id, batches.name AS batch_name
		FROM animals
		JOIN batches ON batches.id = animals.batch_id
		WHERE batches.user_id = ?
		ORDER BY animals.code, animals.species`, userID)
	if err != nil {
		return nil, fmt.Errorf("animal options: %w", err)
	}
	return opts, nil
}

// animalInBatch reports whether the animal exists and belongs to the batch;
// used to validate cost references at write time.
func (r *Repository) animalInBatch(ctx context.Context, animalID, batchID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(1) FROM animals WHERE id = ? AND batch_id = ?", animalID, batchID)
	if err != nil {
		return false, fmt.Errorf("check animal batch: %w", err)
	}
	return n > 0, nil
}
