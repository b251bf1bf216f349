package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *Repository, email string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), core.User{
		Email:        email,
		Name:         "Test",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return id
}

func seedBatch(t *testing.T, repo *Repository, userID int64, name string) int64 {
	t.Helper()
	id, err := repo.CreateBatch(context.Background(), core.Batch{
		UserID:   userID,
		Name:     name,
		IsActive: true,
	})
	require.NoError(t, err)
	return id
}

func seedAnimal(t *testing.T, repo *Repository, userID, batchID int64, code, species string) int64 {
	t.Helper()
	id, err := repo.CreateAnimal(context.Background(), userID, core.Animal{
		BatchID:   batchID,
		Code:      code,
		Species:   species,
		Sex:       core.SexFemale,
		BirthDate: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return id
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestOwnershipScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userA := seedUser(t, repo, "a@example.com")
	userB := seedUser(t, repo, "b@example.com")
	batchA := seedBatch(t, repo, userA, "North")
	batchB := seedBatch(t, repo, userB, "South")
	seedAnimal(t, repo, userA, batchA, "A001", "Cow")
	seedAnimal(t, repo, userB, batchB, "B001", "Cow")

	animals, err := repo.ListAnimals(ctx, userA, scope.Filters{})
	require.NoError(t, err)
	require.Len(t, animals, 1)
	assert.Equal(t, "A001", animals[0].Code)

	// Records outside the owner's scope behave as missing.
	_, err = repo.GetBatch(ctx, userA, batchB)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// No authenticated user: empty results, never an error.
	animals, err = repo.ListAnimals(ctx, 0, scope.Filters{})
	require.NoError(t, err)
	assert.Empty(t, animals)

	batches, err := repo.ListBatches(ctx, 0, scope.Filters{})
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestAnimalSearchAndFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "u@example.com")
	batch := seedBatch(t, repo, user, "Lote 1")
	seedAnimal(t, repo, user, batch, "V1", "Vaca")
	seedAnimal(t, repo, user, batch, "C1", "Cerdo")

	animals, err := repo.ListAnimals(ctx, user, scope.Filters{Search: "Vaca"})
	require.NoError(t, err)
	require.Len(t, animals, 1)
	assert.Equal(t, "V1", animals[0].Code)

	// Case-insensitive substring match.
	animals, err = repo.ListAnimals(ctx, user, scope.Filters{Search: "vAc"})
	require.NoError(t, err)
	assert.Len(t, animals, 1)

	animals, err = repo.ListAnimals(ctx, user, scope.Filters{Search: "oveja"})
	require.NoError(t, err)
	assert.Empty(t, animals)

	// Insertion order, newest first.
	animals, err = repo.ListAnimals(ctx, user, scope.Filters{})
	require.NoError(t, err)
	require.Len(t, animals, 2)
	assert.Equal(t, "C1", animals[0].Code)
}

func TestAnimalCodeUniqueness(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "u@example.com")
	batch := seedBatch(t, repo, user, "Lote 1")
	seedAnimal(t, repo, user, batch, "A001", "Vaca")

	_, err := repo.CreateAnimal(ctx, user, core.Animal{
		BatchID: batch, Code: "A001", Species: "Vaca",
		Sex: core.SexMale, BirthDate: day(2023, 1, 1),
	})
	assert.ErrorIs(t, err, core.ErrCodeTaken)

	// Absent codes do not collide.
	for i := 0; i < 2; i++ {
		_, err := repo.CreateAnimal(ctx, user, core.Animal{
			BatchID: batch, Species: "Vaca",
			Sex: core.SexMale, BirthDate: day(2023, 1, 1),
		})
		require.NoError(t, err)
	}
}

func TestBatchOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "u@example.com")
	seedBatch(t, repo, user, "Bravo")
	seedBatch(t, repo, user, "Alfa")

	batches, err := repo.ListBatches(ctx, user, scope.Filters{Order: "name"})
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "Alfa", batches[0].Name)

	// Unknown order falls back to newest first.
	batches, err = repo.ListBatches(ctx, user, scope.Filters{Order: "evil"})
	require.NoError(t, err)
	assert.Equal(t, "Alfa", batches[0].Name) // inserted last
}

func TestCostFiltersAndOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "u@example.com")
	batch := seedBatch(t, repo, user, "Lote 1")

	mk := func(desc string, cents int64, d time.Time, typ core.CostType) int64 {
		id, err := repo.CreateCost(ctx, user, core.Cost{
			BatchID: batch, Type: typ, Description: desc,
			Amount: core.Money{Cents: cents}, Date: d,
		})
		require.NoError(t, err)
		return id
	}
	mk("Concentrado", 1000, day(2024, 1, 5), core.CostFeed)
	mk("Vacunas", 2000, day(2024, 2, 10), core.CostHealth)
	mk("Cerca", 500, day(2024, 2, 20), core.CostMaintenance)

	// Event date descending.
	costs, err := repo.ListCosts(ctx, user, scope.Filters{})
	require.NoError(t, err)
	require.Len(t, costs, 3)
	assert.Equal(t, "Cerca", costs[0].Description)

	// Inclusive date range on both ends.
	costs, err = repo.ListCosts(ctx, user, scope.Filters{
		DateStart: day(2024, 2, 10), DateEnd: day(2024, 2, 20),
	})
	require.NoError(t, err)
	assert.Len(t, costs, 2)

	costs, err = repo.ListCosts(ctx, user, scope.Filters{CostType: core.CostFeed})
	require.NoError(t, err)
	require.Len(t, costs, 1)
	assert.Equal(t, "Concentrado", costs[0].Description)

	costs, err = repo.ListCosts(ctx, user, scope.Filters{Search: "vacu"})
	require.NoError(t, err)
	assert.Len(t, costs, 1)
}

func TestCostAnimalMustMatchBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "u@example.com")
	batch1 := seedBatch(t, repo, user, "Lote 1")
	batch2 := seedBatch(t, repo, user, "Lote 2")
	animal2 := seedAnimal(t, repo, user, batch2, "X1", "Vaca")

	_, err := repo.CreateCost(ctx, user, core.Cost{
		BatchID: batch1, AnimalID: animal2, Type: core.CostFeed,
		Description: "Cruce", Amount: core.Money{Cents: 100}, Date: day(2024, 1, 1),
	})
	assert.ErrorIs(t, err, core.ErrAnimalBatchMismatch)
}

func TestDeleteCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "u@example.com")
	batch := seedBatch(t, repo, user, "Lote 1")
	animal := seedAnimal(t, repo, user, batch, "A001", "Vaca")

	_, err := repo.CreateWeight(ctx, user, core.Weight{
		AnimalID: animal, Date: day(2024, 1, 1), Kilos: 300,
	})
	require.NoError(t, err)

	costID, err := repo.CreateCost(ctx, user, core.Cost{
		BatchID: batch, AnimalID: animal, Type: core.CostHealth,
		Description: "Vacuna", Amount: core.Money{Cents: 100}, Date: day(2024, 1, 1),
	})
	require.NoError(t, err)

	// Deleting the animal cascades its measurements and clears the cost
	// reference without deleting the cost row.
	require.NoError(t, repo.DeleteAnimal(ctx, user, animal))

	weights, err := repo.ListWeights(ctx, user, scope.Filters{})
	require.NoError(t, err)
	assert.Empty(t, weights)

	cost, err := repo.GetCost(ctx, user, costID)
	require.NoError(t, err)
	assert.Zero(t, cost.AnimalID)

	// Deleting the batch removes everything beneath it.
	animal2 := seedAnimal(t, repo, user, batch, "A002", "Vaca")
	_, err = repo.CreateProduction(ctx, user, core.Production{
		AnimalID: animal2, Date: day(2024, 1, 1), Type: "Leche", Quantity: 10,
	})
	require.NoError(t, err)

	_, err = repo.DeleteBatch(ctx, user, batch)
	require.NoError(t, err)

	animals, err := repo.ListAnimals(ctx, user, scope.Filters{})
	require.NoError(t, err)
	assert.Empty(t, animals)

	costs, err := repo.ListCosts(ctx, user, scope.Filters{})
	require.NoError(t, err)
	assert.Empty(t, costs)

	productions, err := repo.ListProductions(ctx, user, scope.Filters{})
	require.NoError(t, err)
	assert.Empty(t, productions)
}

func TestCostAggregates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "u@example.com")
	batch := seedBatch(t, repo, user, "Lote 1")
	animal := seedAnimal(t, repo, user, batch, "A001", "Vaca")

	mk := func(cents int64, d time.Time, animalID int64) {
		_, err := repo.CreateCost(ctx, user, core.Cost{
			BatchID: batch, AnimalID: animalID, Type: core.CostFeed,
			Description: "c", Amount: core.Money{Cents: cents}, Date: d,
		})
		require.NoError(t, err)
	}
	mk(1000, day(2024, 1, 5), animal)
	mk(2000, day(2024, 2, 10), 0) // general cost, no animal
	mk(500, day(2024, 2, 20), animal)

	count, cents, err := repo.CostStats(ctx, user, scope.Filters{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, int64(3500), cents)

	monthly, err := repo.MonthlyCostSum(ctx, user, scope.Filters{})
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-01", monthly[0].Month)
	assert.Equal(t, int64(1000), monthly[0].TotalCents)
	assert.Equal(t, "2024-02", monthly[1].Month)
	assert.Equal(t, int64(2500), monthly[1].TotalCents)

	// General costs count toward batch-level sums...
	byBatch, err := repo.CostsByBatch(ctx, user, scope.Filters{})
	require.NoError(t, err)
	require.Len(t, byBatch, 1)
	assert.Equal(t, int64(3500), byBatch[0].TotalCents)

	// ...but are excluded from per-animal sums.
	byAnimal, err := repo.CostsByAnimal(ctx, user, scope.Filters{})
	require.NoError(t, err)
	require.Len(t, byAnimal, 1)
	assert.Equal(t, "A001", byAnimal[0].Label)
	assert.Equal(t, int64(1500), byAnimal[0].TotalCents)
}

func TestTrackingAggregates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "u@example.com")
	batch := seedBatch(t, repo, user, "Lote 1")
	animal := seedAnimal(t, repo, user, batch, "A001", "Vaca")

	for _, w := range []struct {
		d     time.Time
		kilos float64
	}{
		{day(2024, 1, 10), 300},
		{day(2024, 1, 20), 310},
		{day(2024, 2, 5), 320},
	} {
		_, err := repo.CreateWeight(ctx, user, core.Weight{AnimalID: animal, Date: w.d, Kilos: w.kilos})
		require.NoError(t, err)
	}

	count, avg, err := repo.WeightStats(ctx, user, scope.Filters{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.InDelta(t, 310.0, avg, 0.001)

	monthly, err := repo.MonthlyWeightAvg(ctx, user, scope.Filters{})
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-01", monthly[0].Month)
	assert.InDelta(t, 305.0, monthly[0].Value, 0.001)

	// Empty scope degrades to zeros, not errors.
	count, avg, err = repo.WeightStats(ctx, user, scope.Filters{DateStart: day(2030, 1, 1)})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, avg)
}

func TestAnimalGroupings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "u@example.com")
	b1 := seedBatch(t, repo, user, "Alfa")
	b2 := seedBatch(t, repo, user, "Bravo")
	seedAnimal(t, repo, user, b1, "A1", "Vaca")
	seedAnimal(t, repo, user, b2, "B1", "Vaca")
	seedAnimal(t, repo, user, b2, "B2", "Cerdo")

	perBatch, err := repo.AnimalsPerBatch(ctx, user, scope.Filters{}, false)
	require.NoError(t, err)
	require.Len(t, perBatch, 2)
	assert.Equal(t, "Alfa", perBatch[0].Label)

	perBatch, err = repo.AnimalsPerBatch(ctx, user, scope.Filters{}, true)
	require.NoError(t, err)
	assert.Equal(t, "Bravo", perBatch[0].Label)
	assert.Equal(t, int64(2), perBatch[0].Total)

	perSpecies, err := repo.AnimalsPerSpecies(ctx, user, scope.Filters{})
	require.NoError(t, err)
	require.Len(t, perSpecies, 2)
	assert.Equal(t, "Vaca", perSpecies[0].Label)

	perSpecies, err = repo.AnimalsPerSpecies(ctx, user, scope.Filters{Species: "vaca"})
	require.NoError(t, err)
	require.Len(t, perSpecies, 1)
	assert.Equal(t, int64(2), perSpecies[0].Total)
}

func TestSessions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := seedUser(t, repo, "u@example.com")
	require.NoError(t, repo.CreateSession(ctx, "tok1", user, now.Add(time.Hour)))

	got, err := repo.SessionUser(ctx, "tok1", now)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = repo.SessionUser(ctx, "tok1", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.SessionUser(ctx, "unknown", now)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.DeleteSession(ctx, "tok1"))
	_, err = repo.SessionUser(ctx, "tok1", now)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUserEmailUnique(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "dup@example.com")
	_, err := repo.CreateUser(context.Background(), core.User{
		Email: "dup@example.com", Name: "Other", PasswordHash: "x",
	})
	assert.ErrorIs(t, err, core.ErrEmailTaken)
}
