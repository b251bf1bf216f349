package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

type dashFixture struct {
	repo      *storage.Repository
	dashboard *DashboardService
	userID    int64
	batchID   int64
	animalID  int64
}

func newDashFixture(t *testing.T) *dashFixture {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	userID, err := repo.CreateUser(ctx, core.User{Email: "u@example.com", Name: "U", PasswordHash: "x"})
	require.NoError(t, err)
	batchID, err := repo.CreateBatch(ctx, core.Batch{UserID: userID, Name: "Lote 1", IsActive: true})
	require.NoError(t, err)
	animalID, err := repo.CreateAnimal(ctx, userID, core.Animal{
		BatchID: batchID, Code: "V1", Species: "Vaca", Sex: core.SexFemale,
		BirthDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return &dashFixture{
		repo:      repo,
		dashboard: NewDashboardService(repo, testLogger(), nil, 16, time.Minute),
		userID:    userID,
		batchID:   batchID,
		animalID:  animalID,
	}
}

func TestBatchesReport(t *testing.T) {
	fx := newDashFixture(t)
	ctx := context.Background()

	_, err := fx.repo.CreateAnimal(ctx, fx.userID, core.Animal{
		BatchID: fx.batchID, Species: "Cerdo", Sex: core.SexMale,
		BirthDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	report, err := fx.dashboard.Batches(ctx, fx.userID, scope.Filters{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.TotalBatches)
	assert.Equal(t, int64(2), report.TotalAnimals)
	assert.Equal(t, 2.0, report.AvgPerBatch)

	require.Equal(t, 1, report.AnimalsPerBatch.Len())
	assert.Equal(t, "Lote 1", report.AnimalsPerBatch.Labels[0])
	assert.Equal(t, 2.0, report.AnimalsPerBatch.Values[0])

	assert.Len(t, report.AnimalsPerSpecies.Labels, 2)

	// Sex codes are rendered as display labels.
	assert.ElementsMatch(t, []string{"Hembra", "Macho"}, report.AnimalsPerSex.Labels)
}

func TestCostsReportMonthlyAndPerAnimal(t *testing.T) {
	fx := newDashFixture(t)
	ctx := context.Background()

	mk := func(cents int64, d time.Time, animalID int64, typ core.CostType) {
		_, err := fx.repo.CreateCost(ctx, fx.userID, core.Cost{
			BatchID: fx.batchID, AnimalID: animalID, Type: typ,
			Description: "c", Amount: core.Money{Cents: cents}, Date: d,
		})
		require.NoError(t, err)
	}
	mk(150000, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), fx.animalID, core.CostFeed)
	mk(50000, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 0, core.CostHealth)

	report, err := fx.dashboard.Costs(ctx, fx.userID, scope.Filters{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.TotalCosts)
	assert.Equal(t, 2000.0, report.TotalAmount)
	assert.Equal(t, 1000.0, report.AvgAmount)

	// Months render as "Jan 2006" labels in chronological order; a month with
	// no records simply has no point.
	assert.Equal(t, []string{"Jan 2024", "Mar 2024"}, report.Monthly.Labels)
	assert.Equal(t, []float64{1500, 500}, report.Monthly.Values)

	// Type codes render as display labels, largest first.
	assert.Equal(t, []string{"Alimentación", "Salud"}, report.ByType.Labels)

	// The general cost counts at batch level but not per animal.
	require.Equal(t, 1, report.ByBatch.Len())
	assert.Equal(t, 2000.0, report.ByBatch.Values[0])
	require.Equal(t, 1, report.ByAnimal.Len())
	assert.Equal(t, "V1", report.ByAnimal.Labels[0])
	assert.Equal(t, 1500.0, report.ByAnimal.Values[0])
}

func TestTrackingReport(t *testing.T) {
	fx := newDashFixture(t)
	ctx := context.Background()

	for _, w := range []struct {
		d     time.Time
		kilos float64
	}{
		{time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 300},
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 310.456},
	} {
		_, err := fx.repo.CreateWeight(ctx, fx.userID, core.Weight{AnimalID: fx.animalID, Date: w.d, Kilos: w.kilos})
		require.NoError(t, err)
	}

	report, err := fx.dashboard.Tracking(ctx, fx.userID, scope.Filters{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.TotalWeighings)
	assert.Equal(t, 305.23, report.AvgKilos) // rounded to 2 decimals
	assert.Equal(t, []string{"Jan 2024", "Feb 2024"}, report.MonthlyWeight.Labels)

	// No production records: zero KPIs and an empty, non-nil series.
	assert.Zero(t, report.TotalProductions)
	assert.Zero(t, report.TotalQuantity)
	assert.NotNil(t, report.MonthlyProduction.Labels)
	assert.Equal(t, 0, report.MonthlyProduction.Len())
}

func TestDashboardAnonymous(t *testing.T) {
	fx := newDashFixture(t)
	ctx := context.Background()

	batches, err := fx.dashboard.Batches(ctx, 0, scope.Filters{})
	require.NoError(t, err)
	assert.Zero(t, batches.TotalBatches)
	assert.Zero(t, batches.TotalAnimals)
	assert.Zero(t, batches.AvgPerBatch)
	assert.Equal(t, 0, batches.AnimalsPerBatch.Len())

	costs, err := fx.dashboard.Costs(ctx, 0, scope.Filters{})
	require.NoError(t, err)
	assert.Zero(t, costs.TotalCosts)
	assert.Zero(t, costs.AvgAmount)
	assert.Equal(t, 0, costs.Monthly.Len())

	tracking, err := fx.dashboard.Tracking(ctx, 0, scope.Filters{})
	require.NoError(t, err)
	assert.Zero(t, tracking.TotalWeighings)
}

func TestDashboardCacheInvalidation(t *testing.T) {
	fx := newDashFixture(t)
	ctx := context.Background()

	report, err := fx.dashboard.Batches(ctx, fx.userID, scope.Filters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.TotalAnimals)

	_, err = fx.repo.CreateAnimal(ctx, fx.userID, core.Animal{
		BatchID: fx.batchID, Species: "Vaca", Sex: core.SexMale,
		BirthDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Still cached until a service-level mutation invalidates.
	report, err = fx.dashboard.Batches(ctx, fx.userID, scope.Filters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.TotalAnimals)

	fx.dashboard.Invalidate(fx.userID)
	report, err = fx.dashboard.Batches(ctx, fx.userID, scope.Filters{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.TotalAnimals)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Jan 2024", monthLabel("2024-01"))
	assert.Equal(t, "Dec 2023", monthLabel("2023-12"))
	assert.Equal(t, "garbage", monthLabel("garbage"))
}
