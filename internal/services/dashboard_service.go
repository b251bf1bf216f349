package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/cache"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

// Labels shown when a grouped record carries no usable name.
const (
	labelNoBatch   = "Sin lote"
	labelNoSpecies = "Sin especie"
)

// BatchesReport summarizes the herd: batch and animal counts plus animal
// distribution charts.
type BatchesReport struct {
	TotalBatches      int64     `json:"total_batches"`
	TotalAnimals      int64     `json:"total_animals"`
	AvgPerBatch       float64   `json:"avg_per_batch"`
	AnimalsPerBatch   ChartData `json:"animals_per_batch"`
	AnimalsPerSpecies ChartData `json:"animals_per_species"`
	AnimalsPerSex     ChartData `json:"animals_per_sex"`
}

// TrackingReport summarizes weighings and production records with monthly
// series.
type TrackingReport struct {
	TotalWeighings    int64     `json:"total_weighings"`
	AvgKilos          float64   `json:"avg_kilos"`
	TotalProductions  int64     `json:"total_productions"`
	TotalQuantity     float64   `json:"total_quantity"`
	MonthlyWeight     ChartData `json:"monthly_weight"`
	MonthlyProduction ChartData `json:"monthly_production"`
}

// CostsReport summarizes spending with distribution and monthly charts.
// Amounts are in currency units.
type CostsReport struct {
	TotalCosts  int64     `json:"total_costs"`
	TotalAmount float64   `json:"total_amount"`
	AvgAmount   float64   `json:"avg_amount"`
	ByType      ChartData `json:"by_type"`
	ByBatch     ChartData `json:"by_batch"`
	ByAnimal    ChartData `json:"by_animal"`
	Monthly     ChartData `json:"monthly"`
}

// DashboardService computes the three dashboard reports. Each report fans its
// queries out concurrently and the finished report is cached per user and
// filter set.
type DashboardService struct {
	repo   *storage.Repository
	logger *log.Logger

	batchesCache  *cache.LRUCache[BatchesReport]
	trackingCache *cache.LRUCache[TrackingReport]
	costsCache    *cache.LRUCache[CostsReport]
}

func NewDashboardService(repo *storage.Repository, logger *log.Logger, manager *cache.Manager, size int, ttl time.Duration) *DashboardService {
	s := &DashboardService{
		repo:          repo,
		logger:        logger.WithComponent(log.ComponentDashboard),
		batchesCache:  cache.NewLRUCache[BatchesReport](size, ttl),
		trackingCache: cache.NewLRUCache[TrackingReport](size, ttl),
		costsCache:    cache.NewLRUCache[CostsReport](size, ttl),
	}
	if manager != nil {
		manager.Register(s.batchesCache)
		manager.Register(s.trackingCache)
		manager.Register(s.costsCache)
	}
	return s
}

// Invalidate drops every cached report for a user. Mutating services call
// this after each write so reports never serve stale data past a mutation.
func (s *DashboardService) Invalidate(userID int64) {
	prefix := fmt.Sprintf("%d|", userID)
	s.batchesCache.DeletePrefix(prefix)
	s.trackingCache.DeletePrefix(prefix)
	s.costsCache.DeletePrefix(prefix)
}

func reportKey(userID int64, report string, f scope.Filters) string {
	return fmt.Sprintf("%d|%s|q=%s|b=%d|a=%d|sp=%s|sx=%s|t=%s|pt=%s|ds=%s|de=%s|o=%s",
		userID, report, f.Search, f.BatchID, f.AnimalID, f.Species, f.Sex, f.CostType,
		f.ProductionType, f.DateStart.Format("2006-01-02"), f.DateEnd.Format("2006-01-02"), f.Order)
}

// monthLabel renders a "YYYY-MM" grouping key as "Jan 2006". Keys that do not
// parse are passed through untouched.
func monthLabel(ym string) string {
	t, err := time.Parse("2006-01", ym)
	if err != nil {
		return ym
	}
	return t.Format("Jan 2006")
}

func orLabel(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}

func countChart(rows []storage.LabelCount, fallback string) ChartData {
	chart := newChart(len(rows))
	for _, row := range rows {
		chart.append(orLabel(row.Label, fallback), float64(row.Total))
	}
	return chart
}

func centsChart(rows []storage.LabelCents, fallback string) ChartData {
	chart := newChart(len(rows))
	for _, row := range rows {
		chart.append(orLabel(row.Label, fallback), core.Money{Cents: row.TotalCents}.Units())
	}
	return chart
}

// Batches builds the herd overview report.
func (s *DashboardService) Batches(ctx context.Context, userID int64, f scope.Filters) (BatchesReport, error) {
	key := reportKey(userID, "batches", f)
	if userID > 0 {
		if report, ok := s.batchesCache.Get(key); ok {
			return report, nil
		}
	}

	var report BatchesReport
	var perBatch, perSpecies, perSex []storage.LabelCount

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.TotalBatches, err = s.repo.CountBatches(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		report.TotalAnimals, err = s.repo.CountAnimals(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		perBatch, err = s.repo.AnimalsPerBatch(gctx, userID, f, f.Order == "total")
		return err
	})
	g.Go(func() (err error) {
		perSpecies, err = s.repo.AnimalsPerSpecies(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		perSex, err = s.repo.AnimalsPerSex(gctx, userID, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return BatchesReport{}, fmt.Errorf("batches report: %w", err)
	}

	// A herd with no batches averages to 0, not a division error.
	if report.TotalBatches > 0 {
		report.AvgPerBatch = core.Round2(float64(report.TotalAnimals) / float64(report.TotalBatches))
	}

	report.AnimalsPerBatch = countChart(perBatch, labelNoBatch)
	report.AnimalsPerSpecies = countChart(perSpecies, labelNoSpecies)

	report.AnimalsPerSex = newChart(len(perSex))
	for _, row := range perSex {
		report.AnimalsPerSex.append(core.Sex(row.Label).Label(), float64(row.Total))
	}

	if userID > 0 {
		s.batchesCache.Set(key, report)
	}
	return report, nil
}

// Tracking builds the weighing and production report.
func (s *DashboardService) Tracking(ctx context.Context, userID int64, f scope.Filters) (TrackingReport, error) {
	key := reportKey(userID, "tracking", f)
	if userID > 0 {
		if report, ok := s.trackingCache.Get(key); ok {
			return report, nil
		}
	}

	var report TrackingReport
	var monthlyWeight, monthlyProduction []storage.MonthValue

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.TotalWeighings, report.AvgKilos, err = s.repo.WeightStats(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		report.TotalProductions, report.TotalQuantity, err = s.repo.ProductionStats(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		monthlyWeight, err = s.repo.MonthlyWeightAvg(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		monthlyProduction, err = s.repo.MonthlyProductionSum(gctx, userID, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return TrackingReport{}, fmt.Errorf("tracking report: %w", err)
	}

	report.AvgKilos = core.Round2(report.AvgKilos)
	report.TotalQuantity = core.Round2(report.TotalQuantity)

	report.MonthlyWeight = newChart(len(monthlyWeight))
	for _, row := range monthlyWeight {
		report.MonthlyWeight.append(monthLabel(row.Month), core.Round2(row.Value))
	}
	report.MonthlyProduction = newChart(len(monthlyProduction))
	for _, row := range monthlyProduction {
		report.MonthlyProduction.append(monthLabel(row.Month), core.Round2(row.Value))
	}

	if userID > 0 {
		s.trackingCache.Set(key, report)
	}
	return report, nil
}

// Costs builds the spending report. With no cost records every total and the
// average come back as 0 rather than an error.
func (s *DashboardService) Costs(ctx context.Context, userID int64, f scope.Filters) (CostsReport, error) {
	key := reportKey(userID, "costs", f)
	if userID > 0 {
		if report, ok := s.costsCache.Get(key); ok {
			return report, nil
		}
	}

	var report CostsReport
	var totalCents int64
	var byType, byBatch, byAnimal []storage.LabelCents
	var monthly []storage.MonthCents

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.TotalCosts, totalCents, err = s.repo.CostStats(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		byType, err = s.repo.CostsByType(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		byBatch, err = s.repo.CostsByBatch(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		byAnimal, err = s.repo.CostsByAnimal(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		monthly, err = s.repo.MonthlyCostSum(gctx, userID, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return CostsReport{}, fmt.Errorf("costs report: %w", err)
	}

	report.TotalAmount = core.Money{Cents: totalCents}.Units()
	if report.TotalCosts > 0 {
		report.AvgAmount = core.Round2(report.TotalAmount / float64(report.TotalCosts))
	}

	report.ByType = newChart(len(byType))
	for _, row := range byType {
		report.ByType.append(core.CostType(row.Label).Label(), core.Money{Cents: row.TotalCents}.Units())
	}
	report.ByBatch = centsChart(byBatch, labelNoBatch)
	report.ByAnimal = centsChart(byAnimal, labelNoSpecies)

	report.Monthly = newChart(len(monthly))
	for _, row := range monthly {
		report.Monthly.append(monthLabel(row.Month), core.Money{Cents: row.TotalCents}.Units())
	}

	if userID > 0 {
		s.costsCache.Set(key, report)
	}
	return report, nil
}
