package services

import (
	"context"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

// TrackingService covers both measurement kinds, weighings and production
// records. They share scoping and lifecycle, only the payload differs.
type TrackingService struct {
	repo      *storage.Repository
	dashboard *DashboardService
	logger    *log.Logger
}

func NewTrackingService(repo *storage.Repository, dashboard *DashboardService, logger *log.Logger) *TrackingService {
	return &TrackingService{
		repo:      repo,
		dashboard: dashboard,
		logger:    logger.WithComponent(log.ComponentTracking),
	}
}

func (s *TrackingService) ListWeights(ctx context.Context, userID int64, f scope.Filters) ([]core.Weight, error) {
	return s.repo.ListWeights(ctx, userID, f)
}

func (s *TrackingService) CreateWeight(ctx context.Context, userID int64, w core.Weight) (int64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateWeight(ctx, userID, w)
	if err != nil {
		return 0, err
	}
	s.dashboard.Invalidate(userID)

	s.logger.InfoContext(ctx, "weight recorded",
		log.FieldUserID, userID, log.FieldAnimalID, w.AnimalID)
	return id, nil
}

func (s *TrackingService) DeleteWeight(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteWeight(ctx, userID, id); err != nil {
		return err
	}
	s.dashboard.Invalidate(userID)
	return nil
}

func (s *TrackingService) ListProductions(ctx context.Context, userID int64, f scope.Filters) ([]core.Production, error) {
	return s.repo.ListProductions(ctx, userID, f)
}

func (s *TrackingService) CreateProduction(ctx context.Context, userID int64, p core.Production) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateProduction(ctx, userID, p)
	if err != nil {
		return 0, err
	}
	s.dashboard.Invalidate(userID)

	s.logger.InfoContext(ctx, "production recorded",
		log.FieldUserID, userID, log.FieldAnimalID, p.AnimalID)
	return id, nil
}

func (s *TrackingService) DeleteProduction(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteProduction(ctx, userID, id); err != nil {
		return err
	}
	s.dashboard.Invalidate(userID)
	return nil
}
