package services

import (
	"context"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

type AnimalService struct {
	repo      *storage.Repository
	dashboard *DashboardService
	logger    *log.Logger
}

func NewAnimalService(repo *storage.Repository, dashboard *DashboardService, logger *log.Logger) *AnimalService {
	return &AnimalService{
		repo:      repo,
		dashboard: dashboard,
		logger:    logger.WithComponent(log.ComponentAnimals),
	}
}

func (s *AnimalService) List(ctx context.Context, userID int64, f scope.Filters) ([]core.Animal, error) {
	return s.repo.ListAnimals(ctx, userID, f)
}

func (s *AnimalService) Get(ctx context.Context, userID, id int64) (core.Animal, error) {
	return s.repo.GetAnimal(ctx, userID, id)
}

func (s *AnimalService) Options(ctx context.Context, userID int64) ([]storage.AnimalOption, error) {
	return s.repo.AnimalOptions(ctx, userID)
}

func (s *AnimalService) Create(ctx context.Context, userID int64, a core.Animal) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateAnimal(ctx, userID, a)
	if err != nil {
		return 0, err
	}
	s.dashboard.Invalidate(userID)

	s.logger.InfoContext(ctx, "animal created",
		log.FieldUserID, userID, log.FieldAnimalID, id, log.FieldBatchID, a.BatchID)
	return id, nil
}

func (s *AnimalService) Update(ctx context.Context, userID int64, a core.Animal) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateAnimal(ctx, userID, a); err != nil {
		return err
	}
	s.dashboard.Invalidate(userID)
	return nil
}

func (s *AnimalService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteAnimal(ctx, userID, id); err != nil {
		return err
	}
	s.dashboard.Invalidate(userID)

	s.logger.InfoContext(ctx, "animal deleted",
		log.FieldUserID, userID, log.FieldAnimalID, id)
	return nil
}
