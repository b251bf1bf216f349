package services

import (
	"context"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

type CostService struct {
	repo      *storage.Repository
	dashboard *DashboardService
	logger    *log.Logger
}

func NewCostService(repo *storage.Repository, dashboard *DashboardService, logger *log.Logger) *CostService {
	return &CostService{
		repo:      repo,
		dashboard: dashboard,
		logger:    logger.WithComponent(log.ComponentCosts),
	}
}

func (s *CostService) List(ctx context.Context, userID int64, f scope.Filters) ([]core.Cost, error) {
	return s.repo.ListCosts(ctx, userID, f)
}

func (s *CostService) Get(ctx context.Context, userID, id int64) (core.Cost, error) {
	return s.repo.GetCost(ctx, userID, id)
}

func (s *CostService) Create(ctx context.Context, userID int64, c core.Cost) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateCost(ctx, userID, c)
	if err != nil {
		return 0, err
	}
	s.dashboard.Invalidate(userID)

	s.logger.InfoContext(ctx, "cost created",
		log.FieldUserID, userID,
		log.FieldBatchID, c.BatchID,
		log.FieldCostType, string(c.Type),
		log.FieldAmount, c.Amount.Cents)
	return id, nil
}

func (s *CostService) Update(ctx context.Context, userID int64, c core.Cost) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateCost(ctx, userID, c); err != nil {
		return err
	}
	s.dashboard.Invalidate(userID)
	return nil
}

func (s *CostService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteCost(ctx, userID, id); err != nil {
		return err
	}
	s.dashboard.Invalidate(userID)
	return nil
}
