package services

import (
	"context"
	"io"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/amqp"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/media"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

// BatchService orchestrates batch operations: storage writes, image files and
// the asynchronous cleanup of replaced or orphaned images.
type BatchService struct {
	repo       *storage.Repository
	mediaStore *media.Store
	amqpClient *amqp.Client
	dashboard  *DashboardService
	logger     *log.Logger
}

func NewBatchService(repo *storage.Repository, mediaStore *media.Store, amqpClient *amqp.Client, dashboard *DashboardService, logger *log.Logger) *BatchService {
	return &BatchService{
		repo:       repo,
		mediaStore: mediaStore,
		amqpClient: amqpClient,
		dashboard:  dashboard,
		logger:     logger.WithComponent(log.ComponentBatches),
	}
}

func (s *BatchService) List(ctx context.Context, userID int64, f scope.Filters) ([]core.Batch, error) {
	return s.repo.ListBatches(ctx, userID, f)
}

func (s *BatchService) Get(ctx context.Context, userID, id int64) (core.Batch, error) {
	return s.repo.GetBatch(ctx, userID, id)
}

func (s *BatchService) Options(ctx context.Context, userID int64) ([]storage.BatchOption, error) {
	return s.repo.BatchOptions(ctx, userID)
}

func (s *BatchService) Create(ctx context.Context, userID int64, b core.Batch) (int64, error) {
	b.UserID = userID
	if err := b.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateBatch(ctx, b)
	if err != nil {
		return 0, err
	}
	s.dashboard.Invalidate(userID)

	s.logger.InfoContext(ctx, "batch created",
		log.FieldUserID, userID, log.FieldBatchID, id)
	return id, nil
}

func (s *BatchService) Update(ctx context.Context, userID int64, b core.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateBatch(ctx, userID, b); err != nil {
		return err
	}
	s.dashboard.Invalidate(userID)
	return nil
}

// Delete removes a batch and everything under it, then schedules removal of
// its image file. The delete succeeds even when the cleanup message cannot be
// published; the sweep picks up what the queue misses.
func (s *BatchService) Delete(ctx context.Context, userID, id int64) error {
	imagePath, err := s.repo.DeleteBatch(ctx, userID, id)
	if err != nil {
		return err
	}
	s.dashboard.Invalidate(userID)

	if imagePath != "" {
		s.scheduleCleanup(ctx, imagePath, id)
	}

	s.logger.InfoContext(ctx, "batch deleted",
		log.FieldUserID, userID, log.FieldBatchID, id)
	return nil
}

// SetImage stores a new image for the batch and schedules cleanup of the
// replaced file, if any.
func (s *BatchService) SetImage(ctx context.Context, userID, id int64, upload io.Reader, originalName string) (string, error) {
	// Verify ownership before touching the disk.
	if _, err := s.repo.GetBatch(ctx, userID, id); err != nil {
		return "", err
	}

	name, err := s.mediaStore.Save(upload, originalName)
	if err != nil {
		return "", err
	}

	oldPath, err := s.repo.SetBatchImage(ctx, userID, id, name)
	if err != nil {
		if delErr := s.mediaStore.Delete(name); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove image after storage error",
				log.FieldError, delErr, log.FieldImagePath, name)
		}
		return "", err
	}

	if oldPath != "" && oldPath != name {
		s.scheduleCleanup(ctx, oldPath, id)
	}

	s.logger.InfoContext(ctx, "batch image set",
		log.FieldUserID, userID, log.FieldBatchID, id, log.FieldImagePath, name)
	return name, nil
}

// OpenImage serves a stored batch image after an ownership check.
func (s *BatchService) OpenImage(ctx context.Context, userID, id int64) (io.ReadCloser, error) {
	b, err := s.repo.GetBatch(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if b.ImagePath == "" {
		return nil, core.ErrNotFound
	}
	return s.mediaStore.Open(b.ImagePath)
}

func (s *BatchService) scheduleCleanup(ctx context.Context, path string, batchID int64) {
	if s.amqpClient == nil {
		s.logger.WarnContext(ctx, "AMQP not configured, skipping image cleanup message",
			log.FieldImagePath, path)
		return
	}
	if err := s.amqpClient.PublishImageCleanup(ctx, path, batchID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish image cleanup message",
			log.FieldError, err, log.FieldImagePath, path)
	}
}
