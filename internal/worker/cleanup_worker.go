// Package worker runs the asynchronous housekeeping: deleting image files
// the web app scheduled for removal, sweeping orphaned files the queue
// missed, and purging expired sessions.
package worker

import (
	"context"
	"time"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/amqp"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/media"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

type CleanupWorker struct {
	repo   *storage.Repository
	store  *media.Store
	logger *log.Logger
}

func NewCleanupWorker(repo *storage.Repository, store *media.Store, logger *log.Logger) *CleanupWorker {
	return &CleanupWorker{
		repo:   repo,
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleCleanupMessage deletes one scheduled image file. Deleting an already
// absent file succeeds, so redelivered messages are harmless.
func (w *CleanupWorker) HandleCleanupMessage(ctx context.Context, msg *amqp.ImageCleanupMessage) error {
	if err := w.store.Delete(msg.Path); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "image file removed",
		log.FieldOperation, log.OpCleanup,
		log.FieldImagePath, msg.Path,
		log.FieldBatchID, msg.BatchID)
	return nil
}

// SweepOrphans removes media files no batch references anymore. This is the
// backstop for cleanup messages lost while the queue or worker was down.
func (w *CleanupWorker) SweepOrphans(ctx context.Context) error {
	referenced, err := w.repo.BatchImagePaths(ctx)
	if err != nil {
		return err
	}
	refs := make(map[string]bool, len(referenced))
	for _, p := range referenced {
		refs[p] = true
	}

	stored, err := w.store.List()
	if err != nil {
		return err
	}

	removed := 0
	for _, name := range stored {
		if refs[name] {
			continue
		}
		if err := w.store.Delete(name); err != nil {
			w.logger.ErrorContext(ctx, "failed to remove orphaned image",
				log.FieldError, err, log.FieldImagePath, name)
			continue
		}
		removed++
	}

	w.logger.InfoContext(ctx, "orphan sweep completed",
		log.FieldOperation, log.OpSweep,
		"stored", len(stored),
		"referenced", len(referenced),
		"removed", removed)
	return nil
}

// PurgeSessions drops sessions past their expiry.
func (w *CleanupWorker) PurgeSessions(ctx context.Context) error {
	n, err := w.repo.DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "expired sessions purged", "count", n)
	}
	return nil
}
