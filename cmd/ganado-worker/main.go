package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/amqp"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/config"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/media"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("starting ganado-worker", log.FieldOperation, log.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	mediaStore, err := media.NewStore(cfg.MediaDir)
	if err != nil {
		logger.Error("failed to initialize media store", log.FieldError, err, "dir", cfg.MediaDir)
		os.Exit(1)
	}

	cleanupWorker := worker.NewCleanupWorker(repo, mediaStore, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run a sweep at startup to catch anything missed while down.
	if err := cleanupWorker.SweepOrphans(ctx); err != nil {
		logger.Error("startup sweep failed", log.FieldError, err)
	}
	if err := cleanupWorker.PurgeSessions(ctx); err != nil {
		logger.Error("startup session purge failed", log.FieldError, err)
	}

	// Consume cleanup messages when AMQP is configured; otherwise the
	// scheduled sweep is the only cleanup path.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.ConsumeImageCleanup(ctx, func(msg *amqp.ImageCleanupMessage) error {
				return cleanupWorker.HandleCleanupMessage(ctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("message consumption failed", log.FieldError, err)
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled, running scheduled sweeps only")
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.SweepSchedule, func() {
		if err := cleanupWorker.SweepOrphans(ctx); err != nil {
			logger.Error("scheduled sweep failed", log.FieldError, err)
		}
		if err := cleanupWorker.PurgeSessions(ctx); err != nil {
			logger.Error("scheduled session purge failed", log.FieldError, err)
		}
	})
	if err != nil {
		logger.Error("invalid sweep schedule", log.FieldError, err, "schedule", cfg.SweepSchedule)
		os.Exit(1)
	}
	scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	cancel()
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("scheduler shutdown timeout reached")
	}
	logger.Info("worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
