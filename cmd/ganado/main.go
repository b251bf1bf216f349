package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/amqp"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/cache"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/config"
	apphttp "github.com/juan2005elpapu/BIOS-INGESOFT/internal/http"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/media"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/services"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

func main() {
	// .env is for local development; absent in containers.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

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

	// AMQP is optional: without it, image cleanup is left to the worker's
	// orphan sweep.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled, image cleanup relies on the periodic sweep")
	}

	cacheManager := cache.NewManager()
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	dashboard := services.NewDashboardService(repo, logger, cacheManager, cfg.CacheSize, cfg.CacheTTL)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Accounts:          services.NewAccountService(repo, logger, cfg.SessionTTL),
		Batches:           services.NewBatchService(repo, mediaStore, amqpClient, dashboard, logger),
		Animals:           services.NewAnimalService(repo, dashboard, logger),
		Costs:             services.NewCostService(repo, dashboard, logger),
		Tracking:          services.NewTrackingService(repo, dashboard, logger),
		Dashboard:         dashboard,
		Logger:            logger,
		ReadyCheck:        repo.Ping,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting ganado server", "port", cfg.Port, log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
