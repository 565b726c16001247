package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/lab-report-tracker/internal/archive"
	"github.com/joseph-ayodele/lab-report-tracker/internal/async"
	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/extraction"
	"github.com/joseph-ayodele/lab-report-tracker/internal/ingest"
	"github.com/joseph-ayodele/lab-report-tracker/internal/pipeline"
	"github.com/joseph-ayodele/lab-report-tracker/internal/repository"
	"github.com/joseph-ayodele/lab-report-tracker/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Missing .env is fine in production; config comes from real env vars.
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		return err
	}

	txManager := repository.NewTxManager(pool)
	taskRepo := repository.NewTaskRepository(pool, logger)
	patientRepo := repository.NewPatientRepository(pool, logger)
	recordRepo := repository.NewRecordRepository(pool, txManager, logger)

	extractor := extraction.NewClient(extraction.Config{
		APIKey:      cfg.Extraction.APIKey,
		BaseURL:     cfg.Extraction.BaseURL,
		Model:       cfg.Extraction.Model,
		Temperature: cfg.Extraction.Temperature,
		Timeout:     cfg.Extraction.Timeout,
	}, logger)

	var archiver archive.DocumentArchiver
	if cfg.Archive.BaseURL != "" {
		archiver = archive.NewClient(archive.Config{
			BaseURL:         cfg.Archive.BaseURL,
			APIToken:        cfg.Archive.APIToken,
			Timeout:         cfg.Archive.Timeout,
			CorrespondentID: cfg.Archive.CorrespondentID,
			DocumentTypeID:  cfg.Archive.DocumentTypeID,
			TagIDs:          cfg.Archive.TagIDs,
		}, logger)
	} else {
		logger.Info("document archival disabled")
	}

	persister := pipeline.NewPersister(patientRepo, recordRepo, logger)
	processor := pipeline.NewProcessor(extractor, archiver, persister, logger)

	queue := async.NewTaskQueue(taskRepo, processor, logger,
		async.WithWorkers(cfg.Worker.Workers),
		async.WithQueueSize(cfg.Worker.QueueSize),
		async.WithProcessTimeout(cfg.Worker.ProcessTimeout),
		async.WithMaxRetries(cfg.Worker.MaxRetries),
	)
	queue.Start()

	if err := queue.Requeue(ctx); err != nil {
		logger.Warn("startup requeue failed", "error", err)
	}

	gateway, err := ingest.NewGateway(cfg.Upload.Dir, cfg.Upload.MaxSize, taskRepo, queue, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.NewRouter(server.Deps{
			Gateway:  gateway,
			Tasks:    taskRepo,
			Patients: patientRepo,
			Records:  recordRepo,
			Pool:     pool,
			MaxSize:  cfg.Upload.MaxSize,
			Logger:   logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", "error", err)
		}
		if err := queue.Shutdown(shutdownCtx); err != nil {
			logger.Warn("queue drain incomplete", "error", err)
		}
		return nil
	})

	return g.Wait()
}
