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

	"github.com/mi4u/lembrete-api/internal/blobstore"
	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/export"
	"github.com/mi4u/lembrete-api/internal/ingest"
	"github.com/mi4u/lembrete-api/internal/repository"
	"github.com/mi4u/lembrete-api/internal/server"
	"github.com/mi4u/lembrete-api/internal/templates"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)

	if err := repository.HealthCheck(ctx, pool, time.Second, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	blobs, err := blobstore.Open(cfg.Storage.BlobDir, cfg.Storage.IndexPath, logger)
	if err != nil {
		logger.Error("opening blob store", "error", err)
		os.Exit(1)
	}
	defer blobs.Close()

	catalog, err := templates.Load(cfg.Templates.CatalogPath)
	if err != nil {
		logger.Error("loading template catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("template catalog loaded", "templates", catalog.Len())

	reminders := repository.NewReminderRepository(db, logger)
	users := repository.NewUserRepository(db, logger)
	ingestSvc := ingest.NewService(reminders, users, catalog, logger)
	exporter := export.NewService(logger)

	health := func(ctx context.Context) error {
		return repository.HealthCheck(ctx, pool, time.Second, logger)
	}

	srv := server.New(*cfg, ingestSvc, reminders, blobs, exporter, health, logger)
	e := srv.Echo()

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
