package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/driftboard/driftboard/internal/api/handlers"
	"github.com/driftboard/driftboard/internal/api/router"
	"github.com/driftboard/driftboard/internal/config"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/validator"
	"github.com/driftboard/driftboard/internal/repository/postgres"
	"github.com/driftboard/driftboard/internal/services"
	"github.com/driftboard/driftboard/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, migrations.GetFS()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	driftRepo := postgres.NewDriftRepository(db)
	alertRepo := postgres.NewAlertRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Services
	auditor := services.NewAuditService(auditRepo, log)
	alerts := services.NewAlertService(alertRepo, log)
	hub := handlers.NewEventHub(log, cfg.Drift.EventBufferSize)
	drifts := services.NewDriftService(driftRepo, alerts, auditor, hub, cfg.Drift.DuplicateWindow, log)

	h := &router.Handlers{
		Health: handlers.NewHealthHandler(db, log),
		Drift:  handlers.NewDriftHandler(drifts, log, validator.New()),
		Alert:  handlers.NewAlertHandler(alerts, log),
		Audit:  handlers.NewAuditHandler(auditor, log),
		Events: hub,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
