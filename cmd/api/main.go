package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thimothe-das/fixeo-sub001/internal/adapters/storage"
	assignmentsrepo "github.com/thimothe-das/fixeo-sub001/internal/assignments/repository"
	"github.com/thimothe-das/fixeo-sub001/internal/disputes"
	estimatesrepo "github.com/thimothe-das/fixeo-sub001/internal/estimates/repository"
	apphttp "github.com/thimothe-das/fixeo-sub001/internal/http"
	"github.com/thimothe-das/fixeo-sub001/internal/http/router"
	"github.com/thimothe-das/fixeo-sub001/internal/notification"
	"github.com/thimothe-das/fixeo-sub001/internal/notification/outbox"
	"github.com/thimothe-das/fixeo-sub001/internal/payments"
	"github.com/thimothe-das/fixeo-sub001/internal/payments/token"
	requestsrepo "github.com/thimothe-das/fixeo-sub001/internal/requests/repository"
	requestssvc "github.com/thimothe-das/fixeo-sub001/internal/requests/service"
	"github.com/thimothe-das/fixeo-sub001/internal/scheduler"
	"github.com/thimothe-das/fixeo-sub001/platform/config"
	"github.com/thimothe-das/fixeo-sub001/platform/db"
	"github.com/thimothe-das/fixeo-sub001/platform/events"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"
	"github.com/thimothe-das/fixeo-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for dispute evidence uploads (MinIO)
	var storageSvc storage.Service
	if cfg.IsMinIOEnabled() {
		svc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure dispute evidence bucket", 5, 2*time.Second, func() error {
			return svc.EnsureBucketExists(ctx, cfg.GetMinioBucketDisputeEvidence())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketDisputeEvidence())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		storageSvc = svc
		log.Info("storage service initialized", "disputeEvidenceBucket", cfg.GetMinioBucketDisputeEvidence())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; dispute evidence uploads disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	requestsRepo := requestsrepo.New(pool)
	estimatesRepo := estimatesrepo.New(pool)
	refusalsRepo := assignmentsrepo.New(pool)
	outboxRepo := outbox.New(pool)

	disputesModule := disputes.NewModule(pool, storageSvc, cfg.GetMinioBucketDisputeEvidence(), log)

	guestTokens := token.NewIssuer(cfg.GetGuestTokenSecret(), cfg.GetGuestTokenTTL())

	lifecycle := requestssvc.New(
		requestsRepo,
		estimatesRepo,
		refusalsRepo,
		disputesModule.Repository(),
		guestTokens,
		eventBus,
		val,
		log,
		cfg.GetDefaultPhoneRegion(),
	)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.NewModule(outboxRepo, log)
	notificationModule.Subscribe(eventBus)

	// Outbox dispatcher feeds claimed rows to the task queue
	if cfg.GetRedisURL() != "" {
		dispatcher, err := scheduler.NewOutboxDispatcher(cfg, pool, log)
		if err != nil {
			log.Error("failed to initialize outbox dispatcher", "error", err)
			panic("failed to initialize outbox dispatcher: " + err.Error())
		}
		defer dispatcher.Close()
		go dispatcher.Run(ctx)
		log.Info("outbox dispatcher started")
	} else {
		log.Warn("REDIS_URL not configured; notification dispatch disabled")
	}

	paymentsModule := payments.NewModule(lifecycle, cfg, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	modules := []apphttp.Module{paymentsModule}
	if storageSvc != nil {
		modules = append(modules, disputesModule)
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
