package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realtydesk_backend/internal/adapters/storage"
	"realtydesk_backend/internal/ai/gateway"
	"realtydesk_backend/internal/alerts"
	"realtydesk_backend/internal/email"
	"realtydesk_backend/internal/events"
	apphttp "realtydesk_backend/internal/http"
	"realtydesk_backend/internal/http/router"
	"realtydesk_backend/internal/intake"
	"realtydesk_backend/internal/leads"
	leadagent "realtydesk_backend/internal/leads/agent"
	"realtydesk_backend/internal/notification"
	"realtydesk_backend/internal/properties"
	"realtydesk_backend/internal/transactions"
	"realtydesk_backend/internal/transcription"
	"realtydesk_backend/platform/ai/openaichat"
	"realtydesk_backend/platform/config"
	"realtydesk_backend/platform/db"
	"realtydesk_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

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

	// Model invocation gateway; every AI call in the system flows through it
	chatClient := openaichat.NewClient(openaichat.Config{
		APIKey:  cfg.GetModelAPIKey(),
		BaseURL: cfg.GetModelBaseURL(),
	})
	gw := gateway.New(chatClient, cfg, log)
	if !gw.Enabled() {
		log.Warn("MODEL_API_KEY not configured; model-backed features degrade to heuristics")
	}

	// Alert escalation email sender (no-op when SMTP is not configured)
	sender := email.NewFromConfig(cfg)
	if !cfg.IsEmailEnabled() {
		log.Warn("SMTP not fully configured; alert escalation emails disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, gw, log)
	if gw.Enabled() {
		narrator, err := leadagent.NewNarrator(gateway.NewModel(gw, cfg.GetDefaultModel()), log)
		if err != nil {
			log.Warn("insight agent unavailable, falling back to direct model calls", "error", err)
		} else {
			leadsModule.Service().SetInsightNarrator(narrator)
		}
	}

	transactionsModule := transactions.NewModule(pool, eventBus, gw, log)

	// Voice memo storage + transcription are optional capabilities of the
	// transaction checklist.
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure voice memo bucket", 5, 2*time.Second, func() error {
			return store.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure voice memo bucket exists", "error", err)
			panic("failed to ensure voice memo bucket exists: " + err.Error())
		}
		transactionsModule.Service().SetObjectStore(store)
		log.Info("voice memo storage initialized", "bucket", cfg.GetMinioBucketVoiceMemos())
	} else {
		log.Warn("MinIO not configured; voice memo uploads disabled")
	}

	transcriber := transcription.NewClient(cfg, log)
	if transcriber.Enabled() {
		transactionsModule.Service().SetTranscriber(transcriber)
		log.Info("transcription service initialized")
	}

	propertiesModule := properties.NewModule(cfg, leadsModule.Repository(), eventBus, log)

	intakeModule := intake.NewModule(
		gw,
		leadsModule.Service(),
		propertiesModule.Service(),
		transactionsModule.Service(),
		eventBus,
		log,
	)

	alertsModule := alerts.NewModule(
		pool,
		transactionsModule.Transactions(),
		transactionsModule.Checklist(),
		eventBus,
		sender,
		cfg.GetAlertEscalationAddress(),
		log,
	)

	notificationModule := notification.NewModule(
		pool,
		leadsModule.Repository(),
		transactionsModule.Transactions(),
		transactionsModule.Checklist(),
		eventBus,
		cfg,
		log,
	)

	// The hub's nudge and snooze-wake loops run in-process so reminders
	// reach the SSE clients connected to this server. Alert scans run in
	// the scheduler binary (or via POST /alerts/generate).
	notificationModule.Hub().Start(ctx)
	defer notificationModule.Hub().Stop()
	defer notificationModule.Stream().Close()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			intakeModule,
			leadsModule,
			propertiesModule,
			transactionsModule,
			alertsModule,
			notificationModule,
		},
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
		eventBus.Wait()
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
