// The scheduler binary runs the background scans: smart alert generation,
// nudge scanning, and snooze wake-ups. Tasks are enqueued by an asynq
// periodic scheduler and consumed by an asynq worker in the same process.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"realtydesk_backend/internal/alerts"
	"realtydesk_backend/internal/email"
	"realtydesk_backend/internal/events"
	leadrepo "realtydesk_backend/internal/leads/repository"
	"realtydesk_backend/internal/notification"
	"realtydesk_backend/internal/notification/inapp"
	"realtydesk_backend/internal/notification/sse"
	"realtydesk_backend/internal/scheduler"
	txrepo "realtydesk_backend/internal/transactions/repository"
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
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the scheduler binary")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	sender := email.NewFromConfig(cfg)
	if !cfg.IsEmailEnabled() {
		log.Warn("SMTP not fully configured; alert escalation emails disabled")
	}

	txns := txrepo.NewPostgresTransactions(pool)
	items := txrepo.NewPostgresChecklist(pool)

	alertsSvc := alerts.NewService(
		alerts.NewPostgresRepository(pool),
		txns,
		items,
		eventBus,
		sender,
		cfg.GetAlertEscalationAddress(),
		log,
	)

	// The hub here persists nudges and wakes snoozed notifications; its SSE
	// stream has no clients in this process. Connected clients learn about
	// changes from the API server's own event fanout or on their next fetch.
	stream := sse.New(log)
	defer stream.Close()
	notifications := inapp.NewService(inapp.NewPostgresRepository(pool), eventBus)
	hub := notification.NewHub(
		leadrepo.NewPostgres(pool),
		txns,
		items,
		notifications,
		stream,
		eventBus,
		cfg.GetNudgeInterval(),
		cfg.GetSnoozeWakeInterval(),
		log,
	)

	worker, err := scheduler.NewWorker(cfg, alertsSvc, hub, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		periodic.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	wg.Wait()
	eventBus.Wait()
	log.Info("scheduler stopped")
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
