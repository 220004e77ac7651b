package scheduler

import (
	"context"
	"fmt"

	"realtydesk_backend/internal/alerts"
	"realtydesk_backend/platform/config"
	"realtydesk_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// AlertGenerator runs one alert generation pass.
type AlertGenerator interface {
	Generate(ctx context.Context) (alerts.GenerateResult, error)
}

// Scanner runs the nudge and snooze-wake scans.
type Scanner interface {
	ScanNudges(ctx context.Context) (int, error)
	WakeSnoozed(ctx context.Context) (int, error)
}

// Worker consumes scan tasks and dispatches them to the alert generator
// and the notification hub.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	alerts AlertGenerator
	hub    Scanner
	log    *logger.Logger
}

// NewWorker creates the asynq worker with handlers for the scan tasks.
func NewWorker(cfg config.SchedulerConfig, generator AlertGenerator, hub Scanner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		alerts: generator,
		hub:    hub,
		log:    log,
	}

	mux.HandleFunc(TaskAlertScan, w.handleAlertScan)
	mux.HandleFunc(TaskNudgeScan, w.handleNudgeScan)
	mux.HandleFunc(TaskNotificationWake, w.handleNotificationWake)

	return w, nil
}

func (w *Worker) handleAlertScan(ctx context.Context, task *asynq.Task) error {
	result, err := w.alerts.Generate(ctx)
	if err != nil {
		return err
	}
	w.log.Info("alert scan finished",
		"scanned", result.Scanned, "created", result.Created, "refreshed", result.Refreshed)
	return nil
}

func (w *Worker) handleNudgeScan(ctx context.Context, task *asynq.Task) error {
	issued, err := w.hub.ScanNudges(ctx)
	if err != nil {
		return err
	}
	if issued > 0 {
		w.log.Info("nudge scan finished", "issued", issued)
	}
	return nil
}

func (w *Worker) handleNotificationWake(ctx context.Context, task *asynq.Task) error {
	woken, err := w.hub.WakeSnoozed(ctx)
	if err != nil {
		return err
	}
	if woken > 0 {
		w.log.Info("snooze wake finished", "woken", woken)
	}
	return nil
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
