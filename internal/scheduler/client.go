package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"realtydesk_backend/platform/config"
	"realtydesk_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues scan tasks on demand.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates an asynq client from the scheduler config.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueAlertScan queues an immediate alert generation run.
func (c *Client) EnqueueAlertScan(ctx context.Context) error {
	return c.enqueue(ctx, NewAlertScanTask())
}

// EnqueueNudgeScan queues an immediate nudge scan.
func (c *Client) EnqueueNudgeScan(ctx context.Context) error {
	return c.enqueue(ctx, NewNudgeScanTask())
}

// EnqueueNotificationWake queues an immediate snooze-wake scan.
func (c *Client) EnqueueNotificationWake(ctx context.Context) error {
	return c.enqueue(ctx, NewNotificationWakeTask())
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.client == nil {
		return nil
	}
	_, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// Periodic registers the recurring scan entries with an asynq scheduler.
// Run blocks until the context is cancelled.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewPeriodic creates the periodic scheduler with entries for the alert,
// nudge, and wake scans at their configured intervals.
func NewPeriodic(cfg config.SchedulerConfig, notif config.NotificationConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	sched := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})
	queue := asynq.Queue(queueName(cfg))

	entries := []struct {
		interval time.Duration
		fallback time.Duration
		task     *asynq.Task
	}{
		{cfg.GetAlertScanInterval(), 15 * time.Minute, NewAlertScanTask()},
		{notif.GetNudgeInterval(), 5 * time.Minute, NewNudgeScanTask()},
		{notif.GetSnoozeWakeInterval(), time.Minute, NewNotificationWakeTask()},
	}
	for _, entry := range entries {
		interval := entry.interval
		if interval <= 0 {
			interval = entry.fallback
		}
		spec := fmt.Sprintf("@every %s", interval)
		if _, err := sched.Register(spec, entry.task, queue); err != nil {
			return nil, fmt.Errorf("register %s: %w", entry.task.Type(), err)
		}
	}

	return &Periodic{scheduler: sched, log: log}, nil
}

// Run starts the periodic scheduler and blocks until ctx is cancelled.
func (p *Periodic) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		p.scheduler.Shutdown()
	}()
	if err := p.scheduler.Run(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
	}
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
