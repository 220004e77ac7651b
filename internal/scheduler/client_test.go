package scheduler

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type stubSchedulerConfig struct {
	redisURL    string
	tlsInsecure bool
	queue       string
}

func (c stubSchedulerConfig) GetRedisURL() string                 { return c.redisURL }
func (c stubSchedulerConfig) GetRedisTLSInsecure() bool           { return c.tlsInsecure }
func (c stubSchedulerConfig) GetAsynqQueueName() string           { return c.queue }
func (c stubSchedulerConfig) GetAsynqConcurrency() int            { return 2 }
func (c stubSchedulerConfig) GetAlertScanInterval() time.Duration { return 15 * time.Minute }

type stubNotificationConfig struct{}

func (stubNotificationConfig) GetNudgeInterval() time.Duration      { return 5 * time.Minute }
func (stubNotificationConfig) GetSnoozeWakeInterval() time.Duration { return time.Minute }

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestNewClient_ConnectsToConfiguredRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(stubSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "scans"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if client.queue != "scans" {
		t.Errorf("queue = %q, want scans", client.queue)
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.Addr != "localhost:6380" {
		t.Errorf("addr = %q", opt.Addr)
	}
	if opt.Password != "secret" {
		t.Errorf("password = %q", opt.Password)
	}
	if opt.DB != 2 {
		t.Errorf("db = %d", opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Error("unexpected tls config for redis:// url")
	}

	opt, err = redisClientOpt("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("parse tls: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Error("expected insecure tls config")
	}

	if _, err := redisClientOpt("://bad", false); err == nil {
		t.Error("expected parse error")
	}
}
