// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// AIConfig provides settings for the model invocation gateway.
type AIConfig interface {
	GetModelAPIKey() string
	GetModelBaseURL() string
	GetDefaultModel() string
	GetMaxRetries() int
	GetPerCallBudgetUSD() float64
	GetDailyBudgetUSD() float64
	IsAIEnabled() bool
}

// InventoryConfig provides settings for the property inventory provider.
type InventoryConfig interface {
	GetInventoryBaseURL() string
	GetInventoryAPIKey() string
	GetInventoryTimeout() time.Duration
}

// SchedulerConfig provides settings for asynq background scheduling.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetAlertScanInterval() time.Duration
}

// SMTPConfig provides settings for alert escalation email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromAddress() string
	GetAlertEscalationAddress() string
	IsEmailEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketVoiceMemos() string
	IsMinIOEnabled() bool
}

// TranscriptionConfig provides settings for the voice-memo transcription service.
type TranscriptionConfig interface {
	GetTranscriptionURL() string
	GetTranscriptionAPIKey() string
	IsTranscriptionEnabled() bool
}

// NotificationConfig provides settings for the notification hub.
type NotificationConfig interface {
	GetNudgeInterval() time.Duration
	GetSnoozeWakeInterval() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	CORSAllowAll           bool
	CORSOrigins            []string
	ModelAPIKey            string
	ModelBaseURL           string
	DefaultModel           string
	ModelMaxRetries        int
	PerCallBudgetUSD       float64
	DailyBudgetUSD         float64
	InventoryBaseURL       string
	InventoryAPIKey        string
	InventoryTimeout       time.Duration
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	AlertScanInterval      time.Duration
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	EmailFromAddress       string
	AlertEscalationAddress string
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinioBucketVoiceMemos  string
	TranscriptionURL       string
	TranscriptionAPIKey    string
	NudgeInterval          time.Duration
	SnoozeWakeInterval     time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// AIConfig implementation
func (c *Config) GetModelAPIKey() string         { return c.ModelAPIKey }
func (c *Config) GetModelBaseURL() string        { return c.ModelBaseURL }
func (c *Config) GetDefaultModel() string        { return c.DefaultModel }
func (c *Config) GetMaxRetries() int             { return c.ModelMaxRetries }
func (c *Config) GetPerCallBudgetUSD() float64   { return c.PerCallBudgetUSD }
func (c *Config) GetDailyBudgetUSD() float64     { return c.DailyBudgetUSD }
func (c *Config) IsAIEnabled() bool              { return c.ModelAPIKey != "" }

// InventoryConfig implementation
func (c *Config) GetInventoryBaseURL() string        { return c.InventoryBaseURL }
func (c *Config) GetInventoryAPIKey() string         { return c.InventoryAPIKey }
func (c *Config) GetInventoryTimeout() time.Duration { return c.InventoryTimeout }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetAlertScanInterval() time.Duration { return c.AlertScanInterval }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string               { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                  { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string           { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string           { return c.SMTPPassword }
func (c *Config) GetEmailFromAddress() string       { return c.EmailFromAddress }
func (c *Config) GetAlertEscalationAddress() string { return c.AlertEscalationAddress }
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.EmailFromAddress != "" && c.AlertEscalationAddress != ""
}

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string         { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string        { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string        { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool             { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketVoiceMemos() string { return c.MinioBucketVoiceMemos }
func (c *Config) IsMinIOEnabled() bool             { return c.MinIOEndpoint != "" }

// TranscriptionConfig implementation
func (c *Config) GetTranscriptionURL() string    { return c.TranscriptionURL }
func (c *Config) GetTranscriptionAPIKey() string { return c.TranscriptionAPIKey }
func (c *Config) IsTranscriptionEnabled() bool   { return c.TranscriptionURL != "" }

// NotificationConfig implementation
func (c *Config) GetNudgeInterval() time.Duration      { return c.NudgeInterval }
func (c *Config) GetSnoozeWakeInterval() time.Duration { return c.SnoozeWakeInterval }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		ModelAPIKey:            getEnv("MODEL_API_KEY", ""),
		ModelBaseURL:           getEnv("MODEL_BASE_URL", "https://api.openai.com/v1"),
		DefaultModel:           getEnv("MODEL_DEFAULT", "gpt-4o-mini"),
		ModelMaxRetries:        mustInt(getEnv("MODEL_MAX_RETRIES", "3")),
		PerCallBudgetUSD:       mustFloat(getEnv("MODEL_PER_CALL_BUDGET_USD", "0.50")),
		DailyBudgetUSD:         mustFloat(getEnv("MODEL_DAILY_BUDGET_USD", "25")),
		InventoryBaseURL:       getEnv("INVENTORY_BASE_URL", ""),
		InventoryAPIKey:        getEnv("INVENTORY_API_KEY", ""),
		InventoryTimeout:       mustDuration(getEnv("INVENTORY_TIMEOUT", "10s")),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		AlertScanInterval:      mustDuration(getEnv("ALERT_SCAN_INTERVAL", "15m")),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		EmailFromAddress:       getEnv("EMAIL_FROM_ADDRESS", ""),
		AlertEscalationAddress: getEnv("ALERT_ESCALATION_ADDRESS", ""),
		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketVoiceMemos:  getEnv("MINIO_BUCKET_VOICE_MEMOS", "voice-memos"),
		TranscriptionURL:       getEnv("TRANSCRIPTION_URL", ""),
		TranscriptionAPIKey:    getEnv("TRANSCRIPTION_API_KEY", ""),
		NudgeInterval:          mustDuration(getEnv("NUDGE_INTERVAL", "5m")),
		SnoozeWakeInterval:     mustDuration(getEnv("SNOOZE_WAKE_INTERVAL", "1m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ModelMaxRetries < 0 {
		return nil, fmt.Errorf("MODEL_MAX_RETRIES must be >= 0")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
