// Package email delivers alert escalation mail over SMTP.
package email

import (
	"context"

	"realtydesk_backend/platform/config"
)

// EscalationData describes one urgent alert worth an email.
type EscalationData struct {
	AlertType     string
	Priority      string
	Title         string
	Message       string
	TransactionID string
}

// Sender delivers escalation email.
type Sender interface {
	SendAlertEscalation(ctx context.Context, toEmail string, data EscalationData) error
}

// NoopSender is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendAlertEscalation(ctx context.Context, toEmail string, data EscalationData) error {
	return nil
}

// NewFromConfig returns an SMTP sender when email is configured, a noop
// sender otherwise.
func NewFromConfig(cfg config.SMTPConfig) Sender {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(), cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
	)
}
