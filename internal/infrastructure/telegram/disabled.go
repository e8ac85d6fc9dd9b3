package telegram

import (
	"context"
	"log/slog"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
)

// Disabled is the no-op notifier used when the channel is not configured.
// Absence of configuration must never crash the pipeline.
type Disabled struct {
	Logger *slog.Logger
}

var _ ports.Notifier = (*Disabled)(nil)

// NotifySystem drops the notice.
func (d *Disabled) NotifySystem(_ context.Context, severity ports.Severity, message string) error {
	if d.Logger != nil {
		d.Logger.Debug("notification channel disabled", "severity", severity, "message", message)
	}
	return nil
}

// NotifyHighImpact drops the alert.
func (d *Disabled) NotifyHighImpact(_ context.Context, alert ports.Alert) error {
	if d.Logger != nil {
		d.Logger.Debug("notification channel disabled", "alert", alert.Title)
	}
	return nil
}

// DeliverDigest drops the digest; no delivery reference is produced.
func (d *Disabled) DeliverDigest(_ context.Context, digest domain.Digest) (string, error) {
	if d.Logger != nil {
		d.Logger.Debug("notification channel disabled", "digest", digest.Title)
	}
	return "", nil
}
