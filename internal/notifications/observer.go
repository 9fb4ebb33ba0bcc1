package notifications

import (
	"context"
	"log/slog"

	"audiosurv/internal/alerts"
	"audiosurv/internal/config"
	"audiosurv/internal/logging"
	"audiosurv/internal/pipeline"
)

// Observer forwards terminal pipeline events to a Service.
type Observer struct {
	service  Service
	minRank  int
	failures bool
	logger   *slog.Logger
}

// NewObserver notifies for completed alerts rated at or above cfg.MinRating
// and, when cfg.Failures is set, for failed scans.
func NewObserver(service Service, cfg config.Notifications, logger *slog.Logger) *Observer {
	minRating, err := alerts.ParseThreatRating(cfg.MinRating)
	if err != nil {
		minRating = alerts.ThreatHigh
	}
	return &Observer{
		service:  service,
		minRank:  minRating.Rank(),
		failures: cfg.Failures,
		logger:   logging.NewComponentLogger(logger, "notifications"),
	}
}

// Observe implements pipeline.Observer.
func (o *Observer) Observe(e pipeline.Event) {
	if o == nil || o.service == nil {
		return
	}
	// Events carry no request context; the ntfy client timeout bounds the send.
	ctx := context.Background()

	switch e.To {
	case pipeline.StateTierTwoComplete:
		if !e.Alert.ThreatRating.Valid() || e.Alert.ThreatRating.Rank() > o.minRank {
			return
		}
		if err := o.service.NotifyThreat(ctx, e.Alert); err != nil {
			o.warn(e, "threat notification failed", err)
		}
	case pipeline.StateFailed:
		if !o.failures {
			return
		}
		if err := o.service.NotifyScanFailed(ctx, e.Filename, e.Err); err != nil {
			o.warn(e, "failure notification failed", err)
		}
	}
}

func (o *Observer) warn(e pipeline.Event, msg string, err error) {
	logging.WarnWithContext(o.logger, msg, "notification_failed",
		logging.String(logging.FieldAlertID, e.SubmissionID),
		logging.Error(err),
		logging.String(logging.FieldImpact, "the operator was not notified"),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network reachability"),
	)
}
