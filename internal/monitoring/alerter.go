package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertFailureRate AlertType = "harvest_failure_rate"
	AlertFailedPages AlertType = "failed_pages"
	AlertStale       AlertType = "no_complete_run"
)

// minFinishedRuns is the sample size below which the failure rate is noise.
const minFinishedRuns = 3

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter turns a Snapshot into alerts and posts them to a webhook.
type Alerter struct {
	cfg    config.MonitorConfig
	client *resty.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitorConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: resty.New().SetTimeout(10 * time.Second),
	}
}
// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	finished := snap.RunsComplete + snap.RunsFailed
	if finished >= minFinishedRuns && snap.FailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Harvest failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
				snap.FailRate*100, a.cfg.FailureRateThreshold*100,
				snap.RunsFailed, finished, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.FailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.RunsFailed,
				"finished":     finished,
			},
			Timestamp: now,
		})
	}

	if a.cfg.FailedPagesThreshold > 0 && snap.FailedPages > a.cfg.FailedPagesThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertFailedPages,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d pages failed in last %dh (threshold %d)",
				snap.FailedPages, snap.LookbackHours, a.cfg.FailedPagesThreshold,
			),
			Details: map[string]any{
				"failed_pages": snap.FailedPages,
				"threshold":    a.cfg.FailedPagesThreshold,
			},
			Timestamp: now,
		})
	}

	if snap.RunsTotal > 0 && snap.LastComplete == nil && snap.RunsRunning < snap.RunsTotal {
		alerts = append(alerts, Alert{
			Type:     AlertStale,
			Severity: "high",
			Message:  fmt.Sprintf("No harvest completed in last %dh", snap.LookbackHours),
			Details: map[string]any{
				"runs_total": snap.RunsTotal,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(alert).
		Post(a.cfg.WebhookURL)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	if resp.IsError() {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode())
	}
	return nil
}
