package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertFailureRate AlertType = "run_failure_rate"
	AlertEmptyRuns   AlertType = "empty_runs"
)

// Alert is a single threshold breach.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates snapshots against thresholds and posts alerts to a
// webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates an alerter for cfg.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate returns the alerts snap triggers. Windows with fewer than
// MinRuns runs never alert.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	if snap == nil || snap.Runs < a.cfg.MinRuns {
		return nil
	}

	var alerts []Alert
	now := time.Now().UTC()

	if a.cfg.FailureRateThreshold > 0 && snap.FailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"keyword run failure rate %.1f%% exceeds %.1f%% (%d of %d runs in last %dh)",
				snap.FailRate*100, a.cfg.FailureRateThreshold*100,
				snap.Failed, snap.Runs, snap.LookbackHours,
			),
			Details: map[string]any{
				"fail_rate": snap.FailRate,
				"threshold": a.cfg.FailureRateThreshold,
				"failed":    snap.Failed,
				"runs":      snap.Runs,
			},
			Timestamp: now,
		})
	}

	if a.cfg.EmptyRateThreshold > 0 && snap.Succeeded > 0 && snap.EmptyRate > a.cfg.EmptyRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertEmptyRuns,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d of %d successful runs saved no leads in last %dh",
				snap.Empty, snap.Succeeded, snap.LookbackHours,
			),
			Details: map[string]any{
				"empty_rate": snap.EmptyRate,
				"threshold":  a.cfg.EmptyRateThreshold,
				"empty":      snap.Empty,
				"succeeded":  snap.Succeeded,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts posts each alert to the webhook and returns how many were
// delivered. Without a webhook alerts are only logged.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if len(alerts) == 0 {
		return 0
	}
	if a.cfg.WebhookURL == "" {
		for _, alert := range alerts {
			zap.L().Warn("monitoring: alert", zap.String("type", string(alert.Type)), zap.String("message", alert.Message))
		}
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
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
