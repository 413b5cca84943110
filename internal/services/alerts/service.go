// Package alerts persists alert events and delivers them to an
// optional webhook. Delivery is best-effort: failures never propagate
// to callers but are logged and reflected in the returned status.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/interfaces"
	"github.com/growthops/adpulse/internal/models"
)

// DeliveryStatus reports what happened to the webhook notification
type DeliveryStatus string

const (
	DeliverySent     DeliveryStatus = "sent"
	DeliveryFailed   DeliveryStatus = "failed"
	DeliveryDisabled DeliveryStatus = "disabled"
)

// Service persists and delivers alert events
type Service struct {
	storage    interfaces.AlertStorage
	webhookURL string
	httpClient *http.Client
	logger     arbor.ILogger
}

func NewService(storage interfaces.AlertStorage, config *common.AlertsConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage:    storage,
		webhookURL: config.WebhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Raise persists the alert and attempts webhook delivery. The alert
// is durable regardless of delivery outcome.
func (s *Service) Raise(ctx context.Context, alert *models.AlertEvent) (DeliveryStatus, error) {
	if err := s.storage.SaveAlert(ctx, alert); err != nil {
		return "", fmt.Errorf("failed to persist alert: %w", err)
	}
	return s.deliver(ctx, alert), nil
}

// ListRecent returns the newest alerts, most recent first
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*models.AlertEvent, error) {
	return s.storage.ListRecentAlerts(ctx, limit)
}

func (s *Service) deliver(ctx context.Context, alert *models.AlertEvent) DeliveryStatus {
	if s.webhookURL == "" {
		return DeliveryDisabled
	}

	body, err := json.Marshal(map[string]interface{}{
		"text":     fmt.Sprintf("[%s] %s for %s", alert.Severity, alert.AlertType, alert.AccountID),
		"details":  alert.Message,
		"metadata": alert.Metadata,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("Failed to encode alert webhook body")
		return DeliveryFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("Failed to build alert webhook request")
		return DeliveryFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("Alert webhook delivery failed")
		return DeliveryFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Warn().
			Int("status", resp.StatusCode).
			Str("alert_id", alert.ID).
			Msg("Alert webhook rejected delivery")
		return DeliveryFailed
	}
	return DeliverySent
}
