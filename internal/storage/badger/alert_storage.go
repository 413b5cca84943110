package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/growthops/adpulse/internal/interfaces"
	"github.com/growthops/adpulse/internal/models"
)

// AlertStorage implements the AlertStorage interface for Badger
type AlertStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAlertStorage creates a new AlertStorage instance
func NewAlertStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AlertStorage {
	return &AlertStorage{
		db:     db,
		logger: logger,
	}
}

// SaveAlert persists an alert event
func (s *AlertStorage) SaveAlert(ctx context.Context, alert *models.AlertEvent) error {
	if alert.ID == "" {
		return fmt.Errorf("alert id is required")
	}

	if err := s.db.Store().Insert(alert.ID, alert); err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// ListRecentAlerts returns the most recent alert events, newest first
func (s *AlertStorage) ListRecentAlerts(ctx context.Context, limit int) ([]*models.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var alerts []*models.AlertEvent
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse().Limit(limit)
	if err := s.db.Store().Find(&alerts, query); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}
