package interfaces

import (
	"context"
	"time"

	"github.com/growthops/adpulse/internal/models"
)

// KeyValuePair represents a stored key/value entry (API keys, settings)
type KeyValuePair struct {
	Key         string    `badgerhold:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyValueStorage defines key/value storage operations
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, description string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}

// ReportStorage defines persistence for report runs. Runs are append-only:
// SaveReport always creates a new row and rows are never mutated.
type ReportStorage interface {
	SaveReport(ctx context.Context, run *models.ReportRun) error
	GetReport(ctx context.Context, id string) (*models.ReportRun, error)
	GetLatestReport(ctx context.Context, accountID string) (*models.ReportRun, error)
	ListReports(ctx context.Context, accountID string, limit int) ([]*models.ReportRun, error)
}

// AlertStorage defines persistence for alert events
type AlertStorage interface {
	SaveAlert(ctx context.Context, alert *models.AlertEvent) error
	ListRecentAlerts(ctx context.Context, limit int) ([]*models.AlertEvent, error)
}

// SnapshotStorage defines the time-bucketed report snapshot cache.
// Snapshots are a best-effort read accelerator; the persisted report
// run is the source of truth.
type SnapshotStorage interface {
	SetSnapshot(ctx context.Context, key string, snapshot *models.CacheSnapshot, ttl time.Duration) error
	GetSnapshot(ctx context.Context, key string) (*models.CacheSnapshot, error)
}

// StorageManager provides access to all storage implementations
type StorageManager interface {
	KVStorage() KeyValueStorage
	ReportStorage() ReportStorage
	AlertStorage() AlertStorage
	SnapshotStorage() SnapshotStorage
	Close() error
}
