package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportRun is one persisted report-generation execution. Rows are
// append-only and never mutated after creation.
type ReportRun struct {
	ID                string                 `json:"id" badgerhold:"key"`
	AccountID         string                 `json:"account_id" badgerhold:"index"`
	Timeframe         string                 `json:"timeframe"`
	MetaPayload       map[string]interface{} `json:"meta_payload"`
	CompetitorPayload map[string]interface{} `json:"competitor_payload"`
	InsightText       string                 `json:"insight_text"`
	InsightMetadata   map[string]interface{} `json:"insight_metadata"`
	ArtifactsPath     string                 `json:"artifacts_path,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// NewReportRun creates a report run with a generated id and creation time
func NewReportRun(accountID, timeframe string) *ReportRun {
	return &ReportRun{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Timeframe: timeframe,
		CreatedAt: time.Now().UTC(),
	}
}

// AlertEvent is a persisted alert notification
type AlertEvent struct {
	ID        string                 `json:"id" badgerhold:"key"`
	AccountID string                 `json:"account_id" badgerhold:"index"`
	AlertType string                 `json:"alert_type"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewAlertEvent creates an alert event with a generated id and creation time
func NewAlertEvent(accountID, alertType, severity, message string) *AlertEvent {
	return &AlertEvent{
		ID:        uuid.New().String(),
		AccountID: accountID,
		AlertType: alertType,
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// CacheSnapshot is the time-bucketed cached copy of a report run's
// fields. Keys bucket repeated refreshes within the same UTC hour onto
// one entry, last-write-wins. Not authoritative.
type CacheSnapshot struct {
	AccountID     string                 `json:"account_id"`
	Timeframe     string                 `json:"timeframe"`
	Meta          map[string]interface{} `json:"meta"`
	Competitor    map[string]interface{} `json:"competitor"`
	InsightText   string                 `json:"insight_text"`
	InsightMeta   map[string]interface{} `json:"insight_metadata"`
	ArtifactsPath string                 `json:"artifacts_path,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// SnapshotKey builds the hourly cache key for an account:
// "report:{account_id}:{YYYYMMDDHH}" using the UTC hour of now.
func SnapshotKey(accountID string, now time.Time) string {
	return "report:" + accountID + ":" + now.UTC().Format("2006010215")
}
