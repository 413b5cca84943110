package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/interfaces"
	"github.com/growthops/adpulse/internal/models"
	"github.com/growthops/adpulse/internal/services/alerts"
)

type fakeMeta struct{}

func (fakeMeta) FetchAccountOverview(ctx context.Context, accountID string) map[string]interface{} {
	return map[string]interface{}{"spend": 12500, "source": "fallback"}
}

type fakeCompetitor struct{}

func (fakeCompetitor) FetchMarketShare(ctx context.Context, domain string) map[string]interface{} {
	return map[string]interface{}{"traffic_share": 0.23, "source": "fallback"}
}

type fakeInsight struct {
	err error
}

func (f fakeInsight) GenerateInsight(ctx context.Context, meta, competitor map[string]interface{}) (*InsightResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &InsightResult{
		Text:     "Summary paragraph.\n\nDetail line one.\nDetail line two.",
		Provider: "claude",
		Model:    "claude-3-5-sonnet-20240620",
	}, nil
}

type memoryReportStorage struct {
	runs []*models.ReportRun
}

func (m *memoryReportStorage) SaveReport(ctx context.Context, run *models.ReportRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryReportStorage) GetReport(ctx context.Context, id string) (*models.ReportRun, error) {
	for _, run := range m.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, interfaces.ErrReportNotFound
}

func (m *memoryReportStorage) GetLatestReport(ctx context.Context, accountID string) (*models.ReportRun, error) {
	var latest *models.ReportRun
	for _, run := range m.runs {
		if run.AccountID != accountID {
			continue
		}
		if latest == nil || run.CreatedAt.After(latest.CreatedAt) {
			latest = run
		}
	}
	if latest == nil {
		return nil, interfaces.ErrReportNotFound
	}
	return latest, nil
}

func (m *memoryReportStorage) ListReports(ctx context.Context, accountID string, limit int) ([]*models.ReportRun, error) {
	var out []*models.ReportRun
	for _, run := range m.runs {
		if run.AccountID == accountID {
			out = append(out, run)
		}
	}
	return out, nil
}

type memorySnapshotStorage struct {
	snapshots map[string]*models.CacheSnapshot
	writes    int
}

func (m *memorySnapshotStorage) SetSnapshot(ctx context.Context, key string, snapshot *models.CacheSnapshot, ttl time.Duration) error {
	if m.snapshots == nil {
		m.snapshots = make(map[string]*models.CacheSnapshot)
	}
	m.snapshots[key] = snapshot
	m.writes++
	return nil
}

func (m *memorySnapshotStorage) GetSnapshot(ctx context.Context, key string) (*models.CacheSnapshot, error) {
	snapshot, ok := m.snapshots[key]
	if !ok {
		return nil, interfaces.ErrSnapshotNotFound
	}
	return snapshot, nil
}

func newTestService(t *testing.T, insight InsightGenerator, reports interfaces.ReportStorage, snapshots interfaces.SnapshotStorage, bucket string) *Service {
	t.Helper()
	if bucket == "" {
		bucket = t.TempDir()
	}
	return NewService(
		fakeMeta{},
		fakeCompetitor{},
		insight,
		reports,
		snapshots,
		&common.ReportsConfig{BucketPath: bucket},
		time.Hour,
		arbor.NewLogger(),
	)
}

func TestGenerateReportPersistsAndCaches(t *testing.T) {
	reports := &memoryReportStorage{}
	snapshots := &memorySnapshotStorage{}
	bucket := t.TempDir()
	service := newTestService(t, fakeInsight{}, reports, snapshots, bucket)

	run, err := service.GenerateReport(context.Background(), "123456789", "example.com", "last_7d")
	require.NoError(t, err)

	require.Len(t, reports.runs, 1)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "123456789", run.AccountID)
	assert.Equal(t, "last_7d", run.Timeframe)
	assert.Equal(t, "claude", run.InsightMetadata["provider"])

	// Artifact lives under the bucket and holds the raw insight text.
	require.NotEmpty(t, run.ArtifactsPath)
	assert.Equal(t, bucket, filepath.Dir(run.ArtifactsPath))
	content, err := os.ReadFile(run.ArtifactsPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Summary paragraph.")

	// Snapshot is keyed by account and current UTC hour.
	key := models.SnapshotKey("123456789", time.Now())
	snapshot, err := snapshots.GetSnapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, run.InsightText, snapshot.InsightText)
}

func TestGenerateReportSameHourOverwritesSnapshot(t *testing.T) {
	reports := &memoryReportStorage{}
	snapshots := &memorySnapshotStorage{}
	service := newTestService(t, fakeInsight{}, reports, snapshots, "")

	fixed := time.Date(2026, 8, 29, 14, 10, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	_, err := service.GenerateReport(context.Background(), "123456789", "example.com", "last_7d")
	require.NoError(t, err)
	service.now = func() time.Time { return fixed.Add(20 * time.Minute) }
	_, err = service.GenerateReport(context.Background(), "123456789", "example.com", "last_7d")
	require.NoError(t, err)

	// Two persisted rows, one cache entry for the hour bucket.
	assert.Len(t, reports.runs, 2)
	assert.NotEqual(t, reports.runs[0].ID, reports.runs[1].ID)
	assert.Equal(t, 2, snapshots.writes)
	assert.Len(t, snapshots.snapshots, 1)
	if _, ok := snapshots.snapshots["report:123456789:2026082914"]; !ok {
		t.Fatalf("expected hour-bucketed key, got %v", snapshots.snapshots)
	}
}

func TestGenerateReportArtifactFailureDoesNotRollBack(t *testing.T) {
	reports := &memoryReportStorage{}
	snapshots := &memorySnapshotStorage{}
	// A bucket path that collides with an existing file makes MkdirAll fail.
	blocked := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	service := newTestService(t, fakeInsight{}, reports, snapshots, blocked)

	run, err := service.GenerateReport(context.Background(), "123456789", "example.com", "last_7d")
	require.NoError(t, err)
	assert.Empty(t, run.ArtifactsPath)
	assert.Len(t, reports.runs, 1)
	assert.Equal(t, 1, snapshots.writes)
}

func TestGenerateReportInsightFailureAborts(t *testing.T) {
	reports := &memoryReportStorage{}
	snapshots := &memorySnapshotStorage{}
	service := newTestService(t, fakeInsight{err: fmt.Errorf("stage failed")}, reports, snapshots, "")

	_, err := service.GenerateReport(context.Background(), "123456789", "example.com", "last_7d")
	require.Error(t, err)
	assert.Empty(t, reports.runs)
	assert.Equal(t, 0, snapshots.writes)
}

func TestGetLatestSummary(t *testing.T) {
	reports := &memoryReportStorage{}
	service := newTestService(t, fakeInsight{}, reports, &memorySnapshotStorage{}, "")

	_, err := service.GetLatestSummary(context.Background(), "123456789")
	require.True(t, errors.Is(err, interfaces.ErrReportNotFound))

	_, err = service.GenerateReport(context.Background(), "123456789", "example.com", "last_7d")
	require.NoError(t, err)

	summary, err := service.GetLatestSummary(context.Background(), "123456789")
	require.NoError(t, err)
	assert.Equal(t, "123456789", summary.AccountID)
	assert.Equal(t, "Summary paragraph.", summary.Insight.Summary)
	assert.Equal(t, "claude", summary.Insight.Provider)
	assert.NotEmpty(t, summary.Insight.Recommendations)
}

type recordingNotifier struct {
	alerts []*models.AlertEvent
}

func (r *recordingNotifier) Raise(ctx context.Context, alert *models.AlertEvent) (alerts.DeliveryStatus, error) {
	r.alerts = append(r.alerts, alert)
	return alerts.DeliveryDisabled, nil
}

type lowRoasMeta struct{}

func (lowRoasMeta) FetchAccountOverview(ctx context.Context, accountID string) map[string]interface{} {
	return map[string]interface{}{"spend": 900, "purchase_roas": 0.7}
}

func TestGenerateReportRaisesRoasAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	service := newTestService(t, fakeInsight{}, &memoryReportStorage{}, &memorySnapshotStorage{}, "")
	service.meta = lowRoasMeta{}
	service.SetAlertNotifier(notifier)

	_, err := service.GenerateReport(context.Background(), "123456789", "example.com", "last_7d")
	require.NoError(t, err)

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, "roas_drop", notifier.alerts[0].AlertType)
	assert.Equal(t, "123456789", notifier.alerts[0].AccountID)
}

func TestGenerateReportNoAlertAtHealthyRoas(t *testing.T) {
	notifier := &recordingNotifier{}
	service := newTestService(t, fakeInsight{}, &memoryReportStorage{}, &memorySnapshotStorage{}, "")
	service.SetAlertNotifier(notifier)

	// fakeMeta carries no purchase_roas, so no alert fires.
	_, err := service.GenerateReport(context.Background(), "123456789", "example.com", "last_7d")
	require.NoError(t, err)
	assert.Empty(t, notifier.alerts)
}

func TestBuildCacheKeyUsesUTCHour(t *testing.T) {
	service := newTestService(t, fakeInsight{}, &memoryReportStorage{}, &memorySnapshotStorage{}, "")
	service.now = func() time.Time {
		// 23:30 in UTC-5 is 04:30 next day UTC.
		loc := time.FixedZone("UTC-5", -5*3600)
		return time.Date(2026, 8, 28, 23, 30, 0, 0, loc)
	}
	assert.Equal(t, "report:acct:2026082904", service.BuildCacheKey("acct"))
}
