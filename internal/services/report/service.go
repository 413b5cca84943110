// Package report runs the report pipeline: fetch upstream data,
// generate the insight, persist the run, write the artifact and cache
// an hourly snapshot.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/interfaces"
	"github.com/growthops/adpulse/internal/models"
	"github.com/growthops/adpulse/internal/services/alerts"
)

// MetaFetcher supplies advertising performance data for an account
type MetaFetcher interface {
	FetchAccountOverview(ctx context.Context, accountID string) map[string]interface{}
}

// CompetitorFetcher supplies competitor market data for a domain
type CompetitorFetcher interface {
	FetchMarketShare(ctx context.Context, domain string) map[string]interface{}
}

// InsightGenerator produces the single-call insight for a report
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, meta, competitor map[string]interface{}) (*InsightResult, error)
}

// InsightResult mirrors the workflow package's insight output without
// importing it, keeping the pipeline testable with simple fakes.
type InsightResult struct {
	Text     string
	Provider string
	Model    string
	Metadata map[string]interface{}
}

// AlertNotifier raises alert events out of the pipeline
type AlertNotifier interface {
	Raise(ctx context.Context, alert *models.AlertEvent) (alerts.DeliveryStatus, error)
}

// roasAlertThreshold is the purchase ROAS below which a refresh
// raises a performance alert.
const roasAlertThreshold = 1.0

// Service owns the report generation pipeline
type Service struct {
	meta       MetaFetcher
	competitor CompetitorFetcher
	insight    InsightGenerator
	reports    interfaces.ReportStorage
	snapshots  interfaces.SnapshotStorage
	config     *common.ReportsConfig
	cacheTTL   time.Duration
	alerts     AlertNotifier
	logger     arbor.ILogger

	// now is replaceable in tests to pin cache keys and artifact names
	now func() time.Time
}

func NewService(
	meta MetaFetcher,
	competitor CompetitorFetcher,
	insight InsightGenerator,
	reports interfaces.ReportStorage,
	snapshots interfaces.SnapshotStorage,
	config *common.ReportsConfig,
	cacheTTL time.Duration,
	logger arbor.ILogger,
) *Service {
	return &Service{
		meta:       meta,
		competitor: competitor,
		insight:    insight,
		reports:    reports,
		snapshots:  snapshots,
		config:     config,
		cacheTTL:   cacheTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// SetAlertNotifier attaches the alert service; without one the
// pipeline skips performance alerts.
func (s *Service) SetAlertNotifier(notifier AlertNotifier) {
	s.alerts = notifier
}

// FetchData retrieves the meta and competitor payloads for a report.
// Both fetchers substitute deterministic fallbacks, so this never
// fails.
func (s *Service) FetchData(ctx context.Context, accountID, domain string) (map[string]interface{}, map[string]interface{}) {
	meta := s.meta.FetchAccountOverview(ctx, accountID)
	competitor := s.competitor.FetchMarketShare(ctx, domain)
	return meta, competitor
}

// BuildCacheKey returns the hourly snapshot key for an account
func (s *Service) BuildCacheKey(accountID string) string {
	return models.SnapshotKey(accountID, s.now())
}

// GenerateReport runs the full pipeline for one account. The
// persisted run is authoritative; the artifact write is best-effort
// and its failure does not roll anything back.
func (s *Service) GenerateReport(ctx context.Context, accountID, domain, timeframe string) (*models.ReportRun, error) {
	started := s.now()
	s.logger.Info().
		Str("account_id", accountID).
		Str("domain", domain).
		Str("timeframe", timeframe).
		Msg("Generating report")

	meta, competitor := s.FetchData(ctx, accountID, domain)

	insight, err := s.insight.GenerateInsight(ctx, meta, competitor)
	if err != nil {
		return nil, fmt.Errorf("insight generation failed: %w", err)
	}

	run := models.NewReportRun(accountID, timeframe)
	run.MetaPayload = meta
	run.CompetitorPayload = competitor
	run.InsightText = insight.Text
	run.InsightMetadata = map[string]interface{}{"provider": insight.Provider}
	if insight.Model != "" {
		run.InsightMetadata["model"] = insight.Model
	}

	artifactPath, err := s.persistArtifact(accountID, insight.Text)
	if err != nil {
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("Artifact write failed, report persisted without artifact")
	} else {
		run.ArtifactsPath = artifactPath
	}

	if err := s.reports.SaveReport(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to persist report run: %w", err)
	}

	snapshot := &models.CacheSnapshot{
		AccountID:     accountID,
		Timeframe:     timeframe,
		Meta:          meta,
		Competitor:    competitor,
		InsightText:   insight.Text,
		InsightMeta:   run.InsightMetadata,
		ArtifactsPath: run.ArtifactsPath,
		CreatedAt:     run.CreatedAt,
	}
	if err := s.snapshots.SetSnapshot(ctx, s.BuildCacheKey(accountID), snapshot, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("Cache snapshot write failed")
	}

	s.checkPerformance(ctx, accountID, meta)

	s.logger.Info().
		Str("account_id", accountID).
		Str("report_id", run.ID).
		Str("duration", s.now().Sub(started).String()).
		Msg("Report generated")
	return run, nil
}

// GetLatestSummary returns the newest persisted report for an account
// as an API summary. interfaces.ErrReportNotFound when none exists.
func (s *Service) GetLatestSummary(ctx context.Context, accountID string) (*Summary, error) {
	run, err := s.reports.GetLatestReport(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return summarizeRun(run), nil
}

// Summary is the API view of a persisted report run
type Summary struct {
	AccountID     string                 `json:"account_id"`
	Timeframe     string                 `json:"timeframe"`
	Meta          map[string]interface{} `json:"meta"`
	Competitor    map[string]interface{} `json:"competitor"`
	Insight       InsightPayload         `json:"insight"`
	ArtifactsPath string                 `json:"artifacts_path,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// InsightPayload is the summarized insight block of a report
type InsightPayload struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Anomalies       []string `json:"anomalies"`
	Provider        string   `json:"llm_provider"`
}

// summarizeRun derives the summary view: first paragraph as the
// headline, line-split recommendations, provider from metadata.
func summarizeRun(run *models.ReportRun) *Summary {
	provider := "claude"
	if p, ok := run.InsightMetadata["provider"].(string); ok && p != "" {
		provider = p
	}

	anomalies := []string{}
	if raw, ok := run.InsightMetadata["anomalies"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				anomalies = append(anomalies, s)
			}
		}
	}

	return &Summary{
		AccountID:  run.AccountID,
		Timeframe:  run.Timeframe,
		Meta:       run.MetaPayload,
		Competitor: run.CompetitorPayload,
		Insight: InsightPayload{
			Summary:         strings.SplitN(run.InsightText, "\n\n", 2)[0],
			Recommendations: strings.Split(run.InsightText, "\n"),
			Anomalies:       anomalies,
			Provider:        provider,
		},
		ArtifactsPath: run.ArtifactsPath,
		CreatedAt:     run.CreatedAt,
	}
}

// checkPerformance raises a roas_drop alert when the fetched ad
// performance falls below the threshold. Alerting is best-effort.
func (s *Service) checkPerformance(ctx context.Context, accountID string, meta map[string]interface{}) {
	if s.alerts == nil {
		return
	}
	roas, ok := numeric(meta["purchase_roas"])
	if !ok || roas >= roasAlertThreshold {
		return
	}

	alert := models.NewAlertEvent(accountID, "roas_drop", "warning",
		fmt.Sprintf("Purchase ROAS %.2f is below threshold %.2f", roas, roasAlertThreshold))
	alert.Metadata = map[string]interface{}{"purchase_roas": roas}

	status, err := s.alerts.Raise(ctx, alert)
	if err != nil {
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("Failed to raise performance alert")
		return
	}
	s.logger.Info().
		Str("account_id", accountID).
		Str("delivery", string(status)).
		Msg("Performance alert raised")
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// persistArtifact writes the raw insight text to the report bucket
func (s *Service) persistArtifact(accountID, content string) (string, error) {
	if err := os.MkdirAll(s.config.BucketPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report bucket: %w", err)
	}
	path := filepath.Join(s.config.BucketPath, fmt.Sprintf("%s-%d.md", accountID, s.now().UTC().Unix()))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}
