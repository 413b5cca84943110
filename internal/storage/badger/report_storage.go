package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/growthops/adpulse/internal/interfaces"
	"github.com/growthops/adpulse/internal/models"
)

// ReportStorage implements the ReportStorage interface for Badger
type ReportStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReportStorage creates a new ReportStorage instance
func NewReportStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

// SaveReport persists a new report run. Runs are append-only; an
// existing id is rejected rather than overwritten.
func (s *ReportStorage) SaveReport(ctx context.Context, run *models.ReportRun) error {
	if run.ID == "" {
		return fmt.Errorf("report run id is required")
	}

	if err := s.db.Store().Insert(run.ID, run); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("report run %s already exists", run.ID)
		}
		return fmt.Errorf("failed to save report run: %w", err)
	}

	s.logger.Debug().
		Str("report_id", run.ID).
		Str("account_id", run.AccountID).
		Msg("Report run persisted")
	return nil
}

// GetReport retrieves a report run by id
func (s *ReportStorage) GetReport(ctx context.Context, id string) (*models.ReportRun, error) {
	var run models.ReportRun
	err := s.db.Store().Get(id, &run)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report run: %w", err)
	}
	return &run, nil
}

// GetLatestReport returns the most recent report run for an account
func (s *ReportStorage) GetLatestReport(ctx context.Context, accountID string) (*models.ReportRun, error) {
	runs, err := s.ListReports(ctx, accountID, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, interfaces.ErrReportNotFound
	}
	return runs[0], nil
}

// ListReports returns report runs for an account, newest first
func (s *ReportStorage) ListReports(ctx context.Context, accountID string, limit int) ([]*models.ReportRun, error) {
	query := badgerhold.Where("AccountID").Eq(accountID).Index("AccountID").
		SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []*models.ReportRun
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list report runs: %w", err)
	}
	return runs, nil
}
