// Package scheduler runs the recurring refresh of the default account
// on a cron schedule.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/queue"
)

// Service registers the hourly default-account refresh with cron
type Service struct {
	dispatcher *queue.Dispatcher
	config     *common.SchedulerConfig
	reports    *common.ReportsConfig
	cron       *cron.Cron
	logger     arbor.ILogger
	running    bool
}

func NewService(dispatcher *queue.Dispatcher, config *common.SchedulerConfig, reports *common.ReportsConfig, logger arbor.ILogger) *Service {
	return &Service{
		dispatcher: dispatcher,
		config:     config,
		reports:    reports,
		cron:       cron.New(),
		logger:     logger,
	}
}

// Start registers the refresh entry and begins the cron loop
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduler disabled by configuration")
		return nil
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 * * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.refreshDefaultAccount); err != nil {
		return fmt.Errorf("failed to register refresh schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().
		Str("schedule", schedule).
		Str("account_id", s.reports.DefaultAccountID).
		Msg("Report refresh scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running entry to finish
func (s *Service) Stop() {
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info().Msg("Report refresh scheduler stopped")
}

func (s *Service) refreshDefaultAccount() {
	job := queue.RefreshJob{
		AccountID: s.reports.DefaultAccountID,
		Domain:    s.reports.DefaultDomain,
		Timeframe: s.reports.DefaultTimeframe,
	}
	if err := s.dispatcher.Enqueue(job); err != nil {
		s.logger.Warn().Err(err).Str("account_id", job.AccountID).Msg("Scheduled refresh could not be enqueued")
		return
	}
	s.logger.Info().Str("account_id", job.AccountID).Msg("Scheduled refresh enqueued")
}
