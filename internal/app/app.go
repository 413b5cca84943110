// Package app wires the application components together.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/handlers"
	"github.com/growthops/adpulse/internal/interfaces"
	"github.com/growthops/adpulse/internal/queue"
	"github.com/growthops/adpulse/internal/services/alerts"
	"github.com/growthops/adpulse/internal/services/llm"
	"github.com/growthops/adpulse/internal/services/metaads"
	"github.com/growthops/adpulse/internal/services/report"
	"github.com/growthops/adpulse/internal/services/scheduler"
	"github.com/growthops/adpulse/internal/services/trafficintel"
	"github.com/growthops/adpulse/internal/services/workflow"
	badgerstorage "github.com/growthops/adpulse/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	Registry        *llm.Registry
	WorkflowService *workflow.Service
	MetaClient      *metaads.Client
	TrafficClient   *trafficintel.Client
	ReportService   *report.Service
	AlertService    *alerts.Service

	Dispatcher       *queue.Dispatcher
	SchedulerService *scheduler.Service

	StatusHandler   *handlers.StatusHandler
	ReportHandler   *handlers.ReportHandler
	WorkflowHandler *handlers.WorkflowHandler
	AlertHandler    *handlers.AlertHandler
}

// insightAdapter bridges the workflow insight output into the report
// pipeline's narrower view.
type insightAdapter struct {
	service *workflow.Service
}

func (a insightAdapter) GenerateInsight(ctx context.Context, meta, competitor map[string]interface{}) (*report.InsightResult, error) {
	result, err := a.service.GenerateInsight(ctx, meta, competitor)
	if err != nil {
		return nil, err
	}
	return &report.InsightResult{
		Text:     result.Text,
		Provider: result.Provider,
		Model:    result.Model,
		Metadata: result.Metadata,
	}, nil
}

// New builds the application graph from configuration
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badgerstorage.NewManager(logger, &config.Storage, &config.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	registry := llm.NewRegistry(&config.Claude, &config.Gemini, &config.LLM, storageManager.KVStorage(), logger)

	workflowService, err := workflow.NewService(registry, config.LLM.TaskProviders, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("invalid workflow configuration: %w", err)
	}

	metaClient := metaads.NewClient(&config.MetaAds, logger)
	trafficClient := trafficintel.NewClient(&config.TrafficIntel, logger)

	cacheTTL := time.Duration(config.Cache.TTLSeconds) * time.Second
	reportService := report.NewService(
		metaClient,
		trafficClient,
		insightAdapter{service: workflowService},
		storageManager.ReportStorage(),
		storageManager.SnapshotStorage(),
		&config.Reports,
		cacheTTL,
		logger,
	)

	alertService := alerts.NewService(storageManager.AlertStorage(), &config.Alerts, logger)
	reportService.SetAlertNotifier(alertService)

	dispatcher := queue.NewDispatcher(reportService, &config.Queue, logger)
	schedulerService := scheduler.NewService(dispatcher, &config.Scheduler, &config.Reports, logger)

	app := &App{
		Config:           config,
		Logger:           logger,
		StorageManager:   storageManager,
		Registry:         registry,
		WorkflowService:  workflowService,
		MetaClient:       metaClient,
		TrafficClient:    trafficClient,
		ReportService:    reportService,
		AlertService:     alertService,
		Dispatcher:       dispatcher,
		SchedulerService: schedulerService,

		StatusHandler:   handlers.NewStatusHandler(),
		ReportHandler:   handlers.NewReportHandler(reportService, dispatcher, &config.Reports, logger),
		WorkflowHandler: handlers.NewWorkflowHandler(workflowService, registry, trafficClient, logger),
		AlertHandler:    handlers.NewAlertHandler(alertService, logger),
	}
	return app, nil
}

// Start launches the background components
func (a *App) Start() error {
	a.Dispatcher.Start()
	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Shutdown stops background work and closes storage
func (a *App) Shutdown() {
	a.SchedulerService.Stop()
	a.Dispatcher.Stop()
	if err := a.StorageManager.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Storage close failed")
	}
}
