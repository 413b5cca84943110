package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/services/llm"
)

// ProviderRegistry is the slice of the LLM registry the workflow
// needs: stage dispatch and availability checks.
type ProviderRegistry interface {
	Generate(ctx context.Context, identity llm.Identity, request *llm.GenerateRequest) (*llm.ProviderResponse, error)
	Available(ctx context.Context) []llm.Identity
	DefaultIdentity() llm.Identity
}

// Service executes market research workflows with configurable
// provider routing.
type Service struct {
	registry ProviderRegistry
	logger   arbor.ILogger

	mu      sync.RWMutex
	taskMap *TaskProviderMap
}

// NewService builds the workflow service. Overrides come from config
// and are validated the same way runtime reconfiguration is.
func NewService(registry ProviderRegistry, overrides map[string]string, logger arbor.ILogger) (*Service, error) {
	taskMap, err := NewTaskProviderMap(overrides)
	if err != nil {
		return nil, err
	}
	return &Service{
		registry: registry,
		logger:   logger,
		taskMap:  taskMap,
	}, nil
}

// StageMetadata records which backend produced a workflow stage
type StageMetadata struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// MarketResearchRequest carries the upstream inputs for a full
// workflow run. CustomConfig scopes to this call only.
type MarketResearchRequest struct {
	Domain         string
	MetaData       map[string]interface{}
	CompetitorData map[string]interface{}
	TrafficData    map[string]map[string]interface{}
	CustomConfig   map[string]string
}

// StructuredReport is the assembled output of the full workflow
type StructuredReport struct {
	Domain              string                   `json:"domain"`
	ExecutiveSummary    string                   `json:"executive_summary"`
	Competitors         string                   `json:"competitors"`
	TrafficInsights     string                   `json:"traffic_insights"`
	MarketGap           string                   `json:"market_gap"`
	GrowthOpportunities string                   `json:"growth_opportunities"`
	MetaDiagnostic      string                   `json:"meta_diagnostic"`
	Recommendations     string                   `json:"recommendations"`
	WorkflowMetadata    map[string]StageMetadata `json:"workflow_metadata"`
	GeneratedAt         time.Time                `json:"generated_at"`
}

// TaskAssignments returns the current task-to-provider configuration
func (s *Service) TaskAssignments() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskMap.Assignments()
}

// ConfigureTaskProviders applies validated overrides to the shared
// assignment. Each override provider must be a known identity with a
// usable credential; validation happens here, never at stage
// execution time.
func (s *Service) ConfigureTaskProviders(ctx context.Context, overrides map[string]string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.taskMap.Clone()
	for task, provider := range overrides {
		if err := updated.SetProviderFor(task, provider); err != nil {
			return nil, err
		}
	}
	if err := s.validateAvailability(ctx, overrides); err != nil {
		return nil, err
	}

	s.taskMap = updated
	s.logger.Info().
		Int("overrides", len(overrides)).
		Msg("Workflow task-provider configuration updated")
	return updated.Assignments(), nil
}

// ExecuteTask runs a single workflow stage. Resolution order for the
// backend: explicit provider override, then the task assignment, then
// the global default.
func (s *Service) ExecuteTask(ctx context.Context, task Task, prompt string, provider string, model string) (*llm.ProviderResponse, error) {
	if !IsKnownTask(string(task)) {
		return nil, &ValidationError{Task: string(task), Provider: provider, Reason: "unknown task"}
	}

	identity, err := s.resolveProvider(task, provider)
	if err != nil {
		return nil, err
	}

	response, err := s.registry.Generate(ctx, identity, &llm.GenerateRequest{
		Prompt: prompt,
		Model:  model,
	})
	if err != nil {
		return nil, &StageError{Task: task, Err: err}
	}
	return response, nil
}

// GenerateMarketResearchReport runs the full stage sequence and
// assembles the structured report. Stages execute strictly in order;
// any stage failure aborts the whole report with the failing stage
// identified. CustomConfig overrides the routing for this call only.
func (s *Service) GenerateMarketResearchReport(ctx context.Context, request *MarketResearchRequest) (*StructuredReport, error) {
	s.mu.RLock()
	taskMap := s.taskMap.Clone()
	s.mu.RUnlock()

	for task, provider := range request.CustomConfig {
		if err := taskMap.SetProviderFor(task, provider); err != nil {
			return nil, err
		}
	}

	data := newPromptData(request.Domain, request.MetaData, request.CompetitorData, request.TrafficData)
	results := make(map[Task]*llm.ProviderResponse, len(Tasks))

	for _, task := range Tasks {
		identity := taskMap.ProviderFor(task)
		s.logger.Debug().
			Str("task", string(task)).
			Str("provider", string(identity)).
			Msg("Executing workflow stage")

		response, err := s.registry.Generate(ctx, identity, &llm.GenerateRequest{
			Prompt: stagePrompt(task, data),
		})
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("task", string(task)).
				Str("provider", string(identity)).
				Msg("Workflow stage failed, aborting report")
			return nil, &StageError{Task: task, Err: err}
		}
		results[task] = response
	}

	metadata := make(map[string]StageMetadata, len(results))
	for task, response := range results {
		metadata[string(task)] = StageMetadata{
			Provider: string(response.Provider),
			Model:    response.Model,
		}
	}

	return &StructuredReport{
		Domain:              request.Domain,
		ExecutiveSummary:    results[TaskExecutiveSummary].Content,
		Competitors:         results[TaskCompetitorIdentification].Content,
		TrafficInsights:     results[TaskTrafficAnalysis].Content,
		MarketGap:           results[TaskMarketGapAnalysis].Content,
		GrowthOpportunities: results[TaskGrowthOpportunity].Content,
		MetaDiagnostic:      results[TaskMetaAdsDiagnostic].Content,
		Recommendations:     results[TaskStrategicRecommendations].Content,
		WorkflowMetadata:    metadata,
		GeneratedAt:         time.Now().UTC(),
	}, nil
}

func (s *Service) resolveProvider(task Task, override string) (llm.Identity, error) {
	if override != "" {
		if !llm.IsKnownIdentity(override) {
			return "", &ValidationError{Task: string(task), Provider: override, Reason: "unknown provider"}
		}
		return llm.Identity(override), nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskMap.ProviderFor(task), nil
}

func (s *Service) validateAvailability(ctx context.Context, overrides map[string]string) error {
	available := s.registry.Available(ctx)
	usable := make(map[llm.Identity]bool, len(available))
	for _, identity := range available {
		usable[identity] = true
	}
	for task, provider := range overrides {
		if !usable[llm.Identity(provider)] {
			return &ValidationError{Task: task, Provider: provider, Reason: "provider not available"}
		}
	}
	return nil
}
