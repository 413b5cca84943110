package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/services/llm"
)

// stubRegistry implements ProviderRegistry with canned responses
type stubRegistry struct {
	available    []llm.Identity
	defaultID    llm.Identity
	generateFunc func(ctx context.Context, identity llm.Identity, request *llm.GenerateRequest) (*llm.ProviderResponse, error)
	calls        []llm.Identity
}

func (s *stubRegistry) Generate(ctx context.Context, identity llm.Identity, request *llm.GenerateRequest) (*llm.ProviderResponse, error) {
	s.calls = append(s.calls, identity)
	if s.generateFunc != nil {
		return s.generateFunc(ctx, identity, request)
	}
	return &llm.ProviderResponse{
		Content:  "generated by " + string(identity),
		Provider: identity,
		Model:    string(identity) + "-default",
	}, nil
}

func (s *stubRegistry) Available(ctx context.Context) []llm.Identity {
	return s.available
}

func (s *stubRegistry) DefaultIdentity() llm.Identity {
	if s.defaultID != "" {
		return s.defaultID
	}
	return llm.IdentityClaude
}

func newTestService(t *testing.T, registry *stubRegistry) *Service {
	t.Helper()
	service, err := NewService(registry, nil, arbor.NewLogger())
	require.NoError(t, err)
	return service
}

func testRequest(custom map[string]string) *MarketResearchRequest {
	return &MarketResearchRequest{
		Domain:         "example.com",
		MetaData:       map[string]interface{}{"spend": 12500},
		CompetitorData: map[string]interface{}{"traffic_share": 0.23},
		TrafficData: map[string]map[string]interface{}{
			"example.com": {"monthly_visits": "182.0K"},
		},
		CustomConfig: custom,
	}
}

func TestExecuteTaskResolvesOverrideFirst(t *testing.T) {
	registry := &stubRegistry{}
	service := newTestService(t, registry)

	_, err := service.ExecuteTask(context.Background(), TaskExecutiveSummary, "summarize", "gemini", "")
	require.NoError(t, err)
	require.Len(t, registry.calls, 1)
	// executive_summary defaults to claude; the explicit override wins.
	assert.Equal(t, llm.IdentityGemini, registry.calls[0])
}

func TestExecuteTaskUsesTaskAssignment(t *testing.T) {
	registry := &stubRegistry{}
	service := newTestService(t, registry)

	_, err := service.ExecuteTask(context.Background(), TaskCompetitorIdentification, "identify", "", "")
	require.NoError(t, err)
	require.Len(t, registry.calls, 1)
	assert.Equal(t, llm.IdentityGemini, registry.calls[0])
}

func TestExecuteTaskRejectsUnknownInputs(t *testing.T) {
	service := newTestService(t, &stubRegistry{})

	_, err := service.ExecuteTask(context.Background(), Task("unknown_task"), "prompt", "", "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = service.ExecuteTask(context.Background(), TaskTrafficAnalysis, "prompt", "gpt4", "")
	require.ErrorAs(t, err, &validationErr)
}

func TestGenerateMarketResearchReportMetadata(t *testing.T) {
	registry := &stubRegistry{}
	service := newTestService(t, registry)

	report, err := service.GenerateMarketResearchReport(context.Background(), testRequest(nil))
	require.NoError(t, err)

	assert.Equal(t, "example.com", report.Domain)
	assert.Len(t, report.WorkflowMetadata, len(Tasks))
	assert.Equal(t, "gemini", report.WorkflowMetadata["competitor_identification"].Provider)
	assert.Equal(t, "claude", report.WorkflowMetadata["executive_summary"].Provider)
	assert.Equal(t, "generated by claude", report.ExecutiveSummary)
	assert.Equal(t, "generated by gemini", report.Competitors)
}

func TestGenerateMarketResearchReportAllGeminiCustomConfig(t *testing.T) {
	registry := &stubRegistry{}
	service := newTestService(t, registry)

	custom := make(map[string]string, len(Tasks))
	for _, task := range Tasks {
		custom[string(task)] = "gemini"
	}

	report, err := service.GenerateMarketResearchReport(context.Background(), testRequest(custom))
	require.NoError(t, err)

	for _, task := range Tasks {
		assert.Equal(t, "gemini", report.WorkflowMetadata[string(task)].Provider, "task %s", task)
	}
}

func TestCustomConfigScopesToSingleCall(t *testing.T) {
	registry := &stubRegistry{}
	service := newTestService(t, registry)

	custom := map[string]string{"executive_summary": "gemini"}
	_, err := service.GenerateMarketResearchReport(context.Background(), testRequest(custom))
	require.NoError(t, err)

	// A later call without custom config sees the original assignment.
	registry.calls = nil
	report, err := service.GenerateMarketResearchReport(context.Background(), testRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "claude", report.WorkflowMetadata["executive_summary"].Provider)
}

func TestStageFailureAbortsReport(t *testing.T) {
	upstream := errors.New("rate limited")
	registry := &stubRegistry{
		generateFunc: func(ctx context.Context, identity llm.Identity, request *llm.GenerateRequest) (*llm.ProviderResponse, error) {
			if strings.Contains(request.Prompt, "market gap") || strings.Contains(request.Prompt, "inefficiency") {
				return nil, &llm.GenerationError{Provider: identity, Model: "m", Err: upstream}
			}
			return &llm.ProviderResponse{Content: "ok", Provider: identity, Model: "m"}, nil
		},
	}
	service := newTestService(t, registry)

	report, err := service.GenerateMarketResearchReport(context.Background(), testRequest(nil))
	require.Nil(t, report)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, TaskMarketGapAnalysis, stageErr.Task)
	assert.ErrorIs(t, err, upstream)
}

func TestConfigureTaskProvidersValidatesAvailability(t *testing.T) {
	registry := &stubRegistry{available: []llm.Identity{llm.IdentityClaude}}
	service := newTestService(t, registry)

	_, err := service.ConfigureTaskProviders(context.Background(), map[string]string{
		"traffic_analysis": "gemini",
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "provider not available", validationErr.Reason)

	applied, err := service.ConfigureTaskProviders(context.Background(), map[string]string{
		"traffic_analysis": "claude",
	})
	require.NoError(t, err)
	assert.Equal(t, "claude", applied["traffic_analysis"])
	assert.Equal(t, "claude", service.TaskAssignments()["traffic_analysis"])
}

func TestGenerateInsightOfflineFallback(t *testing.T) {
	registry := &stubRegistry{
		generateFunc: func(ctx context.Context, identity llm.Identity, request *llm.GenerateRequest) (*llm.ProviderResponse, error) {
			return nil, &llm.UnavailableError{Provider: identity}
		},
	}
	service := newTestService(t, registry)

	result, err := service.GenerateInsight(context.Background(), map[string]interface{}{"spend": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Provider)
	assert.Contains(t, result.Text, "Optimizations")
}

func TestGenerateInsightPropagatesGenerationFailure(t *testing.T) {
	registry := &stubRegistry{
		generateFunc: func(ctx context.Context, identity llm.Identity, request *llm.GenerateRequest) (*llm.ProviderResponse, error) {
			return nil, &llm.GenerationError{Provider: identity, Model: "m", Err: fmt.Errorf("upstream 500")}
		},
	}
	service := newTestService(t, registry)

	_, err := service.GenerateInsight(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, llm.IsGenerationFailed(err))
}
