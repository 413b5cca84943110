package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/interfaces"
	"github.com/growthops/adpulse/internal/services/llm"
	"github.com/growthops/adpulse/internal/services/trafficintel"
	"github.com/growthops/adpulse/internal/services/workflow"
)

type stubKVStorage struct{}

func (stubKVStorage) Get(ctx context.Context, key string) (string, error) {
	return "", interfaces.ErrKeyNotFound
}
func (stubKVStorage) Set(ctx context.Context, key, value, description string) error { return nil }
func (stubKVStorage) Delete(ctx context.Context, key string) error                  { return nil }
func (stubKVStorage) GetAll(ctx context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

func newWorkflowHandler(t *testing.T) *WorkflowHandler {
	t.Helper()
	logger := arbor.NewLogger()

	// No credentials: every provider reports unavailable.
	for _, name := range []string{"ADPULSE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY", "ADPULSE_GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(name, "")
	}

	registry := llm.NewRegistry(
		&common.ClaudeConfig{Model: "claude-3-5-sonnet-20240620"},
		&common.GeminiConfig{Model: "gemini-1.5-pro"},
		&common.LLMConfig{DefaultProvider: "claude"},
		stubKVStorage{},
		logger,
	)

	service, err := workflow.NewService(registry, nil, logger)
	if err != nil {
		t.Fatalf("workflow.NewService returned error: %v", err)
	}

	traffic := trafficintel.NewClient(&common.TrafficIntelConfig{}, logger)
	return NewWorkflowHandler(service, registry, traffic, logger)
}

func TestListTasksHandler(t *testing.T) {
	handler := newWorkflowHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/workflow/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ListTasksHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Tasks        []string          `json:"tasks"`
		Descriptions map[string]string `json:"descriptions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Tasks) != 7 {
		t.Fatalf("got %d tasks, want 7", len(body.Tasks))
	}
	if body.Tasks[0] != "competitor_identification" || body.Tasks[6] != "executive_summary" {
		t.Errorf("task order unexpected: %v", body.Tasks)
	}
	if body.Descriptions["traffic_analysis"] == "" {
		t.Error("expected a description for traffic_analysis")
	}
}

func TestListProvidersHandlerWithoutCredentials(t *testing.T) {
	handler := newWorkflowHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/workflow/providers", nil)
	rec := httptest.NewRecorder()
	handler.ListProvidersHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body["available"]) != 0 {
		t.Errorf("available = %v, want empty", body["available"])
	}
}

func TestConfigureHandlerRejectsUnknownTask(t *testing.T) {
	handler := newWorkflowHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workflow/config",
		strings.NewReader(`{"config":{"sentiment_analysis":"claude"}}`))
	rec := httptest.NewRecorder()
	handler.ConfigureHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
	}
}

func TestConfigureHandlerRejectsUnavailableProvider(t *testing.T) {
	handler := newWorkflowHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workflow/config",
		strings.NewReader(`{"config":{"traffic_analysis":"gemini"}}`))
	rec := httptest.NewRecorder()
	handler.ConfigureHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
	}
}

func TestConfigureHandlerRequiresBody(t *testing.T) {
	handler := newWorkflowHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workflow/config", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ConfigureHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExecuteTaskHandlerUnavailableProvider(t *testing.T) {
	handler := newWorkflowHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workflow/task",
		strings.NewReader(`{"task":"executive_summary","prompt":"summarize"}`))
	rec := httptest.NewRecorder()
	handler.ExecuteTaskHandler(rec, req)

	// Without credentials the stage fails as unavailable.
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body %s", rec.Code, rec.Body.String())
	}
}

func TestExecuteTaskHandlerValidation(t *testing.T) {
	handler := newWorkflowHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workflow/task",
		strings.NewReader(`{"task":"executive_summary"}`))
	rec := httptest.NewRecorder()
	handler.ExecuteTaskHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
	}
}
