package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/services/llm"
	"github.com/growthops/adpulse/internal/services/trafficintel"
	"github.com/growthops/adpulse/internal/services/workflow"
)

// WorkflowHandler serves the market research workflow endpoints
type WorkflowHandler struct {
	service  *workflow.Service
	registry *llm.Registry
	traffic  *trafficintel.Client
	logger   arbor.ILogger
}

func NewWorkflowHandler(service *workflow.Service, registry *llm.Registry, traffic *trafficintel.Client, logger arbor.ILogger) *WorkflowHandler {
	return &WorkflowHandler{
		service:  service,
		registry: registry,
		traffic:  traffic,
		logger:   logger,
	}
}

// WorkflowConfigRequest reassigns providers to workflow tasks
type WorkflowConfigRequest struct {
	Config map[string]string `json:"config" validate:"required,min=1"`
}

// WorkflowExecutionRequest runs the full market research workflow
type WorkflowExecutionRequest struct {
	Domain         string                 `json:"domain" validate:"required"`
	MetaData       map[string]interface{} `json:"meta_data"`
	CompetitorData map[string]interface{} `json:"competitor_data"`
	CustomConfig   map[string]string      `json:"custom_config,omitempty"`
}

// TaskExecutionRequest runs a single workflow task
type TaskExecutionRequest struct {
	Task     string `json:"task" validate:"required"`
	Prompt   string `json:"prompt" validate:"required"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ListProvidersHandler handles GET /api/workflow/providers
func (h *WorkflowHandler) ListProvidersHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	available := h.registry.Available(r.Context())
	names := make([]string, 0, len(available))
	for _, identity := range available {
		names = append(names, string(identity))
	}
	WriteJSON(w, http.StatusOK, map[string][]string{"available": names})
}

// ListTasksHandler handles GET /api/workflow/tasks
func (h *WorkflowHandler) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tasks := make([]string, 0, len(workflow.Tasks))
	descriptions := make(map[string]string, len(workflow.Tasks))
	for _, task := range workflow.Tasks {
		tasks = append(tasks, string(task))
		descriptions[string(task)] = task.Description()
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks":        tasks,
		"descriptions": descriptions,
	})
}

// ConfigureHandler handles POST /api/workflow/config
func (h *WorkflowHandler) ConfigureHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req WorkflowConfigRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	applied, err := h.service.ConfigureTaskProviders(r.Context(), req.Config)
	if err != nil {
		var validationErr *workflow.ValidationError
		if errors.As(err, &validationErr) {
			WriteError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Workflow configuration failed")
		WriteError(w, http.StatusInternalServerError, "Configuration failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "configured",
		"config": applied,
	})
}

// ExecuteWorkflowHandler handles POST /api/workflow/execute
func (h *WorkflowHandler) ExecuteWorkflowHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req WorkflowExecutionRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	domains := append([]string{req.Domain}, workflow.ExtractCompetitorDomains(req.CompetitorData)...)
	trafficData := h.traffic.GetMultipleDomains(r.Context(), domains)

	result, err := h.service.GenerateMarketResearchReport(r.Context(), &workflow.MarketResearchRequest{
		Domain:         req.Domain,
		MetaData:       req.MetaData,
		CompetitorData: req.CompetitorData,
		TrafficData:    trafficData,
		CustomConfig:   req.CustomConfig,
	})
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// ExecuteTaskHandler handles POST /api/workflow/task
func (h *WorkflowHandler) ExecuteTaskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req TaskExecutionRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	response, err := h.service.ExecuteTask(r.Context(), workflow.Task(req.Task), req.Prompt, req.Provider, req.Model)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"task":     req.Task,
		"content":  response.Content,
		"provider": response.Provider,
		"model":    response.Model,
		"metadata": response.Metadata,
	})
}

func (h *WorkflowHandler) writeWorkflowError(w http.ResponseWriter, err error) {
	var validationErr *workflow.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var stageErr *workflow.StageError
	if errors.As(err, &stageErr) {
		h.logger.Warn().Err(stageErr).Str("task", string(stageErr.Task)).Msg("Workflow stage failed")
		if llm.IsUnavailable(stageErr.Err) {
			WriteError(w, http.StatusServiceUnavailable, stageErr.Error())
			return
		}
		WriteError(w, http.StatusBadGateway, stageErr.Error())
		return
	}

	h.logger.Error().Err(err).Msg("Workflow execution failed")
	WriteError(w, http.StatusInternalServerError, "Workflow execution failed")
}
