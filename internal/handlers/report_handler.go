package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/interfaces"
	"github.com/growthops/adpulse/internal/queue"
	"github.com/growthops/adpulse/internal/services/report"
)

// ReportHandler serves persisted report reads and async refreshes
type ReportHandler struct {
	service    *report.Service
	dispatcher *queue.Dispatcher
	reports    *common.ReportsConfig
	logger     arbor.ILogger
}

func NewReportHandler(service *report.Service, dispatcher *queue.Dispatcher, reports *common.ReportsConfig, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		service:    service,
		dispatcher: dispatcher,
		reports:    reports,
		logger:     logger,
	}
}

// RefreshRequest triggers an async report refresh
type RefreshRequest struct {
	Priority  bool   `json:"priority"`
	Domain    string `json:"domain,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
}

// GetReportHandler handles GET /api/reports/{account_id}
func (h *ReportHandler) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	accountID := h.accountID(r.URL.Path)
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "Account id is required")
		return
	}

	summary, err := h.service.GetLatestSummary(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, interfaces.ErrReportNotFound) {
			WriteError(w, http.StatusNotFound, "Report not found")
			return
		}
		h.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to load report")
		WriteError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"report": summary})
}

// RefreshReportHandler handles POST /api/reports/{account_id}/refresh
func (h *ReportHandler) RefreshReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	accountID := h.accountID(strings.TrimSuffix(r.URL.Path, "/refresh"))
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "Account id is required")
		return
	}

	var req RefreshRequest
	if r.ContentLength > 0 && !DecodeAndValidate(w, r, &req) {
		return
	}

	domain := req.Domain
	if domain == "" {
		domain = h.reports.DefaultDomain
	}
	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = h.reports.DefaultTimeframe
	}

	job := queue.RefreshJob{
		AccountID: accountID,
		Domain:    domain,
		Timeframe: timeframe,
		Priority:  req.Priority,
	}
	if err := h.dispatcher.Enqueue(job); err != nil {
		h.logger.Warn().Err(err).Str("account_id", accountID).Msg("Refresh enqueue rejected")
		WriteError(w, http.StatusServiceUnavailable, "Refresh queue is full")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// accountID extracts the account from /api/reports/{account_id}[...]
func (h *ReportHandler) accountID(path string) string {
	rest := strings.TrimPrefix(path, "/api/reports/")
	if idx := strings.Index(rest, "/"); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
