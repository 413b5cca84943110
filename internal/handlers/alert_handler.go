package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/services/alerts"
)

const defaultAlertLimit = 50

// AlertHandler serves persisted alert events
type AlertHandler struct {
	service *alerts.Service
	logger  arbor.ILogger
}

func NewAlertHandler(service *alerts.Service, logger arbor.ILogger) *AlertHandler {
	return &AlertHandler{service: service, logger: logger}
}

// ListAlertsHandler handles GET /api/alerts
func (h *AlertHandler) ListAlertsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	events, err := h.service.ListRecent(r.Context(), defaultAlertLimit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list alerts")
		WriteError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"alerts": events})
}
