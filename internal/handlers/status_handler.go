package handlers

import (
	"net/http"
	"time"

	"github.com/growthops/adpulse/internal/common"
)

// StatusHandler serves health and version endpoints
type StatusHandler struct {
	started time.Time
}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{started: time.Now().UTC()}
}

// HealthHandler handles GET /api/health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// VersionHandler handles GET /api/version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}
