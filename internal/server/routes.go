package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - status
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)

	// API routes - reports (GET /{account_id}, POST /{account_id}/refresh)
	mux.HandleFunc("/api/reports/", s.handleReportRoutes)

	// API routes - alerts
	mux.HandleFunc("/api/alerts", s.app.AlertHandler.ListAlertsHandler)

	// API routes - workflow
	mux.HandleFunc("/api/workflow/providers", s.app.WorkflowHandler.ListProvidersHandler)
	mux.HandleFunc("/api/workflow/tasks", s.app.WorkflowHandler.ListTasksHandler)
	mux.HandleFunc("/api/workflow/config", s.app.WorkflowHandler.ConfigureHandler)
	mux.HandleFunc("/api/workflow/execute", s.app.WorkflowHandler.ExecuteWorkflowHandler)
	mux.HandleFunc("/api/workflow/task", s.app.WorkflowHandler.ExecuteTaskHandler)

	return mux
}

// handleReportRoutes dispatches /api/reports/{account_id}[/refresh]
func (s *Server) handleReportRoutes(w http.ResponseWriter, r *http.Request) {
	if matched := RouteByPathSuffix(w, r, "/api/reports/", []PathSuffixRouter{
		{Suffix: "/refresh", Handler: s.app.ReportHandler.RefreshReportHandler},
	}); matched {
		return
	}
	s.app.ReportHandler.GetReportHandler(w, r)
}
