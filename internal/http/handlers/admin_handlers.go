package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"fuelsoyo/internal/service"
)

// AdminHandlers serves admin-only dashboards.
type AdminHandlers struct {
	feed    *service.FeedService
	reports *service.ReportService
	logger  *zap.Logger
}

// NewAdminHandlers returns handler.
func NewAdminHandlers(feed *service.FeedService, reports *service.ReportService, logger *zap.Logger) *AdminHandlers {
	return &AdminHandlers{feed: feed, reports: reports, logger: logger}
}

// EmailLogs handles GET /api/admin/email-logs.
func (h *AdminHandlers) EmailLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.feed.EmailLogs(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err, "failed to load email logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// Reports handles GET /api/admin/reports?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *AdminHandlers) Reports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := service.ParseReportRange(q.Get("start"), q.Get("end"))
	if err != nil {
		respondError(w, r, h.logger, err, "invalid report range")
		return
	}
	reports, err := h.reports.Generate(r.Context(), start, end)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to generate reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}
