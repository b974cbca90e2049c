package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fuelsoyo/internal/http/handlers"
	"fuelsoyo/internal/http/middleware"
	"fuelsoyo/internal/models"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers          *handlers.AuthHandlers
	StationsHandlers      *handlers.StationsHandlers
	RequestsHandlers      *handlers.RequestsHandlers
	NotificationsHandlers *handlers.NotificationsHandlers
	AdminHandlers         *handlers.AdminHandlers
	HealthHandler         http.HandlerFunc
	// Metrics defaults to the prometheus default registry handler.
	Metrics http.Handler
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	mux.Handle("GET /health", deps.HealthHandler)
	mux.Handle("GET /metrics", metricsHandler)

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware)
	}
	adminOnly := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware, middleware.RequireRole(models.RoleAdmin))
	}
	staff := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleOperator))
	}

	auth := deps.AuthHandlers
	mux.HandleFunc("POST /api/auth/login", auth.Login)
	mux.HandleFunc("POST /api/auth/register", auth.Register)
	mux.Handle("GET /api/me", authenticated(auth.Me))
	mux.Handle("PUT /api/me/preferences", authenticated(auth.UpdatePreferences))
	mux.Handle("POST /api/me/favorites/{stationID}", authenticated(auth.ToggleFavorite))

	stations := deps.StationsHandlers
	mux.HandleFunc("GET /api/stations", stations.List)
	mux.HandleFunc("GET /api/stations/{id}", stations.Get)
	mux.Handle("POST /api/stations", adminOnly(stations.Create))
	mux.Handle("PATCH /api/stations/{id}", staff(stations.UpdateDetails))
	mux.Handle("PUT /api/stations/{id}/status", staff(stations.UpdateStatus))
	mux.Handle("PUT /api/stations/{id}/stock", staff(stations.UpdateStock))
	mux.Handle("DELETE /api/stations/{id}", adminOnly(stations.Delete))

	requests := deps.RequestsHandlers
	mux.HandleFunc("POST /api/station-requests", requests.Submit)
	mux.Handle("GET /api/station-requests", adminOnly(requests.List))
	mux.Handle("POST /api/station-requests/{id}/approve", adminOnly(requests.Approve))
	mux.Handle("POST /api/station-requests/{id}/reject", adminOnly(requests.Reject))

	notifications := deps.NotificationsHandlers
	mux.Handle("GET /api/notifications", authenticated(notifications.Feed))
	mux.Handle("POST /api/notifications/read-all", authenticated(notifications.MarkAllRead))
	mux.Handle("POST /api/notifications/{id}/read", authenticated(notifications.MarkRead))
	mux.Handle("GET /api/notifications/ws", authenticated(notifications.Stream))

	admin := deps.AdminHandlers
	mux.Handle("GET /api/admin/email-logs", adminOnly(admin.EmailLogs))
	mux.Handle("GET /api/admin/reports", adminOnly(admin.Reports))

	return mux
}
