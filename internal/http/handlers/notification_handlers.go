package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/notify"
	"fuelsoyo/internal/service"
)

// NotificationsHandlers serves the notification feed and its live stream.
type NotificationsHandlers struct {
	feed         *service.FeedService
	hub          *notify.Hub
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewNotificationsHandlers returns handler. allowedOrigins limits websocket
// upgrades; empty allows any origin.
func NewNotificationsHandlers(feed *service.FeedService, hub *notify.Hub, allowedOrigins []string, logger *zap.Logger) *NotificationsHandlers {
	return &NotificationsHandlers{
		feed:         feed,
		hub:          hub,
		writeTimeout: 10 * time.Second,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}

// Feed handles GET /api/notifications. Operators polling their feed also
// get a reminder when their station status went stale.
func (h *NotificationsHandlers) Feed(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if p.Role == models.RoleOperator {
		if _, err := h.feed.RemindIfStale(r.Context(), p.UserID); err != nil {
			h.logger.Warn("stale station check failed", zap.String("user_id", p.UserID), zap.Error(err))
		}
	}
	feed, err := h.feed.ForUser(r.Context(), p.UserID, p.Role)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to load notifications")
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationsHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	n, err := h.feed.MarkRead(r.Context(), p.UserID, p.Role, r.PathValue("id"))
	if err != nil {
		respondError(w, r, h.logger, err, "failed to mark notification read")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationsHandlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	marked, err := h.feed.MarkAllRead(r.Context(), p.UserID, p.Role)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to mark notifications read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": marked})
}

// Stream handles GET /api/notifications/ws. It blocks for the lifetime of
// the socket.
func (h *NotificationsHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(p.UserID, p.Role)
	h.logger.Info("notification stream opened", zap.String("user_id", p.UserID))
	notify.NewStream(conn, h.hub, sub, h.writeTimeout, h.logger).Run(r.Context())
	h.logger.Info("notification stream closed", zap.String("user_id", p.UserID))
}
