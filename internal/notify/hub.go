package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"fuelsoyo/internal/metrics"
	"fuelsoyo/internal/models"
)

const subscriptionBuffer = 16

// Subscription is one live listener. C is closed on Unsubscribe.
type Subscription struct {
	id     uint64
	userID string
	role   models.Role
	C      chan models.AppNotification
}

// UserID returns the subscribed user.
func (s *Subscription) UserID() string { return s.userID }

// Hub fans stored notifications out to the subscribers allowed to see them.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
	logger *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{subs: make(map[uint64]*Subscription), logger: logger}
}

// Subscribe registers a listener for userID.
func (h *Hub) Subscribe(userID string, role models.Role) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		userID: userID,
		role:   role,
		C:      make(chan models.AppNotification, subscriptionBuffer),
	}
	h.subs[sub.id] = sub
	metrics.StreamSubscribers.Inc()
	return sub
}

// Unsubscribe removes the listener and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.C)
	metrics.StreamSubscribers.Dec()
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Deliver hands n to every subscriber that may see it. A subscriber whose
// buffer is full misses the message; the polling feed still has it.
func (h *Hub) Deliver(n models.AppNotification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, sub := range h.subs {
		if !n.VisibleTo(sub.userID, sub.role) {
			continue
		}
		select {
		case sub.C <- n:
			delivered++
		default:
			h.logger.Warn("dropping notification, subscriber buffer full",
				zap.String("user_id", sub.userID),
				zap.String("notification_id", n.ID),
			)
		}
	}
	return delivered
}

// Broadcast delivers to local subscribers.
func (h *Hub) Broadcast(_ context.Context, n models.AppNotification) error {
	h.Deliver(n)
	return nil
}

// Close drops every subscriber, which ends their streams.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.C)
		metrics.StreamSubscribers.Dec()
	}
}
