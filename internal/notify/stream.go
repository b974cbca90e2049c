package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 4 * 1024
)

// Stream pumps one subscription onto a websocket. Clients only listen;
// anything they send is read and discarded to keep control frames flowing.
type Stream struct {
	ws           *websocket.Conn
	sub          *Subscription
	hub          *Hub
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewStream binds a subscription to an upgraded connection.
func NewStream(ws *websocket.Conn, hub *Hub, sub *Subscription, writeTimeout time.Duration, logger *zap.Logger) *Stream {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Stream{ws: ws, sub: sub, hub: hub, writeTimeout: writeTimeout, logger: logger}
}

// Run blocks until the client goes away, ctx is cancelled or the
// subscription is closed. It always releases the subscription and socket.
func (s *Stream) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.cleanup()

	go s.readPump(cancel)
	s.writePump(ctx)
}

func (s *Stream) readPump(cancel context.CancelFunc) {
	defer cancel()
	s.ws.SetReadLimit(readLimit)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.ws.ReadMessage(); err != nil {
			s.logger.Debug("stream read closed", zap.String("user_id", s.sub.UserID()), zap.Error(err))
			return
		}
	}
}

func (s *Stream) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case n, ok := <-s.sub.C:
			if !ok {
				_ = s.write(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				s.logger.Warn("failed to encode notification", zap.String("notification_id", n.ID), zap.Error(err))
				continue
			}
			if err := s.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

func (s *Stream) write(messageType int, data []byte) error {
	_ = s.ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.ws.WriteMessage(messageType, data)
}

func (s *Stream) cleanup() {
	s.hub.Unsubscribe(s.sub)
	_ = s.ws.Close()
}
