package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fuelsoyo/internal/models"
)

// DefaultChannel is the Redis pub/sub channel notifications travel on.
const DefaultChannel = "fuelsoyo:notifications"

// RedisRelay shares notifications between service instances. Broadcast
// publishes to Redis; Run feeds every message received back into the local
// hub, including the ones this instance published.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

// NewRedisRelay builds a relay. An empty channel selects DefaultChannel.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{client: client, channel: channel, hub: hub, logger: logger}
}

// Broadcast publishes n on the relay channel.
func (r *RedisRelay) Broadcast(ctx context.Context, n models.AppNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("relay: encode notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("relay: publish: %w", err)
	}
	return nil
}

// Run subscribes to the relay channel until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("relay: subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("notification relay subscribed", zap.String("channel", r.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var n models.AppNotification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				r.logger.Warn("discarding malformed relay message", zap.Error(err))
				continue
			}
			r.hub.Deliver(n)
		}
	}
}
