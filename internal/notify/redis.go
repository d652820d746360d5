package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events on Redis pub/sub so every server instance
// can deliver them to its own observers.
type RedisPublisher struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisPublisher creates a publisher. Channels are named <prefix>:events:<code>.
func NewRedisPublisher(client redis.UniversalClient, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

func channelName(prefix, code string) string {
	return prefix + ":events:" + code
}

// Notify publishes event. Failures are logged and otherwise ignored.
func (p *RedisPublisher) Notify(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to encode table event", "code", event.Code, "error", err)
		return
	}
	// The request context may already be done once the response is written.
	ctx = context.WithoutCancel(ctx)
	if err := p.client.Publish(ctx, channelName(p.prefix, event.Code), data).Err(); err != nil {
		slog.Error("Failed to publish table event", "code", event.Code, "error", err)
	}
}

// Relay subscribes to every table channel under prefix and forwards events
// to local. It blocks until ctx is done.
func Relay(ctx context.Context, client redis.UniversalClient, prefix string, local Notifier) error {
	pubsub := client.PSubscribe(ctx, channelName(prefix, "*"))
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to table events: %w", err)
	}
	slog.Info("Relaying table events from redis", "pattern", channelName(prefix, "*"))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Warn("Ignoring malformed table event", "channel", msg.Channel, "error", err)
				continue
			}
			local.Notify(ctx, event)
		}
	}
}
