package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/racha/internal/models"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisPublisher_Notify(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)

	pubsub := client.Subscribe(ctx, "racha:events:MESA-AB12")
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client, "racha")
	pub.Notify(ctx, Event{Type: EventUpdate, Code: "MESA-AB12", Table: &models.Table{Code: "MESA-AB12", Name: "Friday"}})

	select {
	case msg := <-pubsub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, EventUpdate, got.Type)
		assert.Equal(t, "Friday", got.Table.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestRelay(t *testing.T) {
	client := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	sub := hub.Subscribe("T-1", 4)
	defer sub.Close()

	done := make(chan error, 1)
	go func() { done <- Relay(ctx, client, "racha", hub) }()

	// Publish until the relay has subscribed and forwarded one event.
	pub := NewRedisPublisher(client, "racha")
	closure := &models.ClosureRecord{ID: "h1", Total: 42, Winner: "Ana"}
	deadline := time.After(2 * time.Second)
	for {
		pub.Notify(ctx, Event{Type: EventClosed, Code: "T-1", Closure: closure})
		select {
		case got := <-sub.Events():
			assert.Equal(t, EventClosed, got.Type)
			require.NotNil(t, got.Closure)
			assert.Equal(t, *closure, *got.Closure)

			cancel()
			assert.NoError(t, <-done)
			return
		case <-deadline:
			t.Fatal("relay did not forward the event")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestRelay_IgnoresMalformedPayloads(t *testing.T) {
	client := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	sub := hub.Subscribe("T-1", 8)
	defer sub.Close()
	go Relay(ctx, client, "racha", hub)

	deadline := time.After(2 * time.Second)
	for {
		client.Publish(ctx, "racha:events:T-1", "not json")
		client.Publish(ctx, "racha:events:T-1", `{"type":"session:reset","code":"T-1"}`)
		select {
		case got := <-sub.Events():
			assert.Equal(t, EventReset, got.Type)
			return
		case <-deadline:
			t.Fatal("relay stopped after a malformed payload")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
