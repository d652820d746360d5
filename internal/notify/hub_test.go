package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/racha/internal/models"
)

func TestHub_DeliversToSubscribersOfCode(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe("A", 4)
	other := hub.Subscribe("B", 4)
	defer a.Close()
	defer other.Close()

	hub.Notify(context.Background(), Event{Type: EventUpdate, Code: "A", Table: &models.Table{Code: "A"}})

	select {
	case got := <-a.Events():
		assert.Equal(t, EventUpdate, got.Type)
		assert.Equal(t, "A", got.Table.Code)
	default:
		t.Fatal("expected an event for A")
	}
	assert.Empty(t, other.Events())
}

func TestHub_DropsWhenFull(t *testing.T) {
	hub := NewHub()
	var dropped []EventType
	hub.OnDrop = func(eventType EventType) { dropped = append(dropped, eventType) }

	sub := hub.Subscribe("A", 1)
	defer sub.Close()

	hub.Notify(context.Background(), Event{Type: EventUpdate, Code: "A"})
	hub.Notify(context.Background(), Event{Type: EventReset, Code: "A"})

	assert.Equal(t, []EventType{EventReset}, dropped)
	got := <-sub.Events()
	assert.Equal(t, EventUpdate, got.Type, "the oldest event is kept")
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("A", 0)
	assert.Equal(t, 1, hub.Subscribers("A"))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers("A"))

	_, ok := <-sub.Events()
	assert.False(t, ok, "channel is closed")

	// Notifying after everyone left is a no-op.
	require.NotPanics(t, func() {
		hub.Notify(context.Background(), Event{Code: "A"})
	})
}

func TestMulti(t *testing.T) {
	h1, h2 := NewHub(), NewHub()
	s1, s2 := h1.Subscribe("A", 1), h2.Subscribe("A", 1)
	defer s1.Close()
	defer s2.Close()

	Multi{h1, Nop{}, h2}.Notify(context.Background(), Event{Type: EventClosed, Code: "A"})

	assert.Equal(t, EventClosed, (<-s1.Events()).Type)
	assert.Equal(t, EventClosed, (<-s2.Events()).Type)
}
