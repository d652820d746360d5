// Package notify broadcasts table changes to observers.
//
// Delivery is best-effort and at most once: a notifier never blocks the
// ledger and never reports failure back to it.
package notify

import (
	"context"

	"github.com/mmynk/racha/internal/models"
)

// EventType names the change that happened to a table.
type EventType string

const (
	// EventUpdate is sent after members, expenses or mode change.
	EventUpdate EventType = "session:update"
	// EventReset is sent after a table is reset.
	EventReset EventType = "session:reset"
	// EventClosed is sent after a table is closed; Closure is set.
	EventClosed EventType = "session:closed"
)

// Event is a single broadcast to the observers of one table.
type Event struct {
	Type    EventType             `json:"type"`
	Code    string                `json:"code"`
	Table   *models.Table         `json:"session"`
	Closure *models.ClosureRecord `json:"hist,omitempty"`
}

// Notifier delivers events to the observers of a table.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Nop discards every event.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, Event) {}

// Multi fans an event out to several notifiers in order.
type Multi []Notifier

// Notify forwards event to every notifier.
func (m Multi) Notify(ctx context.Context, event Event) {
	for _, n := range m {
		n.Notify(ctx, event)
	}
}
