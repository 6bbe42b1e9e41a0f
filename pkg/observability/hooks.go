// Package observability provides change notifications and operation hooks
// for controller rigs.
//
// # Architecture
//
// Two mechanisms, both instance-scoped so that no mutable package state ties
// unrelated callers together:
//
//   - [Bus] delivers [Event] values ("the controller registry changed") to
//     subscribed listeners. UI adapters subscribe to refresh their
//     controller lists; the CLI subscribes a logging listener.
//   - [Hooks] receives start/complete callbacks around each rig operation,
//     for metrics or tracing backends. [NoopHooks] is the default.
//
// # Usage
//
//	bus := observability.NewBus()
//	unsubscribe := bus.Subscribe(func(ctx context.Context, ev observability.Event) {
//	    refreshDropdown(ev.Scene)
//	})
//	defer unsubscribe()
//
//	registry := controller.NewRegistry(controller.WithBus(bus))
package observability

import (
	"context"
	"slices"
	"sync"
	"time"
)

// =============================================================================
// Events
// =============================================================================

// EventType names what changed.
type EventType string

const (
	EventControllerCreated EventType = "controller_created"
	EventSchemaRepaired    EventType = "schema_repaired"
	EventBindingsApplied   EventType = "bindings_applied"
	EventSwept             EventType = "swept"
	EventUndone            EventType = "undone"
)

// Event describes a change to a scene's controllers or bindings.
type Event struct {
	Type       EventType
	Scene      string
	Controller string // Empty for scene-wide events
	Count      int    // Layers affected, when meaningful
}

// Listener receives events. Listeners run synchronously on the emitting
// goroutine and must not call back into the Bus.
type Listener func(ctx context.Context, ev Event)

// =============================================================================
// Bus
// =============================================================================

// Bus fans events out to subscribers. The zero value is ready to use, and a
// nil *Bus drops every event.
type Bus struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]Listener
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers l and returns a function that removes it.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = make(map[int]Listener)
	}
	id := b.next
	b.next++
	b.listeners[id] = l
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// Emit delivers ev to every listener in subscription order.
func (b *Bus) Emit(ctx context.Context, ev Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	ls := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		ls = append(ls, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, l := range ls {
		l(ctx, ev)
	}
}

// Len returns the number of subscribed listeners.
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// =============================================================================
// Operation Hooks
// =============================================================================

// Hooks receives events around rig operations.
type Hooks interface {
	OnOperationStart(ctx context.Context, op, scene string)
	OnOperationComplete(ctx context.Context, op, scene string, affected int, duration time.Duration, err error)
}

// NoopHooks is a no-op implementation of Hooks.
type NoopHooks struct{}

func (NoopHooks) OnOperationStart(context.Context, string, string) {}
func (NoopHooks) OnOperationComplete(context.Context, string, string, int, time.Duration, error) {
}

var _ Hooks = NoopHooks{}
