package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	h := NoopHooks{}
	h.OnOperationStart(ctx, "apply", "comp")
	h.OnOperationComplete(ctx, "apply", "comp", 3, time.Second, nil)
}

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(func(_ context.Context, ev Event) { got = append(got, "first:"+string(ev.Type)) })
	bus.Subscribe(func(_ context.Context, ev Event) { got = append(got, "second:"+string(ev.Type)) })

	bus.Emit(context.Background(), Event{Type: EventControllerCreated, Scene: "comp", Controller: "Controller"})

	if len(got) != 2 {
		t.Fatalf("got %d deliveries, want 2", len(got))
	}
	if got[0] != "first:controller_created" || got[1] != "second:controller_created" {
		t.Errorf("deliveries = %v", got)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(context.Context, Event) { calls++ })

	bus.Emit(context.Background(), Event{Type: EventSwept})
	unsubscribe()
	bus.Emit(context.Background(), Event{Type: EventSwept})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if bus.Len() != 0 {
		t.Errorf("Len() = %d, want 0", bus.Len())
	}
}

func TestNilBusIsSilent(t *testing.T) {
	var bus *Bus
	bus.Emit(context.Background(), Event{Type: EventSwept})
	if bus.Len() != 0 {
		t.Error("nil bus should report no listeners")
	}
}

func TestZeroValueBus(t *testing.T) {
	var bus Bus
	calls := 0
	bus.Subscribe(func(context.Context, Event) { calls++ })
	bus.Emit(context.Background(), Event{Type: EventBindingsApplied, Count: 2})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
