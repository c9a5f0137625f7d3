package rules

import (
	"testing"
)

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	tapCount := 0
	drawCount := 0

	handle := bus.SubscribeTyped(EventTap, func(e Event) {
		tapCount++
	})
	bus.SubscribeTyped(EventDraw, func(e Event) {
		drawCount++
	})

	bus.Publish(NewEvent(EventTap, "obj1", "obj1", 0))
	if tapCount != 1 {
		t.Fatalf("expected tap count 1, got %d", tapCount)
	}
	if drawCount != 0 {
		t.Fatalf("expected draw count 0, got %d", drawCount)
	}

	bus.Publish(NewEventWithAmount(EventDraw, "0", "", 0, 1))
	if tapCount != 1 {
		t.Fatalf("expected tap count still 1, got %d", tapCount)
	}
	if drawCount != 1 {
		t.Fatalf("expected draw count 1, got %d", drawCount)
	}

	bus.Unsubscribe(handle)

	bus.Publish(NewEvent(EventTap, "obj2", "obj2", 0))
	if tapCount != 1 {
		t.Fatalf("expected tap count still 1 after unsubscribe, got %d", tapCount)
	}
}

func TestEventBusDeliversInRegistrationOrder(t *testing.T) {
	bus := NewEventBus()

	var order []string
	bus.Subscribe(func(e Event) { order = append(order, "first") })
	bus.Subscribe(func(e Event) { order = append(order, "second") })
	bus.SubscribeTyped(EventLifeGain, func(e Event) { order = append(order, "third") })

	bus.Publish(NewEventWithAmount(EventLifeGain, "0", "src", 0, 3))

	if len(order) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(order))
	}
	if order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("expected registration-order delivery, got %v", order)
	}
}

func TestEventBusUntypedSeesAllEvents(t *testing.T) {
	bus := NewEventBus()

	seen := 0
	bus.Subscribe(func(e Event) { seen++ })

	bus.PublishBatch([]Event{
		NewEvent(EventTap, "a", "a", 0),
		NewEvent(EventUntap, "a", "a", 0),
		NewEvent(EventDies, "a", "a", 0),
	})

	if seen != 3 {
		t.Fatalf("expected 3 events seen, got %d", seen)
	}
}

func TestEventBusNilListenerIgnored(t *testing.T) {
	bus := NewEventBus()

	if handle := bus.Subscribe(nil); handle != -1 {
		t.Fatalf("expected -1 for nil listener, got %d", handle)
	}
	if handle := bus.SubscribeTyped(EventDraw, nil); handle != -1 {
		t.Fatalf("expected -1 for nil typed listener, got %d", handle)
	}

	// Should not panic.
	bus.Publish(NewEvent(EventDraw, "0", "", 0))
}

func TestNewEventPopulatesIdentity(t *testing.T) {
	evt := NewEvent(EventDamageDealt, "creature1", "bolt1", 1)

	if evt.ID == "" {
		t.Fatal("expected event to get an id")
	}
	if evt.Type != EventDamageDealt {
		t.Fatalf("expected DAMAGE_DEALT, got %s", evt.Type)
	}
	if evt.Controller != 1 || evt.PlayerID != 1 {
		t.Fatalf("expected controller and player 1, got %d/%d", evt.Controller, evt.PlayerID)
	}
	if evt.Timestamp.IsZero() {
		t.Fatal("expected a timestamp")
	}
}
