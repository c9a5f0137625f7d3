package rules

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manaforge/rules-engine/internal/game/primitives"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Zone events
	EventZoneChange        EventType = "ZONE_CHANGE"
	EventEntersBattlefield EventType = "ENTERS_BATTLEFIELD"
	EventLeavesBattlefield EventType = "LEAVES_BATTLEFIELD"
	EventDies              EventType = "DIES"
	EventTokenCreated      EventType = "TOKEN_CREATED"
	EventShuffled          EventType = "SHUFFLED"

	// Turn structure events
	EventBeginStep     EventType = "BEGIN_STEP"
	EventEndStep       EventType = "END_STEP"
	EventBeginTurn     EventType = "BEGIN_TURN"
	EventEmptyManaPool EventType = "EMPTY_MANA_POOL"

	// Card/player events
	EventDraw      EventType = "DRAW"
	EventDrew      EventType = "DREW"
	EventDiscard   EventType = "DISCARD"
	EventMill      EventType = "MILL"
	EventReveal    EventType = "REVEAL"
	EventScry      EventType = "SCRY"
	EventSurveil   EventType = "SURVEIL"
	EventCast      EventType = "CAST"
	EventCountered EventType = "COUNTERED"
	EventCopied    EventType = "COPIED"
	EventSearch    EventType = "SEARCH"

	// Life and damage events
	EventDamageDealt EventType = "DAMAGE_DEALT"
	EventLifeGain    EventType = "LIFE_GAIN"
	EventLifeLoss    EventType = "LIFE_LOSS"
	EventLoses       EventType = "LOSES"

	// Permanent state events
	EventTap             EventType = "TAP"
	EventUntap           EventType = "UNTAP"
	EventAttach          EventType = "ATTACH"
	EventUnattach        EventType = "UNATTACH"
	EventCountersChanged EventType = "COUNTERS_CHANGED"
	EventPhaseOut        EventType = "PHASE_OUT"
	EventPhaseIn         EventType = "PHASE_IN"
	EventTransformed     EventType = "TRANSFORMED"
	EventControlChanged  EventType = "CONTROL_CHANGED"
	EventRegenerated     EventType = "REGENERATED"
	EventDestroyed       EventType = "DESTROYED"
	EventFought          EventType = "FIGHT"

	// Mana events
	EventManaAdded EventType = "MANA_ADDED"
	EventManaPaid  EventType = "MANA_PAID"

	// Engine events
	EventStateBasedActions EventType = "STATE_BASED_ACTIONS"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type           EventType
	ID             string
	TargetID       string // object or player id the event is about
	SourceID       string // object/ability that caused the event
	Controller     int    // controller of the source
	PlayerID       int    // affected player
	Amount         int
	Flag           bool
	Zone           primitives.Zone // destination zone for zone events
	FromZone       primitives.Zone // origin zone for zone events
	Targets        []string
	Timestamp      time.Time
	Metadata       map[string]string
	Description    string
	AppliedEffects []string // replacement effect IDs already applied
	Canceled       bool     // set by a replacement that suppresses the event
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, targetID, sourceID string, controller int) Event {
	return Event{
		Type:       eventType,
		ID:         uuid.NewString(),
		TargetID:   targetID,
		SourceID:   sourceID,
		Controller: controller,
		PlayerID:   controller,
		Timestamp:  time.Now(),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, targetID, sourceID string, controller, amount int) Event {
	evt := NewEvent(eventType, targetID, sourceID, controller)
	evt.Amount = amount
	return evt
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type busEntry struct {
	handle    int
	eventType EventType // only for typed listeners
	typed     bool
	callback  Listener
}

// EventBus provides a synchronous publish/subscribe implementation.
// Listeners run in registration order; the bus does not buffer or reorder.
type EventBus struct {
	mu         sync.RWMutex
	entries    []busEntry
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.entries = append(bus.entries, busEntry{handle: handle, callback: listener})
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback Listener) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.entries = append(bus.entries, busEntry{handle: handle, eventType: eventType, typed: true, callback: callback})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, entry := range bus.entries {
		if entry.handle == handle {
			bus.entries = append(bus.entries[:i], bus.entries[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to all registered listeners synchronously, in
// registration order. Listeners may mutate game state but must not resolve
// stack items recursively.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	entries := make([]busEntry, len(bus.entries))
	copy(entries, bus.entries)
	bus.mu.RUnlock()

	for _, entry := range entries {
		if entry.typed && entry.eventType != event.Type {
			continue
		}
		entry.callback(event)
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
