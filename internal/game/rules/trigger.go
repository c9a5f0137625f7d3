package rules

import (
	"sync"

	"github.com/google/uuid"
)

// AbilityTrigger encapsulates the logic for reacting to a specific event and
// producing a stack item when its condition is satisfied.
type AbilityTrigger struct {
	ID         string
	SourceID   string
	Controller int
	EventType  EventType
	Condition  func(Event) bool
	Build      func(Event) StackItem
	Once       bool
}

// TriggerManager stores and evaluates ability triggers against events.
// Triggers are kept in registration order so batches are deterministic.
type TriggerManager struct {
	mu       sync.Mutex
	triggers []AbilityTrigger
}

// NewTriggerManager creates an empty trigger manager.
func NewTriggerManager() *TriggerManager {
	return &TriggerManager{}
}

// Register adds a new trigger and returns its id.
func (tm *TriggerManager) Register(trigger AbilityTrigger) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if trigger.ID == "" {
		trigger.ID = uuid.NewString()
	}
	tm.triggers = append(tm.triggers, trigger)
	return trigger.ID
}

// Unregister removes a trigger by id.
func (tm *TriggerManager) Unregister(id string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for i, trigger := range tm.triggers {
		if trigger.ID == id {
			tm.triggers = append(tm.triggers[:i], tm.triggers[i+1:]...)
			return
		}
	}
}

// HasTrigger reports whether a trigger with the given id is registered.
func (tm *TriggerManager) HasTrigger(id string) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for _, trigger := range tm.triggers {
		if trigger.ID == id {
			return true
		}
	}
	return false
}

// Handle evaluates the event against all registered triggers and returns the
// stack items they produce, in the order the triggers were observed.
func (tm *TriggerManager) Handle(event Event) []StackItem {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if len(tm.triggers) == 0 {
		return nil
	}

	var (
		stackItems []StackItem
		remaining  []AbilityTrigger
	)
	for _, trigger := range tm.triggers {
		if trigger.EventType != event.Type ||
			(trigger.Condition != nil && !trigger.Condition(event)) ||
			trigger.Build == nil {
			remaining = append(remaining, trigger)
			continue
		}

		item := trigger.Build(event)
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		stackItems = append(stackItems, item)

		if !trigger.Once {
			remaining = append(remaining, trigger)
		}
	}
	tm.triggers = remaining

	return stackItems
}
