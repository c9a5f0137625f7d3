package rules

import (
	"errors"
	"sync"

	"github.com/manaforge/rules-engine/internal/game/abilities"
)

// ErrStackEmpty is returned when popping or peeking an empty stack.
var ErrStackEmpty = errors.New("stack empty")

// StackItemKind describes the type of object on the stack.
type StackItemKind string

const (
	// StackItemKindSpell represents a spell cast by a player.
	StackItemKindSpell StackItemKind = "SPELL"
	// StackItemKindActivated represents an activated ability.
	StackItemKindActivated StackItemKind = "ACTIVATED"
	// StackItemKindTriggered represents a triggered ability.
	StackItemKindTriggered StackItemKind = "TRIGGERED"
	// StackItemKindAbilityGraph represents a bound ability-graph instance.
	StackItemKindAbilityGraph StackItemKind = "ABILITY_GRAPH"
)

// StackPayload carries everything a stack item needs to resolve: the bound
// graph copy plus the controller's chosen targets, modes, and values.
type StackPayload struct {
	SourceID string
	Graph    *abilities.Graph
	Targets  map[string]string
	Modes    map[string]string
	Values   map[string]int
	Choices  map[string]any
	// IsCopy marks a copied spell; it never changes zones on resolution.
	IsCopy bool
}

// StackItem represents a single object on the stack.
type StackItem struct {
	ID          string
	Controller  int
	Description string
	Kind        StackItemKind
	Payload     StackPayload
}

// StackManager manages the game stack. Items resolve strictly LIFO.
type StackManager struct {
	mu    sync.Mutex
	items []StackItem
}

// NewStackManager creates a new stack manager.
func NewStackManager() *StackManager {
	return &StackManager{
		items: make([]StackItem, 0, 16),
	}
}

// Push adds an item to the top of the stack.
func (sm *StackManager) Push(item StackItem) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.items = append(sm.items, item)
}

// Pop removes the top item from the stack.
func (sm *StackManager) Pop() (StackItem, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(sm.items) == 0 {
		return StackItem{}, ErrStackEmpty
	}
	idx := len(sm.items) - 1
	item := sm.items[idx]
	sm.items = sm.items[:idx]
	return item, nil
}

// Peek returns the top item without removing it.
func (sm *StackManager) Peek() (StackItem, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(sm.items) == 0 {
		return StackItem{}, false
	}
	return sm.items[len(sm.items)-1], true
}

// Remove deletes an item from anywhere in the stack by ID, searching from the
// top so counterspells hit the topmost match.
func (sm *StackManager) Remove(id string) (StackItem, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for idx := len(sm.items) - 1; idx >= 0; idx-- {
		if sm.items[idx].ID == id {
			item := sm.items[idx]
			sm.items = append(sm.items[:idx], sm.items[idx+1:]...)
			return item, true
		}
	}
	return StackItem{}, false
}

// RemoveTopControlledBy removes the topmost item controlled by the given
// player, if any.
func (sm *StackManager) RemoveTopControlledBy(controller int) (StackItem, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for idx := len(sm.items) - 1; idx >= 0; idx-- {
		if sm.items[idx].Controller == controller {
			item := sm.items[idx]
			sm.items = append(sm.items[:idx], sm.items[idx+1:]...)
			return item, true
		}
	}
	return StackItem{}, false
}

// List returns a copy of all stack items, bottom to top.
func (sm *StackManager) List() []StackItem {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	cpy := make([]StackItem, len(sm.items))
	copy(cpy, sm.items)
	return cpy
}

// IsEmpty returns whether the stack is empty.
func (sm *StackManager) IsEmpty() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.items) == 0
}

// Len returns the number of items on the stack.
func (sm *StackManager) Len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.items)
}
