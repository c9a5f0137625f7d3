package rules

import (
	"sync"
)

// PriorityTracker implements the two-pointer priority handoff: it remembers
// who holds priority and how many players have passed in succession. When
// every player has passed, the caller either resolves the top of the stack or
// advances to the next step.
type PriorityTracker struct {
	mu          sync.Mutex
	holder      int
	passes      int
	playerCount int
}

// NewPriorityTracker creates a tracker with priority on the given player.
func NewPriorityTracker(holder, playerCount int) *PriorityTracker {
	if playerCount < 1 {
		playerCount = 1
	}
	return &PriorityTracker{holder: holder, playerCount: playerCount}
}

// Holder returns the player currently holding priority.
func (pt *PriorityTracker) Holder() int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.holder
}

// Grant gives priority to the given player and clears the pass count.
func (pt *PriorityTracker) Grant(player int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.holder = player
	pt.passes = 0
}

// Pass records a pass by the holder and moves priority to the next player.
// It returns true when all players have now passed in succession.
func (pt *PriorityTracker) Pass() bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.passes++
	pt.holder = (pt.holder + 1) % pt.playerCount
	return pt.passes >= pt.playerCount
}

// ResetPasses clears the pass count. Called whenever a player takes an action
// that uses the stack.
func (pt *PriorityTracker) ResetPasses() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.passes = 0
}

// AllPassed reports whether every player has passed in succession.
func (pt *PriorityTracker) AllPassed() bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.passes >= pt.playerCount
}
