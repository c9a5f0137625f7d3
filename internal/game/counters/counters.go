// Package counters models the counter bags placed on game objects and the
// rules that govern them: power/toughness boosts, pairwise +1/+1 / -1/-1
// cancellation, and non-boost markers like loyalty and time.
package counters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/manaforge/rules-engine/internal/game/primitives"
)

// Counter represents a number of same-kind counters on an object.
type Counter struct {
	Kind  primitives.CounterKind
	Count int
}

// BoostValues parses a boost counter kind like "+1/+1" or "-2/-0" into its
// power/toughness deltas. Non-boost kinds report ok=false.
func BoostValues(kind primitives.CounterKind) (power, toughness int, ok bool) {
	parts := strings.SplitN(string(kind), "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	var p, t int
	if _, err := fmt.Sscanf(parts[0], "%d", &p); err != nil {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &t); err != nil {
		return 0, 0, false
	}
	return p, t, true
}

// Bag is the counter collection on a single object, keyed by kind.
// Counts never go below zero.
type Bag map[primitives.CounterKind]int

// NewBag creates an empty counter bag.
func NewBag() Bag {
	return make(Bag)
}

// Add puts amount counters of the given kind into the bag.
func (b Bag) Add(kind primitives.CounterKind, amount int) {
	if amount <= 0 {
		return
	}
	b[kind] += amount
}

// Remove takes up to amount counters of the given kind out of the bag and
// returns how many were actually removed.
func (b Bag) Remove(kind primitives.CounterKind, amount int) int {
	if amount <= 0 {
		return 0
	}
	current := b[kind]
	removed := amount
	if removed > current {
		removed = current
	}
	if removed == current {
		delete(b, kind)
	} else {
		b[kind] = current - removed
	}
	return removed
}

// Count returns the number of counters of the given kind.
func (b Bag) Count(kind primitives.CounterKind) int {
	return b[kind]
}

// Clear empties the bag.
func (b Bag) Clear() {
	for kind := range b {
		delete(b, kind)
	}
}

// Copy returns a deep copy of the bag.
func (b Bag) Copy() Bag {
	out := make(Bag, len(b))
	for kind, count := range b {
		out[kind] = count
	}
	return out
}

// Kinds returns the kinds present, sorted for deterministic iteration.
func (b Bag) Kinds() []primitives.CounterKind {
	out := make([]primitives.CounterKind, 0, len(b))
	for kind := range b {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PTContribution sums the power/toughness deltas of every boost counter in
// the bag. This is the layer 7c contribution of the bag.
func (b Bag) PTContribution() (power, toughness int) {
	for kind, count := range b {
		p, t, ok := BoostValues(kind)
		if !ok {
			continue
		}
		power += p * count
		toughness += t * count
	}
	return power, toughness
}

// CancelOpposing removes +1/+1 and -1/-1 counters pairwise and returns how
// many pairs were removed. Run by the state-based action checker.
func (b Bag) CancelOpposing() int {
	plus := b[primitives.CounterPlusOnePlusOne]
	minus := b[primitives.CounterMinusOneMinusOne]
	pairs := plus
	if minus < pairs {
		pairs = minus
	}
	if pairs > 0 {
		b.Remove(primitives.CounterPlusOnePlusOne, pairs)
		b.Remove(primitives.CounterMinusOneMinusOne, pairs)
	}
	return pairs
}
