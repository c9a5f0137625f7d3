package effects

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Layer corresponds to the comprehensive-rules layers for continuous effects.
type Layer int

const (
	LayerCopy Layer = 1 + iota
	LayerControl
	LayerText
	LayerType
	LayerColor
	LayerAbility
	LayerPowerToughness
)

// Sublayer orders effects inside layer 7.
type Sublayer string

const (
	SublayerNone Sublayer = ""
	Sublayer7a   Sublayer = "a" // set base P/T
	Sublayer7b   Sublayer = "b" // characteristic-defining P/T
	Sublayer7c   Sublayer = "c" // P/T modifiers and counters
	Sublayer7d   Sublayer = "d" // switch P/T
)

var layerOrder = []Layer{
	LayerCopy,
	LayerControl,
	LayerText,
	LayerType,
	LayerColor,
	LayerAbility,
	LayerPowerToughness,
}

var sublayerOrder = map[Sublayer]int{
	SublayerNone: 0,
	Sublayer7a:   1,
	Sublayer7b:   2,
	Sublayer7c:   3,
	Sublayer7d:   4,
}

// ContinuousEffect defines behaviour for modifying object characteristics.
type ContinuousEffect interface {
	ID() string
	SourceID() string
	Layer() Layer
	Sublayer() Sublayer
	Timestamp() time.Time
	Duration() Duration
	// DependsOn lists same-layer effect IDs whose outcome this effect's
	// existence depends on; they must apply first.
	DependsOn() []string
	AppliesTo(*Snapshot) bool
	Apply(*Snapshot)
}

type registeredEffect struct {
	effect ContinuousEffect
	seq    int
}

// LayerSystem manages registration and ordered evaluation of continuous
// effects. Evaluation is pure: Apply never mutates the registry.
type LayerSystem struct {
	mu      sync.RWMutex
	effects []registeredEffect
	nextSeq int
}

// NewLayerSystem constructs an empty layer system.
func NewLayerSystem() *LayerSystem {
	return &LayerSystem{}
}

// AddEffect registers a new continuous effect and returns its identifier.
func (ls *LayerSystem) AddEffect(effect ContinuousEffect) string {
	if effect == nil {
		return ""
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.effects = append(ls.effects, registeredEffect{effect: effect, seq: ls.nextSeq})
	ls.nextSeq++
	return effect.ID()
}

// RemoveEffect removes a registered effect by ID.
func (ls *LayerSystem) RemoveEffect(id string) {
	if id == "" {
		return
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for i, reg := range ls.effects {
		if reg.effect.ID() == id {
			ls.effects = append(ls.effects[:i], ls.effects[i+1:]...)
			return
		}
	}
}

// RemoveBySource removes all effects created by the given source and returns
// the removed ids.
func (ls *LayerSystem) RemoveBySource(sourceID string) []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	var removed []string
	kept := ls.effects[:0]
	for _, reg := range ls.effects {
		if reg.effect.SourceID() == sourceID {
			removed = append(removed, reg.effect.ID())
			continue
		}
		kept = append(kept, reg)
	}
	ls.effects = kept
	return removed
}

// objectBound is implemented by effects pinned to a single object (gained
// keywords, granted protections, shields). They are dropped when that object
// leaves the battlefield.
type objectBound interface {
	BoundObjectID() string
}

// RemoveSelecting removes effects bound to the given object and returns the
// removed ids. Called alongside RemoveBySource when the object leaves the
// battlefield, so grants from other sources do not survive the round trip.
func (ls *LayerSystem) RemoveSelecting(objectID string) []string {
	if objectID == "" {
		return nil
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	var removed []string
	kept := ls.effects[:0]
	for _, reg := range ls.effects {
		if bound, ok := reg.effect.(objectBound); ok && bound.BoundObjectID() == objectID {
			removed = append(removed, reg.effect.ID())
			continue
		}
		kept = append(kept, reg)
	}
	ls.effects = kept
	return removed
}

// RemoveExpired removes effects whose duration matches the given expiry and
// returns the removed ids. Called at cleanup for DurationEndOfTurn.
func (ls *LayerSystem) RemoveExpired(duration Duration) []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	var removed []string
	kept := ls.effects[:0]
	for _, reg := range ls.effects {
		if reg.effect.Duration() == duration {
			removed = append(removed, reg.effect.ID())
			continue
		}
		kept = append(kept, reg)
	}
	ls.effects = kept
	return removed
}

// Effects returns all registered effects in registration order.
func (ls *LayerSystem) Effects() []ContinuousEffect {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	out := make([]ContinuousEffect, len(ls.effects))
	for i, reg := range ls.effects {
		out[i] = reg.effect
	}
	return out
}

// Apply executes all relevant continuous effects over the snapshot, layer by
// layer in the fixed order: within a (layer, sublayer) group, dependency
// order first, then timestamp, then registration sequence. Counter boosts
// land at 7c after registered 7c effects.
func (ls *LayerSystem) Apply(snapshot *Snapshot) {
	if snapshot == nil {
		return
	}
	ls.mu.RLock()
	ordered := make([]registeredEffect, len(ls.effects))
	copy(ordered, ls.effects)
	ls.mu.RUnlock()

	snapshot.Reset()
	for _, layer := range layerOrder {
		if layer == LayerPowerToughness {
			for _, sublayer := range []Sublayer{Sublayer7a, Sublayer7b, Sublayer7c, Sublayer7d} {
				group := selectGroup(ordered, layer, sublayer)
				applyGroup(group, snapshot)
				if sublayer == Sublayer7c && snapshot.HasPT {
					snapshot.Power += snapshot.CounterPower
					snapshot.Toughness += snapshot.CounterToughness
				}
			}
			continue
		}
		group := selectGroup(ordered, layer, SublayerNone)
		applyGroup(group, snapshot)
	}
}

func selectGroup(all []registeredEffect, layer Layer, sublayer Sublayer) []registeredEffect {
	var group []registeredEffect
	for _, reg := range all {
		if reg.effect.Layer() != layer {
			continue
		}
		if layer == LayerPowerToughness && reg.effect.Sublayer() != sublayer {
			continue
		}
		group = append(group, reg)
	}
	return group
}

// applyGroup orders one (layer, sublayer) group and applies it. Dependencies
// inside the group are applied before their dependents; a dependency cycle is
// broken by timestamp. Ties fall back to timestamp then registration order.
func applyGroup(group []registeredEffect, snapshot *Snapshot) {
	if len(group) == 0 {
		return
	}
	sort.SliceStable(group, func(i, j int) bool {
		ti, tj := group[i].effect.Timestamp(), group[j].effect.Timestamp()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return group[i].seq < group[j].seq
	})
	ordered := orderByDependency(group)
	for _, reg := range ordered {
		if reg.effect.AppliesTo(snapshot) {
			reg.effect.Apply(snapshot)
		}
	}
}

func orderByDependency(group []registeredEffect) []registeredEffect {
	inGroup := make(map[string]bool, len(group))
	for _, reg := range group {
		inGroup[reg.effect.ID()] = true
	}
	placed := make(map[string]bool, len(group))
	out := make([]registeredEffect, 0, len(group))
	remaining := append([]registeredEffect(nil), group...)

	for len(remaining) > 0 {
		progressed := false
		next := remaining[:0]
		for _, reg := range remaining {
			ready := true
			for _, dep := range reg.effect.DependsOn() {
				if inGroup[dep] && !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				out = append(out, reg)
				placed[reg.effect.ID()] = true
				progressed = true
			} else {
				next = append(next, reg)
			}
		}
		remaining = append([]registeredEffect(nil), next...)
		if !progressed {
			// Dependency cycle: fall back to timestamp order for the rest.
			out = append(out, remaining...)
			break
		}
	}
	return out
}

// NewEffectID mints a unique continuous-effect identifier.
func NewEffectID() string {
	return uuid.NewString()
}
