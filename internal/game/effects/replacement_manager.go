package effects

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/rules"
)

// DefaultMaxReplacementIterations bounds the rewrite loop per event.
const DefaultMaxReplacementIterations = 100

// ReplacementManager holds the active replacement effects and runs the
// event-rewrite algorithm: each published event is offered to matching
// effects, one at a time, until none apply or the event is suppressed.
//
// When several effects could apply, self-replacements go first; after that
// the affected controller would choose, modeled deterministically as active
// player's effects first, then by registration timestamp.
type ReplacementManager struct {
	mu            sync.Mutex
	effects       []ReplacementEffect
	maxIterations int
	logger        *zap.Logger
}

// NewReplacementManager creates a new replacement effect manager.
func NewReplacementManager(logger *zap.Logger) *ReplacementManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplacementManager{
		maxIterations: DefaultMaxReplacementIterations,
		logger:        logger,
	}
}

// SetMaxIterations overrides the rewrite-loop bound.
func (rm *ReplacementManager) SetMaxIterations(n int) {
	if n <= 0 {
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.maxIterations = n
}

// MaxIterations returns the current rewrite-loop bound.
func (rm *ReplacementManager) MaxIterations() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.maxIterations
}

// AddEffect registers a replacement effect.
func (rm *ReplacementManager) AddEffect(effect ReplacementEffect) {
	if effect == nil {
		rm.logger.Warn("attempted to add nil replacement effect")
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.effects = append(rm.effects, effect)
	rm.logger.Debug("added replacement effect",
		zap.String("effect_id", effect.ID()),
		zap.String("source_id", effect.SourceID()))
}

// RemoveEffect removes a replacement effect by id.
func (rm *ReplacementManager) RemoveEffect(effectID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.removeLocked(effectID)
}

func (rm *ReplacementManager) removeLocked(effectID string) {
	for i, effect := range rm.effects {
		if effect.ID() == effectID {
			rm.effects = append(rm.effects[:i], rm.effects[i+1:]...)
			return
		}
	}
}

// RemoveBySource removes all effects created by a source object; called when
// the source leaves the battlefield.
func (rm *ReplacementManager) RemoveBySource(sourceID string) []string {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	var removed []string
	kept := rm.effects[:0]
	for _, effect := range rm.effects {
		if effect.SourceID() == sourceID {
			removed = append(removed, effect.ID())
			continue
		}
		kept = append(kept, effect)
	}
	rm.effects = kept
	return removed
}

// RemoveTargeting removes effects bound to a specific object (shields,
// redirections, per-object zone rewrites) and returns the removed ids.
// Called when that object leaves the battlefield.
func (rm *ReplacementManager) RemoveTargeting(objectID string) []string {
	if objectID == "" {
		return nil
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	var removed []string
	kept := rm.effects[:0]
	for _, effect := range rm.effects {
		if bound, ok := effect.(objectBound); ok && bound.BoundObjectID() == objectID {
			removed = append(removed, effect.ID())
			continue
		}
		kept = append(kept, effect)
	}
	rm.effects = kept
	return removed
}

// RemoveExpired removes effects with the given duration ("until end of turn"
// replacements expire at cleanup) and returns the removed ids.
func (rm *ReplacementManager) RemoveExpired(duration Duration) []string {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	var removed []string
	kept := rm.effects[:0]
	for _, effect := range rm.effects {
		if effect.Duration() == duration {
			removed = append(removed, effect.ID())
			continue
		}
		kept = append(kept, effect)
	}
	rm.effects = kept
	return removed
}

// Effects returns all registered effects in registration order.
func (rm *ReplacementManager) Effects() []ReplacementEffect {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	out := make([]ReplacementEffect, len(rm.effects))
	copy(out, rm.effects)
	return out
}

// Apply runs the rewrite loop for an event and returns the events to commit,
// in order. An empty slice means the event was entirely replaced away.
func (rm *ReplacementManager) Apply(event rules.Event, activePlayer int) []rules.Event {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.applyLocked(event, activePlayer, 0)
}

func (rm *ReplacementManager) applyLocked(event rules.Event, activePlayer, depth int) []rules.Event {
	if depth > 4 {
		// "instead do X and Y" sequences should be shallow; deeper nesting
		// means a rewrite loop between replacement effects.
		rm.logger.Error("replacement recursion too deep", zap.String("event_type", string(event.Type)))
		return []rules.Event{event}
	}

	applied := make(map[string]bool, len(event.AppliedEffects))
	for _, id := range event.AppliedEffects {
		applied[id] = true
	}

	for iteration := 0; iteration < rm.maxIterations; iteration++ {
		chosen := rm.chooseLocked(event, applied, activePlayer)
		if chosen == nil {
			return []rules.Event{event}
		}

		outcome := chosen.ReplaceEvent(event)
		applied[chosen.ID()] = true
		event.AppliedEffects = append(event.AppliedEffects, chosen.ID())

		rm.logger.Debug("applied replacement effect",
			zap.String("effect_id", chosen.ID()),
			zap.String("event_type", string(event.Type)),
			zap.Bool("canceled", outcome.Canceled))

		if outcome.Consumed || chosen.Duration() == DurationOneUse {
			rm.removeLocked(chosen.ID())
		}
		if outcome.Canceled {
			return nil
		}
		if len(outcome.Events) > 0 {
			var committed []rules.Event
			for _, alt := range outcome.Events {
				alt.AppliedEffects = append(alt.AppliedEffects, event.AppliedEffects...)
				committed = append(committed, rm.applyLocked(alt, activePlayer, depth+1)...)
			}
			return committed
		}
		event = outcome.Event
		if outcome.Final {
			return []rules.Event{event}
		}
	}

	rm.logger.Error("replacement loop exceeded maximum iterations",
		zap.String("event_type", string(event.Type)),
		zap.Int("max_iterations", rm.maxIterations))
	return []rules.Event{event}
}

// chooseLocked selects the next applicable effect for the event.
func (rm *ReplacementManager) chooseLocked(event rules.Event, applied map[string]bool, activePlayer int) ReplacementEffect {
	var candidates []ReplacementEffect
	for _, effect := range rm.effects {
		if applied[effect.ID()] {
			continue
		}
		if !effect.ChecksEventType(event.Type) {
			continue
		}
		if !effect.Applies(event) {
			continue
		}
		candidates = append(candidates, effect)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].SelfReplacement(), candidates[j].SelfReplacement()
		if si != sj {
			return si
		}
		ai := candidates[i].Controller() == activePlayer
		aj := candidates[j].Controller() == activePlayer
		if ai != aj {
			return ai
		}
		return candidates[i].Timestamp().Before(candidates[j].Timestamp())
	})
	return candidates[0]
}
