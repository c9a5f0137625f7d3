package effects

import (
	"time"

	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/rules"
)

// ReplacementOutcome is what a replacement effect does to an event.
type ReplacementOutcome struct {
	// Event is the rewritten event; ignored when Canceled or Events is set.
	Event rules.Event
	// Events replaces the event with a sequence of alternative events, each
	// of which re-enters the pipeline ("instead do X and Y").
	Events []rules.Event
	// Canceled suppresses the event entirely.
	Canceled bool
	// Consumed marks the effect as used up (prevention shields).
	Consumed bool
	// Final stops further replacements from applying to the event.
	Final bool
}

// ReplacementEffect watches one kind of event and rewrites it before it
// commits. At most one application per effect instance per event.
type ReplacementEffect interface {
	ID() string
	SourceID() string
	// Controller is the player whose objects the effect protects or whose
	// choice it represents; used for deterministic ordering.
	Controller() int
	Duration() Duration
	Timestamp() time.Time
	ChecksEventType(rules.EventType) bool
	Applies(rules.Event) bool
	ReplaceEvent(rules.Event) ReplacementOutcome
	// SelfReplacement effects come from the resolving ability itself and are
	// applied before all others.
	SelfReplacement() bool
}

// BaseReplacement provides the common bookkeeping for replacement effects.
type BaseReplacement struct {
	EffectID    string
	Source      string
	Owner       int
	Expire      Duration
	Created     time.Time
	SelfReplace bool
}

// NewBaseReplacement constructs the shared fields of a replacement effect.
func NewBaseReplacement(sourceID string, controller int, duration Duration) BaseReplacement {
	return BaseReplacement{
		EffectID: NewEffectID(),
		Source:   sourceID,
		Owner:    controller,
		Expire:   duration,
		Created:  time.Now(),
	}
}

func (b *BaseReplacement) ID() string            { return b.EffectID }
func (b *BaseReplacement) SourceID() string      { return b.Source }
func (b *BaseReplacement) Controller() int       { return b.Owner }
func (b *BaseReplacement) Duration() Duration    { return b.Expire }
func (b *BaseReplacement) Timestamp() time.Time  { return b.Created }
func (b *BaseReplacement) SelfReplacement() bool { return b.SelfReplace }

// ZoneChangeReplacement rewrites the destination of a zone change, e.g.
// "if it would die, exile it instead".
type ZoneChangeReplacement struct {
	BaseReplacement
	ObjectID string           // specific object, empty for any
	FromZone *primitives.Zone // required origin, nil for any
	ToZone   *primitives.Zone // required destination, nil for any
	NewZone  primitives.Zone
}

func (e *ZoneChangeReplacement) ChecksEventType(t rules.EventType) bool {
	return t == rules.EventZoneChange
}

func (e *ZoneChangeReplacement) BoundObjectID() string { return e.ObjectID }

func (e *ZoneChangeReplacement) Applies(event rules.Event) bool {
	if e.ObjectID != "" && event.TargetID != e.ObjectID {
		return false
	}
	if e.FromZone != nil && event.FromZone != *e.FromZone {
		return false
	}
	if e.ToZone != nil && event.Zone != *e.ToZone {
		return false
	}
	return event.Zone != e.NewZone
}

func (e *ZoneChangeReplacement) ReplaceEvent(event rules.Event) ReplacementOutcome {
	event.Zone = e.NewZone
	return ReplacementOutcome{Event: event}
}

// EntersTappedReplacement marks an object entering the battlefield as tapped.
type EntersTappedReplacement struct {
	BaseReplacement
	ObjectID string
}

func (e *EntersTappedReplacement) ChecksEventType(t rules.EventType) bool {
	return t == rules.EventZoneChange
}

func (e *EntersTappedReplacement) BoundObjectID() string { return e.ObjectID }

func (e *EntersTappedReplacement) Applies(event rules.Event) bool {
	if event.Zone != primitives.ZoneBattlefield {
		return false
	}
	return e.ObjectID == "" || event.TargetID == e.ObjectID
}

func (e *EntersTappedReplacement) ReplaceEvent(event rules.Event) ReplacementOutcome {
	if event.Metadata == nil {
		event.Metadata = make(map[string]string)
	}
	event.Metadata["enters_tapped"] = "true"
	return ReplacementOutcome{Event: event}
}

// DamagePrevention prevents up to Shield damage to a target; a zero shield
// prevents all damage. Shielded prevention is consumable.
type DamagePrevention struct {
	BaseReplacement
	TargetID  string // object or player id; empty for any
	SourceID_ string // damage source filter; empty for any
	Shield    int
}

func (e *DamagePrevention) ChecksEventType(t rules.EventType) bool {
	return t == rules.EventDamageDealt
}

func (e *DamagePrevention) BoundObjectID() string { return e.TargetID }

func (e *DamagePrevention) Applies(event rules.Event) bool {
	if event.Amount <= 0 {
		return false
	}
	if e.TargetID != "" && event.TargetID != e.TargetID {
		return false
	}
	if e.SourceID_ != "" && event.SourceID != e.SourceID_ {
		return false
	}
	return true
}

func (e *DamagePrevention) ReplaceEvent(event rules.Event) ReplacementOutcome {
	if e.Shield <= 0 {
		// Prevent all.
		return ReplacementOutcome{Canceled: true}
	}
	prevented := event.Amount
	if prevented > e.Shield {
		prevented = e.Shield
	}
	e.Shield -= prevented
	event.Amount -= prevented
	out := ReplacementOutcome{Event: event, Consumed: e.Shield == 0}
	if event.Amount == 0 {
		out.Canceled = true
	}
	return out
}

// DamageRedirection sends damage aimed at one target to another instead.
type DamageRedirection struct {
	BaseReplacement
	FromTargetID string
	ToTargetID   string
	ToPlayer     int
	IsPlayer     bool
}

func (e *DamageRedirection) ChecksEventType(t rules.EventType) bool {
	return t == rules.EventDamageDealt
}

func (e *DamageRedirection) BoundObjectID() string { return e.FromTargetID }

func (e *DamageRedirection) Applies(event rules.Event) bool {
	return event.Amount > 0 && event.TargetID == e.FromTargetID
}

func (e *DamageRedirection) ReplaceEvent(event rules.Event) ReplacementOutcome {
	if e.IsPlayer {
		event.TargetID = ""
		event.PlayerID = e.ToPlayer
	} else {
		event.TargetID = e.ToTargetID
	}
	return ReplacementOutcome{Event: event}
}

// AmountAdjustment rewrites the amount of a matching event, covering "draw
// two instead" (multiplier) and "that many plus one" counters (delta).
type AmountAdjustment struct {
	BaseReplacement
	EventType  rules.EventType
	TargetID   string // object filter; empty for any
	PlayerID   int    // player filter; -1 for any
	Multiplier int    // applied first when > 0
	Delta      int
}

func (e *AmountAdjustment) ChecksEventType(t rules.EventType) bool {
	return t == e.EventType
}

func (e *AmountAdjustment) BoundObjectID() string { return e.TargetID }

func (e *AmountAdjustment) Applies(event rules.Event) bool {
	if event.Amount <= 0 {
		return false
	}
	if e.TargetID != "" && event.TargetID != e.TargetID {
		return false
	}
	if e.PlayerID >= 0 && event.PlayerID != e.PlayerID {
		return false
	}
	return true
}

func (e *AmountAdjustment) ReplaceEvent(event rules.Event) ReplacementOutcome {
	if e.Multiplier > 0 {
		event.Amount *= e.Multiplier
	}
	event.Amount += e.Delta
	if event.Amount < 0 {
		event.Amount = 0
	}
	return ReplacementOutcome{Event: event}
}
