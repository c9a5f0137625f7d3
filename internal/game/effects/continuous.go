package effects

import (
	"time"
)

// Duration represents how long an effect lasts.
type Duration string

const (
	// DurationEndOfTurn expires at the end-of-turn cleanup step.
	DurationEndOfTurn Duration = "EndOfTurn"
	// DurationWhileOnBattlefield lasts while the source is on the battlefield.
	DurationWhileOnBattlefield Duration = "WhileOnBattlefield"
	// DurationOneUse is consumed by its first application (prevention shields).
	DurationOneUse Duration = "OneUse"
	// DurationPermanent lasts indefinitely.
	DurationPermanent Duration = "Permanent"
)

// ParseDuration maps an effect payload duration string to a Duration.
// Unknown and empty strings default to end of turn, the common case for
// one-shot pump effects.
func ParseDuration(s string) Duration {
	switch s {
	case "permanent":
		return DurationPermanent
	case "while_on_battlefield", "while condition":
		return DurationWhileOnBattlefield
	case "", "until end of turn", "end_of_turn":
		return DurationEndOfTurn
	}
	return DurationEndOfTurn
}

// Selector decides which objects a modifier applies to.
type Selector struct {
	// ObjectID restricts the modifier to a single object (self, enchanted,
	// equipped, or a bound target).
	ObjectID string
	// Controller restricts to objects controlled by a player; -1 matches any.
	Controller int
	// Types restricts to objects having at least one of these card types.
	Types []string
}

// AnySelector matches every object.
func AnySelector() Selector {
	return Selector{Controller: -1}
}

// ObjectSelector matches a single object by id.
func ObjectSelector(objectID string) Selector {
	return Selector{ObjectID: objectID, Controller: -1}
}

// Matches reports whether the selector applies to the snapshot.
func (sel Selector) Matches(s *Snapshot) bool {
	if sel.ObjectID != "" && sel.ObjectID != s.ObjectID {
		return false
	}
	if sel.Controller >= 0 && sel.Controller != s.Controller {
		return false
	}
	if len(sel.Types) > 0 {
		matched := false
		for _, t := range sel.Types {
			if s.HasType(t) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// OpKind discriminates modifier operations. Each kind implies its layer.
type OpKind string

const (
	OpSetController    OpKind = "set_controller"     // layer 2
	OpSetTypes         OpKind = "set_types"          // layer 4
	OpAddType          OpKind = "add_type"           // layer 4
	OpRemoveType       OpKind = "remove_type"        // layer 4
	OpSetColors        OpKind = "set_colors"         // layer 5
	OpAddColor         OpKind = "add_color"          // layer 5
	OpRemoveColor      OpKind = "remove_color"       // layer 5
	OpGrantKeyword     OpKind = "grant_keyword"      // layer 6
	OpLoseKeyword      OpKind = "lose_keyword"       // layer 6
	OpLoseAllAbilities OpKind = "lose_all_abilities" // layer 6
	OpGrantProtection  OpKind = "grant_protection"   // layer 6
	OpSetBasePT        OpKind = "set_base_pt"        // layer 7a
	OpCDAPT            OpKind = "cda_pt"             // layer 7b
	OpAddPT            OpKind = "add_pt"             // layer 7c
	OpSwitchPT         OpKind = "switch_pt"          // layer 7d
)

func (k OpKind) layer() Layer {
	switch k {
	case OpSetController:
		return LayerControl
	case OpSetTypes, OpAddType, OpRemoveType:
		return LayerType
	case OpSetColors, OpAddColor, OpRemoveColor:
		return LayerColor
	case OpGrantKeyword, OpLoseKeyword, OpLoseAllAbilities, OpGrantProtection:
		return LayerAbility
	default:
		return LayerPowerToughness
	}
}

func (k OpKind) sublayer() Sublayer {
	switch k {
	case OpSetBasePT:
		return Sublayer7a
	case OpCDAPT:
		return Sublayer7b
	case OpAddPT:
		return Sublayer7c
	case OpSwitchPT:
		return Sublayer7d
	}
	return SublayerNone
}

// CDAFunc computes a characteristic-defining P/T at evaluation time.
// It must be a pure function of current game state.
type CDAFunc func(objectID string) (power, toughness int)

// Modifier is the concrete continuous-effect descriptor registered by the
// effect resolver and by printed static abilities.
type Modifier struct {
	EffectID   string
	Source     string
	Select     Selector
	Op         OpKind
	Strings    []string // type/color/keyword/protection payload
	Power      int
	Toughness  int
	Controller int
	CDA        CDAFunc
	Expire     Duration
	Created    time.Time
	Deps       []string
}

// NewModifier fills in the bookkeeping fields of a modifier.
func NewModifier(source string, sel Selector, op OpKind, duration Duration) *Modifier {
	return &Modifier{
		EffectID: NewEffectID(),
		Source:   source,
		Select:   sel,
		Op:       op,
		Expire:   duration,
		Created:  time.Now(),
	}
}

func (m *Modifier) ID() string           { return m.EffectID }
func (m *Modifier) SourceID() string     { return m.Source }
func (m *Modifier) Layer() Layer         { return m.Op.layer() }
func (m *Modifier) Sublayer() Sublayer   { return m.Op.sublayer() }
func (m *Modifier) Timestamp() time.Time { return m.Created }
func (m *Modifier) Duration() Duration   { return m.Expire }
func (m *Modifier) DependsOn() []string  { return m.Deps }

// BoundObjectID exposes the single-object selector, if any.
func (m *Modifier) BoundObjectID() string { return m.Select.ObjectID }

// AppliesTo reports whether the modifier's selector matches the snapshot.
func (m *Modifier) AppliesTo(s *Snapshot) bool {
	return m.Select.Matches(s)
}

// Apply mutates the snapshot according to the operation kind.
func (m *Modifier) Apply(s *Snapshot) {
	switch m.Op {
	case OpSetController:
		s.Controller = m.Controller
	case OpSetTypes:
		s.Types = append([]string(nil), m.Strings...)
	case OpAddType:
		for _, t := range m.Strings {
			if !containsFold(s.Types, t) {
				s.Types = append(s.Types, t)
			}
		}
	case OpRemoveType:
		for _, t := range m.Strings {
			s.Types = removeFold(s.Types, t)
		}
	case OpSetColors:
		s.Colors = append([]string(nil), m.Strings...)
	case OpAddColor:
		for _, c := range m.Strings {
			if !containsFold(s.Colors, c) {
				s.Colors = append(s.Colors, c)
			}
		}
	case OpRemoveColor:
		for _, c := range m.Strings {
			s.Colors = removeFold(s.Colors, c)
		}
	case OpGrantKeyword:
		for _, kw := range m.Strings {
			if !containsFold(s.Keywords, kw) {
				s.Keywords = append(s.Keywords, kw)
			}
		}
	case OpLoseKeyword:
		for _, kw := range m.Strings {
			s.Keywords = removeFold(s.Keywords, kw)
		}
	case OpLoseAllAbilities:
		// Wipes base abilities and any grants applied earlier in layer 6.
		s.Keywords = s.Keywords[:0]
	case OpGrantProtection:
		for _, attr := range m.Strings {
			if !containsFold(s.Protections, attr) {
				s.Protections = append(s.Protections, attr)
			}
		}
	case OpSetBasePT:
		s.Power = m.Power
		s.Toughness = m.Toughness
		s.HasPT = true
	case OpCDAPT:
		if m.CDA != nil {
			p, t := m.CDA(s.ObjectID)
			s.Power = p
			s.Toughness = t
			s.HasPT = true
		}
	case OpAddPT:
		s.Power += m.Power
		s.Toughness += m.Toughness
	case OpSwitchPT:
		s.Power, s.Toughness = s.Toughness, s.Power
	}
}
