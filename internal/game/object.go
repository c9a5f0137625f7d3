package game

import (
	"github.com/manaforge/rules-engine/internal/game/abilities"
	"github.com/manaforge/rules-engine/internal/game/counters"
	"github.com/manaforge/rules-engine/internal/game/effects"
	"github.com/manaforge/rules-engine/internal/game/primitives"
)

// Characteristics are the printed values of a card face. Continuous effects
// never mutate these; the layer system derives current values from them.
type Characteristics struct {
	Types       []string `json:"types"`
	Subtypes    []string `json:"subtypes"`
	Supertypes  []string `json:"supertypes"`
	Colors      []string `json:"colors"`
	Power       int      `json:"power"`
	Toughness   int      `json:"toughness"`
	HasPT       bool     `json:"has_pt"`
	Loyalty     int      `json:"loyalty"`
	HasLoyalty  bool     `json:"has_loyalty"`
	Defense     int      `json:"defense"`
	ManaValue   int      `json:"mana_value"`
	ManaCost    []string `json:"mana_cost"`
	Keywords    []string `json:"keywords"`
	Protections []string `json:"protections"`
}

// GameObject is a card, token, or copy tracked by the engine. Owner never
// changes; controller may.
type GameObject struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Owner      int                `json:"owner"`
	Controller int                `json:"controller"`
	Zone       primitives.Zone    `json:"zone"`
	Base       Characteristics    `json:"base"`
	Graphs     []*abilities.Graph `json:"graphs,omitempty"`

	// Second face, present on transforming cards.
	BackFace *Characteristics `json:"back_face,omitempty"`

	Tapped           bool              `json:"tapped"`
	Damage           int               `json:"damage"`
	DeathtouchDamage bool              `json:"deathtouch_damage"`
	Counters         counters.Bag      `json:"counters"`
	AttachedTo       string            `json:"attached_to,omitempty"`
	Attachments      []string          `json:"attachments,omitempty"`
	IsToken          bool              `json:"is_token"`
	WasCast          bool              `json:"was_cast"`
	IsAttacking      bool              `json:"is_attacking"`
	IsBlocking       bool              `json:"is_blocking"`
	PhasedOut        bool              `json:"phased_out"`
	Transformed      bool              `json:"transformed"`
	RegenerateShield int               `json:"regenerate_shield"`
	EnterChoices     map[string]string `json:"enter_choices,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`

	// EnteredSeq orders objects for the legend rule and timestamp ties.
	EnteredSeq int64 `json:"entered_seq"`
}

// NewGameObject creates an object with empty mutable state.
func NewGameObject(id, name string, owner int, zone primitives.Zone) *GameObject {
	return &GameObject{
		ID:         id,
		Name:       name,
		Owner:      owner,
		Controller: owner,
		Zone:       zone,
		Counters:   counters.NewBag(),
	}
}

// Face returns the characteristics of the currently showing face.
func (o *GameObject) Face() Characteristics {
	if o.Transformed && o.BackFace != nil {
		return *o.BackFace
	}
	return o.Base
}

// IsLegendary reports whether the object's printed supertypes include
// Legendary.
func (o *GameObject) IsLegendary() bool {
	for _, super := range o.Face().Supertypes {
		if super == "Legendary" {
			return true
		}
	}
	return false
}

// HasBaseType checks the printed (current face) types, before layers.
func (o *GameObject) HasBaseType(typeName string) bool {
	for _, t := range o.Face().Types {
		if t == typeName {
			return true
		}
	}
	return false
}

// ResetBattlefieldState clears everything that only exists while the object
// is on the battlefield. Called whenever the object leaves it.
func (o *GameObject) ResetBattlefieldState() {
	o.Tapped = false
	o.Damage = 0
	o.DeathtouchDamage = false
	o.Counters.Clear()
	o.AttachedTo = ""
	o.Attachments = nil
	o.IsAttacking = false
	o.IsBlocking = false
	o.PhasedOut = false
	o.RegenerateShield = 0
	o.EnterChoices = nil
}

// RemoveFromCombat clears attack and block assignments.
func (o *GameObject) RemoveFromCombat() {
	o.IsAttacking = false
	o.IsBlocking = false
}

// baseSnapshot builds the pre-layer characteristics view of the object.
// Counter contributions are filled here so layer 7c sees them.
func (o *GameObject) baseSnapshot() *effects.Snapshot {
	face := o.Face()
	snap := effects.NewSnapshot(o.ID, o.Controller)
	snap.SetBase(face.Types, face.Subtypes, face.Supertypes, face.Colors,
		face.Keywords, face.Protections,
		face.Power, face.Toughness, face.HasPT,
		face.Loyalty, face.HasLoyalty)
	snap.Name = o.Name
	p, t := o.Counters.PTContribution()
	snap.CounterPower = p
	snap.CounterToughness = t
	if face.HasLoyalty {
		snap.Loyalty = o.Counters.Count(primitives.CounterLoyalty)
	}
	return snap
}
