// Package effects implements the two effect registries of the rules engine:
// the seven-layer continuous-effect system that rewrites object
// characteristics on read, and the replacement-effect pipeline that rewrites
// events before they commit.
package effects

import (
	"strings"
)

// Snapshot is the mutable working copy of one object's characteristics while
// continuous effects are being applied. Evaluation starts from the printed
// base values and each layer mutates the snapshot in order; the caller treats
// the final result as read-only.
type Snapshot struct {
	ObjectID   string
	Controller int
	Name       string

	Types       []string
	Subtypes    []string
	Supertypes  []string
	Colors      []string
	Keywords    []string
	Protections []string

	Power      int
	Toughness  int
	HasPT      bool
	Loyalty    int
	HasLoyalty bool

	// Counter contribution, applied at layer 7c after registered effects.
	CounterPower     int
	CounterToughness int

	base baseCharacteristics
}

type baseCharacteristics struct {
	controller  int
	types       []string
	subtypes    []string
	supertypes  []string
	colors      []string
	keywords    []string
	protections []string
	power       int
	toughness   int
	hasPT       bool
	loyalty     int
	hasLoyalty  bool
}

// NewSnapshot constructs a snapshot seeded with base characteristics. The
// base values are retained so Reset can restore them between evaluations.
func NewSnapshot(objectID string, controller int) *Snapshot {
	return &Snapshot{ObjectID: objectID, Controller: controller, base: baseCharacteristics{controller: controller}}
}

// SetBase records the printed characteristics and resets derived state.
func (s *Snapshot) SetBase(types, subtypes, supertypes, colors, keywords, protections []string, power, toughness int, hasPT bool, loyalty int, hasLoyalty bool) {
	s.base.types = append([]string(nil), types...)
	s.base.subtypes = append([]string(nil), subtypes...)
	s.base.supertypes = append([]string(nil), supertypes...)
	s.base.colors = append([]string(nil), colors...)
	s.base.keywords = append([]string(nil), keywords...)
	s.base.protections = append([]string(nil), protections...)
	s.base.power = power
	s.base.toughness = toughness
	s.base.hasPT = hasPT
	s.base.loyalty = loyalty
	s.base.hasLoyalty = hasLoyalty
	s.Reset()
}

// Reset restores derived characteristics to their base values.
func (s *Snapshot) Reset() {
	s.Controller = s.base.controller
	s.Types = append([]string(nil), s.base.types...)
	s.Subtypes = append([]string(nil), s.base.subtypes...)
	s.Supertypes = append([]string(nil), s.base.supertypes...)
	s.Colors = append([]string(nil), s.base.colors...)
	s.Keywords = append([]string(nil), s.base.keywords...)
	s.Protections = append([]string(nil), s.base.protections...)
	s.Power = s.base.power
	s.Toughness = s.base.toughness
	s.HasPT = s.base.hasPT
	s.Loyalty = s.base.loyalty
	s.HasLoyalty = s.base.hasLoyalty
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func removeFold(list []string, value string) []string {
	out := list[:0]
	for _, item := range list {
		if !strings.EqualFold(item, value) {
			out = append(out, item)
		}
	}
	return out
}

// HasType reports whether the snapshot currently includes the card type.
func (s *Snapshot) HasType(typeName string) bool {
	return containsFold(s.Types, typeName)
}

// HasKeyword reports whether the snapshot currently includes the keyword.
func (s *Snapshot) HasKeyword(keyword string) bool {
	return containsFold(s.Keywords, keyword)
}

// HasProtectionFrom reports whether the snapshot carries protection from the
// given attribute (a color or card type name).
func (s *Snapshot) HasProtectionFrom(attribute string) bool {
	return containsFold(s.Protections, attribute)
}
