package targeting

import (
	"github.com/manaforge/rules-engine/internal/game/primitives"
)

// TargetType distinguishes what kind of thing a requirement accepts.
type TargetType string

const (
	TargetTypeObject    TargetType = "OBJECT"
	TargetTypePlayer    TargetType = "PLAYER"
	TargetTypeAny       TargetType = "ANY"
	TargetTypeStackItem TargetType = "STACK_ITEM"
)

// Requirement describes what a single declared target must satisfy.
type Requirement struct {
	Type TargetType

	// Zone the object must occupy. Ignored for players and stack items.
	Zone primitives.Zone

	// Types, Subtypes filter object characteristics after layer evaluation.
	Types    []string
	Subtypes []string

	// AllowPhasedOut permits targeting phased-out objects. Almost nothing
	// does; abilities of the object itself are the known exception.
	AllowPhasedOut bool

	// ControllerIs restricts to a specific controller, -1 for any.
	ControllerIs int
}

// NewObjectRequirement builds the common case: a battlefield object filter.
func NewObjectRequirement(types ...string) Requirement {
	return Requirement{
		Type:         TargetTypeObject,
		Zone:         primitives.ZoneBattlefield,
		Types:        types,
		ControllerIs: -1,
	}
}

// NewPlayerRequirement builds a player target requirement.
func NewPlayerRequirement() Requirement {
	return Requirement{Type: TargetTypePlayer, ControllerIs: -1}
}

// Context carries everything the validator needs besides the targets
// themselves.
type Context struct {
	// SourceID is the object whose effect is targeting.
	SourceID string
	// Controller is the player controlling the targeting effect.
	Controller int
	// TriggeringSourceID, when set, is used instead of SourceID for
	// protection checks (redirected or reflexive triggers).
	TriggeringSourceID string
}

// ProtectionSource returns the object id whose attributes are checked
// against the target's protection set.
func (c Context) ProtectionSource() string {
	if c.TriggeringSourceID != "" {
		return c.TriggeringSourceID
	}
	return c.SourceID
}
