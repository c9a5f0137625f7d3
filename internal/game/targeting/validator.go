package targeting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manaforge/rules-engine/internal/game/effects"
	"github.com/manaforge/rules-engine/internal/game/primitives"
)

// ErrInvalidTarget wraps every validation failure so callers can match the
// whole class with errors.Is.
var ErrInvalidTarget = errors.New("invalid target")

// ObjectInfo is what the validator needs to know about a candidate object.
// Characteristics come from the layer system so granted hexproof and type
// changes are respected.
type ObjectInfo struct {
	Snapshot  *effects.Snapshot
	Zone      primitives.Zone
	PhasedOut bool
}

// PlayerInfo is what the validator needs to know about a candidate player.
type PlayerInfo struct {
	ID      int
	Removed bool
}

// StateAccessor resolves target ids against the current game state.
type StateAccessor interface {
	// ObjectForTarget finds an object by id in any zone.
	ObjectForTarget(id string) (ObjectInfo, bool)
	// PlayerForTarget resolves a target string that names a player.
	PlayerForTarget(id string) (PlayerInfo, bool)
	// StackItemExists reports whether a stack item with the id is present.
	StackItemExists(id string) bool
}

// Validator checks declared targets against requirements and the current
// state. It is stateless between calls.
type Validator struct {
	state StateAccessor
}

// NewValidator creates a target validator over the given state.
func NewValidator(state StateAccessor) *Validator {
	return &Validator{state: state}
}

// Validate checks a single target id against a requirement in the given
// context. A nil return means the target is legal.
func (v *Validator) Validate(targetID string, req Requirement, ctx Context) error {
	if v == nil || v.state == nil {
		return fmt.Errorf("%w: validator not initialized", ErrInvalidTarget)
	}
	if targetID == "" {
		return fmt.Errorf("%w: empty target id", ErrInvalidTarget)
	}

	if player, ok := v.state.PlayerForTarget(targetID); ok {
		if req.Type != TargetTypePlayer && req.Type != TargetTypeAny {
			return fmt.Errorf("%w: %s is a player, requirement wants %s", ErrInvalidTarget, targetID, req.Type)
		}
		if player.Removed {
			return fmt.Errorf("%w: player %d has left the game", ErrInvalidTarget, player.ID)
		}
		return nil
	}
	if req.Type == TargetTypePlayer {
		return fmt.Errorf("%w: no such player %s", ErrInvalidTarget, targetID)
	}

	if req.Type == TargetTypeStackItem {
		if !v.state.StackItemExists(targetID) {
			return fmt.Errorf("%w: stack item %s not found", ErrInvalidTarget, targetID)
		}
		return nil
	}

	info, ok := v.state.ObjectForTarget(targetID)
	if !ok || info.Snapshot == nil {
		return fmt.Errorf("%w: object %s not found", ErrInvalidTarget, targetID)
	}
	if req.Zone != info.Zone {
		return fmt.Errorf("%w: object %s is in %s, not %s", ErrInvalidTarget, targetID, info.Zone, req.Zone)
	}
	if info.PhasedOut && !req.AllowPhasedOut {
		return fmt.Errorf("%w: object %s is phased out", ErrInvalidTarget, targetID)
	}

	snap := info.Snapshot
	if snap.HasKeyword("Hexproof") && snap.Controller != ctx.Controller {
		return fmt.Errorf("%w: object %s has hexproof from opponents", ErrInvalidTarget, targetID)
	}
	if snap.HasKeyword("Shroud") {
		return fmt.Errorf("%w: object %s has shroud", ErrInvalidTarget, targetID)
	}

	if err := v.checkProtection(snap, ctx); err != nil {
		return err
	}

	for _, typeName := range req.Types {
		if !snap.HasType(typeName) {
			return fmt.Errorf("%w: object %s is not a %s", ErrInvalidTarget, targetID, typeName)
		}
	}
	for _, sub := range req.Subtypes {
		if !hasFold(snap.Subtypes, sub) {
			return fmt.Errorf("%w: object %s lacks subtype %s", ErrInvalidTarget, targetID, sub)
		}
	}
	if req.ControllerIs >= 0 && snap.Controller != req.ControllerIs {
		return fmt.Errorf("%w: object %s is controlled by player %d", ErrInvalidTarget, targetID, snap.Controller)
	}
	return nil
}

// ValidateAll checks a set of declared targets, one requirement per target,
// failing on the first illegal one. Requirements beyond the declared targets
// are treated as unfilled optional targets and skipped.
func (v *Validator) ValidateAll(targetIDs []string, reqs []Requirement, ctx Context) error {
	for i, id := range targetIDs {
		req := Requirement{Type: TargetTypeAny, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
		if i < len(reqs) {
			req = reqs[i]
		}
		if err := v.Validate(id, req, ctx); err != nil {
			return err
		}
	}
	return nil
}

// checkProtection fails when the target has protection from any attribute of
// the protection source: a color, a card type, or "everything".
func (v *Validator) checkProtection(target *effects.Snapshot, ctx Context) error {
	sourceID := ctx.ProtectionSource()
	if sourceID == "" || len(target.Protections) == 0 {
		return nil
	}
	source, ok := v.state.ObjectForTarget(sourceID)
	if !ok || source.Snapshot == nil {
		return nil
	}
	if target.HasProtectionFrom("everything") {
		return fmt.Errorf("%w: object %s has protection from everything", ErrInvalidTarget, target.ObjectID)
	}
	for _, color := range source.Snapshot.Colors {
		if target.HasProtectionFrom(color) {
			return fmt.Errorf("%w: object %s has protection from %s", ErrInvalidTarget, target.ObjectID, color)
		}
	}
	for _, typeName := range source.Snapshot.Types {
		if target.HasProtectionFrom(typeName) {
			return fmt.Errorf("%w: object %s has protection from %s", ErrInvalidTarget, target.ObjectID, typeName)
		}
	}
	return nil
}

func hasFold(list []string, value string) bool {
	for _, entry := range list {
		if strings.EqualFold(entry, value) {
			return true
		}
	}
	return false
}
