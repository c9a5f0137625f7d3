package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/manaforge/rules-engine/internal/game/abilities"
	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/rules"
	"github.com/manaforge/rules-engine/internal/game/targeting"
)

// resolveMoveKind handles the effects that are a validated zone change:
// exile, bounce, put_onto_battlefield.
func (r *Resolver) resolveMoveKind(spec abilities.EffectSpec, ctx ResolveContext, index int, toZone primitives.Zone) error {
	targetID := ctx.targetFor(index)
	fromZone := primitives.ZoneBattlefield
	if spec.FromZone != "" {
		parsed, err := primitives.ParseZone(spec.FromZone)
		if err != nil {
			return err
		}
		fromZone = parsed
	}
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: fromZone, Types: spec.Types, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	_, err := r.state.MoveObject(targetID, toZone)
	return err
}

// resolveDestroy checks the regenerate shield before moving the object to
// the graveyard.
func (r *Resolver) resolveDestroy(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, Types: spec.Types, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	obj, err := r.state.Object(targetID)
	if err != nil {
		return err
	}
	if snap, err := r.state.EvaluatedSnapshot(targetID); err == nil && snap.HasKeyword("Indestructible") {
		r.state.Logf("%s is indestructible", targetID)
		return nil
	}
	if obj.RegenerateShield > 0 {
		r.regenerate(obj, ctx.SourceID)
		return nil
	}
	if _, err := r.state.MoveObject(targetID, primitives.ZoneGraveyard); err != nil {
		return err
	}
	r.state.publish(rules.NewEvent(rules.EventDestroyed, targetID, ctx.SourceID, ctx.Controller))
	return nil
}

// regenerate consumes one shield: tap, remove from combat, clear damage.
func (r *Resolver) regenerate(obj *GameObject, sourceID string) {
	obj.RegenerateShield--
	obj.Tapped = true
	obj.Damage = 0
	obj.DeathtouchDamage = false
	obj.RemoveFromCombat()
	r.state.publish(rules.NewEvent(rules.EventRegenerated, obj.ID, sourceID, obj.Controller))
}

// resolveReturn moves an object out of a non-battlefield zone, to the hand
// by default or to the zone the effect names.
func (r *Resolver) resolveReturn(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	toZone := primitives.ZoneHand
	if spec.Zone != "" {
		parsed, err := primitives.ParseZone(spec.Zone)
		if err != nil {
			return err
		}
		toZone = parsed
	}
	fromZone := primitives.ZoneGraveyard
	if spec.FromZone != "" {
		parsed, err := primitives.ParseZone(spec.FromZone)
		if err != nil {
			return err
		}
		fromZone = parsed
	}
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: fromZone, Types: spec.Types, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	_, err := r.state.MoveObject(targetID, toZone)
	return err
}

// resolveFlicker exiles the object and immediately returns it to the
// battlefield as a fresh permanent.
func (r *Resolver) resolveFlicker(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, Types: spec.Types, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	if _, err := r.state.MoveObject(targetID, primitives.ZoneExile); err != nil {
		return err
	}
	obj, err := r.state.Object(targetID)
	if err != nil {
		return err
	}
	if obj.IsToken {
		// tokens cease to exist in exile; the flicker brings nothing back
		return nil
	}
	_, err = r.state.MoveObject(targetID, primitives.ZoneBattlefield)
	return err
}

// resolveSearch pulls matching cards from the library into the named zone
// and then shuffles.
func (r *Resolver) resolveSearch(spec abilities.EffectSpec, ctx ResolveContext) error {
	p, err := r.state.Player(ctx.Controller)
	if err != nil {
		return err
	}
	toZone := primitives.ZoneHand
	if spec.Zone != "" {
		parsed, err := primitives.ParseZone(spec.Zone)
		if err != nil {
			return err
		}
		toZone = parsed
	}
	limit := r.effectAmount(spec, ctx)

	var found []string
	if len(ctx.Targets) > 0 {
		// caller already picked the cards
		found = ctx.Targets
	} else {
		for i := len(p.Library) - 1; i >= 0 && len(found) < limit; i-- {
			obj, ok := r.state.Objects[p.Library[i]]
			if !ok {
				continue
			}
			if matchesTypeFilter(obj, spec.Types, spec.Subtypes) {
				found = append(found, obj.ID)
			}
		}
	}
	event := rules.NewEvent(rules.EventSearch, "", ctx.SourceID, ctx.Controller)
	event.PlayerID = p.ID
	event.Targets = found
	r.state.publish(event)

	for _, id := range found {
		if len(found) > limit && limit > 0 {
			break
		}
		if _, err := r.state.MoveObject(id, toZone); err != nil {
			r.state.Logf("search could not move %s: %v", id, err)
		}
	}
	return r.shufflePlayer(p, ctx)
}

func matchesTypeFilter(obj *GameObject, types, subtypes []string) bool {
	face := obj.Face()
	for _, want := range types {
		if !containsString(face.Types, want) {
			return false
		}
	}
	for _, want := range subtypes {
		if !containsString(face.Subtypes, want) {
			return false
		}
	}
	return true
}

func containsString(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}

// resolveCounterSpell removes the targeted stack item and sends its object
// to the graveyard.
func (r *Resolver) resolveCounterSpell(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeStackItem}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	item, ok := r.state.Stack.Remove(targetID)
	if !ok {
		return fmt.Errorf("stack item %s vanished", targetID)
	}
	countered := rules.NewEvent(rules.EventCountered, item.ID, ctx.SourceID, ctx.Controller)
	countered.Metadata = map[string]string{"spell_source": item.Payload.SourceID}
	r.state.publish(countered)
	if item.Kind == rules.StackItemKindSpell && item.Payload.SourceID != "" {
		if _, err := r.state.Object(item.Payload.SourceID); err == nil {
			if _, err := r.state.MoveObject(item.Payload.SourceID, primitives.ZoneGraveyard); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveCopySpell duplicates a stack item with a fresh id; targets start as
// a copy of the original's and the controller may rebind them before it
// resolves.
func (r *Resolver) resolveCopySpell(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeStackItem}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	var original rules.StackItem
	found := false
	for _, item := range r.state.Stack.List() {
		if item.ID == targetID {
			original = item
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("stack item %s vanished", targetID)
	}
	dup := original
	dup.ID = uuid.NewString()
	dup.Controller = ctx.Controller
	dup.Description = original.Description + " (copy)"
	if original.Payload.Graph != nil {
		dup.Payload.Graph = original.Payload.Graph.Clone()
	}
	dup.Payload.Targets = copyStringMap(original.Payload.Targets)
	dup.Payload.Modes = copyStringMap(original.Payload.Modes)
	dup.Payload.IsCopy = true
	r.state.Stack.Push(dup)
	copied := rules.NewEvent(rules.EventCopied, dup.ID, original.ID, ctx.Controller)
	r.state.publish(copied)
	return nil
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// resolveScrySurveil looks at the top N cards and partitions them per the
// caller's choices: kept cards stay on top in the given order, the rest go
// to the bottom (scry) or the graveyard (surveil).
func (r *Resolver) resolveScrySurveil(spec abilities.EffectSpec, ctx ResolveContext, surveil bool) error {
	p, err := r.state.Player(ctx.Controller)
	if err != nil {
		return err
	}
	n := r.effectAmount(spec, ctx)
	if n > len(p.Library) {
		n = len(p.Library)
	}
	if n == 0 {
		return nil
	}
	looked := append([]string(nil), p.Library[len(p.Library)-n:]...)
	p.Library = p.Library[:len(p.Library)-n]

	choiceKey := "scry"
	if surveil {
		choiceKey = "surveil"
	}
	choices := ctx.Choices
	if nested, ok := ctx.Choices[choiceKey].(map[string]any); ok {
		choices = nested
	}
	keep := stringSliceChoice(choices, "top")
	if keep == nil {
		keep = stringSliceChoice(choices, "keep")
	}
	rest := stringSliceChoice(choices, "bottom")
	if rest == nil && surveil {
		rest = stringSliceChoice(choices, "graveyard")
	}
	if keep == nil && rest == nil {
		// no choice supplied: keep everything in the original order
		keep = looked
	}
	seen := make(map[string]bool, len(looked))
	for _, id := range looked {
		seen[id] = true
	}

	// cards the choice never mentioned default to the top in original order
	mentioned := make(map[string]bool, len(keep)+len(rest))
	for _, id := range keep {
		mentioned[id] = true
	}
	for _, id := range rest {
		mentioned[id] = true
	}
	var unmentioned []string
	for _, id := range looked {
		if !mentioned[id] {
			unmentioned = append(unmentioned, id)
		}
	}
	keep = append(unmentioned, keep...)

	if surveil {
		for _, id := range rest {
			if !seen[id] {
				continue
			}
			if _, err := r.state.MoveObject(id, primitives.ZoneGraveyard); err != nil {
				r.state.Logf("surveil could not move %s: %v", id, err)
			}
		}
	} else {
		// scry bottom: caller order, placed beneath everything
		var bottomed []string
		for _, id := range rest {
			if seen[id] {
				bottomed = append(bottomed, id)
			}
		}
		p.Library = append(bottomed, p.Library...)
	}
	// kept cards return to the top in caller order, last listed on top
	for _, id := range keep {
		if seen[id] {
			p.Library = append(p.Library, id)
		}
	}

	eventType := rules.EventScry
	if surveil {
		eventType = rules.EventSurveil
	}
	event := rules.NewEventWithAmount(eventType, "", ctx.SourceID, ctx.Controller, n)
	event.PlayerID = p.ID
	event.Targets = looked
	r.state.publish(event)
	return nil
}

func stringSliceChoice(choices map[string]any, key string) []string {
	raw, ok := choices[key]
	if !ok {
		return nil
	}
	switch list := raw.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// resolveMill moves the top N library cards to the graveyard.
func (r *Resolver) resolveMill(spec abilities.EffectSpec, ctx ResolveContext) error {
	playerID := ctx.Controller
	if p, ok := r.state.PlayerForTarget(ctx.targetFor(0)); ok && len(ctx.Targets) > 0 {
		playerID = p.ID
	}
	p, err := r.state.Player(playerID)
	if err != nil {
		return err
	}
	n := r.effectAmount(spec, ctx)
	var milled []string
	for i := 0; i < n && len(p.Library) > 0; i++ {
		cardID := p.Library[len(p.Library)-1]
		if _, err := r.state.MoveObject(cardID, primitives.ZoneGraveyard); err != nil {
			return err
		}
		milled = append(milled, cardID)
	}
	event := rules.NewEventWithAmount(rules.EventMill, "", ctx.SourceID, ctx.Controller, len(milled))
	event.PlayerID = p.ID
	event.Targets = milled
	r.state.publish(event)
	return nil
}

// resolveDiscard moves cards from the hand to the graveyard. Specific cards
// come through ctx.Targets; otherwise the first N in hand order go.
func (r *Resolver) resolveDiscard(spec abilities.EffectSpec, ctx ResolveContext) error {
	playerID := ctx.Controller
	if p, ok := r.state.PlayerForTarget(ctx.targetFor(0)); ok && len(ctx.Targets) > 0 {
		playerID = p.ID
	}
	p, err := r.state.Player(playerID)
	if err != nil {
		return err
	}
	var toDiscard []string
	if cards := stringSliceChoice(ctx.Choices, "discard"); len(cards) > 0 {
		toDiscard = cards
	} else {
		n := r.effectAmount(spec, ctx)
		for i := 0; i < n && i < len(p.Hand); i++ {
			toDiscard = append(toDiscard, p.Hand[i])
		}
	}
	for _, cardID := range toDiscard {
		if !containsString(p.Hand, cardID) {
			continue
		}
		if _, err := r.state.MoveObject(cardID, primitives.ZoneGraveyard); err != nil {
			return err
		}
		event := rules.NewEvent(rules.EventDiscard, cardID, ctx.SourceID, ctx.Controller)
		event.PlayerID = p.ID
		r.state.publish(event)
	}
	return nil
}

// resolveShuffle fires the shuffle event. Ordering after a shuffle is the
// host's responsibility; the engine itself stays deterministic.
func (r *Resolver) resolveShuffle(spec abilities.EffectSpec, ctx ResolveContext) error {
	playerID := ctx.Controller
	if p, ok := r.state.PlayerForTarget(ctx.targetFor(0)); ok && len(ctx.Targets) > 0 {
		playerID = p.ID
	}
	p, err := r.state.Player(playerID)
	if err != nil {
		return err
	}
	return r.shufflePlayer(p, ctx)
}

func (r *Resolver) shufflePlayer(p *Player, ctx ResolveContext) error {
	event := rules.NewEvent(rules.EventShuffled, "", ctx.SourceID, ctx.Controller)
	event.PlayerID = p.ID
	r.state.publish(event)
	return nil
}

// resolvePhase flips the phased-out flag. Phasing out removes from combat;
// attachments and counters stay with the object.
func (r *Resolver) resolvePhase(spec abilities.EffectSpec, ctx ResolveContext, index int, out bool) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, ControllerIs: -1, AllowPhasedOut: !out}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	obj, err := r.state.Object(targetID)
	if err != nil {
		return err
	}
	if obj.PhasedOut == out {
		return nil
	}
	obj.PhasedOut = out
	eventType := rules.EventPhaseIn
	if out {
		eventType = rules.EventPhaseOut
		obj.RemoveFromCombat()
	}
	// attachments phase in and out with their host
	for _, attachedID := range obj.Attachments {
		if attached, ok := r.state.Objects[attachedID]; ok {
			attached.PhasedOut = out
			if out {
				attached.RemoveFromCombat()
			}
		}
	}
	r.state.publish(rules.NewEvent(eventType, targetID, ctx.SourceID, ctx.Controller))
	return nil
}

// resolveTransform toggles to the other face, removing the object from
// combat.
func (r *Resolver) resolveTransform(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	obj, err := r.state.Object(targetID)
	if err != nil {
		return err
	}
	if obj.BackFace == nil {
		return fmt.Errorf("%s has no back face", targetID)
	}
	obj.Transformed = !obj.Transformed
	obj.RemoveFromCombat()
	r.state.publish(rules.NewEvent(rules.EventTransformed, targetID, ctx.SourceID, ctx.Controller))
	return nil
}

// resolveChangeControl permanently sets the controller and removes the
// object from combat. The temporary layer-2 variant is set_controller.
func (r *Resolver) resolveChangeControl(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	obj, err := r.state.Object(targetID)
	if err != nil {
		return err
	}
	newController := ctx.Controller
	if spec.HasControl {
		newController = spec.NewControl
	}
	if newController == obj.Controller {
		return nil
	}
	r.state.setController(obj, newController)
	event := rules.NewEvent(rules.EventControlChanged, targetID, ctx.SourceID, ctx.Controller)
	event.PlayerID = newController
	r.state.publish(event)
	return nil
}
