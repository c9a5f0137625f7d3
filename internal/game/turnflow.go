package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/abilities"
	"github.com/manaforge/rules-engine/internal/game/effects"
	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/rules"
)

// Flow drives the phase/step cycle and the priority loop: step entry
// actions, state-based actions, trigger batching, and LIFO stack resolution.
// Everything is synchronous; each entry point runs to quiescence.
type Flow struct {
	state    *GameState
	resolver *Resolver
	sba      *SBAChecker
	logger   *zap.Logger
}

// NewFlow wires a flow controller over the state.
func NewFlow(state *GameState, resolver *Resolver, sba *SBAChecker, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{state: state, resolver: resolver, sba: sba, logger: logger}
}

// AdvanceStep moves to the next step, performing entry actions. Automatic
// steps with nothing to do roll forward until a step grants priority.
func (f *Flow) AdvanceStep() error {
	gs := f.state
	for {
		f.emptyManaPools()
		phase, step, newTurn := gs.Turn.AdvanceStep()
		if newTurn {
			f.beginTurn()
		}
		f.enterStep(phase, step)

		if !step.AutomaticOnly() {
			gs.Priority.Grant(gs.Turn.ActivePlayer())
			return nil
		}
		if step == rules.StepCleanup {
			f.cleanupStep()
			// a trigger during cleanup opens a priority window there
			if gs.FlushTriggers() > 0 {
				gs.Priority.Grant(gs.Turn.ActivePlayer())
				return nil
			}
		}
	}
}

// PassPriority records a pass by the given player. When every player has
// passed in succession, the top of the stack resolves, or with an empty
// stack the game moves to the next step.
func (f *Flow) PassPriority(playerID int) error {
	gs := f.state
	if gs.Priority.Holder() != playerID {
		return fmt.Errorf("player %d does not hold priority", playerID)
	}
	if !gs.Priority.Pass() {
		return nil
	}
	if !gs.Stack.IsEmpty() {
		if err := f.ResolveTop(); err != nil {
			return err
		}
		gs.Priority.ResetPasses()
		gs.Priority.Grant(gs.Turn.ActivePlayer())
		return nil
	}
	gs.Priority.ResetPasses()
	return f.AdvanceStep()
}

// ResolveTop pops the top stack item and resolves it, then runs state-based
// actions and batches any new triggers.
func (f *Flow) ResolveTop() error {
	gs := f.state
	item, err := gs.Stack.Pop()
	if err != nil {
		return err
	}
	gs.Logf("resolving %s (%s)", item.Description, item.Kind)

	if err := f.resolveItem(item); err != nil {
		gs.Logf("resolution of %s failed: %v", item.ID, err)
	}

	f.sba.Check()
	gs.FlushTriggers()
	return nil
}

// resolveItem dispatches a stack item by kind. Spells additionally change
// zone afterward: permanents to the battlefield, the rest to the graveyard.
func (f *Flow) resolveItem(item rules.StackItem) error {
	graph := item.Payload.Graph
	if graph == nil {
		return fmt.Errorf("stack item %s carries no graph", item.ID)
	}
	if result := abilities.Validate(graph); !result.Valid {
		return fmt.Errorf("%w: %v", abilities.ErrInvalidGraph, result.Errors)
	}
	norm := abilities.Normalize(graph)

	ctx := ResolveContext{
		SourceID:   item.Payload.SourceID,
		Controller: item.Controller,
		Values:     item.Payload.Values,
		Choices:    item.Payload.Choices,
	}
	ctx.Targets = bindTargets(norm.Effects, item.Payload.Targets)

	f.resolver.ResolveEffects(norm.Effects, ctx)

	if item.Kind == rules.StackItemKindSpell && !item.Payload.IsCopy {
		return f.finishSpell(item)
	}
	return nil
}

// bindTargets lines the per-node target map up with the normalized effect
// order, one slot per effect.
func bindTargets(specs []abilities.EffectSpec, targets map[string]string) []string {
	if len(targets) == 0 {
		return nil
	}
	bound := make([]string, len(specs))
	for i, spec := range specs {
		bound[i] = targets[spec.NodeID]
	}
	return bound
}

// finishSpell moves a resolved spell's object to its destination zone.
func (f *Flow) finishSpell(item rules.StackItem) error {
	sourceID := item.Payload.SourceID
	obj, err := f.state.Object(sourceID)
	if err != nil {
		return nil
	}
	dest := primitives.ZoneGraveyard
	for _, typeName := range obj.Face().Types {
		if cardType, ok := primitives.ParseCardType(typeName); ok && cardType.IsPermanentType() {
			dest = primitives.ZoneBattlefield
			break
		}
	}
	_, err = f.state.MoveObject(sourceID, dest)
	return err
}

func (f *Flow) beginTurn() {
	gs := f.state
	active := gs.Turn.ActivePlayer()
	if p, err := gs.Player(active); err == nil {
		p.LandsPlayedThisTurn = 0
	}
	event := rules.NewEvent(rules.EventBeginTurn, "", "", active)
	event.Amount = gs.Turn.TurnNumber()
	gs.publish(event)
}

// enterStep publishes begin_step, runs the step's automatic action, then
// state-based actions, then batches triggers.
func (f *Flow) enterStep(phase rules.Phase, step rules.Step) {
	gs := f.state
	active := gs.Turn.ActivePlayer()
	gs.Logf("turn %d: %s / %s, active player %d", gs.Turn.TurnNumber(), phase, step, active)

	event := rules.NewEvent(rules.EventBeginStep, "", "", active)
	event.Metadata = map[string]string{"phase": phase.String(), "step": step.String()}
	gs.publish(event)

	switch step {
	case rules.StepUntap:
		f.untapStep()
	case rules.StepDraw:
		f.drawStep()
	case rules.StepCombatDamage:
		f.combatDamageStep()
	}

	f.sba.Check()
	gs.FlushTriggers()
}

// untapStep phases permanents in and out and untaps everything the active
// player controls. No player gets priority here.
func (f *Flow) untapStep() {
	gs := f.state
	active := gs.Turn.ActivePlayer()
	p, err := gs.Player(active)
	if err != nil {
		return
	}
	for _, id := range append([]string(nil), p.Battlefield...) {
		obj, ok := gs.Objects[id]
		if !ok {
			continue
		}
		if obj.PhasedOut {
			obj.PhasedOut = false
			f.phaseAttachments(obj, false)
			gs.publish(rules.NewEvent(rules.EventPhaseIn, id, "", active))
			continue
		}
		if snap, err := gs.EvaluatedSnapshot(id); err == nil && snap.HasKeyword("Phasing") {
			obj.PhasedOut = true
			obj.RemoveFromCombat()
			f.phaseAttachments(obj, true)
			gs.publish(rules.NewEvent(rules.EventPhaseOut, id, "", active))
			continue
		}
		if obj.Tapped {
			obj.Tapped = false
			gs.publish(rules.NewEvent(rules.EventUntap, id, "", active))
		}
	}
}

// phaseAttachments carries an object's attachments along when it phases.
func (f *Flow) phaseAttachments(obj *GameObject, out bool) {
	for _, attachedID := range obj.Attachments {
		if attached, ok := f.state.Objects[attachedID]; ok {
			attached.PhasedOut = out
			if out {
				attached.RemoveFromCombat()
			}
		}
	}
}

func (f *Flow) drawStep() {
	gs := f.state
	active := gs.Turn.ActivePlayer()
	event := rules.NewEventWithAmount(rules.EventDraw, "", "", active, 1)
	event.PlayerID = active
	committed := gs.Replacements.Apply(event, active)
	for _, ev := range committed {
		f.resolver.applyCommitted(ev)
	}
}

// combatDamageStep deals damage for the declared attack and block
// assignments.
func (f *Flow) combatDamageStep() {
	gs := f.state
	active := gs.Turn.ActivePlayer()
	for _, id := range gs.AllBattlefieldIDs() {
		obj, ok := gs.Objects[id]
		if !ok || !obj.IsAttacking || obj.PhasedOut {
			continue
		}
		snap, err := gs.EvaluatedSnapshot(id)
		if err != nil || snap.Power <= 0 {
			continue
		}
		blockers := f.blockersOf(id)
		if len(blockers) == 0 {
			defender := f.defendingPlayer(obj.Controller)
			event := rules.NewEventWithAmount(rules.EventDamageDealt, fmt.Sprintf("%d", defender), id, obj.Controller, snap.Power)
			event.PlayerID = defender
			event.Flag = true
			f.resolver.commitAll(event)
			continue
		}
		remaining := snap.Power
		for _, blockerID := range blockers {
			if remaining <= 0 {
				break
			}
			blockerSnap, err := gs.EvaluatedSnapshot(blockerID)
			if err != nil {
				continue
			}
			deal := blockerSnap.Toughness
			if deal > remaining {
				deal = remaining
			}
			remaining -= deal
			event := rules.NewEventWithAmount(rules.EventDamageDealt, blockerID, id, obj.Controller, deal)
			f.resolver.commitAll(event)
			back := rules.NewEventWithAmount(rules.EventDamageDealt, id, blockerID, active, blockerSnap.Power)
			if blockerSnap.Power > 0 {
				f.resolver.commitAll(back)
			}
		}
		if remaining > 0 && snap.HasKeyword("Trample") {
			defender := f.defendingPlayer(obj.Controller)
			event := rules.NewEventWithAmount(rules.EventDamageDealt, fmt.Sprintf("%d", defender), id, obj.Controller, remaining)
			event.PlayerID = defender
			event.Flag = true
			f.resolver.commitAll(event)
		}
	}
}

func (f *Flow) blockersOf(attackerID string) []string {
	var out []string
	for _, id := range f.state.AllBattlefieldIDs() {
		obj, ok := f.state.Objects[id]
		if ok && obj.IsBlocking && obj.Metadata["blocking"] == attackerID {
			out = append(out, id)
		}
	}
	return out
}

// defendingPlayer returns the next player in turn order after the attacker's
// controller.
func (f *Flow) defendingPlayer(attacker int) int {
	n := len(f.state.Players)
	for offset := 1; offset < n; offset++ {
		candidate := (attacker + offset) % n
		p := f.state.Players[candidate]
		if !p.Lost && !p.RemovedFromGame {
			return candidate
		}
	}
	return (attacker + 1) % len(f.state.Players)
}

// cleanupStep discards down to maximum hand size, wipes damage, expires
// end-of-turn effects, and empties mana pools.
func (f *Flow) cleanupStep() {
	gs := f.state
	active := gs.Turn.ActivePlayer()

	if p, err := gs.Player(active); err == nil && p.MaxHandSize >= 0 {
		for len(p.Hand) > p.MaxHandSize {
			cardID := p.Hand[len(p.Hand)-1]
			gs.MoveObject(cardID, primitives.ZoneGraveyard)
			event := rules.NewEvent(rules.EventDiscard, cardID, "", active)
			event.PlayerID = active
			gs.publish(event)
		}
	}

	for _, obj := range gs.Objects {
		if obj.Zone != primitives.ZoneBattlefield {
			continue
		}
		obj.Damage = 0
		obj.DeathtouchDamage = false
		obj.RegenerateShield = 0
		obj.RemoveFromCombat()
		delete(obj.Metadata, "blocking")
	}

	gs.Layers.RemoveExpired(effects.DurationEndOfTurn)
	gs.Replacements.RemoveExpired(effects.DurationEndOfTurn)
	f.emptyManaPools()

	event := rules.NewEvent(rules.EventEndStep, "", "", active)
	event.Metadata = map[string]string{"step": rules.StepCleanup.String()}
	gs.publish(event)

	f.sba.Check()
}

// emptyManaPools clears every pool; pools empty at each step and phase
// change.
func (f *Flow) emptyManaPools() {
	for _, p := range f.state.Players {
		if lost := p.ManaPool.Empty(); lost > 0 {
			event := rules.NewEventWithAmount(rules.EventEmptyManaPool, "", "", p.ID, lost)
			event.PlayerID = p.ID
			f.state.publish(event)
		}
	}
}
