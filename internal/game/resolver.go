package game

import (
	"fmt"
	"strconv"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/abilities"
	"github.com/manaforge/rules-engine/internal/game/mana"
	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/rules"
	"github.com/manaforge/rules-engine/internal/game/targeting"
)

// ResolveContext carries the bound choices for one ability resolution: who
// controls it, what it targets, and any numeric or modal choices.
type ResolveContext struct {
	SourceID           string
	Controller         int
	TriggeringSourceID string
	Targets            []string
	Values             map[string]int
	Choices            map[string]any
}

// targetFor returns the declared target at position i, falling back to the
// first target and then the source itself.
func (ctx ResolveContext) targetFor(i int) string {
	if i < len(ctx.Targets) && ctx.Targets[i] != "" {
		return ctx.Targets[i]
	}
	for _, t := range ctx.Targets {
		if t != "" {
			return t
		}
	}
	return ctx.SourceID
}

func (ctx ResolveContext) targetingContext() targeting.Context {
	return targeting.Context{
		SourceID:           ctx.SourceID,
		Controller:         ctx.Controller,
		TriggeringSourceID: ctx.TriggeringSourceID,
	}
}

// Resolver applies decoded effect specs to the game state. Each effect
// validates its inputs first; on failure it is skipped with a debug entry
// and resolution continues with the remaining effects.
type Resolver struct {
	state     *GameState
	validator *targeting.Validator
	logger    *zap.Logger
}

// NewResolver creates a resolver bound to a game state.
func NewResolver(state *GameState, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		state:     state,
		validator: targeting.NewValidator(state),
		logger:    logger,
	}
}

// ResolveEffects applies a normalized effect list in order and returns one
// result record per applied effect. A failed effect is skipped with a debug
// entry and resolution continues.
func (r *Resolver) ResolveEffects(specs []abilities.EffectSpec, ctx ResolveContext) []map[string]any {
	results := make([]map[string]any, 0, len(specs))
	for i, spec := range specs {
		if err := r.resolveEffect(spec, ctx, i); err != nil {
			r.state.Logf("effect %s skipped: %v", spec.Kind, err)
			results = append(results, map[string]any{
				"type":    string(spec.Kind),
				"skipped": true,
				"reason":  err.Error(),
			})
			continue
		}
		record := map[string]any{"type": string(spec.Kind)}
		if spec.HasAmount {
			record["amount"] = spec.Amount
		}
		results = append(results, record)
	}
	return results
}

func (r *Resolver) resolveEffect(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	if abilities.TargetedKind(spec.Kind) {
		if err := r.payWard(ctx.targetFor(index), ctx); err != nil {
			return err
		}
	}
	switch spec.Kind {
	case abilities.EffectDamage:
		return r.resolveDamage(spec, ctx, index)
	case abilities.EffectDraw:
		return r.resolveDraw(spec, ctx)
	case abilities.EffectLife:
		return r.resolveLife(spec, ctx)
	case abilities.EffectAddMana:
		return r.resolveAddMana(spec, ctx)
	case abilities.EffectPayMana:
		return r.resolvePayMana(spec, ctx)
	case abilities.EffectCreateToken:
		return r.resolveCreateToken(spec, ctx)
	case abilities.EffectCounters:
		return r.resolveCounters(spec, ctx, index)
	case abilities.EffectTap:
		return r.resolveTap(spec, ctx, index, true)
	case abilities.EffectUntap:
		return r.resolveTap(spec, ctx, index, false)
	case abilities.EffectDestroy:
		return r.resolveDestroy(spec, ctx, index)
	case abilities.EffectExile:
		return r.resolveMoveKind(spec, ctx, index, primitives.ZoneExile)
	case abilities.EffectReturn:
		return r.resolveReturn(spec, ctx, index)
	case abilities.EffectFlicker:
		return r.resolveFlicker(spec, ctx, index)
	case abilities.EffectSearch:
		return r.resolveSearch(spec, ctx)
	case abilities.EffectAttach:
		return r.resolveAttach(spec, ctx, index)
	case abilities.EffectCounterSpell:
		return r.resolveCounterSpell(spec, ctx, index)
	case abilities.EffectCopySpell:
		return r.resolveCopySpell(spec, ctx, index)
	case abilities.EffectScry:
		return r.resolveScrySurveil(spec, ctx, false)
	case abilities.EffectSurveil:
		return r.resolveScrySurveil(spec, ctx, true)
	case abilities.EffectPhaseOut:
		return r.resolvePhase(spec, ctx, index, true)
	case abilities.EffectPhaseIn:
		return r.resolvePhase(spec, ctx, index, false)
	case abilities.EffectTransform:
		return r.resolveTransform(spec, ctx, index)
	case abilities.EffectChangeControl:
		return r.resolveChangeControl(spec, ctx, index)
	case abilities.EffectSetController,
		abilities.EffectGainKeyword, abilities.EffectLoseKeyword,
		abilities.EffectChangePT, abilities.EffectCDAPT,
		abilities.EffectSetTypes, abilities.EffectAddType, abilities.EffectRemoveType,
		abilities.EffectSetColors, abilities.EffectAddColor, abilities.EffectRemoveColor,
		abilities.EffectGainProtection:
		return r.registerContinuous(spec, ctx, index)
	case abilities.EffectReplaceZoneChange,
		abilities.EffectPreventDamage, abilities.EffectRedirectDamage:
		return r.registerReplacement(spec, ctx, index)
	case abilities.EffectEnterChoice:
		return r.resolveEnterChoice(spec, ctx)
	case abilities.EffectRegenerate:
		return r.resolveRegenerate(spec, ctx, index)
	case abilities.EffectMill:
		return r.resolveMill(spec, ctx)
	case abilities.EffectDiscard:
		return r.resolveDiscard(spec, ctx)
	case abilities.EffectReveal:
		return r.resolveReveal(spec, ctx)
	case abilities.EffectFight:
		return r.resolveFight(spec, ctx)
	case abilities.EffectBounce:
		return r.resolveMoveKind(spec, ctx, index, primitives.ZoneHand)
	case abilities.EffectPutOntoBattlefield:
		return r.resolveMoveKind(spec, ctx, index, primitives.ZoneBattlefield)
	case abilities.EffectShuffle:
		return r.resolveShuffle(spec, ctx)
	default:
		return fmt.Errorf("unknown effect kind %q", spec.Kind)
	}
}

// payWard charges the ward cost when an effect targets an opponent's warded
// permanent: the resolving player pays generic mana equal to the ward amount
// or the effect fizzles against that target.
func (r *Resolver) payWard(targetID string, ctx ResolveContext) error {
	if targetID == "" || targetID == ctx.SourceID {
		return nil
	}
	obj, err := r.state.Object(targetID)
	if err != nil {
		return nil
	}
	snap, err := r.state.EvaluatedSnapshot(targetID)
	if err != nil || !snap.HasKeyword("Ward") || snap.Controller == ctx.Controller {
		return nil
	}
	cost := 1
	if raw, ok := obj.Metadata["ward"]; ok {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cost = parsed
		}
	}
	p, err := r.state.Player(ctx.Controller)
	if err != nil {
		return err
	}
	if err := p.ManaPool.Pay(mana.Generic, cost); err != nil {
		return fmt.Errorf("ward cost %d for %s not paid: %w", cost, targetID, err)
	}
	r.state.Logf("player %d paid ward %d to target %s", ctx.Controller, cost, targetID)
	return nil
}

// effectAmount reads the effect's amount, letting a bound X value override.
func (r *Resolver) effectAmount(spec abilities.EffectSpec, ctx ResolveContext) int {
	if v, ok := ctx.Values[spec.NodeID]; ok {
		return v
	}
	if v, ok := ctx.Values["x"]; ok && !spec.HasAmount {
		return v
	}
	if spec.HasAmount {
		return spec.Amount
	}
	return 1
}

// commitAll routes replaced events through the state and returns whether any
// survived.
func (r *Resolver) commitAll(event rules.Event) []rules.Event {
	committed := r.state.Replacements.Apply(event, r.state.Turn.ActivePlayer())
	var out []rules.Event
	for _, ev := range committed {
		out = append(out, r.applyCommitted(ev)...)
	}
	return out
}

// applyCommitted performs the state mutation for a committed event and then
// publishes it. Zone changes go through the state's mover instead.
func (r *Resolver) applyCommitted(event rules.Event) []rules.Event {
	switch event.Type {
	case rules.EventDamageDealt:
		r.applyDamage(event)
	case rules.EventLifeGain:
		if p, err := r.state.Player(event.PlayerID); err == nil {
			p.Life += event.Amount
		}
	case rules.EventLifeLoss:
		if p, err := r.state.Player(event.PlayerID); err == nil {
			p.Life -= event.Amount
		}
	case rules.EventDraw:
		return r.applyDraw(event)
	case rules.EventCountersChanged:
		r.applyCounters(event)
	}
	r.state.publish(event)
	return []rules.Event{event}
}

func (r *Resolver) resolveDamage(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeAny, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	amount := r.effectAmount(spec, ctx)
	if amount <= 0 {
		return nil
	}
	event := rules.NewEventWithAmount(rules.EventDamageDealt, targetID, ctx.SourceID, ctx.Controller, amount)
	if player, ok := r.state.PlayerForTarget(targetID); ok {
		event.PlayerID = player.ID
		event.Flag = true // player damage
	}
	r.commitAll(event)
	return nil
}

// applyDamage mutates life or marked damage for a committed damage event.
// Deathtouch and lifelink read the source's evaluated keywords.
func (r *Resolver) applyDamage(event rules.Event) {
	if event.Flag {
		if p, err := r.state.Player(event.PlayerID); err == nil {
			p.Life -= event.Amount
			if source, ok := r.state.Objects[event.SourceID]; ok && source.ID != "" {
				if commander, ok := r.commanderOwner(source.ID); ok {
					p.CommanderDamage[commander] += event.Amount
				}
			}
		}
		r.gainLifelink(event)
		return
	}
	obj, err := r.state.Object(event.TargetID)
	if err != nil {
		return
	}
	if snap, err := r.state.EvaluatedSnapshot(event.TargetID); err == nil && snap.HasLoyalty {
		obj.Counters.Remove(primitives.CounterLoyalty, event.Amount)
		r.gainLifelink(event)
		return
	}
	obj.Damage += event.Amount
	if source, ok := r.state.Objects[event.SourceID]; ok {
		if snap, err := r.state.EvaluatedSnapshot(source.ID); err == nil && snap.HasKeyword("Deathtouch") {
			obj.DeathtouchDamage = true
		}
	}
	r.gainLifelink(event)
}

// gainLifelink pays the damage source's controller when the source has
// Lifelink. The gain is itself an event and passes through replacements.
func (r *Resolver) gainLifelink(event rules.Event) {
	if event.Amount <= 0 || event.SourceID == "" {
		return
	}
	snap, err := r.state.EvaluatedSnapshot(event.SourceID)
	if err != nil || !snap.HasKeyword("Lifelink") {
		return
	}
	gain := rules.NewEventWithAmount(rules.EventLifeGain, "", event.SourceID, snap.Controller, event.Amount)
	gain.PlayerID = snap.Controller
	r.commitAll(gain)
}

// commanderOwner reports whether the object is some player's commander.
func (r *Resolver) commanderOwner(objectID string) (int, bool) {
	for _, p := range r.state.Players {
		if p.CommanderID == objectID {
			return p.ID, true
		}
	}
	return 0, false
}

func (r *Resolver) resolveDraw(spec abilities.EffectSpec, ctx ResolveContext) error {
	playerID := ctx.Controller
	if p, ok := r.state.PlayerForTarget(ctx.targetFor(0)); ok && len(ctx.Targets) > 0 {
		playerID = p.ID
	}
	amount := r.effectAmount(spec, ctx)
	event := rules.NewEventWithAmount(rules.EventDraw, "", ctx.SourceID, ctx.Controller, amount)
	event.PlayerID = playerID
	r.commitAll(event)
	return nil
}

// applyDraw moves cards from the library top to the hand, one EventDrew per
// card. Drawing from an empty library flags the player for the next
// state-based pass.
func (r *Resolver) applyDraw(event rules.Event) []rules.Event {
	p, err := r.state.Player(event.PlayerID)
	if err != nil {
		return nil
	}
	out := []rules.Event{event}
	r.state.publish(event)
	for i := 0; i < event.Amount; i++ {
		if len(p.Library) == 0 {
			p.DrewFromEmpty = true
			r.state.Logf("player %d drew from empty library", p.ID)
			break
		}
		cardID := p.Library[len(p.Library)-1]
		p.Library = p.Library[:len(p.Library)-1]
		p.Hand = append(p.Hand, cardID)
		if obj, ok := r.state.Objects[cardID]; ok {
			obj.Zone = primitives.ZoneHand
		}
		drew := rules.NewEvent(rules.EventDrew, cardID, event.SourceID, event.Controller)
		drew.PlayerID = p.ID
		r.state.publish(drew)
		out = append(out, drew)
	}
	return out
}

func (r *Resolver) resolveLife(spec abilities.EffectSpec, ctx ResolveContext) error {
	playerID := ctx.Controller
	if p, ok := r.state.PlayerForTarget(ctx.targetFor(0)); ok && len(ctx.Targets) > 0 {
		playerID = p.ID
	}
	amount := spec.Amount
	if !spec.HasAmount {
		amount = r.effectAmount(spec, ctx)
	}
	if amount == 0 {
		return nil
	}
	eventType := rules.EventLifeGain
	if amount < 0 {
		eventType = rules.EventLifeLoss
		amount = -amount
	}
	event := rules.NewEventWithAmount(eventType, "", ctx.SourceID, ctx.Controller, amount)
	event.PlayerID = playerID
	r.commitAll(event)
	return nil
}

func (r *Resolver) resolveAddMana(spec abilities.EffectSpec, ctx ResolveContext) error {
	p, err := r.state.Player(ctx.Controller)
	if err != nil {
		return err
	}
	if len(spec.Mana) == 0 {
		return fmt.Errorf("add_mana effect carries no mana")
	}
	for symbolName, amount := range spec.Mana {
		symbol, err := mana.ParseSymbol(symbolName)
		if err != nil {
			return err
		}
		p.ManaPool.Add(symbol, amount)
	}
	event := rules.NewEvent(rules.EventManaAdded, "", ctx.SourceID, ctx.Controller)
	event.PlayerID = p.ID
	r.state.publish(event)
	return nil
}

func (r *Resolver) resolvePayMana(spec abilities.EffectSpec, ctx ResolveContext) error {
	p, err := r.state.Player(ctx.Controller)
	if err != nil {
		return err
	}
	for symbolName, amount := range spec.Mana {
		symbol, err := mana.ParseSymbol(symbolName)
		if err != nil {
			return err
		}
		if err := p.ManaPool.Pay(symbol, amount); err != nil {
			return err
		}
	}
	event := rules.NewEvent(rules.EventManaPaid, "", ctx.SourceID, ctx.Controller)
	event.PlayerID = p.ID
	r.state.publish(event)
	return nil
}

func (r *Resolver) resolveCreateToken(spec abilities.EffectSpec, ctx ResolveContext) error {
	count := r.effectAmount(spec, ctx)
	for i := 0; i < count; i++ {
		token := NewGameObject("tok_"+ulid.Make().String(), spec.TokenName, ctx.Controller, primitives.ZoneStack)
		token.IsToken = true
		token.Base = Characteristics{
			Types:     append([]string(nil), spec.Types...),
			Subtypes:  append([]string(nil), spec.Subtypes...),
			Colors:    append([]string(nil), spec.Colors...),
			Power:     spec.Power,
			Toughness: spec.Toughness,
			HasPT:     spec.HasPT,
		}
		if err := r.state.AddObject(token); err != nil {
			return err
		}
		created := rules.NewEvent(rules.EventTokenCreated, token.ID, ctx.SourceID, ctx.Controller)
		r.state.publish(created)
		// token entry runs through the same replacement pipeline as any
		// other battlefield entry
		if _, err := r.state.MoveObject(token.ID, primitives.ZoneBattlefield); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveCounters(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	kind := primitives.InternCounterKind(spec.CounterKind)
	if kind == "" {
		kind = primitives.CounterPlusOnePlusOne
	}
	amount := r.effectAmount(spec, ctx)
	event := rules.NewEventWithAmount(rules.EventCountersChanged, targetID, ctx.SourceID, ctx.Controller, amount)
	event.Metadata = map[string]string{"counter_kind": string(kind)}
	r.commitAll(event)
	return nil
}

func (r *Resolver) applyCounters(event rules.Event) {
	obj, err := r.state.Object(event.TargetID)
	if err != nil {
		return
	}
	kind := primitives.InternCounterKind(event.Metadata["counter_kind"])
	if event.Amount >= 0 {
		obj.Counters.Add(kind, event.Amount)
	} else {
		obj.Counters.Remove(kind, -event.Amount)
	}
}

func (r *Resolver) resolveTap(spec abilities.EffectSpec, ctx ResolveContext, index int, tapped bool) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	obj, err := r.state.Object(targetID)
	if err != nil {
		return err
	}
	if obj.Tapped == tapped {
		return nil
	}
	obj.Tapped = tapped
	eventType := rules.EventTap
	if !tapped {
		eventType = rules.EventUntap
	}
	r.state.publish(rules.NewEvent(eventType, targetID, ctx.SourceID, ctx.Controller))
	return nil
}

func (r *Resolver) resolveAttach(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	attachment, err := r.state.Object(ctx.SourceID)
	if err != nil {
		return err
	}
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, Types: spec.Types, ControllerIs: -1}
	if len(req.Types) == 0 && attachment.HasBaseType("Enchantment") {
		req.Types = []string{"Creature"}
	}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	host, err := r.state.Object(targetID)
	if err != nil {
		return err
	}
	if attachment.AttachedTo != "" {
		if prev, ok := r.state.Objects[attachment.AttachedTo]; ok {
			prev.Attachments = removeID(prev.Attachments, attachment.ID)
		}
		r.state.publish(rules.NewEvent(rules.EventUnattach, attachment.ID, ctx.SourceID, ctx.Controller))
	}
	attachment.AttachedTo = host.ID
	host.Attachments = append(host.Attachments, attachment.ID)
	event := rules.NewEvent(rules.EventAttach, host.ID, attachment.ID, ctx.Controller)
	r.state.publish(event)
	return nil
}

func (r *Resolver) resolveRegenerate(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	targetID := ctx.targetFor(index)
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
	if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
		return err
	}
	obj, err := r.state.Object(targetID)
	if err != nil {
		return err
	}
	obj.RegenerateShield++
	return nil
}

func (r *Resolver) resolveReveal(spec abilities.EffectSpec, ctx ResolveContext) error {
	event := rules.NewEvent(rules.EventReveal, ctx.targetFor(0), ctx.SourceID, ctx.Controller)
	event.Targets = ctx.Targets
	r.state.publish(event)
	return nil
}

// resolveFight has two creatures deal damage equal to their power to each
// other simultaneously.
func (r *Resolver) resolveFight(spec abilities.EffectSpec, ctx ResolveContext) error {
	if len(ctx.Targets) < 2 {
		return fmt.Errorf("fight needs two targets")
	}
	req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, Types: []string{"Creature"}, ControllerIs: -1}
	firstID, secondID := ctx.Targets[0], ctx.Targets[1]
	tctx := ctx.targetingContext()
	if err := r.validator.Validate(firstID, req, tctx); err != nil {
		return err
	}
	if err := r.validator.Validate(secondID, req, tctx); err != nil {
		return err
	}
	firstSnap, err := r.state.EvaluatedSnapshot(firstID)
	if err != nil {
		return err
	}
	secondSnap, err := r.state.EvaluatedSnapshot(secondID)
	if err != nil {
		return err
	}
	if firstSnap.Power > 0 {
		event := rules.NewEventWithAmount(rules.EventDamageDealt, secondID, firstID, ctx.Controller, firstSnap.Power)
		r.commitAll(event)
	}
	if secondSnap.Power > 0 {
		event := rules.NewEventWithAmount(rules.EventDamageDealt, firstID, secondID, ctx.Controller, secondSnap.Power)
		r.commitAll(event)
	}
	fought := rules.NewEvent(rules.EventFought, firstID, secondID, ctx.Controller)
	fought.Targets = []string{firstID, secondID}
	r.state.publish(fought)
	return nil
}

func (r *Resolver) resolveEnterChoice(spec abilities.EffectSpec, ctx ResolveContext) error {
	obj, err := r.state.Object(ctx.SourceID)
	if err != nil {
		return err
	}
	if obj.EnterChoices == nil {
		obj.EnterChoices = make(map[string]string)
	}
	value := spec.ChoiceValue
	if bound, ok := ctx.Choices[spec.Choice].(string); ok {
		value = bound
	}
	obj.EnterChoices[spec.Choice] = value
	return nil
}
