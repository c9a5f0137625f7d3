package game

import (
	"fmt"

	"github.com/manaforge/rules-engine/internal/game/abilities"
	"github.com/manaforge/rules-engine/internal/game/effects"
	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/targeting"
)

// selectorFor maps an effect's target label to a modifier selector.
func (r *Resolver) selectorFor(spec abilities.EffectSpec, ctx ResolveContext, index int) (effects.Selector, error) {
	switch spec.Target {
	case "", "self":
		return effects.ObjectSelector(ctx.SourceID), nil
	case "attached", "enchanted", "equipped":
		source, err := r.state.Object(ctx.SourceID)
		if err != nil {
			return effects.Selector{}, err
		}
		if source.AttachedTo == "" {
			return effects.Selector{}, fmt.Errorf("%s is not attached to anything", ctx.SourceID)
		}
		return effects.ObjectSelector(source.AttachedTo), nil
	case "all", "each":
		return effects.Selector{Controller: -1, Types: spec.Types}, nil
	case "controlled", "you_control":
		return effects.Selector{Controller: ctx.Controller, Types: spec.Types}, nil
	default:
		targetID := ctx.targetFor(index)
		req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
		if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
			return effects.Selector{}, err
		}
		return effects.ObjectSelector(targetID), nil
	}
}

// registerContinuous builds a layer-system modifier from a continuous effect
// kind and registers it.
func (r *Resolver) registerContinuous(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	sel, err := r.selectorFor(spec, ctx, index)
	if err != nil {
		return err
	}
	duration := effects.ParseDuration(spec.Duration)

	var mod *effects.Modifier
	switch spec.Kind {
	case abilities.EffectSetController:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpSetController, duration)
		mod.Controller = ctx.Controller
		if spec.HasControl {
			mod.Controller = spec.NewControl
		}
	case abilities.EffectGainKeyword:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpGrantKeyword, duration)
		mod.Strings = []string{spec.Keyword}
	case abilities.EffectLoseKeyword:
		op := effects.OpLoseKeyword
		if spec.Keyword == "" || spec.Keyword == "all" {
			op = effects.OpLoseAllAbilities
		}
		mod = effects.NewModifier(ctx.SourceID, sel, op, duration)
		mod.Strings = []string{spec.Keyword}
	case abilities.EffectGainProtection:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpGrantProtection, duration)
		mod.Strings = []string{spec.Protection}
	case abilities.EffectChangePT:
		op := effects.OpAddPT
		if spec.Raw["set"] == true {
			op = effects.OpSetBasePT
		}
		if spec.Raw["switch"] == true {
			op = effects.OpSwitchPT
		}
		mod = effects.NewModifier(ctx.SourceID, sel, op, duration)
		mod.Power = spec.Power
		mod.Toughness = spec.Toughness
	case abilities.EffectCDAPT:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpCDAPT, duration)
		mod.CDA = r.buildCDA(spec, ctx)
	case abilities.EffectSetTypes:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpSetTypes, duration)
		mod.Strings = spec.Types
	case abilities.EffectAddType:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpAddType, duration)
		mod.Strings = spec.Types
	case abilities.EffectRemoveType:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpRemoveType, duration)
		mod.Strings = spec.Types
	case abilities.EffectSetColors:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpSetColors, duration)
		mod.Strings = spec.Colors
	case abilities.EffectAddColor:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpAddColor, duration)
		mod.Strings = spec.Colors
	case abilities.EffectRemoveColor:
		mod = effects.NewModifier(ctx.SourceID, sel, effects.OpRemoveColor, duration)
		mod.Strings = spec.Colors
	default:
		return fmt.Errorf("%q is not a continuous effect kind", spec.Kind)
	}

	r.state.Layers.AddEffect(mod)
	return nil
}

// buildCDA returns the characteristic-defining P/T function for a spec such
// as "power and toughness equal to the number of Forests you control".
func (r *Resolver) buildCDA(spec abilities.EffectSpec, ctx ResolveContext) effects.CDAFunc {
	countType := spec.CDAType
	zone := primitives.ZoneBattlefield
	if spec.CDAZone != "" {
		if parsed, err := primitives.ParseZone(spec.CDAZone); err == nil {
			zone = parsed
		}
	}
	controller := ctx.Controller
	countAll := spec.CDASource == "all"
	return func(objectID string) (int, int) {
		count := 0
		switch zone {
		case primitives.ZoneBattlefield:
			for _, obj := range r.state.Objects {
				if obj.Zone != primitives.ZoneBattlefield || obj.PhasedOut {
					continue
				}
				if !countAll && obj.Controller != controller {
					continue
				}
				if countType != "" && !cdaMatches(obj, countType) {
					continue
				}
				count++
			}
		case primitives.ZoneGraveyard:
			p, err := r.state.Player(controller)
			if err != nil {
				return 0, 0
			}
			for _, id := range p.Graveyard {
				obj, ok := r.state.Objects[id]
				if !ok {
					continue
				}
				if countType != "" && !cdaMatches(obj, countType) {
					continue
				}
				count++
			}
		case primitives.ZoneHand:
			p, err := r.state.Player(controller)
			if err != nil {
				return 0, 0
			}
			count = len(p.Hand)
		}
		return count, count
	}
}

func cdaMatches(obj *GameObject, typeName string) bool {
	face := obj.Face()
	return containsString(face.Types, typeName) || containsString(face.Subtypes, typeName)
}

// registerReplacement builds and registers a replacement effect for the
// replacement effect kinds.
func (r *Resolver) registerReplacement(spec abilities.EffectSpec, ctx ResolveContext, index int) error {
	duration := effects.ParseDuration(spec.Duration)

	switch spec.Kind {
	case abilities.EffectReplaceZoneChange:
		newZone, err := primitives.ParseZone(spec.ReplaceZone)
		if err != nil {
			return err
		}
		repl := &effects.ZoneChangeReplacement{
			BaseReplacement: effects.NewBaseReplacement(ctx.SourceID, ctx.Controller, duration),
			NewZone:         newZone,
		}
		if spec.Target == "" || spec.Target == "self" {
			repl.ObjectID = ctx.SourceID
			repl.SelfReplace = true
		} else {
			repl.ObjectID = ctx.targetFor(index)
		}
		if spec.FromZone != "" {
			from, err := primitives.ParseZone(spec.FromZone)
			if err != nil {
				return err
			}
			repl.FromZone = &from
		}
		if spec.ToZone != "" {
			to, err := primitives.ParseZone(spec.ToZone)
			if err != nil {
				return err
			}
			repl.ToZone = &to
		}
		r.state.Replacements.AddEffect(repl)
		return nil

	case abilities.EffectPreventDamage:
		targetID := ctx.targetFor(index)
		if !r.isPlayerTarget(targetID) {
			req := targeting.Requirement{Type: targeting.TargetTypeObject, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
			if err := r.validator.Validate(targetID, req, ctx.targetingContext()); err != nil {
				return err
			}
		}
		shield := 0
		if spec.HasAmount {
			shield = spec.Amount
		}
		prevention := &effects.DamagePrevention{
			BaseReplacement: effects.NewBaseReplacement(ctx.SourceID, ctx.Controller, duration),
			TargetID:        targetID,
			Shield:          shield,
		}
		r.state.Replacements.AddEffect(prevention)
		return nil

	case abilities.EffectRedirectDamage:
		if len(ctx.Targets) < 2 {
			return fmt.Errorf("redirect_damage needs a from and a to target")
		}
		fromID, toID := ctx.Targets[0], ctx.Targets[1]
		redirect := &effects.DamageRedirection{
			BaseReplacement: effects.NewBaseReplacement(ctx.SourceID, ctx.Controller, duration),
			FromTargetID:    fromID,
		}
		if p, ok := r.state.PlayerForTarget(toID); ok {
			redirect.IsPlayer = true
			redirect.ToPlayer = p.ID
		} else {
			redirect.ToTargetID = toID
		}
		r.state.Replacements.AddEffect(redirect)
		return nil
	}
	return fmt.Errorf("%q is not a replacement effect kind", spec.Kind)
}

func (r *Resolver) isPlayerTarget(id string) bool {
	_, ok := r.state.PlayerForTarget(id)
	return ok
}
