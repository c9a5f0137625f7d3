package game

import (
	"sort"

	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/rules"
)

// sbaMaxPasses bounds the fixpoint loop; a legal state converges in a
// handful of passes.
const sbaMaxPasses = 50

// LegendChooser picks which of several same-name legendary permanents a
// controller keeps. The default keeps the first to have entered.
type LegendChooser func(controller int, candidateIDs []string) string

// SBAChecker runs the state-based actions to a fixpoint: it repeatedly scans
// the whole state and applies any action that matches, stopping when a pass
// changes nothing.
type SBAChecker struct {
	state        *GameState
	resolver     *Resolver
	chooseLegend LegendChooser
	logger       *zap.Logger
}

// NewSBAChecker creates a checker over the state.
func NewSBAChecker(state *GameState, resolver *Resolver, logger *zap.Logger) *SBAChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SBAChecker{state: state, resolver: resolver, logger: logger}
}

// SetLegendChooser overrides the legend-rule keep policy.
func (c *SBAChecker) SetLegendChooser(chooser LegendChooser) {
	c.chooseLegend = chooser
}

// Check runs state-based actions until no pass applies one. Returns whether
// anything happened.
func (c *SBAChecker) Check() bool {
	anyChange := false
	for pass := 0; pass < sbaMaxPasses; pass++ {
		if !c.checkOnce() {
			break
		}
		anyChange = true
	}
	if anyChange {
		c.state.publish(rules.NewEvent(rules.EventStateBasedActions, "", "", c.state.Turn.ActivePlayer()))
	}
	return anyChange
}

// checkOnce performs a single pass and reports whether it changed anything.
func (c *SBAChecker) checkOnce() bool {
	changed := false

	for _, p := range c.state.Players {
		if p.Lost || p.RemovedFromGame {
			continue
		}
		if p.Life <= 0 {
			c.playerLoses(p, "life total is zero or less")
			changed = true
		} else if p.DrewFromEmpty {
			c.playerLoses(p, "drew from an empty library")
			changed = true
		}
	}

	for _, id := range c.state.AllBattlefieldIDs() {
		obj, ok := c.state.Objects[id]
		if !ok || obj.PhasedOut {
			continue
		}
		snap, err := c.state.EvaluatedSnapshot(id)
		if err != nil {
			continue
		}

		if snap.HasType("Creature") && snap.HasPT {
			toughness := snap.Toughness
			if toughness <= 0 {
				c.state.Logf("creature %s has toughness %d, put into graveyard", id, toughness)
				c.state.MoveObject(id, primitives.ZoneGraveyard)
				changed = true
				continue
			}
			lethal := obj.Damage >= toughness || (obj.DeathtouchDamage && obj.Damage >= 1)
			if lethal && !snap.HasKeyword("Indestructible") {
				if obj.RegenerateShield > 0 {
					c.resolver.regenerate(obj, "")
				} else {
					c.state.Logf("creature %s has lethal damage, destroyed", id)
					c.state.MoveObject(id, primitives.ZoneGraveyard)
					c.state.publish(rules.NewEvent(rules.EventDestroyed, id, "", obj.Controller))
				}
				changed = true
				continue
			}
		}

		if snap.HasType("Planeswalker") && obj.Counters.Count(primitives.CounterLoyalty) <= 0 {
			c.state.Logf("planeswalker %s has no loyalty, put into graveyard", id)
			c.state.MoveObject(id, primitives.ZoneGraveyard)
			changed = true
			continue
		}

		if c.checkAttachment(obj, snap.HasType("Aura"), snap.HasType("Equipment") || containsString(snap.Subtypes, "Equipment"), containsString(snap.Subtypes, "Aura")) {
			changed = true
			continue
		}

		if obj.Counters.CancelOpposing() > 0 {
			changed = true
		}
	}

	if c.checkLegendRule() {
		changed = true
	}
	if c.removeDeadTokens() {
		changed = true
	}
	return changed
}

func (c *SBAChecker) playerLoses(p *Player, reason string) {
	p.Lost = true
	c.state.Logf("player %d loses: %s", p.ID, reason)
	event := rules.NewEvent(rules.EventLoses, "", "", p.ID)
	event.PlayerID = p.ID
	event.Description = reason
	c.state.publish(event)
}

// checkAttachment enforces the aura and equipment attachment rules. Returns
// whether it changed the state.
func (c *SBAChecker) checkAttachment(obj *GameObject, isAuraType, isEquipment, isAuraSubtype bool) bool {
	isAura := isAuraType || isAuraSubtype
	if !isAura && !isEquipment {
		return false
	}
	if obj.AttachedTo == "" {
		if isAura {
			c.state.Logf("aura %s is unattached, put into graveyard", obj.ID)
			c.state.MoveObject(obj.ID, primitives.ZoneGraveyard)
			return true
		}
		return false
	}
	host, ok := c.state.Objects[obj.AttachedTo]
	hostLegal := ok && host.Zone == primitives.ZoneBattlefield && !host.PhasedOut
	if hostLegal && isEquipment {
		snap, err := c.state.EvaluatedSnapshot(host.ID)
		hostLegal = err == nil && snap.HasType("Creature")
	}
	if hostLegal {
		return false
	}
	if isAura {
		c.state.Logf("aura %s is attached illegally, put into graveyard", obj.ID)
		c.state.MoveObject(obj.ID, primitives.ZoneGraveyard)
		return true
	}
	c.state.Logf("equipment %s becomes unattached", obj.ID)
	if ok {
		host.Attachments = removeID(host.Attachments, obj.ID)
	}
	obj.AttachedTo = ""
	c.state.publish(rules.NewEvent(rules.EventUnattach, obj.ID, "", obj.Controller))
	return true
}

// checkLegendRule finds controllers with duplicate non-token legendary names
// and keeps one of each group.
func (c *SBAChecker) checkLegendRule() bool {
	changed := false
	for _, p := range c.state.Players {
		groups := make(map[string][]*GameObject)
		for _, id := range p.Battlefield {
			obj, ok := c.state.Objects[id]
			if !ok || obj.IsToken || obj.PhasedOut || !obj.IsLegendary() {
				continue
			}
			groups[obj.Name] = append(groups[obj.Name], obj)
		}
		for name, objs := range groups {
			if len(objs) < 2 {
				continue
			}
			sort.Slice(objs, func(i, j int) bool { return objs[i].EnteredSeq < objs[j].EnteredSeq })
			keepID := objs[0].ID
			if c.chooseLegend != nil {
				ids := make([]string, len(objs))
				for i, o := range objs {
					ids[i] = o.ID
				}
				if chosen := c.chooseLegend(p.ID, ids); containsString(ids, chosen) {
					keepID = chosen
				}
			}
			for _, obj := range objs {
				if obj.ID == keepID {
					continue
				}
				c.state.Logf("legend rule: %s duplicate of %q put into graveyard", obj.ID, name)
				c.state.MoveObject(obj.ID, primitives.ZoneGraveyard)
				changed = true
			}
		}
	}
	return changed
}

// removeDeadTokens deletes tokens that are in any zone but the battlefield.
func (c *SBAChecker) removeDeadTokens() bool {
	changed := false
	for id, obj := range c.state.Objects {
		if !obj.IsToken || obj.Zone == primitives.ZoneBattlefield {
			continue
		}
		c.state.removeFromZoneList(obj)
		delete(c.state.Objects, id)
		c.state.Logf("token %s ceased to exist in %s", id, obj.Zone)
		changed = true
	}
	return changed
}
