package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/counters"
	"github.com/manaforge/rules-engine/internal/game/effects"
	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/rules"
	"github.com/manaforge/rules-engine/internal/game/targeting"
)

// ErrObjectNotFound is returned when an object id does not resolve.
var ErrObjectNotFound = errors.New("object not found")

// ErrPlayerNotFound is returned when a player id does not resolve.
var ErrPlayerNotFound = errors.New("player not found")

// GameState owns the full mutable state of one game: players, objects,
// zones, the stack, the turn position, and the registries of continuous and
// replacement effects. All mutation goes through its methods so events fire
// and replacements apply consistently.
type GameState struct {
	Players []*Player
	Objects map[string]*GameObject

	Stack        *rules.StackManager
	Turn         *rules.TurnManager
	Priority     *rules.PriorityTracker
	Bus          *rules.EventBus
	Triggers     *rules.TriggerManager
	Layers       *effects.LayerSystem
	Replacements *effects.ReplacementManager

	// CommandZone is shared; ids of commanders not in another zone.
	CommandZone []string

	// PendingTriggers are stack items produced by triggered abilities that
	// fired since the last batch push.
	PendingTriggers []rules.StackItem

	DebugLog []string

	nextEnteredSeq int64
	logger         *zap.Logger
}

// NewGameState creates an empty game for the given number of players.
func NewGameState(playerCount int, logger *zap.Logger) *GameState {
	if logger == nil {
		logger = zap.NewNop()
	}
	players := make([]*Player, playerCount)
	for i := range players {
		players[i] = NewPlayer(i)
	}
	gs := &GameState{
		Players:      players,
		Objects:      make(map[string]*GameObject),
		Stack:        rules.NewStackManager(),
		Turn:         rules.NewTurnManager(0, playerCount),
		Priority:     rules.NewPriorityTracker(0, playerCount),
		Bus:          rules.NewEventBus(),
		Triggers:     rules.NewTriggerManager(),
		Layers:       effects.NewLayerSystem(),
		Replacements: effects.NewReplacementManager(logger),
		logger:       logger,
	}
	return gs
}

// Logf appends a line to the debug log carried back to the caller.
func (gs *GameState) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	gs.DebugLog = append(gs.DebugLog, line)
	gs.logger.Debug(line)
}

// Object resolves an object id.
func (gs *GameState) Object(id string) (*GameObject, error) {
	obj, ok := gs.Objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return obj, nil
}

// Player resolves a player id.
func (gs *GameState) Player(id int) (*Player, error) {
	if id < 0 || id >= len(gs.Players) {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
	}
	return gs.Players[id], nil
}

// AddObject registers an object and places it in its zone's list.
func (gs *GameState) AddObject(obj *GameObject) error {
	if obj == nil || obj.ID == "" {
		return errors.New("object must have an id")
	}
	if _, exists := gs.Objects[obj.ID]; exists {
		return fmt.Errorf("duplicate object id %s", obj.ID)
	}
	if obj.Counters == nil {
		obj.Counters = counters.NewBag()
	}
	gs.Objects[obj.ID] = obj
	if obj.Zone == primitives.ZoneCommand {
		gs.CommandZone = append(gs.CommandZone, obj.ID)
		return nil
	}
	if obj.Zone == primitives.ZoneStack {
		return nil
	}
	owner, err := gs.Player(obj.Owner)
	if err != nil {
		return err
	}
	zoneOwner := owner
	if obj.Zone == primitives.ZoneBattlefield {
		zoneOwner, err = gs.Player(obj.Controller)
		if err != nil {
			return err
		}
		obj.EnteredSeq = gs.nextSeq()
	}
	list := zoneOwner.zoneList(obj.Zone)
	if list == nil {
		return fmt.Errorf("cannot place %s into %s", obj.ID, obj.Zone)
	}
	*list = append(*list, obj.ID)
	return nil
}

func (gs *GameState) nextSeq() int64 {
	gs.nextEnteredSeq++
	return gs.nextEnteredSeq
}

// removeFromZoneList drops an object id from whichever list currently holds
// it for its zone.
func (gs *GameState) removeFromZoneList(obj *GameObject) {
	if obj.Zone == primitives.ZoneCommand {
		gs.CommandZone = removeID(gs.CommandZone, obj.ID)
		return
	}
	if obj.Zone == primitives.ZoneStack {
		return
	}
	for _, p := range gs.Players {
		if list := p.zoneList(obj.Zone); list != nil {
			*list = removeID(*list, obj.ID)
		}
	}
}

func removeID(list []string, id string) []string {
	for i, entry := range list {
		if entry == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// MoveObject moves an object to a new zone through the replacement pipeline.
// Moving an object to the zone it already occupies is a no-op and fires no
// event. Returns the committed events.
func (gs *GameState) MoveObject(objectID string, toZone primitives.Zone) ([]rules.Event, error) {
	obj, err := gs.Object(objectID)
	if err != nil {
		return nil, err
	}
	if obj.Zone == toZone {
		return nil, nil
	}

	event := rules.NewEvent(rules.EventZoneChange, objectID, "", obj.Controller)
	event.FromZone = obj.Zone
	event.Zone = toZone

	committed := gs.Replacements.Apply(event, gs.Turn.ActivePlayer())
	var all []rules.Event
	for _, ev := range committed {
		done, err := gs.commitEvent(ev)
		if err != nil {
			return all, err
		}
		all = append(all, done...)
	}
	return all, nil
}

// commitEvent applies an already-replaced event to the state and publishes
// it plus any canonical follow-up events.
func (gs *GameState) commitEvent(event rules.Event) ([]rules.Event, error) {
	if event.Type != rules.EventZoneChange {
		gs.publish(event)
		return []rules.Event{event}, nil
	}

	obj, err := gs.Object(event.TargetID)
	if err != nil {
		return nil, err
	}
	from := obj.Zone
	to := event.Zone
	if from == to {
		return nil, nil
	}

	gs.removeFromZoneList(obj)

	leavingBattlefield := from == primitives.ZoneBattlefield
	if leavingBattlefield {
		gs.severAttachments(obj)
		obj.ResetBattlefieldState()
		gs.Layers.RemoveBySource(obj.ID)
		gs.Layers.RemoveSelecting(obj.ID)
		gs.Replacements.RemoveBySource(obj.ID)
		gs.Replacements.RemoveTargeting(obj.ID)
	}

	obj.Zone = to
	switch to {
	case primitives.ZoneCommand:
		gs.CommandZone = append(gs.CommandZone, obj.ID)
	case primitives.ZoneStack:
		// stack membership is tracked by the stack manager
	case primitives.ZoneBattlefield:
		controller, err := gs.Player(obj.Controller)
		if err != nil {
			return nil, err
		}
		obj.EnteredSeq = gs.nextSeq()
		if event.Metadata["enters_tapped"] == "true" || obj.Metadata["enters_tapped"] == "true" {
			obj.Tapped = true
			delete(obj.Metadata, "enters_tapped")
		}
		list := controller.zoneList(to)
		*list = append(*list, obj.ID)
	default:
		owner, err := gs.Player(obj.Owner)
		if err != nil {
			return nil, err
		}
		list := owner.zoneList(to)
		if list == nil {
			return nil, fmt.Errorf("cannot move %s into %s", obj.ID, to)
		}
		*list = append(*list, obj.ID)
	}

	out := []rules.Event{event}
	gs.publish(event)

	if to == primitives.ZoneBattlefield {
		etb := rules.NewEvent(rules.EventEntersBattlefield, obj.ID, event.SourceID, obj.Controller)
		etb.FromZone = from
		etb.Zone = to
		gs.publish(etb)
		out = append(out, etb)
	}
	if leavingBattlefield {
		ltb := rules.NewEvent(rules.EventLeavesBattlefield, obj.ID, event.SourceID, obj.Controller)
		ltb.FromZone = from
		ltb.Zone = to
		gs.publish(ltb)
		out = append(out, ltb)
		if to == primitives.ZoneGraveyard {
			dies := rules.NewEvent(rules.EventDies, obj.ID, event.SourceID, obj.Controller)
			dies.FromZone = from
			dies.Zone = to
			gs.publish(dies)
			out = append(out, dies)
		}
	}

	// Tokens evaporate outside the battlefield; the state-based pass removes
	// them, but zone lists stay consistent meanwhile.
	return out, nil
}

// severAttachments detaches everything attached to the object and detaches
// the object itself from its host.
func (gs *GameState) severAttachments(obj *GameObject) {
	if obj.AttachedTo != "" {
		if host, ok := gs.Objects[obj.AttachedTo]; ok {
			host.Attachments = removeID(host.Attachments, obj.ID)
		}
		obj.AttachedTo = ""
	}
	for _, attachedID := range obj.Attachments {
		if attached, ok := gs.Objects[attachedID]; ok {
			attached.AttachedTo = ""
		}
	}
	obj.Attachments = nil
}

// publish fires an event through the bus and collects any triggered-ability
// stack items into the pending batch.
func (gs *GameState) publish(event rules.Event) {
	gs.Bus.Publish(event)
	items := gs.Triggers.Handle(event)
	gs.PendingTriggers = append(gs.PendingTriggers, items...)
}

// FlushTriggers pushes pending trigger items onto the stack as a batch:
// non-active players' first in turn order, then the active player's, so the
// active player's resolve first. Within one controller, observation order.
func (gs *GameState) FlushTriggers() int {
	if len(gs.PendingTriggers) == 0 {
		return 0
	}
	pending := gs.PendingTriggers
	gs.PendingTriggers = nil
	active := gs.Turn.ActivePlayer()
	n := len(gs.Players)

	pushed := 0
	for offset := n - 1; offset >= 0; offset-- {
		controller := (active + offset) % n
		for _, item := range pending {
			if item.Controller == controller {
				gs.Stack.Push(item)
				pushed++
			}
		}
	}
	return pushed
}

// EvaluatedSnapshot returns the object's current characteristics after all
// continuous effects.
func (gs *GameState) EvaluatedSnapshot(objectID string) (*effects.Snapshot, error) {
	obj, err := gs.Object(objectID)
	if err != nil {
		return nil, err
	}
	snap := obj.baseSnapshot()
	gs.Layers.Apply(snap)
	if controlled := snap.Controller; controlled != obj.Controller {
		// layer 2 change of control is reflected back so zone bookkeeping
		// and combat removal can see it
		gs.setController(obj, controlled)
	}
	return snap, nil
}

// setController moves an object between battlefield lists when control
// changes and removes it from combat.
func (gs *GameState) setController(obj *GameObject, newController int) {
	if newController < 0 || newController >= len(gs.Players) || newController == obj.Controller {
		return
	}
	if obj.Zone == primitives.ZoneBattlefield {
		old, _ := gs.Player(obj.Controller)
		if old != nil {
			old.Battlefield = removeID(old.Battlefield, obj.ID)
		}
		next, _ := gs.Player(newController)
		if next != nil {
			next.Battlefield = append(next.Battlefield, obj.ID)
		}
		obj.RemoveFromCombat()
	}
	obj.Controller = newController
}

// AllBattlefieldIDs returns every battlefield object's id in a stable order:
// controller index, then entry sequence.
func (gs *GameState) AllBattlefieldIDs() []string {
	var ids []string
	for _, p := range gs.Players {
		ids = append(ids, p.Battlefield...)
	}
	return ids
}

// ObjectForTarget implements targeting.StateAccessor.
func (gs *GameState) ObjectForTarget(id string) (targeting.ObjectInfo, bool) {
	obj, ok := gs.Objects[id]
	if !ok {
		return targeting.ObjectInfo{}, false
	}
	snap := obj.baseSnapshot()
	gs.Layers.Apply(snap)
	return targeting.ObjectInfo{
		Snapshot:  snap,
		Zone:      obj.Zone,
		PhasedOut: obj.PhasedOut,
	}, true
}

// PlayerForTarget implements targeting.StateAccessor. Player targets are
// written as bare indexes ("0") or prefixed ("player:0").
func (gs *GameState) PlayerForTarget(id string) (targeting.PlayerInfo, bool) {
	raw := strings.TrimPrefix(id, "player:")
	if raw == id && strings.ContainsAny(raw, "abcdefghijklmnopqrstuvwxyz-") {
		return targeting.PlayerInfo{}, false
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 || idx >= len(gs.Players) {
		return targeting.PlayerInfo{}, false
	}
	p := gs.Players[idx]
	return targeting.PlayerInfo{ID: p.ID, Removed: p.RemovedFromGame || p.Lost}, true
}

// StackItemExists implements targeting.StateAccessor.
func (gs *GameState) StackItemExists(id string) bool {
	for _, item := range gs.Stack.List() {
		if item.ID == id {
			return true
		}
	}
	return false
}
