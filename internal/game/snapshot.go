package game

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/abilities"
	"github.com/manaforge/rules-engine/internal/game/counters"
	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/rules"
)

// PlayerSnapshot is the wire shape of one player.
type PlayerSnapshot struct {
	ID              int            `json:"id" msgpack:"id"`
	Life            int            `json:"life" msgpack:"life"`
	ManaPool        map[string]int `json:"mana_pool,omitempty" msgpack:"mana_pool,omitempty"`
	Library         []string       `json:"library" msgpack:"library"`
	Hand            []string       `json:"hand" msgpack:"hand"`
	Graveyard       []string       `json:"graveyard" msgpack:"graveyard"`
	Exile           []string       `json:"exile" msgpack:"exile"`
	Command         []string       `json:"command,omitempty" msgpack:"command,omitempty"`
	Battlefield     []string       `json:"battlefield" msgpack:"battlefield"`
	CommanderID     string         `json:"commander_id,omitempty" msgpack:"commander_id,omitempty"`
	CommanderTax    int            `json:"commander_tax,omitempty" msgpack:"commander_tax,omitempty"`
	CommanderDamage map[int]int    `json:"commander_damage_taken,omitempty" msgpack:"commander_damage_taken,omitempty"`
	RemovedFromGame bool           `json:"removed_from_game,omitempty" msgpack:"removed_from_game,omitempty"`
	Lost            bool           `json:"lost,omitempty" msgpack:"lost,omitempty"`
	MaxHandSize     int            `json:"max_hand_size" msgpack:"max_hand_size"`
}

// ObjectSnapshot is the wire shape of one game object.
type ObjectSnapshot struct {
	ID               string             `json:"id" msgpack:"id"`
	Name             string             `json:"name" msgpack:"name"`
	OwnerID          int                `json:"owner_id" msgpack:"owner_id"`
	ControllerID     int                `json:"controller_id" msgpack:"controller_id"`
	Zone             string             `json:"zone" msgpack:"zone"`
	Types            []string           `json:"types,omitempty" msgpack:"types,omitempty"`
	Subtypes         []string           `json:"subtypes,omitempty" msgpack:"subtypes,omitempty"`
	Supertypes       []string           `json:"supertypes,omitempty" msgpack:"supertypes,omitempty"`
	Colors           []string           `json:"colors,omitempty" msgpack:"colors,omitempty"`
	ManaValue        int                `json:"mana_value,omitempty" msgpack:"mana_value,omitempty"`
	ManaCost         []string           `json:"mana_cost,omitempty" msgpack:"mana_cost,omitempty"`
	Power            int                `json:"power,omitempty" msgpack:"power,omitempty"`
	Toughness        int                `json:"toughness,omitempty" msgpack:"toughness,omitempty"`
	HasPT            bool               `json:"has_pt,omitempty" msgpack:"has_pt,omitempty"`
	Loyalty          int                `json:"loyalty,omitempty" msgpack:"loyalty,omitempty"`
	HasLoyalty       bool               `json:"has_loyalty,omitempty" msgpack:"has_loyalty,omitempty"`
	Tapped           bool               `json:"tapped,omitempty" msgpack:"tapped,omitempty"`
	Damage           int                `json:"damage,omitempty" msgpack:"damage,omitempty"`
	Counters         map[string]int     `json:"counters,omitempty" msgpack:"counters,omitempty"`
	Keywords         []string           `json:"keywords,omitempty" msgpack:"keywords,omitempty"`
	Protections      []string           `json:"protections,omitempty" msgpack:"protections,omitempty"`
	AttachedTo       string             `json:"attached_to,omitempty" msgpack:"attached_to,omitempty"`
	IsToken          bool               `json:"is_token,omitempty" msgpack:"is_token,omitempty"`
	WasCast          bool               `json:"was_cast,omitempty" msgpack:"was_cast,omitempty"`
	IsAttacking      bool               `json:"is_attacking,omitempty" msgpack:"is_attacking,omitempty"`
	IsBlocking       bool               `json:"is_blocking,omitempty" msgpack:"is_blocking,omitempty"`
	PhasedOut        bool               `json:"phased_out,omitempty" msgpack:"phased_out,omitempty"`
	Transformed      bool               `json:"transformed,omitempty" msgpack:"transformed,omitempty"`
	RegenerateShield int                `json:"regenerate_shield,omitempty" msgpack:"regenerate_shield,omitempty"`
	Metadata         map[string]string  `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
	EnteredSeq       int64              `json:"entered_seq,omitempty" msgpack:"entered_seq,omitempty"`
	Graphs           []*abilities.Graph `json:"ability_graphs,omitempty" msgpack:"ability_graphs,omitempty"`
}

// StackItemSnapshot is the wire shape of one stack item.
type StackItemSnapshot struct {
	ID           string            `json:"id" msgpack:"id"`
	Kind         string            `json:"kind" msgpack:"kind"`
	ControllerID int               `json:"controller_id" msgpack:"controller_id"`
	Description  string            `json:"description,omitempty" msgpack:"description,omitempty"`
	SourceID     string            `json:"source_id,omitempty" msgpack:"source_id,omitempty"`
	Graph        *abilities.Graph  `json:"ability_graph,omitempty" msgpack:"ability_graph,omitempty"`
	Targets      map[string]string `json:"targets,omitempty" msgpack:"targets,omitempty"`
	Modes        map[string]string `json:"modes,omitempty" msgpack:"modes,omitempty"`
	Values       map[string]int    `json:"values,omitempty" msgpack:"values,omitempty"`
	Choices      map[string]any    `json:"choices,omitempty" msgpack:"choices,omitempty"`
	IsCopy       bool              `json:"is_copy,omitempty" msgpack:"is_copy,omitempty"`
}

// TurnSnapshot is the wire shape of the turn position.
type TurnSnapshot struct {
	TurnNumber        int    `json:"turn_number" msgpack:"turn_number"`
	ActivePlayerIndex int    `json:"active_player_index" msgpack:"active_player_index"`
	Phase             string `json:"phase" msgpack:"phase"`
	Step              string `json:"step" msgpack:"step"`
	PriorityHolder    int    `json:"priority_holder" msgpack:"priority_holder"`
}

// GameSnapshot is the full wire shape exchanged with callers. The stack is
// listed bottom to top.
type GameSnapshot struct {
	Players  []PlayerSnapshot    `json:"players" msgpack:"players"`
	Objects  []ObjectSnapshot    `json:"objects" msgpack:"objects"`
	Stack    []StackItemSnapshot `json:"stack,omitempty" msgpack:"stack,omitempty"`
	Turn     TurnSnapshot        `json:"turn" msgpack:"turn"`
	DebugLog []string            `json:"debug_log,omitempty" msgpack:"debug_log,omitempty"`
}

// BuildSnapshot captures the state into its wire shape.
func BuildSnapshot(gs *GameState) *GameSnapshot {
	snap := &GameSnapshot{
		Turn: TurnSnapshot{
			TurnNumber:        gs.Turn.TurnNumber(),
			ActivePlayerIndex: gs.Turn.ActivePlayer(),
			Phase:             gs.Turn.CurrentPhase().String(),
			Step:              gs.Turn.CurrentStep().String(),
			PriorityHolder:    gs.Priority.Holder(),
		},
		DebugLog: append([]string(nil), gs.DebugLog...),
	}

	for _, p := range gs.Players {
		ps := PlayerSnapshot{
			ID:              p.ID,
			Life:            p.Life,
			ManaPool:        p.ManaPool.Snapshot(),
			Library:         append([]string(nil), p.Library...),
			Hand:            append([]string(nil), p.Hand...),
			Graveyard:       append([]string(nil), p.Graveyard...),
			Exile:           append([]string(nil), p.Exile...),
			Battlefield:     append([]string(nil), p.Battlefield...),
			CommanderID:     p.CommanderID,
			CommanderTax:    p.CommanderTax,
			RemovedFromGame: p.RemovedFromGame,
			Lost:            p.Lost,
			MaxHandSize:     p.MaxHandSize,
		}
		if len(p.CommanderDamage) > 0 {
			ps.CommanderDamage = make(map[int]int, len(p.CommanderDamage))
			for from, amount := range p.CommanderDamage {
				ps.CommanderDamage[from] = amount
			}
		}
		for _, id := range gs.CommandZone {
			if obj, ok := gs.Objects[id]; ok && obj.Owner == p.ID {
				ps.Command = append(ps.Command, id)
			}
		}
		snap.Players = append(snap.Players, ps)
	}

	ids := make([]string, 0, len(gs.Objects))
	for id := range gs.Objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		snap.Objects = append(snap.Objects, buildObjectSnapshot(gs.Objects[id]))
	}

	for _, item := range gs.Stack.List() {
		snap.Stack = append(snap.Stack, StackItemSnapshot{
			ID:           item.ID,
			Kind:         string(item.Kind),
			ControllerID: item.Controller,
			Description:  item.Description,
			SourceID:     item.Payload.SourceID,
			Graph:        item.Payload.Graph,
			Targets:      item.Payload.Targets,
			Modes:        item.Payload.Modes,
			Values:       item.Payload.Values,
			Choices:      item.Payload.Choices,
			IsCopy:       item.Payload.IsCopy,
		})
	}
	return snap
}

func buildObjectSnapshot(obj *GameObject) ObjectSnapshot {
	face := obj.Face()
	os := ObjectSnapshot{
		ID:               obj.ID,
		Name:             obj.Name,
		OwnerID:          obj.Owner,
		ControllerID:     obj.Controller,
		Zone:             obj.Zone.String(),
		Types:            face.Types,
		Subtypes:         face.Subtypes,
		Supertypes:       face.Supertypes,
		Colors:           face.Colors,
		ManaValue:        face.ManaValue,
		ManaCost:         face.ManaCost,
		Power:            face.Power,
		Toughness:        face.Toughness,
		HasPT:            face.HasPT,
		Loyalty:          face.Loyalty,
		HasLoyalty:       face.HasLoyalty,
		Tapped:           obj.Tapped,
		Damage:           obj.Damage,
		Keywords:         face.Keywords,
		Protections:      face.Protections,
		AttachedTo:       obj.AttachedTo,
		IsToken:          obj.IsToken,
		WasCast:          obj.WasCast,
		IsAttacking:      obj.IsAttacking,
		IsBlocking:       obj.IsBlocking,
		PhasedOut:        obj.PhasedOut,
		Transformed:      obj.Transformed,
		RegenerateShield: obj.RegenerateShield,
		Metadata:         obj.Metadata,
		EnteredSeq:       obj.EnteredSeq,
		Graphs:           obj.Graphs,
	}
	if len(obj.Counters) > 0 {
		os.Counters = make(map[string]int, len(obj.Counters))
		for kind, count := range obj.Counters {
			os.Counters[string(kind)] = count
		}
	}
	return os
}

// RestoreSnapshot rebuilds a game state from its wire shape. Ability
// subscriptions are not part of the snapshot; the caller re-registers them
// through the ability registry.
func RestoreSnapshot(snap *GameSnapshot, logger *zap.Logger) (*GameState, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	if len(snap.Players) == 0 {
		return nil, fmt.Errorf("snapshot has no players")
	}
	gs := NewGameState(len(snap.Players), logger)
	gs.DebugLog = append([]string(nil), snap.DebugLog...)

	var maxSeq int64
	for _, ps := range snap.Players {
		if ps.ID < 0 || ps.ID >= len(gs.Players) {
			return nil, fmt.Errorf("player id %d out of range", ps.ID)
		}
		p := gs.Players[ps.ID]
		p.Life = ps.Life
		p.ManaPool.Restore(ps.ManaPool)
		p.Library = append([]string(nil), ps.Library...)
		p.Hand = append([]string(nil), ps.Hand...)
		p.Graveyard = append([]string(nil), ps.Graveyard...)
		p.Exile = append([]string(nil), ps.Exile...)
		p.Battlefield = append([]string(nil), ps.Battlefield...)
		p.CommanderID = ps.CommanderID
		p.CommanderTax = ps.CommanderTax
		p.RemovedFromGame = ps.RemovedFromGame
		p.Lost = ps.Lost
		p.MaxHandSize = ps.MaxHandSize
		if p.MaxHandSize == 0 {
			p.MaxHandSize = 7
		}
		for from, amount := range ps.CommanderDamage {
			p.CommanderDamage[from] = amount
		}
		gs.CommandZone = append(gs.CommandZone, ps.Command...)
	}

	for _, os := range snap.Objects {
		zone, err := primitives.ParseZone(os.Zone)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", os.ID, err)
		}
		obj := &GameObject{
			ID:         os.ID,
			Name:       os.Name,
			Owner:      os.OwnerID,
			Controller: os.ControllerID,
			Zone:       zone,
			Base: Characteristics{
				Types:       os.Types,
				Subtypes:    os.Subtypes,
				Supertypes:  os.Supertypes,
				Colors:      os.Colors,
				Power:       os.Power,
				Toughness:   os.Toughness,
				HasPT:       os.HasPT,
				Loyalty:     os.Loyalty,
				HasLoyalty:  os.HasLoyalty,
				ManaValue:   os.ManaValue,
				ManaCost:    os.ManaCost,
				Keywords:    os.Keywords,
				Protections: os.Protections,
			},
			Graphs:           os.Graphs,
			Tapped:           os.Tapped,
			Damage:           os.Damage,
			Counters:         counters.NewBag(),
			AttachedTo:       os.AttachedTo,
			IsToken:          os.IsToken,
			WasCast:          os.WasCast,
			IsAttacking:      os.IsAttacking,
			IsBlocking:       os.IsBlocking,
			PhasedOut:        os.PhasedOut,
			Transformed:      os.Transformed,
			RegenerateShield: os.RegenerateShield,
			Metadata:         os.Metadata,
			EnteredSeq:       os.EnteredSeq,
		}
		for kind, count := range os.Counters {
			obj.Counters.Add(primitives.InternCounterKind(kind), count)
		}
		gs.Objects[obj.ID] = obj
		if obj.EnteredSeq > maxSeq {
			maxSeq = obj.EnteredSeq
		}
	}
	gs.nextEnteredSeq = maxSeq

	// rebuild attachment back-references
	for _, obj := range gs.Objects {
		if obj.AttachedTo == "" {
			continue
		}
		if host, ok := gs.Objects[obj.AttachedTo]; ok {
			host.Attachments = append(host.Attachments, obj.ID)
		}
	}
	for _, obj := range gs.Objects {
		sort.Strings(obj.Attachments)
	}

	for _, item := range snap.Stack {
		gs.Stack.Push(rules.StackItem{
			ID:          item.ID,
			Controller:  item.ControllerID,
			Description: item.Description,
			Kind:        rules.StackItemKind(item.Kind),
			Payload: rules.StackPayload{
				SourceID: item.SourceID,
				Graph:    item.Graph,
				Targets:  item.Targets,
				Modes:    item.Modes,
				Values:   item.Values,
				Choices:  item.Choices,
				IsCopy:   item.IsCopy,
			},
		})
	}

	phase, err := rules.ParsePhase(snap.Turn.Phase)
	if err != nil && snap.Turn.Phase != "" {
		return nil, err
	}
	step, err := rules.ParseStep(snap.Turn.Step)
	if err != nil && snap.Turn.Step != "" {
		return nil, err
	}
	turnNumber := snap.Turn.TurnNumber
	if turnNumber < 1 {
		turnNumber = 1
	}
	gs.Turn.SetPosition(turnNumber, snap.Turn.ActivePlayerIndex, phase, step)
	gs.Priority.Grant(snap.Turn.PriorityHolder)
	return gs, nil
}
