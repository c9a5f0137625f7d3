package game

import (
	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/abilities"
	"github.com/manaforge/rules-engine/internal/game/primitives"
)

func newTestState(players int) *GameState {
	return NewGameState(players, zap.NewNop())
}

func testCreature(id string, owner, power, toughness int) *GameObject {
	obj := NewGameObject(id, id, owner, primitives.ZoneBattlefield)
	obj.Base = Characteristics{
		Types:     []string{"Creature"},
		Subtypes:  []string{"Bear"},
		Colors:    []string{"G"},
		Power:     power,
		Toughness: toughness,
		HasPT:     true,
	}
	return obj
}

func testAura(id string, owner int, host string) *GameObject {
	obj := NewGameObject(id, id, owner, primitives.ZoneBattlefield)
	obj.Base = Characteristics{
		Types:    []string{"Enchantment"},
		Subtypes: []string{"Aura"},
		Colors:   []string{"W"},
	}
	obj.AttachedTo = host
	return obj
}

// singleEffectGraph wraps one effect node in an activated-ability shell. The
// effect node id is always "eff" so targets bind under that key.
func singleEffectGraph(data map[string]any) *abilities.Graph {
	return &abilities.Graph{
		RootNodeID:  "act",
		AbilityType: abilities.AbilityActivated,
		Nodes: []abilities.Node{
			{ID: "act", Type: abilities.NodeActivated, Data: map[string]any{}},
			{ID: "eff", Type: abilities.NodeEffect, Data: data},
		},
		Edges: []abilities.Edge{{From: "act", To: "eff"}},
	}
}

func etbDrawGraph() *abilities.Graph {
	return &abilities.Graph{
		RootNodeID:  "root",
		AbilityType: abilities.AbilityTriggered,
		Nodes: []abilities.Node{
			{ID: "root", Type: abilities.NodeTrigger, Data: map[string]any{"event": "etb", "target": "self"}},
			{ID: "eff", Type: abilities.NodeEffect, Data: map[string]any{"type": "draw", "amount": 1}},
		},
		Edges: []abilities.Edge{{From: "root", To: "eff"}},
	}
}
