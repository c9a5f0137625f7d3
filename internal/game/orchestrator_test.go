package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func orchestratorSnapshot(t *testing.T) *GameSnapshot {
	t.Helper()
	gs := newTestState(2)
	require.NoError(t, gs.AddObject(testCreature("bear", 0, 2, 2)))
	require.NoError(t, gs.AddObject(testCreature("ogre", 1, 3, 3)))
	return BuildSnapshot(gs)
}

func TestOrchestratorResolveGraph(t *testing.T) {
	o := NewOrchestrator(zap.NewNop())

	resp, err := o.Handle(&Request{
		Action:       ActionResolveGraph,
		State:        orchestratorSnapshot(t),
		AbilityGraph: singleEffectGraph(map[string]any{"type": "damage", "amount": 2}),
		Context: &GraphContext{
			SourceID:     "bear",
			ControllerID: 0,
			Targets:      map[string]string{"eff": "ogre"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "resolved", resp.Result["status"])
	assert.Equal(t, "damage", resp.Result["type"])
	assert.Equal(t, 2, resp.Result["amount"])

	require.NotNil(t, resp.State)
	for _, obj := range resp.State.Objects {
		if obj.ID == "ogre" {
			assert.Equal(t, 2, obj.Damage)
		}
	}
}

func TestOrchestratorAdvanceTurn(t *testing.T) {
	o := NewOrchestrator(zap.NewNop())

	resp, err := o.Handle(&Request{
		Action: ActionAdvanceTurn,
		State:  orchestratorSnapshot(t),
	})
	require.NoError(t, err)
	assert.Equal(t, "advanced", resp.Result["status"])
	assert.Equal(t, "BEGINNING", resp.Result["phase"])
	assert.Equal(t, "UPKEEP", resp.Result["step"])
	assert.Equal(t, 1, resp.Result["turn"])
	assert.Equal(t, "UPKEEP", resp.State.Turn.Step)
}

func TestOrchestratorPassPriority(t *testing.T) {
	o := NewOrchestrator(zap.NewNop())
	player := 0

	resp, err := o.Handle(&Request{
		Action:   ActionPassPriority,
		State:    orchestratorSnapshot(t),
		PlayerID: &player,
	})
	require.NoError(t, err)
	assert.Equal(t, "passed", resp.Result["status"])
	assert.Equal(t, 1, resp.Result["current_priority"])
}

func TestOrchestratorHandleJSON(t *testing.T) {
	o := NewOrchestrator(zap.NewNop())

	payload, err := json.Marshal(&Request{
		Action: ActionAdvanceTurn,
		State:  orchestratorSnapshot(t),
	})
	require.NoError(t, err)

	out, err := o.HandleJSON(payload)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "advanced", resp.Result["status"])
	assert.NotNil(t, resp.State)

	_, err = o.HandleJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestOrchestratorRequestValidation(t *testing.T) {
	o := NewOrchestrator(zap.NewNop())

	_, err := o.Handle(nil)
	assert.Error(t, err)

	_, err = o.Handle(&Request{Action: "explode"})
	assert.ErrorContains(t, err, "unknown action")

	_, err = o.Handle(&Request{Action: ActionResolveGraph, State: orchestratorSnapshot(t)})
	assert.ErrorContains(t, err, "ability_graph")

	_, err = o.Handle(&Request{
		Action:       ActionResolveGraph,
		AbilityGraph: singleEffectGraph(map[string]any{"type": "draw"}),
	})
	assert.ErrorContains(t, err, "no state")

	_, err = o.Handle(&Request{Action: ActionPassPriority, State: orchestratorSnapshot(t)})
	assert.ErrorContains(t, err, "player_id")
}

func TestOrchestratorReplacementIterationOverride(t *testing.T) {
	o := NewOrchestrator(zap.NewNop())
	o.SetMaxReplacementIterations(7)

	e, err := o.buildEngine(&Request{State: orchestratorSnapshot(t)})
	require.NoError(t, err)
	assert.Equal(t, 7, e.State.Replacements.MaxIterations())
}
