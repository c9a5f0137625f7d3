package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/mana"
	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/rules"
)

func TestFlowFirstAdvanceReachesUpkeep(t *testing.T) {
	gs := newTestState(2)
	e := NewEngine(gs, zap.NewNop())

	phase, step, err := e.AdvanceTurn()
	require.NoError(t, err)
	assert.Equal(t, rules.PhaseBeginning, phase)
	assert.Equal(t, rules.StepUpkeep, step)
	assert.Equal(t, 0, gs.Priority.Holder())
	assert.Equal(t, 1, gs.Turn.TurnNumber())
}

func TestFlowDrawStep(t *testing.T) {
	gs := newTestState(2)
	gs.Players[0].Library = []string{"card1"}
	gs.Turn.SetPosition(1, 0, rules.PhaseBeginning, rules.StepUpkeep)
	e := NewEngine(gs, zap.NewNop())

	_, step, err := e.AdvanceTurn()
	require.NoError(t, err)
	assert.Equal(t, rules.StepDraw, step)
	assert.Equal(t, []string{"card1"}, gs.Players[0].Hand)
	assert.Empty(t, gs.Players[0].Library)
}

func TestFlowDrawFromEmptyLibraryLoses(t *testing.T) {
	gs := newTestState(2)
	gs.Turn.SetPosition(1, 0, rules.PhaseBeginning, rules.StepUpkeep)
	e := NewEngine(gs, zap.NewNop())

	_, _, err := e.AdvanceTurn()
	require.NoError(t, err)
	assert.True(t, gs.Players[0].Lost)
}

func TestFlowNewTurnUntapAndPhasing(t *testing.T) {
	gs := newTestState(2)
	tapped := testCreature("tapped", 1, 2, 2)
	tapped.Tapped = true
	require.NoError(t, gs.AddObject(tapped))

	drifter := testCreature("drifter", 1, 2, 2)
	drifter.Base.Keywords = []string{"Phasing"}
	require.NoError(t, gs.AddObject(drifter))

	ghost := testCreature("ghost", 1, 2, 2)
	ghost.PhasedOut = true
	require.NoError(t, gs.AddObject(ghost))
	crown := testAura("crown", 1, "ghost")
	crown.PhasedOut = true
	require.NoError(t, gs.AddObject(crown))
	ghost.Attachments = append(ghost.Attachments, "crown")

	gs.Turn.SetPosition(1, 0, rules.PhaseEnding, rules.StepEnd)
	e := NewEngine(gs, zap.NewNop())

	phase, step, err := e.AdvanceTurn()
	require.NoError(t, err)
	assert.Equal(t, rules.PhaseBeginning, phase)
	assert.Equal(t, rules.StepUpkeep, step)
	assert.Equal(t, 2, gs.Turn.TurnNumber())
	assert.Equal(t, 1, gs.Turn.ActivePlayer())

	assert.False(t, tapped.Tapped)
	assert.True(t, drifter.PhasedOut)
	assert.False(t, ghost.PhasedOut)
	assert.False(t, crown.PhasedOut)
}

func TestFlowCleanupDiscardsToHandSize(t *testing.T) {
	gs := newTestState(1)
	for i := 0; i < 9; i++ {
		card := NewGameObject(fmt.Sprintf("card%d", i), "Card", 0, primitives.ZoneHand)
		require.NoError(t, gs.AddObject(card))
	}
	gs.Turn.SetPosition(1, 0, rules.PhaseEnding, rules.StepEnd)
	e := NewEngine(gs, zap.NewNop())

	_, _, err := e.AdvanceTurn()
	require.NoError(t, err)
	assert.Len(t, gs.Players[0].Hand, 7)
	assert.Len(t, gs.Players[0].Graveyard, 2)
}

func TestFlowCleanupWipesDamageAndExpiresEffects(t *testing.T) {
	gs := newTestState(1)
	bear := testCreature("bear", 0, 4, 4)
	bear.Damage = 2
	bear.RegenerateShield = 1
	require.NoError(t, gs.AddObject(bear))
	gs.Turn.SetPosition(1, 0, rules.PhaseEnding, rules.StepEnd)
	e := NewEngine(gs, zap.NewNop())

	_, err := e.ResolveGraph(
		singleEffectGraph(map[string]any{
			"type": "gain_keyword", "keyword": "Flying",
			"target": "self", "duration": "end_of_turn",
		}),
		&GraphContext{SourceID: "bear", ControllerID: 0})
	require.NoError(t, err)

	_, _, err = e.AdvanceTurn()
	require.NoError(t, err)
	assert.Zero(t, bear.Damage)
	assert.Zero(t, bear.RegenerateShield)

	snap, err := gs.EvaluatedSnapshot("bear")
	require.NoError(t, err)
	assert.False(t, snap.HasKeyword("Flying"))
}

func TestFlowPriorityPassesResolveStackLIFO(t *testing.T) {
	gs := newTestState(2)
	gs.Stack.Push(rules.StackItem{
		ID:         "bottom",
		Controller: 0,
		Kind:       rules.StackItemKindAbilityGraph,
		Payload:    rules.StackPayload{Graph: singleEffectGraph(map[string]any{"type": "life", "amount": 3})},
	})
	gs.Stack.Push(rules.StackItem{
		ID:         "top",
		Controller: 1,
		Kind:       rules.StackItemKindAbilityGraph,
		Payload:    rules.StackPayload{Graph: singleEffectGraph(map[string]any{"type": "life", "amount": 5})},
	})
	gs.Priority.Grant(0)
	e := NewEngine(gs, zap.NewNop())

	require.NoError(t, e.PassPriority(0))
	assert.Equal(t, 1, gs.Priority.Holder())
	assert.Equal(t, 2, gs.Stack.Len())

	require.NoError(t, e.PassPriority(1))
	assert.Equal(t, 25, gs.Players[1].Life)
	assert.Equal(t, 20, gs.Players[0].Life)
	assert.Equal(t, 1, gs.Stack.Len())
	assert.Equal(t, 0, gs.Priority.Holder())

	require.NoError(t, e.PassPriority(0))
	require.NoError(t, e.PassPriority(1))
	assert.Equal(t, 23, gs.Players[0].Life)
	assert.True(t, gs.Stack.IsEmpty())
}

func TestFlowResolvedSpellBecomesPermanent(t *testing.T) {
	gs := newTestState(2)
	summon := testCreature("summon", 0, 2, 2)
	summon.Zone = primitives.ZoneStack
	summon.WasCast = true
	require.NoError(t, gs.AddObject(summon))
	gs.Stack.Push(rules.StackItem{
		ID:         "spell",
		Controller: 0,
		Kind:       rules.StackItemKindSpell,
		Payload: rules.StackPayload{
			SourceID: "summon",
			Graph:    singleEffectGraph(map[string]any{"type": "life", "amount": 1}),
		},
	})
	gs.Priority.Grant(0)
	e := NewEngine(gs, zap.NewNop())

	require.NoError(t, e.PassPriority(0))
	require.NoError(t, e.PassPriority(1))

	assert.Equal(t, 21, gs.Players[0].Life)
	assert.Equal(t, primitives.ZoneBattlefield, summon.Zone)
	assert.Contains(t, gs.Players[0].Battlefield, "summon")
}

func TestFlowCombatDamageUnblocked(t *testing.T) {
	gs := newTestState(2)
	attacker := testCreature("attacker", 0, 3, 3)
	attacker.IsAttacking = true
	require.NoError(t, gs.AddObject(attacker))
	gs.Turn.SetPosition(1, 0, rules.PhaseCombat, rules.StepDeclareBlockers)
	e := NewEngine(gs, zap.NewNop())

	_, step, err := e.AdvanceTurn()
	require.NoError(t, err)
	assert.Equal(t, rules.StepCombatDamage, step)
	assert.Equal(t, 17, gs.Players[1].Life)
}

func TestFlowCombatDamageBlockedWithTrample(t *testing.T) {
	gs := newTestState(2)
	attacker := testCreature("attacker", 0, 4, 4)
	attacker.Base.Keywords = []string{"Trample"}
	attacker.IsAttacking = true
	require.NoError(t, gs.AddObject(attacker))
	blocker := testCreature("blocker", 1, 2, 2)
	blocker.IsBlocking = true
	blocker.Metadata = map[string]string{"blocking": "attacker"}
	require.NoError(t, gs.AddObject(blocker))
	gs.Turn.SetPosition(1, 0, rules.PhaseCombat, rules.StepDeclareBlockers)
	e := NewEngine(gs, zap.NewNop())

	_, _, err := e.AdvanceTurn()
	require.NoError(t, err)

	// blocker absorbed its toughness, the rest trampled through
	assert.Equal(t, primitives.ZoneGraveyard, blocker.Zone)
	assert.Equal(t, 2, attacker.Damage)
	assert.Equal(t, primitives.ZoneBattlefield, attacker.Zone)
	assert.Equal(t, 18, gs.Players[1].Life)
}

func TestFlowManaPoolsEmptyBetweenSteps(t *testing.T) {
	gs := newTestState(1)
	green, err := mana.ParseSymbol("G")
	require.NoError(t, err)
	gs.Players[0].ManaPool.Add(green, 2)
	e := NewEngine(gs, zap.NewNop())

	_, _, err = e.AdvanceTurn()
	require.NoError(t, err)
	assert.Empty(t, gs.Players[0].ManaPool.Snapshot())
}
