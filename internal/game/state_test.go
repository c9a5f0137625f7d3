package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manaforge/rules-engine/internal/game/effects"
	"github.com/manaforge/rules-engine/internal/game/primitives"
	"github.com/manaforge/rules-engine/internal/game/rules"
)

func TestMoveObjectSameZoneIsNoOp(t *testing.T) {
	gs := newTestState(1)
	require.NoError(t, gs.AddObject(testCreature("bear", 0, 2, 2)))

	events, err := gs.MoveObject("bear", primitives.ZoneBattlefield)
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.Equal(t, []string{"bear"}, gs.Players[0].Battlefield)
}

func TestMoveObjectToGraveyardEmitsDeathEvents(t *testing.T) {
	gs := newTestState(1)
	require.NoError(t, gs.AddObject(testCreature("bear", 0, 2, 2)))

	events, err := gs.MoveObject("bear", primitives.ZoneGraveyard)
	require.NoError(t, err)

	var types []rules.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []rules.EventType{
		rules.EventZoneChange,
		rules.EventLeavesBattlefield,
		rules.EventDies,
	}, types)
	assert.Equal(t, []string{"bear"}, gs.Players[0].Graveyard)
	assert.Empty(t, gs.Players[0].Battlefield)
}

func TestMoveObjectLeavingBattlefieldResetsState(t *testing.T) {
	gs := newTestState(1)
	bear := testCreature("bear", 0, 2, 2)
	bear.Tapped = true
	bear.Damage = 1
	bear.IsAttacking = true
	bear.Counters.Add(primitives.CounterPlusOnePlusOne, 2)
	require.NoError(t, gs.AddObject(bear))
	crown := testAura("crown", 0, "bear")
	require.NoError(t, gs.AddObject(crown))
	bear.Attachments = append(bear.Attachments, "crown")

	boost := effects.NewModifier("bear", effects.ObjectSelector("bear"), effects.OpAddPT, effects.DurationPermanent)
	boost.Power = 1
	boost.Toughness = 1
	gs.Layers.AddEffect(boost)

	_, err := gs.MoveObject("bear", primitives.ZoneExile)
	require.NoError(t, err)

	assert.False(t, bear.Tapped)
	assert.Zero(t, bear.Damage)
	assert.False(t, bear.IsAttacking)
	assert.Zero(t, bear.Counters.Count(primitives.CounterPlusOnePlusOne))
	assert.Empty(t, bear.Attachments)
	assert.Empty(t, crown.AttachedTo)
	assert.Empty(t, gs.Layers.Effects())
}

func TestMoveObjectToBattlefieldAssignsSeqAndEtb(t *testing.T) {
	gs := newTestState(1)
	card := NewGameObject("card", "Card", 0, primitives.ZoneHand)
	card.Base = Characteristics{Types: []string{"Creature"}, Power: 1, Toughness: 1, HasPT: true}
	card.Metadata = map[string]string{"enters_tapped": "true"}
	require.NoError(t, gs.AddObject(card))

	var seen []rules.EventType
	gs.Bus.Subscribe(func(ev rules.Event) { seen = append(seen, ev.Type) })

	_, err := gs.MoveObject("card", primitives.ZoneBattlefield)
	require.NoError(t, err)

	assert.Contains(t, seen, rules.EventEntersBattlefield)
	assert.True(t, card.Tapped)
	assert.NotContains(t, card.Metadata, "enters_tapped")
	assert.Positive(t, card.EnteredSeq)
	assert.Equal(t, []string{"card"}, gs.Players[0].Battlefield)
}

func TestFlushTriggersOrdersActivePlayerLast(t *testing.T) {
	gs := newTestState(2)
	gs.PendingTriggers = []rules.StackItem{
		{ID: "a0", Controller: 0, Kind: rules.StackItemKindTriggered},
		{ID: "b1", Controller: 1, Kind: rules.StackItemKindTriggered},
		{ID: "a1", Controller: 0, Kind: rules.StackItemKindTriggered},
	}

	assert.Equal(t, 3, gs.FlushTriggers())
	items := gs.Stack.List()
	require.Len(t, items, 3)

	// active player 0: opponent's trigger goes on first, the active
	// player's own resolve first from the top
	assert.Equal(t, "b1", items[0].ID)
	assert.Equal(t, "a0", items[1].ID)
	assert.Equal(t, "a1", items[2].ID)
	assert.Empty(t, gs.PendingTriggers)
}

func TestEvaluatedSnapshotReflectsControlChange(t *testing.T) {
	gs := newTestState(2)
	bear := testCreature("bear", 0, 2, 2)
	require.NoError(t, gs.AddObject(bear))

	steal := effects.NewModifier("spell", effects.ObjectSelector("bear"), effects.OpSetController, effects.DurationPermanent)
	steal.Controller = 1
	gs.Layers.AddEffect(steal)

	snap, err := gs.EvaluatedSnapshot("bear")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Controller)
	assert.Equal(t, 1, bear.Controller)
	assert.Contains(t, gs.Players[1].Battlefield, "bear")
	assert.NotContains(t, gs.Players[0].Battlefield, "bear")
}

func TestPlayerForTargetSyntax(t *testing.T) {
	gs := newTestState(2)
	require.NoError(t, gs.AddObject(testCreature("bear", 0, 2, 2)))

	if p, ok := gs.PlayerForTarget("0"); assert.True(t, ok) {
		assert.Equal(t, 0, p.ID)
	}
	if p, ok := gs.PlayerForTarget("player:1"); assert.True(t, ok) {
		assert.Equal(t, 1, p.ID)
	}
	_, ok := gs.PlayerForTarget("bear")
	assert.False(t, ok)
	_, ok = gs.PlayerForTarget("2")
	assert.False(t, ok)
}

func TestAddObjectRejectsDuplicates(t *testing.T) {
	gs := newTestState(1)
	require.NoError(t, gs.AddObject(testCreature("bear", 0, 2, 2)))
	assert.Error(t, gs.AddObject(testCreature("bear", 0, 2, 2)))
	assert.Error(t, gs.AddObject(nil))
}
