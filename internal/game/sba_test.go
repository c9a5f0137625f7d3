package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/effects"
	"github.com/manaforge/rules-engine/internal/game/primitives"
)

func newChecker(gs *GameState) *SBAChecker {
	resolver := NewResolver(gs, zap.NewNop())
	return NewSBAChecker(gs, resolver, zap.NewNop())
}

func TestSBALethalDamageDestroys(t *testing.T) {
	gs := newTestState(1)
	bear := testCreature("bear", 0, 2, 2)
	bear.Damage = 2
	require.NoError(t, gs.AddObject(bear))
	sba := newChecker(gs)

	assert.True(t, sba.Check())
	assert.Equal(t, primitives.ZoneGraveyard, bear.Zone)
	assert.Contains(t, gs.Players[0].Graveyard, "bear")
	assert.NotContains(t, gs.Players[0].Battlefield, "bear")

	// the state is legal now; a second pass changes nothing
	assert.False(t, sba.Check())
}

func TestSBADeathtouchDamageIsLethal(t *testing.T) {
	gs := newTestState(1)
	ogre := testCreature("ogre", 0, 4, 4)
	ogre.Damage = 1
	ogre.DeathtouchDamage = true
	require.NoError(t, gs.AddObject(ogre))

	newChecker(gs).Check()
	assert.Equal(t, primitives.ZoneGraveyard, ogre.Zone)
}

func TestSBAIndestructibleSurvivesLethalDamage(t *testing.T) {
	gs := newTestState(1)
	golem := testCreature("golem", 0, 2, 2)
	golem.Base.Keywords = []string{"Indestructible"}
	golem.Damage = 5
	require.NoError(t, gs.AddObject(golem))

	newChecker(gs).Check()
	assert.Equal(t, primitives.ZoneBattlefield, golem.Zone)
}

func TestSBARegenerationSavesCreature(t *testing.T) {
	gs := newTestState(1)
	troll := testCreature("troll", 0, 2, 2)
	troll.Damage = 3
	troll.RegenerateShield = 1
	troll.IsAttacking = true
	require.NoError(t, gs.AddObject(troll))

	newChecker(gs).Check()
	assert.Equal(t, primitives.ZoneBattlefield, troll.Zone)
	assert.True(t, troll.Tapped)
	assert.Zero(t, troll.Damage)
	assert.Zero(t, troll.RegenerateShield)
	assert.False(t, troll.IsAttacking)
}

func TestSBAZeroToughnessIgnoresRegeneration(t *testing.T) {
	gs := newTestState(1)
	wisp := testCreature("wisp", 0, 1, 1)
	wisp.RegenerateShield = 1
	require.NoError(t, gs.AddObject(wisp))

	shrink := effects.NewModifier("curse", effects.ObjectSelector("wisp"), effects.OpAddPT, effects.DurationPermanent)
	shrink.Power = -1
	shrink.Toughness = -1
	gs.Layers.AddEffect(shrink)

	newChecker(gs).Check()
	assert.Equal(t, primitives.ZoneGraveyard, wisp.Zone)
}

func TestSBAPlaneswalkerWithoutLoyaltyDies(t *testing.T) {
	gs := newTestState(1)
	walker := NewGameObject("walker", "Walker", 0, primitives.ZoneBattlefield)
	walker.Base = Characteristics{Types: []string{"Planeswalker"}, Loyalty: 3, HasLoyalty: true}
	require.NoError(t, gs.AddObject(walker))

	newChecker(gs).Check()
	assert.Equal(t, primitives.ZoneGraveyard, walker.Zone)
}

func TestSBAPlayerLossConditions(t *testing.T) {
	gs := newTestState(2)
	gs.Players[0].Life = 0
	gs.Players[1].DrewFromEmpty = true

	newChecker(gs).Check()
	assert.True(t, gs.Players[0].Lost)
	assert.True(t, gs.Players[1].Lost)
}

func TestSBAAuraFollowsDyingHost(t *testing.T) {
	gs := newTestState(1)
	bear := testCreature("bear", 0, 2, 2)
	bear.Damage = 2
	require.NoError(t, gs.AddObject(bear))
	crown := testAura("crown", 0, "bear")
	require.NoError(t, gs.AddObject(crown))
	bear.Attachments = append(bear.Attachments, "crown")

	newChecker(gs).Check()
	assert.Equal(t, primitives.ZoneGraveyard, bear.Zone)
	assert.Equal(t, primitives.ZoneGraveyard, crown.Zone)
	assert.Empty(t, crown.AttachedTo)
}

func TestSBAEquipmentUnattachesInsteadOfDying(t *testing.T) {
	gs := newTestState(1)
	blade := NewGameObject("blade", "Blade", 0, primitives.ZoneBattlefield)
	blade.Base = Characteristics{Types: []string{"Artifact"}, Subtypes: []string{"Equipment"}}
	blade.AttachedTo = "ghost"
	require.NoError(t, gs.AddObject(blade))

	newChecker(gs).Check()
	assert.Equal(t, primitives.ZoneBattlefield, blade.Zone)
	assert.Empty(t, blade.AttachedTo)
}

func TestSBALegendRuleKeepsOldest(t *testing.T) {
	gs := newTestState(1)
	first := testCreature("arashi1", 0, 5, 5)
	first.Name = "Arashi"
	first.Base.Supertypes = []string{"Legendary"}
	second := testCreature("arashi2", 0, 5, 5)
	second.Name = "Arashi"
	second.Base.Supertypes = []string{"Legendary"}
	require.NoError(t, gs.AddObject(first))
	require.NoError(t, gs.AddObject(second))

	newChecker(gs).Check()
	assert.Equal(t, primitives.ZoneBattlefield, first.Zone)
	assert.Equal(t, primitives.ZoneGraveyard, second.Zone)
}

func TestSBALegendRuleChooser(t *testing.T) {
	gs := newTestState(1)
	first := testCreature("arashi1", 0, 5, 5)
	first.Name = "Arashi"
	first.Base.Supertypes = []string{"Legendary"}
	second := testCreature("arashi2", 0, 5, 5)
	second.Name = "Arashi"
	second.Base.Supertypes = []string{"Legendary"}
	require.NoError(t, gs.AddObject(first))
	require.NoError(t, gs.AddObject(second))

	sba := newChecker(gs)
	sba.SetLegendChooser(func(controller int, candidateIDs []string) string {
		return "arashi2"
	})
	sba.Check()
	assert.Equal(t, primitives.ZoneGraveyard, first.Zone)
	assert.Equal(t, primitives.ZoneBattlefield, second.Zone)
}

func TestSBALegendRuleIgnoresTokens(t *testing.T) {
	gs := newTestState(1)
	first := testCreature("arashi1", 0, 5, 5)
	first.Name = "Arashi"
	first.Base.Supertypes = []string{"Legendary"}
	copyTok := testCreature("arashi2", 0, 5, 5)
	copyTok.Name = "Arashi"
	copyTok.Base.Supertypes = []string{"Legendary"}
	copyTok.IsToken = true
	require.NoError(t, gs.AddObject(first))
	require.NoError(t, gs.AddObject(copyTok))

	assert.False(t, newChecker(gs).Check())
	assert.Equal(t, primitives.ZoneBattlefield, copyTok.Zone)
}

func TestSBATokensEvaporateOutsideBattlefield(t *testing.T) {
	gs := newTestState(1)
	tok := testCreature("tok", 0, 1, 1)
	tok.IsToken = true
	tok.Zone = primitives.ZoneGraveyard
	require.NoError(t, gs.AddObject(tok))

	newChecker(gs).Check()
	_, err := gs.Object("tok")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Empty(t, gs.Players[0].Graveyard)
}

func TestSBACancelsOpposingCounters(t *testing.T) {
	gs := newTestState(1)
	bear := testCreature("bear", 0, 2, 2)
	bear.Counters.Add(primitives.CounterPlusOnePlusOne, 2)
	bear.Counters.Add(primitives.CounterMinusOneMinusOne, 1)
	require.NoError(t, gs.AddObject(bear))

	newChecker(gs).Check()
	assert.Equal(t, 1, bear.Counters.Count(primitives.CounterPlusOnePlusOne))
	assert.Zero(t, bear.Counters.Count(primitives.CounterMinusOneMinusOne))
}
