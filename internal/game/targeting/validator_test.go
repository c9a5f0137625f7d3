package targeting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manaforge/rules-engine/internal/game/effects"
	"github.com/manaforge/rules-engine/internal/game/primitives"
)

// fakeState is an in-memory StateAccessor for validator tests.
type fakeState struct {
	objects map[string]ObjectInfo
	players map[string]PlayerInfo
	stack   map[string]bool
}

func newFakeState() *fakeState {
	return &fakeState{
		objects: make(map[string]ObjectInfo),
		players: make(map[string]PlayerInfo),
		stack:   make(map[string]bool),
	}
}

func (f *fakeState) ObjectForTarget(id string) (ObjectInfo, bool) {
	info, ok := f.objects[id]
	return info, ok
}

func (f *fakeState) PlayerForTarget(id string) (PlayerInfo, bool) {
	info, ok := f.players[id]
	return info, ok
}

func (f *fakeState) StackItemExists(id string) bool {
	return f.stack[id]
}

func (f *fakeState) addCreature(id string, controller int, keywords, protections []string) {
	snap := effects.NewSnapshot(id, controller)
	snap.SetBase([]string{"Creature"}, []string{"Bear"}, nil, []string{"G"}, keywords, protections, 2, 2, true, 0, false)
	f.objects[id] = ObjectInfo{Snapshot: snap, Zone: primitives.ZoneBattlefield}
}

func TestValidateLegalCreatureTarget(t *testing.T) {
	state := newFakeState()
	state.addCreature("bear", 1, nil, nil)

	v := NewValidator(state)
	err := v.Validate("bear", NewObjectRequirement("Creature"), Context{SourceID: "bolt", Controller: 0})
	assert.NoError(t, err)
}

func TestValidateMissingObject(t *testing.T) {
	v := NewValidator(newFakeState())
	err := v.Validate("ghost", NewObjectRequirement(), Context{Controller: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestValidateHexproof(t *testing.T) {
	state := newFakeState()
	state.addCreature("sliver", 1, []string{"Hexproof"}, nil)
	v := NewValidator(state)

	// An opponent cannot target it.
	err := v.Validate("sliver", NewObjectRequirement("Creature"), Context{SourceID: "bolt", Controller: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))

	// Its own controller can.
	err = v.Validate("sliver", NewObjectRequirement("Creature"), Context{SourceID: "pump", Controller: 1})
	assert.NoError(t, err)
}

func TestValidateShroudBlocksEveryone(t *testing.T) {
	state := newFakeState()
	state.addCreature("wanderer", 1, []string{"Shroud"}, nil)
	v := NewValidator(state)

	for controller := 0; controller <= 1; controller++ {
		err := v.Validate("wanderer", NewObjectRequirement("Creature"), Context{SourceID: "aura", Controller: controller})
		require.Error(t, err, "controller %d", controller)
		assert.True(t, errors.Is(err, ErrInvalidTarget))
	}
}

func TestValidateProtection(t *testing.T) {
	state := newFakeState()
	state.addCreature("paladin", 1, nil, []string{"R"})

	// A red source cannot target it; a green one can.
	redSource := effects.NewSnapshot("bolt", 0)
	redSource.SetBase([]string{"Instant"}, nil, nil, []string{"R"}, nil, nil, 0, 0, false, 0, false)
	state.objects["bolt"] = ObjectInfo{Snapshot: redSource, Zone: primitives.ZoneStack}

	greenSource := effects.NewSnapshot("growth", 0)
	greenSource.SetBase([]string{"Instant"}, nil, nil, []string{"G"}, nil, nil, 0, 0, false, 0, false)
	state.objects["growth"] = ObjectInfo{Snapshot: greenSource, Zone: primitives.ZoneStack}

	v := NewValidator(state)

	err := v.Validate("paladin", NewObjectRequirement("Creature"), Context{SourceID: "bolt", Controller: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))

	err = v.Validate("paladin", NewObjectRequirement("Creature"), Context{SourceID: "growth", Controller: 0})
	assert.NoError(t, err)
}

func TestValidateProtectionFromEverything(t *testing.T) {
	state := newFakeState()
	state.addCreature("progenitus", 1, nil, []string{"everything"})
	state.addCreature("attacker", 0, nil, nil)

	v := NewValidator(state)
	err := v.Validate("progenitus", NewObjectRequirement("Creature"), Context{SourceID: "attacker", Controller: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestValidateProtectionUsesTriggeringSource(t *testing.T) {
	state := newFakeState()
	state.addCreature("paladin", 1, nil, []string{"R"})

	red := effects.NewSnapshot("dragon", 0)
	red.SetBase([]string{"Creature"}, nil, nil, []string{"R"}, nil, nil, 4, 4, true, 0, false)
	state.objects["dragon"] = ObjectInfo{Snapshot: red, Zone: primitives.ZoneBattlefield}

	colorless := effects.NewSnapshot("relic", 0)
	colorless.SetBase([]string{"Artifact"}, nil, nil, nil, nil, nil, 0, 0, false, 0, false)
	state.objects["relic"] = ObjectInfo{Snapshot: colorless, Zone: primitives.ZoneBattlefield}

	v := NewValidator(state)

	// The trigger came from the dragon even though the relic's ability targets.
	ctx := Context{SourceID: "relic", Controller: 0, TriggeringSourceID: "dragon"}
	err := v.Validate("paladin", NewObjectRequirement("Creature"), ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestValidatePhasedOut(t *testing.T) {
	state := newFakeState()
	state.addCreature("drifter", 1, nil, nil)
	info := state.objects["drifter"]
	info.PhasedOut = true
	state.objects["drifter"] = info

	v := NewValidator(state)

	err := v.Validate("drifter", NewObjectRequirement("Creature"), Context{Controller: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))

	req := NewObjectRequirement("Creature")
	req.AllowPhasedOut = true
	assert.NoError(t, v.Validate("drifter", req, Context{Controller: 0}))
}

func TestValidateZoneMismatch(t *testing.T) {
	state := newFakeState()
	state.addCreature("bear", 1, nil, nil)
	info := state.objects["bear"]
	info.Zone = primitives.ZoneGraveyard
	state.objects["bear"] = info

	v := NewValidator(state)
	err := v.Validate("bear", NewObjectRequirement("Creature"), Context{Controller: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestValidatePlayers(t *testing.T) {
	state := newFakeState()
	state.players["0"] = PlayerInfo{ID: 0}
	state.players["1"] = PlayerInfo{ID: 1, Removed: true}

	v := NewValidator(state)

	assert.NoError(t, v.Validate("0", NewPlayerRequirement(), Context{Controller: 0}))

	err := v.Validate("1", NewPlayerRequirement(), Context{Controller: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))

	// A player target does not satisfy an object requirement.
	err = v.Validate("0", NewObjectRequirement("Creature"), Context{Controller: 0})
	require.Error(t, err)

	// ANY accepts players.
	req := Requirement{Type: TargetTypeAny, Zone: primitives.ZoneBattlefield, ControllerIs: -1}
	assert.NoError(t, v.Validate("0", req, Context{Controller: 0}))
}

func TestValidateStackItem(t *testing.T) {
	state := newFakeState()
	state.stack["spell-1"] = true

	v := NewValidator(state)
	req := Requirement{Type: TargetTypeStackItem, ControllerIs: -1}

	assert.NoError(t, v.Validate("spell-1", req, Context{Controller: 0}))

	err := v.Validate("spell-2", req, Context{Controller: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestValidateTypeAndControllerFilters(t *testing.T) {
	state := newFakeState()
	state.addCreature("bear", 1, nil, nil)

	v := NewValidator(state)

	err := v.Validate("bear", NewObjectRequirement("Artifact"), Context{Controller: 0})
	require.Error(t, err)

	req := NewObjectRequirement("Creature")
	req.Subtypes = []string{"Elf"}
	require.Error(t, v.Validate("bear", req, Context{Controller: 0}))

	req = NewObjectRequirement("Creature")
	req.ControllerIs = 0
	require.Error(t, v.Validate("bear", req, Context{Controller: 0}))

	req.ControllerIs = 1
	assert.NoError(t, v.Validate("bear", req, Context{Controller: 0}))
}

func TestValidateAll(t *testing.T) {
	state := newFakeState()
	state.addCreature("bear", 1, nil, nil)
	state.addCreature("shrouded", 1, []string{"Shroud"}, nil)

	v := NewValidator(state)
	ctx := Context{SourceID: "spell", Controller: 0}
	reqs := []Requirement{NewObjectRequirement("Creature"), NewObjectRequirement("Creature")}

	assert.NoError(t, v.ValidateAll([]string{"bear"}, reqs, ctx))

	err := v.ValidateAll([]string{"bear", "shrouded"}, reqs, ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}
