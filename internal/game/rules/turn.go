package rules

import (
	"fmt"
	"strings"
)

// Phase represents the broad phases of a turn.
type Phase int

const (
	PhaseBeginning Phase = iota
	PhasePrecombatMain
	PhaseCombat
	PhasePostcombatMain
	PhaseEnding
)

var phaseNames = map[Phase]string{
	PhaseBeginning:      "BEGINNING",
	PhasePrecombatMain:  "PRECOMBAT_MAIN",
	PhaseCombat:         "COMBAT",
	PhasePostcombatMain: "POSTCOMBAT_MAIN",
	PhaseEnding:         "ENDING",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// ParsePhase maps a snapshot phase name back to the enum.
func ParsePhase(name string) (Phase, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for phase, pname := range phaseNames {
		if pname == upper {
			return phase, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// Step represents the individual steps that comprise a turn.
type Step int

const (
	StepUntap Step = iota
	StepUpkeep
	StepDraw
	StepMain1
	StepBeginCombat
	StepDeclareAttackers
	StepDeclareBlockers
	StepCombatDamage
	StepEndCombat
	StepMain2
	StepEnd
	StepCleanup
)

var stepNames = map[Step]string{
	StepUntap:            "UNTAP",
	StepUpkeep:           "UPKEEP",
	StepDraw:             "DRAW",
	StepMain1:            "MAIN1",
	StepBeginCombat:      "BEGIN_COMBAT",
	StepDeclareAttackers: "DECLARE_ATTACKERS",
	StepDeclareBlockers:  "DECLARE_BLOCKERS",
	StepCombatDamage:     "COMBAT_DAMAGE",
	StepEndCombat:        "END_COMBAT",
	StepMain2:            "MAIN2",
	StepEnd:              "END",
	StepCleanup:          "CLEANUP",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STEP_%d", int(s))
}

// ParseStep maps a snapshot step name back to the enum.
func ParseStep(name string) (Step, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for step, sname := range stepNames {
		if sname == upper {
			return step, nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}

type turnEntry struct {
	phase Phase
	step  Step
}

// turnSequence is the fixed phase/step cycle.
var turnSequence = []turnEntry{
	{PhaseBeginning, StepUntap},
	{PhaseBeginning, StepUpkeep},
	{PhaseBeginning, StepDraw},
	{PhasePrecombatMain, StepMain1},
	{PhaseCombat, StepBeginCombat},
	{PhaseCombat, StepDeclareAttackers},
	{PhaseCombat, StepDeclareBlockers},
	{PhaseCombat, StepCombatDamage},
	{PhaseCombat, StepEndCombat},
	{PhasePostcombatMain, StepMain2},
	{PhaseEnding, StepEnd},
	{PhaseEnding, StepCleanup},
}

// AutomaticOnly reports whether priority is normally skipped in the step:
// untap never grants priority, cleanup grants it only when something triggers.
func (s Step) AutomaticOnly() bool {
	return s == StepUntap || s == StepCleanup
}

// TurnManager tracks the active player, turn number, and position in the
// fixed phase/step cycle.
type TurnManager struct {
	orderIndex   int
	turnNumber   int
	activePlayer int
	playerCount  int
}

// NewTurnManager creates a turn manager at turn 1, untap step.
func NewTurnManager(activePlayer, playerCount int) *TurnManager {
	if playerCount < 1 {
		playerCount = 1
	}
	return &TurnManager{
		turnNumber:   1,
		activePlayer: activePlayer,
		playerCount:  playerCount,
	}
}

// SetPosition places the manager at an explicit turn/phase/step. Used when
// rehydrating from a snapshot.
func (tm *TurnManager) SetPosition(turnNumber, activePlayer int, phase Phase, step Step) {
	tm.turnNumber = turnNumber
	tm.activePlayer = activePlayer
	for i, entry := range turnSequence {
		if entry.phase == phase && entry.step == step {
			tm.orderIndex = i
			return
		}
	}
	tm.orderIndex = 0
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return turnSequence[tm.orderIndex].phase
}

// CurrentStep returns the step currently in progress.
func (tm *TurnManager) CurrentStep() Step {
	return turnSequence[tm.orderIndex].step
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the player whose turn it is.
func (tm *TurnManager) ActivePlayer() int {
	return tm.activePlayer
}

// AdvanceStep advances to the next step in the turn cycle. Passing cleanup
// starts a new turn: the turn number is incremented and the active player
// rotates to the next index.
func (tm *TurnManager) AdvanceStep() (Phase, Step, bool) {
	tm.orderIndex++
	newTurn := false
	if tm.orderIndex >= len(turnSequence) {
		tm.orderIndex = 0
		tm.turnNumber++
		tm.activePlayer = (tm.activePlayer + 1) % tm.playerCount
		newTurn = true
	}
	return tm.CurrentPhase(), tm.CurrentStep(), newTurn
}
