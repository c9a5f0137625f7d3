package rules

import (
	"testing"
)

func TestTurnManagerStepSequence(t *testing.T) {
	tm := NewTurnManager(0, 2)

	if tm.CurrentPhase() != PhaseBeginning || tm.CurrentStep() != StepUntap {
		t.Fatalf("expected BEGINNING/UNTAP at start, got %s/%s", tm.CurrentPhase(), tm.CurrentStep())
	}

	wantSteps := []Step{
		StepUpkeep, StepDraw, StepMain1,
		StepBeginCombat, StepDeclareAttackers, StepDeclareBlockers, StepCombatDamage, StepEndCombat,
		StepMain2, StepEnd, StepCleanup,
	}
	for _, want := range wantSteps {
		_, step, newTurn := tm.AdvanceStep()
		if newTurn {
			t.Fatalf("unexpected turn rollover at %s", step)
		}
		if step != want {
			t.Fatalf("expected %s, got %s", want, step)
		}
	}

	// Off cleanup: new turn, active player rotates.
	phase, step, newTurn := tm.AdvanceStep()
	if !newTurn {
		t.Fatal("expected a new turn after cleanup")
	}
	if phase != PhaseBeginning || step != StepUntap {
		t.Fatalf("expected new turn to start at BEGINNING/UNTAP, got %s/%s", phase, step)
	}
	if tm.TurnNumber() != 2 {
		t.Fatalf("expected turn 2, got %d", tm.TurnNumber())
	}
	if tm.ActivePlayer() != 1 {
		t.Fatalf("expected active player 1, got %d", tm.ActivePlayer())
	}
}

func TestTurnManagerRotationWraps(t *testing.T) {
	tm := NewTurnManager(1, 2)

	for i := 0; i < len(turnSequence); i++ {
		tm.AdvanceStep()
	}

	if tm.ActivePlayer() != 0 {
		t.Fatalf("expected rotation back to player 0, got %d", tm.ActivePlayer())
	}
}

func TestTurnManagerSetPosition(t *testing.T) {
	tm := NewTurnManager(0, 2)
	tm.SetPosition(7, 1, PhaseCombat, StepDeclareBlockers)

	if tm.TurnNumber() != 7 {
		t.Fatalf("expected turn 7, got %d", tm.TurnNumber())
	}
	if tm.ActivePlayer() != 1 {
		t.Fatalf("expected active player 1, got %d", tm.ActivePlayer())
	}
	if tm.CurrentPhase() != PhaseCombat || tm.CurrentStep() != StepDeclareBlockers {
		t.Fatalf("expected COMBAT/DECLARE_BLOCKERS, got %s/%s", tm.CurrentPhase(), tm.CurrentStep())
	}

	_, step, _ := tm.AdvanceStep()
	if step != StepCombatDamage {
		t.Fatalf("expected COMBAT_DAMAGE after declare blockers, got %s", step)
	}
}

func TestParsePhaseAndStepRoundTrip(t *testing.T) {
	for phase := range phaseNames {
		parsed, err := ParsePhase(phase.String())
		if err != nil {
			t.Fatalf("parse phase %s: %v", phase, err)
		}
		if parsed != phase {
			t.Fatalf("phase %s round-tripped to %s", phase, parsed)
		}
	}
	for step := range stepNames {
		parsed, err := ParseStep(step.String())
		if err != nil {
			t.Fatalf("parse step %s: %v", step, err)
		}
		if parsed != step {
			t.Fatalf("step %s round-tripped to %s", step, parsed)
		}
	}

	if _, err := ParsePhase("NOT_A_PHASE"); err == nil {
		t.Fatal("expected error for unknown phase")
	}
	if _, err := ParseStep("NOT_A_STEP"); err == nil {
		t.Fatal("expected error for unknown step")
	}
}

func TestAutomaticOnlySteps(t *testing.T) {
	if !StepUntap.AutomaticOnly() {
		t.Fatal("untap should be automatic only")
	}
	if !StepCleanup.AutomaticOnly() {
		t.Fatal("cleanup should be automatic only")
	}
	if StepUpkeep.AutomaticOnly() {
		t.Fatal("upkeep should grant priority")
	}
	if StepMain1.AutomaticOnly() {
		t.Fatal("main phase should grant priority")
	}
}
