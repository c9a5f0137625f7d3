package rules

import (
	"testing"
)

func TestPriorityPassRing(t *testing.T) {
	pt := NewPriorityTracker(0, 2)

	if pt.Holder() != 0 {
		t.Fatalf("expected player 0 to hold priority, got %d", pt.Holder())
	}

	if pt.Pass() {
		t.Fatal("one pass out of two should not complete the round")
	}
	if pt.Holder() != 1 {
		t.Fatalf("expected priority to move to player 1, got %d", pt.Holder())
	}

	if !pt.Pass() {
		t.Fatal("second pass should complete the round")
	}
	if !pt.AllPassed() {
		t.Fatal("expected AllPassed after a full round")
	}
}

func TestPriorityGrantResetsPasses(t *testing.T) {
	pt := NewPriorityTracker(0, 2)
	pt.Pass()

	pt.Grant(0)
	if pt.Holder() != 0 {
		t.Fatalf("expected holder 0 after grant, got %d", pt.Holder())
	}
	if pt.AllPassed() {
		t.Fatal("grant should clear the pass count")
	}

	// A fresh full round is needed again.
	if pt.Pass() {
		t.Fatal("expected first pass after grant not to complete the round")
	}
	if !pt.Pass() {
		t.Fatal("expected second pass to complete the round")
	}
}

func TestPriorityResetPassesOnAction(t *testing.T) {
	pt := NewPriorityTracker(0, 3)
	pt.Pass()
	pt.Pass()

	// A player responds instead of passing.
	pt.ResetPasses()

	if pt.Pass() || pt.Pass() {
		t.Fatal("pass count should restart after an action")
	}
	if !pt.Pass() {
		t.Fatal("all three players passing should complete the round")
	}
}
