package counters

import (
	"testing"

	"github.com/manaforge/rules-engine/internal/game/primitives"
)

func TestBagAddRemove(t *testing.T) {
	bag := NewBag()

	bag.Add(primitives.CounterPlusOnePlusOne, 3)
	if bag.Count(primitives.CounterPlusOnePlusOne) != 3 {
		t.Fatalf("expected 3 counters, got %d", bag.Count(primitives.CounterPlusOnePlusOne))
	}

	// Negative and zero adds are ignored.
	bag.Add(primitives.CounterPlusOnePlusOne, -2)
	bag.Add(primitives.CounterPlusOnePlusOne, 0)
	if bag.Count(primitives.CounterPlusOnePlusOne) != 3 {
		t.Fatalf("expected count unchanged, got %d", bag.Count(primitives.CounterPlusOnePlusOne))
	}

	removed := bag.Remove(primitives.CounterPlusOnePlusOne, 5)
	if removed != 3 {
		t.Fatalf("expected to remove only 3, got %d", removed)
	}
	if bag.Count(primitives.CounterPlusOnePlusOne) != 0 {
		t.Fatalf("expected empty bag, got %d", bag.Count(primitives.CounterPlusOnePlusOne))
	}
	if _, present := bag[primitives.CounterPlusOnePlusOne]; present {
		t.Fatal("expected exhausted kind to be deleted from the bag")
	}
}

func TestBoostValues(t *testing.T) {
	tests := []struct {
		kind    primitives.CounterKind
		p, t    int
		isBoost bool
	}{
		{primitives.CounterPlusOnePlusOne, 1, 1, true},
		{primitives.CounterMinusOneMinusOne, -1, -1, true},
		{primitives.InternCounterKind("+2/+0"), 2, 0, true},
		{primitives.InternCounterKind("-0/-2"), 0, -2, true},
		{primitives.CounterLoyalty, 0, 0, false},
		{primitives.CounterCharge, 0, 0, false},
	}
	for _, tc := range tests {
		p, tough, ok := BoostValues(tc.kind)
		if ok != tc.isBoost {
			t.Fatalf("%s: expected boost=%v, got %v", tc.kind, tc.isBoost, ok)
		}
		if p != tc.p || tough != tc.t {
			t.Fatalf("%s: expected %+d/%+d, got %+d/%+d", tc.kind, tc.p, tc.t, p, tough)
		}
	}
}

func TestPTContribution(t *testing.T) {
	bag := NewBag()
	bag.Add(primitives.CounterPlusOnePlusOne, 2)
	bag.Add(primitives.InternCounterKind("+2/+0"), 1)
	bag.Add(primitives.CounterLoyalty, 4)

	power, toughness := bag.PTContribution()
	if power != 4 || toughness != 2 {
		t.Fatalf("expected +4/+2, got %+d/%+d", power, toughness)
	}
}

func TestCancelOpposing(t *testing.T) {
	bag := NewBag()
	bag.Add(primitives.CounterPlusOnePlusOne, 3)
	bag.Add(primitives.CounterMinusOneMinusOne, 1)

	pairs := bag.CancelOpposing()
	if pairs != 1 {
		t.Fatalf("expected 1 pair removed, got %d", pairs)
	}
	if bag.Count(primitives.CounterPlusOnePlusOne) != 2 {
		t.Fatalf("expected 2 +1/+1 left, got %d", bag.Count(primitives.CounterPlusOnePlusOne))
	}
	if bag.Count(primitives.CounterMinusOneMinusOne) != 0 {
		t.Fatalf("expected 0 -1/-1 left, got %d", bag.Count(primitives.CounterMinusOneMinusOne))
	}

	// Idempotent once one side is exhausted.
	if bag.CancelOpposing() != 0 {
		t.Fatal("expected no further pairs")
	}
}

func TestBagCopyIsIndependent(t *testing.T) {
	bag := NewBag()
	bag.Add(primitives.CounterCharge, 2)

	cpy := bag.Copy()
	cpy.Add(primitives.CounterCharge, 5)

	if bag.Count(primitives.CounterCharge) != 2 {
		t.Fatalf("expected original untouched, got %d", bag.Count(primitives.CounterCharge))
	}
}

func TestBagKindsSorted(t *testing.T) {
	bag := NewBag()
	bag.Add(primitives.CounterTime, 1)
	bag.Add(primitives.CounterCharge, 1)
	bag.Add(primitives.CounterPlusOnePlusOne, 1)

	kinds := bag.Kinds()
	if len(kinds) != 3 {
		t.Fatalf("expected 3 kinds, got %d", len(kinds))
	}
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] >= kinds[i] {
			t.Fatalf("kinds not sorted: %v", kinds)
		}
	}
}
