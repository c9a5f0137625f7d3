package rules

import (
	"errors"
	"testing"
)

func TestStackLIFO(t *testing.T) {
	stack := NewStackManager()

	stack.Push(StackItem{ID: "first", Controller: 0})
	stack.Push(StackItem{ID: "second", Controller: 1})
	stack.Push(StackItem{ID: "third", Controller: 0})

	if stack.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", stack.Len())
	}

	for _, want := range []string{"third", "second", "first"} {
		item, err := stack.Pop()
		if err != nil {
			t.Fatalf("unexpected pop error: %v", err)
		}
		if item.ID != want {
			t.Fatalf("expected %s, got %s", want, item.ID)
		}
	}

	if !stack.IsEmpty() {
		t.Fatal("expected stack to be empty")
	}
}

func TestStackPopEmpty(t *testing.T) {
	stack := NewStackManager()

	_, err := stack.Pop()
	if !errors.Is(err, ErrStackEmpty) {
		t.Fatalf("expected ErrStackEmpty, got %v", err)
	}
}

func TestStackPeekDoesNotRemove(t *testing.T) {
	stack := NewStackManager()
	stack.Push(StackItem{ID: "only"})

	item, ok := stack.Peek()
	if !ok || item.ID != "only" {
		t.Fatalf("expected to peek 'only', got %v %v", item.ID, ok)
	}
	if stack.Len() != 1 {
		t.Fatalf("expected peek to leave the stack intact, len %d", stack.Len())
	}
}

func TestStackRemoveByID(t *testing.T) {
	stack := NewStackManager()
	stack.Push(StackItem{ID: "bottom"})
	stack.Push(StackItem{ID: "middle"})
	stack.Push(StackItem{ID: "top"})

	removed, ok := stack.Remove("middle")
	if !ok || removed.ID != "middle" {
		t.Fatalf("expected to remove middle, got %v %v", removed.ID, ok)
	}

	items := stack.List()
	if len(items) != 2 || items[0].ID != "bottom" || items[1].ID != "top" {
		t.Fatalf("expected [bottom top], got %v", items)
	}

	if _, ok := stack.Remove("missing"); ok {
		t.Fatal("expected removal of a missing id to fail")
	}
}

func TestStackRemoveTopControlledBy(t *testing.T) {
	stack := NewStackManager()
	stack.Push(StackItem{ID: "a", Controller: 0})
	stack.Push(StackItem{ID: "b", Controller: 1})
	stack.Push(StackItem{ID: "c", Controller: 0})

	removed, ok := stack.RemoveTopControlledBy(0)
	if !ok || removed.ID != "c" {
		t.Fatalf("expected to remove topmost item of player 0 (c), got %v %v", removed.ID, ok)
	}

	removed, ok = stack.RemoveTopControlledBy(0)
	if !ok || removed.ID != "a" {
		t.Fatalf("expected to remove a next, got %v %v", removed.ID, ok)
	}

	if _, ok := stack.RemoveTopControlledBy(0); ok {
		t.Fatal("expected no more items for player 0")
	}
}

func TestStackListIsBottomToTop(t *testing.T) {
	stack := NewStackManager()
	stack.Push(StackItem{ID: "x"})
	stack.Push(StackItem{ID: "y"})

	items := stack.List()
	if len(items) != 2 || items[0].ID != "x" || items[1].ID != "y" {
		t.Fatalf("expected [x y], got %v", items)
	}

	// The returned slice is a copy.
	items[0].ID = "mutated"
	fresh := stack.List()
	if fresh[0].ID != "x" {
		t.Fatal("expected List to return a copy")
	}
}
