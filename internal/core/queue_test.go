package core

import (
	"errors"
	"testing"
)

func toggle(name string) Command {
	return Command{Kind: CommandToggle, Button: name}
}

func TestCommandQueueFIFO(t *testing.T) {
	q := NewCommandQueue(8)

	names := []string{"POWER", "MARKER", "BLUEONLY", "COMB"}
	for _, n := range names {
		if err := q.Push(toggle(n)); err != nil {
			t.Fatalf("Push(%s) unexpected error: %v", n, err)
		}
	}

	for _, want := range names {
		cmd, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() returned empty, want %s", want)
		}
		if cmd.Button != want {
			t.Errorf("Pop() = %s, want %s", cmd.Button, want)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue returned a command")
	}
}

func TestCommandQueueWrapAround(t *testing.T) {
	q := NewCommandQueue(3)

	// Fill, half-drain, refill: the ring must keep FIFO order across the wrap.
	mustPush := func(n string) {
		t.Helper()
		if err := q.Push(toggle(n)); err != nil {
			t.Fatalf("Push(%s): %v", n, err)
		}
	}
	mustPush("A")
	mustPush("B")
	mustPush("C")
	if cmd, _ := q.Pop(); cmd.Button != "A" {
		t.Fatalf("Pop() = %s, want A", cmd.Button)
	}
	mustPush("D")

	for _, want := range []string{"B", "C", "D"} {
		cmd, ok := q.Pop()
		if !ok || cmd.Button != want {
			t.Errorf("Pop() = %s (ok=%v), want %s", cmd.Button, ok, want)
		}
	}
}

func TestCommandQueueBackpressure(t *testing.T) {
	q := NewCommandQueue(2)

	if err := q.Push(toggle("A")); err != nil {
		t.Fatalf("Push(A): %v", err)
	}
	if err := q.Push(toggle("B")); err != nil {
		t.Fatalf("Push(B): %v", err)
	}

	// Third push must fail and leave contents untouched.
	if err := q.Push(toggle("C")); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Push(C) = %v, want ErrQueueFull", err)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d after rejected push, want 2", q.Len())
	}

	for _, want := range []string{"A", "B"} {
		cmd, ok := q.Pop()
		if !ok || cmd.Button != want {
			t.Errorf("Pop() = %s (ok=%v), want %s", cmd.Button, ok, want)
		}
	}
}

func TestCommandQueueDefaultCapacity(t *testing.T) {
	q := NewCommandQueue(0)
	if q.Cap() != DefaultQueueCapacity {
		t.Errorf("Cap() = %d, want %d", q.Cap(), DefaultQueueCapacity)
	}
}
