package breaker

import "testing"

func TestBoolWindowEvictsOldest(t *testing.T) {
	w := newBoolWindow(3)
	w.push(true)
	w.push(true)
	w.push(true)
	w.push(false)

	if got := w.len(); got != 3 {
		t.Fatalf("len = %d, want 3", got)
	}
	if got := w.rateOf(false); got != 1.0/3.0 {
		t.Fatalf("rateOf(false) = %v, want 1/3", got)
	}
}

func TestBoolWindowRateOfEmpty(t *testing.T) {
	w := newBoolWindow(5)
	if got := w.rateOf(true); got != 0 {
		t.Fatalf("rateOf on empty window = %v, want 0", got)
	}
}

func TestBoolWindowClear(t *testing.T) {
	w := newBoolWindow(4)
	w.push(true)
	w.push(false)
	w.clear()
	if got := w.len(); got != 0 {
		t.Fatalf("len after clear = %d, want 0", got)
	}
}

func TestBoolWindowZeroCapacityIsNoOp(t *testing.T) {
	w := newBoolWindow(0)
	w.push(true)
	if got := w.len(); got != 0 {
		t.Fatalf("len on zero-capacity window = %d, want 0", got)
	}
}
