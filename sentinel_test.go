package sentinel

import (
	"errors"
	"testing"
)

func TestFacadeConstructsAndExecutes(t *testing.T) {
	cb := New("facade", DefaultConfig())
	if cb.State() != StateClosed {
		t.Fatalf("new breaker state = %v, want Closed", cb.State())
	}

	_, err := cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })
	if err == nil {
		t.Fatalf("expected the operation's own error to propagate")
	}

	m := cb.Metrics()
	if m.FailedRequests != 1 {
		t.Fatalf("FailedRequests = %d, want 1", m.FailedRequests)
	}
}

func TestFacadeTripAndReset(t *testing.T) {
	cb := New("facade-trip", DefaultConfig())
	cb.Trip()
	if cb.State() != StateOpen {
		t.Fatalf("state after Trip = %v, want Open", cb.State())
	}
	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("state after Reset = %v, want Closed", cb.State())
	}
}
