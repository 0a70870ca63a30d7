package breaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/1mb-dev/sentinel/errs"
)

func errFailure() (interface{}, error) {
	return nil, errors.New("boom")
}

func okSuccess() (interface{}, error) {
	return "ok", nil
}

// S1: three consecutive failures trip the breaker; an immediate fourth
// call is rejected with retry_after <= reset_timeout; after the reset
// timeout elapses, two consecutive successes through HalfOpen close it.
func TestScenarioS1ConsecutiveFailuresTripAndRecover(t *testing.T) {
	cb := New("s1", Config{
		FailureThreshold:                3,
		ResetTimeout:                    50 * time.Millisecond,
		SuccessThresholdToClose:         2,
		HalfOpenMaxConcurrentOperations: 1,
	})

	for i := 0; i < 3; i++ {
		cb.Execute(errFailure)
	}
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state after 3 failures = %v, want Open", got)
	}

	_, err := cb.Execute(okSuccess)
	var openErr *errs.CircuitBreakerOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *errs.CircuitBreakerOpenError, got %v", err)
	}
	if openErr.RetryAfter == nil || *openErr.RetryAfter > 50*time.Millisecond {
		t.Fatalf("RetryAfter = %v, want <= 50ms", openErr.RetryAfter)
	}

	time.Sleep(60 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(okSuccess); err != nil {
			t.Fatalf("half-open success %d: unexpected error %v", i, err)
		}
	}
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state after 2 half-open successes = %v, want Closed", got)
	}
}

// S2: with HalfOpenMaxConcurrentOperations=1, only one of two concurrent
// executes during HalfOpen is admitted; the other is rejected and does
// not affect consecutive counters.
func TestScenarioS2HalfOpenConcurrencyLimit(t *testing.T) {
	cb := New("s2", Config{
		FailureThreshold:                3,
		ResetTimeout:                    20 * time.Millisecond,
		SuccessThresholdToClose:         2,
		HalfOpenMaxConcurrentOperations: 1,
	})
	for i := 0; i < 3; i++ {
		cb.Execute(errFailure)
	}
	time.Sleep(25 * time.Millisecond)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	var firstErr, secondErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = cb.Execute(func() (interface{}, error) {
			close(started)
			<-release
			return "ok", nil
		})
	}()

	<-started
	time.Sleep(10 * time.Millisecond)
	_, secondErr = cb.Execute(okSuccess)
	close(release)
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("admitted half-open call: unexpected error %v", firstErr)
	}
	var openErr *errs.CircuitBreakerOpenError
	if !errors.As(secondErr, &openErr) {
		t.Fatalf("expected *errs.CircuitBreakerOpenError for second concurrent call, got %v", secondErr)
	}
	if openErr.RetryAfter == nil || *openErr.RetryAfter != halfOpenRejectRetryAfter {
		t.Fatalf("RetryAfter = %v, want exactly %v", openErr.RetryAfter, halfOpenRejectRetryAfter)
	}
}

// S3: a 60% failure rate over a 10-sample window trips the breaker even
// though the consecutive-failure threshold is never reached.
func TestScenarioS3FailureRateTrip(t *testing.T) {
	cb := New("s3", Config{
		FailureThreshold:               1000,
		FailureRateThreshold:           0.5,
		MinimumRequestThresholdForRate: 10,
		SlidingWindowSize:              20,
	})

	outcomes := []bool{false, true, false, true, false, true, false, true, false, false}
	for _, success := range outcomes {
		if success {
			cb.Execute(okSuccess)
		} else {
			cb.Execute(errFailure)
		}
	}

	if got := cb.State(); got != StateOpen {
		t.Fatalf("state after 60%% failures over window = %v, want Open", got)
	}
}

// The reason recorded on a trip event must name the rule that actually
// fired, not a single generic message shared by all three trip
// conditions.
func TestTransitionReasonNamesTheRuleThatFired(t *testing.T) {
	var mu sync.Mutex
	var reasons []string
	record := recordingObserver{onStateChange: func(name string, e TransitionEvent) {
		if e.To != StateOpen {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		reasons = append(reasons, e.Reason)
	}}

	consecutive := New("reason-consecutive", Config{FailureThreshold: 2})
	consecutive.AddObserver(record)
	consecutive.Execute(errFailure)
	consecutive.Execute(errFailure)

	rate := New("reason-rate", Config{
		FailureThreshold:               1000,
		FailureRateThreshold:           0.5,
		MinimumRequestThresholdForRate: 4,
		SlidingWindowSize:              10,
	})
	rate.AddObserver(record)
	rate.Execute(errFailure)
	rate.Execute(okSuccess)
	rate.Execute(errFailure)
	rate.Execute(errFailure)

	mu.Lock()
	defer mu.Unlock()
	if len(reasons) != 2 {
		t.Fatalf("got %d trip events, want 2: %v", len(reasons), reasons)
	}
	if reasons[0] == reasons[1] {
		t.Fatalf("consecutive-failure and failure-rate trips recorded the same reason %q", reasons[0])
	}
}

// S4: an operation that never completes times out at OperationTimeout,
// is tallied under TimeoutRequests (not FailedRequests), and still
// advances ConsecutiveFailures.
func TestScenarioS4Timeout(t *testing.T) {
	timeout := 10 * time.Millisecond
	cb := New("s4", Config{
		FailureThreshold: 1000,
		OperationTimeout: &timeout,
	})

	start := time.Now()
	_, err := cb.Execute(func() (interface{}, error) {
		select {}
	})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed < timeout {
		t.Fatalf("returned before OperationTimeout elapsed: %v", elapsed)
	}

	m := cb.Metrics()
	if m.TimeoutRequests != 1 {
		t.Errorf("TimeoutRequests = %d, want 1", m.TimeoutRequests)
	}
	if m.FailedRequests != 0 {
		t.Errorf("FailedRequests = %d, want 0 (timeout must not double-count as failure)", m.FailedRequests)
	}
	if m.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", m.ConsecutiveFailures)
	}
}

// Invariant 4: TotalRequests always equals the sum of its four buckets.
func TestInvariantTotalRequestsEqualsSumOfBuckets(t *testing.T) {
	timeout := 10 * time.Millisecond
	cb := New("invariant4", Config{
		FailureThreshold:                2,
		ResetTimeout:                    15 * time.Millisecond,
		HalfOpenMaxConcurrentOperations: 1,
		OperationTimeout:                &timeout,
	})

	cb.Execute(errFailure)
	cb.Execute(errFailure) // trips to Open
	cb.Execute(okSuccess)  // rejected while Open

	time.Sleep(20 * time.Millisecond)
	cb.Execute(func() (interface{}, error) {
		select {}
	}) // half-open probe that times out, forced back to Open

	m := cb.Metrics()
	sum := m.SuccessfulRequests + m.FailedRequests + m.RejectedRequests + m.TimeoutRequests
	if sum != m.TotalRequests {
		t.Fatalf("TotalRequests=%d != sum of buckets=%d (%+v)", m.TotalRequests, sum, m)
	}
}

// Invariant 3: consecutive_failures and consecutive_successes are never
// both nonzero after a recorded outcome.
func TestInvariantConsecutiveCountersAreMutuallyExclusive(t *testing.T) {
	cb := New("invariant3", Config{FailureThreshold: 1000})

	for i := 0; i < 5; i++ {
		cb.Execute(okSuccess)
		m := cb.Metrics()
		if m.ConsecutiveFailures != 0 && m.ConsecutiveSuccesses != 0 {
			t.Fatalf("both counters nonzero after success: %+v", m)
		}
		cb.Execute(errFailure)
		m = cb.Metrics()
		if m.ConsecutiveFailures != 0 && m.ConsecutiveSuccesses != 0 {
			t.Fatalf("both counters nonzero after failure: %+v", m)
		}
	}
}

// Law: trip() followed immediately by reset() leaves state Closed, both
// counters zero, and both windows empty.
func TestLawTripThenResetClearsEverything(t *testing.T) {
	cb := New("trip-reset", Config{FailureThreshold: 3})
	cb.Execute(errFailure)
	cb.Execute(okSuccess)

	cb.Trip()
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state after Trip = %v, want Open", got)
	}

	cb.Reset()
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state after Reset = %v, want Closed", got)
	}
	m := cb.Metrics()
	if m.ConsecutiveFailures != 0 || m.ConsecutiveSuccesses != 0 {
		t.Fatalf("counters not cleared by Reset: %+v", m)
	}
	d := cb.Diagnostics()
	if d.Metrics.FailureRateInWindow != nil {
		t.Fatalf("expected empty window after Reset, got rate %v", *d.Metrics.FailureRateInWindow)
	}
}

// Law: a Closed breaker with failure_threshold=k and no error predicate
// transitions to Open exactly on the k-th consecutive recorded failure.
func TestLawKthConsecutiveFailureTrips(t *testing.T) {
	const k = 4
	cb := New("kth-failure", Config{FailureThreshold: k})

	for i := 1; i < k; i++ {
		cb.Execute(errFailure)
		if got := cb.State(); got != StateClosed {
			t.Fatalf("state after failure %d = %v, want Closed", i, got)
		}
	}
	cb.Execute(errFailure)
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state after %d-th failure = %v, want Open", k, got)
	}
}

func TestErrorPredicateFiltersFailures(t *testing.T) {
	sentinel := errors.New("ignored")
	cb := New("predicate", Config{
		FailureThreshold: 2,
		ErrorPredicate: func(err error) bool {
			return !errors.Is(err, sentinel)
		},
	})

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, sentinel })
		if err != sentinel {
			t.Fatalf("Execute returned %v, want the original predicate-filtered error", err)
		}
	}
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state after predicate-filtered failures = %v, want Closed", got)
	}
}

func TestAddObserverReceivesNotifications(t *testing.T) {
	cb := New("observer", Config{FailureThreshold: 1})

	var mu sync.Mutex
	var transitions []TransitionEvent
	cb.AddObserver(recordingObserver{onStateChange: func(name string, e TransitionEvent) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, e)
	}})

	cb.Execute(errFailure)

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 {
		t.Fatalf("got %d transitions, want 1", len(transitions))
	}
	if transitions[0].To != StateOpen {
		t.Errorf("transition.To = %v, want Open", transitions[0].To)
	}
}

func TestPanickingObserverIsIsolated(t *testing.T) {
	cb := New("panicking-observer", Config{FailureThreshold: 1})
	cb.AddObserver(recordingObserver{onStateChange: func(string, TransitionEvent) {
		panic("observer exploded")
	}})

	_, err := cb.Execute(errFailure)
	if err == nil {
		t.Fatalf("expected the operation's own error, got nil")
	}
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state after panicking observer = %v, want Open", got)
	}
}

type recordingObserver struct {
	onStateChange     func(name string, event TransitionEvent)
	onOperationResult func(name string, kind OutcomeKind, duration time.Duration, err error)
}

func (r recordingObserver) OnStateChange(name string, event TransitionEvent) {
	if r.onStateChange != nil {
		r.onStateChange(name, event)
	}
}
func (r recordingObserver) OnOperationAttempt(name string, state State) {}
func (r recordingObserver) OnOperationResult(name string, kind OutcomeKind, duration time.Duration, err error) {
	if r.onOperationResult != nil {
		r.onOperationResult(name, kind, duration, err)
	}
}
func (r recordingObserver) OnReset(name string) {}
