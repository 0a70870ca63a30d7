package breaker

import "time"

// transitionToHalfOpenLocked moves inner.state to HalfOpen, clearing the
// counters a fresh probe window starts from. Caller must hold b.mu.
func (b *Breaker) transitionToHalfOpenLocked(now time.Time, reason string) TransitionEvent {
	from := b.inner.state
	b.inner.state = StateHalfOpen
	b.inner.halfOpenEnteredAt = &now
	b.inner.consecutiveFailures = 0
	b.inner.consecutiveSuccess = 0
	b.inner.halfOpenConcurrency = 0
	b.inner.lastTransition = now
	b.inner.metrics.ConsecutiveFailures = 0
	b.inner.metrics.ConsecutiveSuccesses = 0
	b.inner.metrics.State = StateHalfOpen
	b.inner.metrics.LastTransitionTimestamp = &now
	return TransitionEvent{From: from, To: StateHalfOpen, Timestamp: now, Reason: reason}
}

// transitionToOpenLocked moves inner.state to Open. Caller must hold b.mu.
func (b *Breaker) transitionToOpenLocked(now time.Time, reason string) TransitionEvent {
	from := b.inner.state
	b.inner.state = StateOpen
	b.inner.openedAt = &now
	b.inner.lastTransition = now
	b.inner.metrics.State = StateOpen
	b.inner.metrics.LastTransitionTimestamp = &now
	return TransitionEvent{From: from, To: StateOpen, Timestamp: now, Reason: reason}
}

// transitionToClosedLocked moves inner.state to Closed, clearing every
// counter. Caller must hold b.mu.
func (b *Breaker) transitionToClosedLocked(now time.Time, reason string) TransitionEvent {
	from := b.inner.state
	b.inner.state = StateClosed
	b.inner.openedAt = nil
	b.inner.halfOpenEnteredAt = nil
	b.inner.consecutiveFailures = 0
	b.inner.consecutiveSuccess = 0
	b.inner.halfOpenConcurrency = 0
	b.inner.lastTransition = now
	b.inner.metrics.ConsecutiveFailures = 0
	b.inner.metrics.ConsecutiveSuccesses = 0
	b.inner.metrics.State = StateClosed
	b.inner.metrics.LastTransitionTimestamp = &now
	return TransitionEvent{From: from, To: StateClosed, Timestamp: now, Reason: reason}
}

// shouldOpenLocked implements the three Closed->Open trip conditions —
// a consecutive-failure streak, a failure rate over the sliding window
// once enough samples exist, or a slow-call rate over its own window
// when that threshold is configured — and reports which one fired, so
// the resulting TransitionEvent.Reason records the actual trigger
// rather than a single generic message. Caller must hold b.mu.
func (b *Breaker) shouldOpenLocked() (bool, string) {
	if b.inner.consecutiveFailures >= b.config.FailureThreshold {
		return true, "consecutive failure threshold reached"
	}
	if uint32(b.inner.resultsWindow.len()) >= b.config.MinimumRequestThresholdForRate {
		if b.inner.resultsWindow.rateOf(false) >= b.config.FailureRateThreshold {
			return true, "failure rate threshold reached"
		}
	}
	if b.config.SlowCallRateThreshold != nil && b.inner.slowCallWindow.len() > 0 {
		if b.inner.slowCallWindow.rateOf(true) >= *b.config.SlowCallRateThreshold {
			return true, "slow call rate threshold reached"
		}
	}
	return false, ""
}

// updateRatesLocked recomputes the derived rate fields of inner.metrics
// from the current window contents. Caller must hold b.mu.
func (b *Breaker) updateRatesLocked() {
	if b.inner.resultsWindow.len() == 0 {
		b.inner.metrics.FailureRateInWindow = nil
	} else {
		r := b.inner.resultsWindow.rateOf(false)
		b.inner.metrics.FailureRateInWindow = &r
	}
	if b.inner.slowCallWindow.len() == 0 {
		b.inner.metrics.SlowCallRateInWindow = nil
	} else {
		r := b.inner.slowCallWindow.rateOf(true)
		b.inner.metrics.SlowCallRateInWindow = &r
	}
}

func (b *Breaker) isSlow(d time.Duration) bool {
	if b.config.SlowCallDurationThreshold == nil {
		return false
	}
	return d >= *b.config.SlowCallDurationThreshold
}

func (b *Breaker) shouldCountFailure(err error) bool {
	if err == nil {
		return false
	}
	if b.config.ErrorPredicate == nil {
		return true
	}
	return b.config.ErrorPredicate(err)
}

// recordOutcome updates counters, the sliding windows, and derived
// metrics for one completed (non-timeout) operation, then evaluates
// whether this outcome should trigger a state transition. When counted
// is false — either because the operation succeeded or because the
// configured ErrorPredicate decided its error doesn't count as a
// failure — it is recorded exactly like a real success: this mirrors
// the reference implementation's own behavior of routing
// predicate-filtered errors through the success path for state-machine
// purposes while still returning the original error to the caller.
func (b *Breaker) recordOutcome(state State, counted bool, duration time.Duration) *TransitionEvent {
	now := time.Now()
	wasSlow := b.isSlow(duration)

	b.mu.Lock()
	if counted {
		b.inner.consecutiveFailures++
		b.inner.consecutiveSuccess = 0
		b.inner.resultsWindow.push(false)
		b.inner.metrics.FailedRequests++
		b.inner.metrics.ConsecutiveFailures = b.inner.consecutiveFailures
		b.inner.metrics.ConsecutiveSuccesses = 0
		b.inner.metrics.LastErrorTimestamp = &now
	} else {
		b.inner.consecutiveSuccess++
		b.inner.consecutiveFailures = 0
		b.inner.resultsWindow.push(true)
		b.inner.metrics.SuccessfulRequests++
		b.inner.metrics.ConsecutiveSuccesses = b.inner.consecutiveSuccess
		b.inner.metrics.ConsecutiveFailures = 0
	}
	b.inner.slowCallWindow.push(wasSlow)
	b.inner.metrics.TotalRequests++
	b.updateRatesLocked()

	var event *TransitionEvent
	switch state {
	case StateClosed:
		if counted {
			if trip, reason := b.shouldOpenLocked(); trip {
				e := b.transitionToOpenLocked(now, reason)
				event = &e
			}
		}
	case StateHalfOpen:
		if counted {
			e := b.transitionToOpenLocked(now, "failure in half-open state")
			event = &e
		} else if b.inner.consecutiveSuccess >= b.config.SuccessThresholdToClose {
			e := b.transitionToClosedLocked(now, "success threshold reached")
			event = &e
		}
	}
	b.mu.Unlock()
	return event
}

// recordTimeout is recordOutcome's counterpart for an operation that
// exceeded its deadline: always counted as a failure for the
// state-machine and for consecutive/window bookkeeping, but tallied
// under TimeoutRequests rather than FailedRequests so that
// TotalRequests == Successful + Failed + Rejected + Timeout holds.
func (b *Breaker) recordTimeout(state State, duration time.Duration) *TransitionEvent {
	now := time.Now()

	b.mu.Lock()
	b.inner.consecutiveFailures++
	b.inner.consecutiveSuccess = 0
	b.inner.resultsWindow.push(false)
	b.inner.slowCallWindow.push(b.isSlow(duration))
	b.inner.metrics.TotalRequests++
	b.inner.metrics.TimeoutRequests++
	b.inner.metrics.ConsecutiveFailures = b.inner.consecutiveFailures
	b.inner.metrics.ConsecutiveSuccesses = 0
	b.inner.metrics.LastErrorTimestamp = &now
	b.updateRatesLocked()

	var event *TransitionEvent
	switch state {
	case StateClosed:
		if trip, reason := b.shouldOpenLocked(); trip {
			e := b.transitionToOpenLocked(now, reason)
			event = &e
		}
	case StateHalfOpen:
		e := b.transitionToOpenLocked(now, "timeout in half-open state")
		event = &e
	}
	b.mu.Unlock()
	return event
}

// wouldTripOnNextFailureLocked simulates one more counted failure
// against the current counters and window, without mutating either, to
// answer Diagnostics' predictive WillTripOnNextFailure field. Caller
// must hold b.mu (read lock suffices). In HalfOpen any counted failure
// reopens the breaker, so it reports true; while Open it reports false.
func (b *Breaker) wouldTripOnNextFailureLocked() bool {
	switch b.inner.state {
	case StateHalfOpen:
		return true
	case StateOpen:
		return false
	}
	if b.inner.consecutiveFailures+1 >= b.config.FailureThreshold {
		return true
	}
	simulatedLen := b.inner.resultsWindow.len()
	simulatedFalse := b.inner.resultsWindow.countFalse()
	if simulatedLen == b.inner.resultsWindow.capacity && simulatedLen > 0 {
		// A push into a full window evicts the oldest entry first.
		if !b.inner.resultsWindow.data[0] {
			simulatedFalse--
		}
		simulatedLen--
	}
	simulatedLen++
	simulatedFalse++
	if uint32(simulatedLen) >= b.config.MinimumRequestThresholdForRate {
		if float64(simulatedFalse)/float64(simulatedLen) >= b.config.FailureRateThreshold {
			return true
		}
	}
	return false
}
