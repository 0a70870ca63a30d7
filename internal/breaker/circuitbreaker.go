package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/1mb-dev/sentinel/errs"
)

// halfOpenRejectRetryAfter is the fixed backoff a caller is told to wait
// after being rejected for exceeding the HalfOpen concurrency limit. It
// is a literal constant, not derived from ResetTimeout — a HalfOpen
// probe slot frees up far sooner than a full reset timeout.
const halfOpenRejectRetryAfter = 100 * time.Millisecond

func errConfigf(format string, args ...interface{}) error {
	return fmt.Errorf("breaker: invalid config: %s", fmt.Sprintf(format, args...))
}

// innerState is everything about a Breaker that changes after
// construction. It is guarded in its entirety by Breaker.mu — every
// field is read and written together under one lock, deliberately never
// split into independent atomics, because the transition rules below
// require multiple fields to move together atomically.
type innerState struct {
	state               State
	openedAt            *time.Time
	halfOpenEnteredAt   *time.Time
	consecutiveFailures uint32
	consecutiveSuccess  uint32
	halfOpenConcurrency uint32
	resultsWindow       *boolWindow
	slowCallWindow      *boolWindow
	metrics             Metrics
	lastTransition      time.Time
}

// Breaker is a circuit breaker: a gate in front of a risky operation
// that tracks its recent outcomes and, once they look bad enough, stops
// letting new attempts through until a cool-down elapses.
//
// A Breaker's mutable state lives entirely inside one RWMutex-guarded
// struct; its observer list lives behind a second, independent mutex.
// Both are necessary and neither is optional: sharing one lock between
// state and observers would mean observer callbacks run with the state
// lock held (risking deadlock if an observer calls back into the
// breaker), while splitting state itself across several atomics would
// make the Closed->Open and HalfOpen->Closed transitions — each of
// which reads and writes several fields together — impossible to make
// atomic without a separate coordinating lock anyway.
type Breaker struct {
	name   string
	config Config
	logger *zap.Logger

	mu    sync.RWMutex
	inner innerState

	observersMu sync.Mutex
	observers   []Observer
}

// New constructs a Breaker named name with the given configuration.
// Zero-valued FailureThreshold, FailureRateThreshold,
// MinimumRequestThresholdForRate, SuccessThresholdToClose, ResetTimeout,
// HalfOpenMaxConcurrentOperations and SlidingWindowSize are filled in
// from DefaultConfig; OperationTimeout, ErrorPredicate, the slow-call
// thresholds and TrackMetrics are used as given, so a nil
// OperationTimeout means no timeout is enforced. New panics
// if the resulting configuration is invalid — an invalid config is a
// programming error, not a runtime condition callers should handle.
func New(name string, cfg Config) *Breaker {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		panic(err)
	}

	logger := zap.NewNop()

	now := time.Now()
	return &Breaker{
		name:   name,
		config: cfg,
		logger: logger,
		inner: innerState{
			state:          StateClosed,
			resultsWindow:  newBoolWindow(int(cfg.SlidingWindowSize)),
			slowCallWindow: newBoolWindow(int(cfg.SlidingWindowSize)),
			metrics:        Metrics{State: StateClosed},
			lastTransition: now,
		},
	}
}

// WithLogger returns b with its logger replaced, for callers who want
// structured observability into state transitions and isolated observer
// panics. A nil logger is treated as a no-op logger.
func (b *Breaker) WithLogger(logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	b.logger = logger
	return b
}

// Name returns the breaker's name, fixed at construction.
func (b *Breaker) Name() string { return b.name }

// Config returns the breaker's configuration. Configuration is immutable
// after construction, so this needs no lock.
func (b *Breaker) Config() Config { return b.config }

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inner.state
}

// Metrics returns a snapshot of the breaker's counters and rates.
func (b *Breaker) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inner.metrics
}

// AddObserver registers o to receive future notifications. Observers
// are never removed automatically; there is no RemoveObserver because
// nothing in this system's lifecycle needs one.
func (b *Breaker) AddObserver(o Observer) {
	b.observersMu.Lock()
	defer b.observersMu.Unlock()
	b.observers = append(b.observers, o)
}

// Trip forces the breaker into the Open state regardless of its current
// counters, as if FailureThreshold consecutive failures had just been
// observed. Used for manual intervention — taking a dependency out of
// rotation ahead of planned maintenance, for instance.
func (b *Breaker) Trip() {
	now := time.Now()
	b.mu.Lock()
	from := b.inner.state
	b.inner.state = StateOpen
	b.inner.openedAt = &now
	b.inner.consecutiveFailures = b.config.FailureThreshold
	b.inner.consecutiveSuccess = 0
	b.inner.lastTransition = now
	b.inner.metrics.State = StateOpen
	b.inner.metrics.ConsecutiveFailures = b.inner.consecutiveFailures
	b.inner.metrics.ConsecutiveSuccesses = 0
	b.inner.metrics.LastTransitionTimestamp = &now
	b.mu.Unlock()

	event := TransitionEvent{From: from, To: StateOpen, Timestamp: now, Reason: "manual trip"}
	b.logger.Info("circuit breaker tripped", zap.String("breaker", b.name), zap.String("from", from.String()))
	b.notifyStateChange(event)
}

// Reset forces the breaker back to Closed, clearing every counter and
// both sliding windows, as if it had just been constructed.
func (b *Breaker) Reset() {
	now := time.Now()
	b.mu.Lock()
	from := b.inner.state
	b.inner.state = StateClosed
	b.inner.openedAt = nil
	b.inner.halfOpenEnteredAt = nil
	b.inner.consecutiveFailures = 0
	b.inner.consecutiveSuccess = 0
	b.inner.halfOpenConcurrency = 0
	b.inner.resultsWindow.clear()
	b.inner.slowCallWindow.clear()
	b.inner.lastTransition = now
	b.inner.metrics = Metrics{State: StateClosed, LastTransitionTimestamp: &now}
	b.mu.Unlock()

	event := TransitionEvent{From: from, To: StateClosed, Timestamp: now, Reason: "manual reset"}
	b.logger.Info("circuit breaker reset", zap.String("breaker", b.name))
	b.notifyStateChange(event)
	b.notifyReset()
}

// admit decides whether a new operation may proceed, performing any
// Open->HalfOpen transition and HalfOpen concurrency bookkeeping that
// decision requires. On rejection it returns the sampled state and the
// CircuitBreakerOpenError the caller should see.
//
// Every call samples the current state once, notifies observers of the
// attempt with that pre-transition value, and only then dispatches —
// whether dispatch means admitting, rejecting, or rolling Open into
// HalfOpen. This mirrors the reference implementation, which calls
// notify_operation_attempt(state) unconditionally before matching on
// state, so rejected calls are reported as attempts too and an
// Open->HalfOpen rollover is reported with the state the caller actually
// found (Open), not the state admit() leaves behind.
func (b *Breaker) admit() (proceed bool, state State, rejectErr error) {
	now := time.Now()
	b.mu.Lock()
	sampled := b.inner.state
	state = sampled
	var transitioned *TransitionEvent

	if state == StateOpen {
		if b.inner.openedAt != nil && now.Sub(*b.inner.openedAt) >= b.config.ResetTimeout {
			event := b.transitionToHalfOpenLocked(now, "reset timeout elapsed")
			transitioned = &event
			state = StateHalfOpen
		} else {
			var retryAfter time.Duration
			if b.inner.openedAt != nil {
				retryAfter = b.config.ResetTimeout - now.Sub(*b.inner.openedAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
			}
			b.inner.metrics.TotalRequests++
			b.inner.metrics.RejectedRequests++
			b.mu.Unlock()
			b.notifyOperationAttempt(sampled)
			b.notifyOperationResult(OutcomeRejected, 0, nil)
			return false, StateOpen, errs.NewCircuitBreakerOpen(b.name, &retryAfter)
		}
	}

	if state == StateHalfOpen {
		if b.inner.halfOpenConcurrency >= b.config.HalfOpenMaxConcurrentOperations {
			b.inner.metrics.TotalRequests++
			b.inner.metrics.RejectedRequests++
			b.mu.Unlock()
			b.notifyOperationAttempt(sampled)
			if transitioned != nil {
				b.notifyStateChange(*transitioned)
			}
			retryAfter := halfOpenRejectRetryAfter
			b.notifyOperationResult(OutcomeRejected, 0, nil)
			return false, StateHalfOpen, errs.NewCircuitBreakerOpen(b.name, &retryAfter)
		}
		b.inner.halfOpenConcurrency++
		b.mu.Unlock()
		b.notifyOperationAttempt(sampled)
		if transitioned != nil {
			b.notifyStateChange(*transitioned)
		}
		return true, StateHalfOpen, nil
	}

	b.mu.Unlock()
	b.notifyOperationAttempt(sampled)
	return true, StateClosed, nil
}

func (b *Breaker) releaseHalfOpenSlot(state State) {
	if state != StateHalfOpen {
		return
	}
	b.mu.Lock()
	if b.inner.halfOpenConcurrency > 0 {
		b.inner.halfOpenConcurrency--
	}
	b.mu.Unlock()
}

// Execute runs op synchronously through the breaker: admission, an
// optional timeout enforced by racing op against a timer on a worker
// goroutine, outcome recording, and transition evaluation.
//
// The worker goroutine is not forcibly killed on timeout — Go offers no
// such mechanism — so a timed-out op keeps running in the background
// and its eventual result is discarded. This matches the "best-effort
// reclamation" synchronous timeout strategy: correctness of the
// breaker's bookkeeping does not depend on the goroutine actually
// stopping, only on this call returning promptly.
func (b *Breaker) Execute(op func() (interface{}, error)) (interface{}, error) {
	proceed, state, err := b.admit()
	if !proceed {
		return nil, err
	}

	start := time.Now()
	result, opErr, timedOut := b.runWithTimeout(op)
	duration := time.Since(start)
	b.releaseHalfOpenSlot(state)

	if timedOut {
		return b.finishTimeout(state, duration)
	}
	return b.finishOutcome(state, result, opErr, duration)
}

// ExecuteContext runs op through the breaker using ctx for cooperative
// cancellation instead of a worker goroutine: when an OperationTimeout
// is configured, ctx is wrapped with context.WithTimeout, and op is
// expected to respect ctx.Done(). Errors originating from the caller's
// own ctx are returned as-is, without being counted as either a success
// or a failure.
func (b *Breaker) ExecuteContext(ctx context.Context, op func(context.Context) (interface{}, error)) (interface{}, error) {
	proceed, state, err := b.admit()
	if !proceed {
		return nil, err
	}

	if ctx.Err() != nil {
		b.releaseHalfOpenSlot(state)
		return nil, ctx.Err()
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if b.config.OperationTimeout != nil {
		runCtx, cancel = context.WithTimeout(ctx, *b.config.OperationTimeout)
		defer cancel()
	}

	start := time.Now()
	result, opErr := b.invokeContext(runCtx, op)
	duration := time.Since(start)
	b.releaseHalfOpenSlot(state)

	if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return b.finishTimeout(state, duration)
	}
	if ctx.Err() != nil {
		return result, opErr
	}
	return b.finishOutcome(state, result, opErr, duration)
}

func (b *Breaker) finishTimeout(state State, duration time.Duration) (interface{}, error) {
	timeoutErr := errs.NewTimeout(b.name, duration)
	event := b.recordTimeout(state, duration)
	b.notifyOperationResult(OutcomeTimeout, duration, timeoutErr)
	if event != nil {
		b.notifyStateChange(*event)
	}
	return nil, timeoutErr
}

func (b *Breaker) finishOutcome(state State, result interface{}, opErr error, duration time.Duration) (interface{}, error) {
	counted := opErr != nil && b.shouldCountFailure(opErr)
	event := b.recordOutcome(state, counted, duration)

	kind := OutcomeSuccess
	var notifyErr error
	if counted {
		kind = OutcomeFailure
		notifyErr = opErr
	}
	b.notifyOperationResult(kind, duration, notifyErr)
	if event != nil {
		b.notifyStateChange(*event)
	}
	return result, opErr
}

// invoke runs op, converting a panic into an *errs.InternalError instead
// of letting it escape — the same safe-default philosophy the teacher
// applies to panicking user callbacks, generalized to the gated
// operation itself.
func (b *Breaker) invoke(op func() (interface{}, error)) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.NewInternal(fmt.Sprintf("circuit breaker %q: operation panicked: %v", b.name, r), nil)
		}
	}()
	return op()
}

func (b *Breaker) invokeContext(ctx context.Context, op func(context.Context) (interface{}, error)) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.NewInternal(fmt.Sprintf("circuit breaker %q: operation panicked: %v", b.name, r), nil)
		}
	}()
	return op(ctx)
}

// runWithTimeout races op against OperationTimeout on a worker
// goroutine, when one is configured. Without a configured timeout it
// simply invokes op inline.
func (b *Breaker) runWithTimeout(op func() (interface{}, error)) (result interface{}, err error, timedOut bool) {
	if b.config.OperationTimeout == nil {
		result, err = b.invoke(op)
		return result, err, false
	}

	type outcome struct {
		val interface{}
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		val, opErr := b.invoke(op)
		ch <- outcome{val, opErr}
	}()

	select {
	case o := <-ch:
		return o.val, o.err, false
	case <-time.After(*b.config.OperationTimeout):
		return nil, nil, true
	}
}
