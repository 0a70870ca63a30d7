// Package breaker implements the circuit breaker state machine: a
// three-state (Closed, Open, HalfOpen) gate in front of calls that might
// fail or hang, with sliding-window failure- and slow-call-rate
// tracking, manual override, and observer notification.
//
// Package sentinel re-exports the public surface of this package as a
// thin facade, the same way the teacher's own root package aliases its
// internal implementation.
package breaker

import "time"

// State is one of the three circuit breaker states.
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// OutcomeKind classifies what happened to a single gated operation, for
// observer notification purposes.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeRejected
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "Success"
	case OutcomeFailure:
		return "Failure"
	case OutcomeRejected:
		return "Rejected"
	case OutcomeTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// TransitionEvent describes one state change: where it came from, where
// it went, when, and why.
type TransitionEvent struct {
	From      State
	To        State
	Timestamp time.Time
	Reason    string
}

// Observer receives notifications about a breaker's activity. Every
// method on an Observer is called outside the breaker's internal lock;
// a panicking Observer is isolated and logged, never propagated.
type Observer interface {
	// OnStateChange fires whenever the breaker transitions between
	// Closed, Open, and HalfOpen, whether triggered automatically or
	// by a manual Trip/Reset call.
	OnStateChange(name string, event TransitionEvent)
	// OnOperationAttempt fires for every call to Execute/ExecuteContext,
	// admitted or rejected, reporting the state sampled before any
	// Open->HalfOpen rollover or admission decision was made.
	OnOperationAttempt(name string, state State)
	// OnOperationResult fires after a gated operation completes (or is
	// rejected), reporting how long it took and its error, if any.
	OnOperationResult(name string, kind OutcomeKind, duration time.Duration, err error)
	// OnReset fires whenever Reset is called.
	OnReset(name string)
}

// Config configures a Breaker at construction time. Configuration is
// immutable once the Breaker exists — there is deliberately no
// runtime-update method, since the multi-field transition rules this
// package implements depend on configuration staying fixed for the
// lifetime of a single RWMutex-guarded state struct.
type Config struct {
	// FailureThreshold is the number of consecutive counted failures
	// in Closed state that trips the breaker to Open.
	FailureThreshold uint32
	// FailureRateThreshold is the fraction of failures in the sliding
	// window (once MinimumRequestThresholdForRate samples exist) that
	// trips the breaker to Open.
	FailureRateThreshold float64
	// MinimumRequestThresholdForRate is how many window samples must
	// exist before FailureRateThreshold is evaluated at all.
	MinimumRequestThresholdForRate uint32
	// SuccessThresholdToClose is how many consecutive successes in
	// HalfOpen close the breaker back to Closed.
	SuccessThresholdToClose uint32
	// ResetTimeout is how long the breaker stays Open before allowing
	// a single probe into HalfOpen.
	ResetTimeout time.Duration
	// HalfOpenMaxConcurrentOperations bounds how many operations may
	// be in flight at once while HalfOpen; excess attempts are rejected.
	HalfOpenMaxConcurrentOperations uint32
	// OperationTimeout, when set, bounds how long a single gated
	// operation may run before it is treated as a timeout failure.
	OperationTimeout *time.Duration
	// SlidingWindowSize bounds how many recent outcomes are kept for
	// rate calculations.
	SlidingWindowSize uint32
	// ErrorPredicate, when set, decides whether a non-nil error counts
	// as a failure for state-machine purposes. A nil predicate counts
	// every non-nil error as a failure.
	ErrorPredicate func(error) bool
	// SlowCallDurationThreshold, when set, marks any call taking at
	// least this long as "slow" for the slow-call-rate calculation.
	SlowCallDurationThreshold *time.Duration
	// SlowCallRateThreshold, when set alongside SlowCallDurationThreshold,
	// trips the breaker when the fraction of slow calls in the window
	// reaches this threshold.
	SlowCallRateThreshold *float64
	// TrackMetrics is carried in the configuration (DefaultConfig sets
	// it to true), but the breaker does not consult it: Metrics() and
	// Diagnostics() always report live data, and New leaves a false
	// value as it is.
	TrackMetrics bool
}

// DefaultConfig returns the configuration the Rust implementation this
// package was adapted from uses by default: a 5-failure threshold, a 50%
// failure-rate trip over a 100-sample window (once at least 10 samples
// exist), a 3-success close threshold, a 30s reset timeout, one
// concurrent HalfOpen probe, and a 5s operation timeout.
func DefaultConfig() Config {
	timeout := 5 * time.Second
	return Config{
		FailureThreshold:                5,
		FailureRateThreshold:            0.5,
		MinimumRequestThresholdForRate:  10,
		SuccessThresholdToClose:         3,
		ResetTimeout:                    30 * time.Second,
		HalfOpenMaxConcurrentOperations: 1,
		OperationTimeout:                &timeout,
		SlidingWindowSize:               100,
		TrackMetrics:                    true,
	}
}

// withDefaults fills in zero-valued fields from DefaultConfig, the same
// partial-defaulting the teacher applies to its own Settings.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureRateThreshold == 0 {
		c.FailureRateThreshold = d.FailureRateThreshold
	}
	if c.MinimumRequestThresholdForRate == 0 {
		c.MinimumRequestThresholdForRate = d.MinimumRequestThresholdForRate
	}
	if c.SuccessThresholdToClose == 0 {
		c.SuccessThresholdToClose = d.SuccessThresholdToClose
	}
	if c.ResetTimeout == 0 {
		c.ResetTimeout = d.ResetTimeout
	}
	if c.HalfOpenMaxConcurrentOperations == 0 {
		c.HalfOpenMaxConcurrentOperations = d.HalfOpenMaxConcurrentOperations
	}
	if c.SlidingWindowSize == 0 {
		c.SlidingWindowSize = d.SlidingWindowSize
	}
	return c
}

func (c Config) validate() error {
	if c.FailureRateThreshold <= 0 || c.FailureRateThreshold > 1 {
		return errConfigf("FailureRateThreshold must be in (0, 1], got %v", c.FailureRateThreshold)
	}
	if c.ResetTimeout <= 0 {
		return errConfigf("ResetTimeout must be > 0")
	}
	if c.HalfOpenMaxConcurrentOperations == 0 {
		return errConfigf("HalfOpenMaxConcurrentOperations must be > 0")
	}
	if c.SlidingWindowSize == 0 {
		return errConfigf("SlidingWindowSize must be > 0")
	}
	if c.SuccessThresholdToClose == 0 {
		return errConfigf("SuccessThresholdToClose must be > 0")
	}
	if c.SlowCallRateThreshold != nil && (*c.SlowCallRateThreshold <= 0 || *c.SlowCallRateThreshold > 1) {
		return errConfigf("SlowCallRateThreshold must be in (0, 1], got %v", *c.SlowCallRateThreshold)
	}
	return nil
}

// Metrics is a point-in-time snapshot of a breaker's counters and rates.
type Metrics struct {
	State                   State
	TotalRequests           uint64
	SuccessfulRequests      uint64
	FailedRequests          uint64
	RejectedRequests        uint64
	TimeoutRequests         uint64
	ConsecutiveFailures     uint32
	ConsecutiveSuccesses    uint32
	LastErrorTimestamp      *time.Time
	LastTransitionTimestamp *time.Time
	FailureRateInWindow     *float64
	SlowCallRateInWindow    *float64
}

// Diagnostics augments a Metrics snapshot with predictive information:
// whether one more counted failure would trip the breaker right now, and
// (while Open) how long until it allows a HalfOpen probe.
type Diagnostics struct {
	Metrics               Metrics
	Config                Config
	WillTripOnNextFailure bool
	TimeUntilHalfOpen     time.Duration
}
