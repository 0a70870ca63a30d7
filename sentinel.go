// Package sentinel is the public entry point for this module: a circuit
// breaker, a tagged error taxonomy, an autocorrection suggestion engine,
// and an error reporter, assembled the way a single production import
// path usually fronts a handful of internal packages.
//
// The circuit breaker implementation lives in internal/breaker; this
// file re-exports its public surface so callers only ever need to
// import this one package for breaker use, while errs, decrust, and
// reporter remain separately importable for callers who want the error
// model or the diagnostics tooling without the breaker itself.
package sentinel

import (
	"github.com/1mb-dev/sentinel/internal/breaker"
)

type (
	// Breaker is a circuit breaker gating a risky operation.
	Breaker = breaker.Breaker
	// Config configures a Breaker.
	Config = breaker.Config
	// State is one of Closed, Open, or HalfOpen.
	State = breaker.State
	// OutcomeKind classifies the result of one gated operation.
	OutcomeKind = breaker.OutcomeKind
	// TransitionEvent describes a single state transition.
	TransitionEvent = breaker.TransitionEvent
	// Observer receives notifications about a Breaker's activity.
	Observer = breaker.Observer
	// Metrics is a point-in-time snapshot of a Breaker's counters.
	Metrics = breaker.Metrics
	// Diagnostics augments Metrics with predictive fields.
	Diagnostics = breaker.Diagnostics
)

const (
	StateClosed   = breaker.StateClosed
	StateOpen     = breaker.StateOpen
	StateHalfOpen = breaker.StateHalfOpen

	OutcomeSuccess  = breaker.OutcomeSuccess
	OutcomeFailure  = breaker.OutcomeFailure
	OutcomeRejected = breaker.OutcomeRejected
	OutcomeTimeout  = breaker.OutcomeTimeout
)

// New constructs a named Breaker. See breaker.New for configuration
// defaulting and validation behavior.
var New = breaker.New

// DefaultConfig returns the package's default Config.
var DefaultConfig = breaker.DefaultConfig
