package errs

import (
	"fmt"
	"time"
)

// SentinelError is satisfied by every variant in this package's closed
// set. Category delegates through a WithRichContext chain to the
// innermost non-context variant, while a WithRichContext reports its own
// Context's Severity rather than its source's; Clone reconstructs an
// equivalent error without assuming the wrapped foreign error (if any)
// is itself cloneable.
type SentinelError interface {
	error
	Category() Category
	Severity() Severity
	Clone() error
	Trace() Trace
}

// IOError reports a failure from the filesystem or another OS-level I/O
// source. Path and Operation are optional context about what was being
// attempted.
type IOError struct {
	Source    error
	Path      *string
	Operation string
	trace     Trace
}

// NewIO builds an IOError wrapping source, describing operation, and
// optionally naming the path involved.
func NewIO(source error, operation string, path *string) *IOError {
	return &IOError{Source: source, Path: path, Operation: operation, trace: captureTrace(0)}
}

func (e *IOError) Error() string {
	if e.Path != nil {
		return fmt.Sprintf("io error during %s on %q: %v", e.Operation, *e.Path, e.Source)
	}
	return fmt.Sprintf("io error during %s: %v", e.Operation, e.Source)
}
func (e *IOError) Unwrap() error       { return e.Source }
func (e *IOError) Category() Category  { return CategoryIO }
func (e *IOError) Severity() Severity  { return SeverityError }
func (e *IOError) Trace() Trace        { return e.trace }
func (e *IOError) Kind() IOErrorKind   { return ClassifyIOError(e.Source) }

// ParseError reports a failure to parse some structured input.
type ParseError struct {
	Source      error
	Kind        string
	ContextInfo string
	trace       Trace
}

func NewParse(source error, kind, contextInfo string) *ParseError {
	return &ParseError{Source: source, Kind: kind, ContextInfo: contextInfo, trace: captureTrace(0)}
}
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (%s): %s: %v", e.Kind, e.ContextInfo, e.Source)
}
func (e *ParseError) Unwrap() error      { return e.Source }
func (e *ParseError) Category() Category { return CategoryParsing }
func (e *ParseError) Severity() Severity { return SeverityError }
func (e *ParseError) Trace() Trace       { return e.trace }

// NetworkError reports a failure reaching or talking to a remote peer.
type NetworkError struct {
	Source error
	URL    *string
	Kind   string
	trace  Trace
}

func NewNetwork(source error, kind string, url *string) *NetworkError {
	return &NetworkError{Source: source, URL: url, Kind: kind, trace: captureTrace(0)}
}
func (e *NetworkError) Error() string {
	if e.URL != nil {
		return fmt.Sprintf("network error (%s) for %q: %v", e.Kind, *e.URL, e.Source)
	}
	return fmt.Sprintf("network error (%s): %v", e.Kind, e.Source)
}
func (e *NetworkError) Unwrap() error      { return e.Source }
func (e *NetworkError) Category() Category { return CategoryNetwork }
func (e *NetworkError) Severity() Severity { return SeverityError }
func (e *NetworkError) Trace() Trace       { return e.trace }

// ConfigError reports invalid or unreadable configuration.
type ConfigError struct {
	Message string
	Path    *string
	Source  error
	trace   Trace
}

func NewConfig(message string, path *string, source error) *ConfigError {
	return &ConfigError{Message: message, Path: path, Source: source, trace: captureTrace(0)}
}
func (e *ConfigError) Error() string {
	if e.Path != nil {
		return fmt.Sprintf("configuration error in %q: %s", *e.Path, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}
func (e *ConfigError) Unwrap() error      { return e.Source }
func (e *ConfigError) Category() Category { return CategoryConfiguration }
func (e *ConfigError) Severity() Severity { return SeverityError }
func (e *ConfigError) Trace() Trace       { return e.trace }

// ValidationError reports that a single field failed a validation rule.
type ValidationError struct {
	Field   string
	Message string
	trace   Trace
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, trace: captureTrace(0)}
}
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %q: %s", e.Field, e.Message)
}
func (e *ValidationError) Category() Category { return CategoryValidation }
func (e *ValidationError) Severity() Severity { return SeverityError }
func (e *ValidationError) Trace() Trace       { return e.trace }

// InternalError reports a bug or invariant violation internal to the
// program rather than something the caller could have anticipated.
type InternalError struct {
	Message string
	Source  error
	trace   Trace
}

func NewInternal(message string, source error) *InternalError {
	return &InternalError{Message: message, Source: source, trace: captureTrace(0)}
}
func (e *InternalError) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("internal error: %s: %v", e.Message, e.Source)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}
func (e *InternalError) Unwrap() error      { return e.Source }
func (e *InternalError) Category() Category { return CategoryInternal }
func (e *InternalError) Severity() Severity { return SeverityCritical }
func (e *InternalError) Trace() Trace       { return e.trace }

// CircuitBreakerOpenError is returned when a breaker rejects a call
// because it is Open (or HalfOpen and already at its concurrency limit).
type CircuitBreakerOpenError struct {
	Name       string
	RetryAfter *time.Duration
	trace      Trace
}

func NewCircuitBreakerOpen(name string, retryAfter *time.Duration) *CircuitBreakerOpenError {
	return &CircuitBreakerOpenError{Name: name, RetryAfter: retryAfter, trace: captureTrace(0)}
}
func (e *CircuitBreakerOpenError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("circuit breaker %q is open, retry after %v", e.Name, *e.RetryAfter)
	}
	return fmt.Sprintf("circuit breaker %q is open", e.Name)
}
func (e *CircuitBreakerOpenError) Category() Category { return CategoryCircuitBreaker }
func (e *CircuitBreakerOpenError) Severity() Severity { return SeverityWarning }
func (e *CircuitBreakerOpenError) Trace() Trace       { return e.trace }

// TimeoutError reports that an operation exceeded its allotted duration.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
	trace     Trace
}

func NewTimeout(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration, trace: captureTrace(0)}
}
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %v", e.Operation, e.Duration)
}
func (e *TimeoutError) Category() Category { return CategoryTimeout }
func (e *TimeoutError) Severity() Severity { return SeverityWarning }
func (e *TimeoutError) Trace() Trace       { return e.trace }

// ResourceExhaustedError reports that a bounded resource has no capacity left.
type ResourceExhaustedError struct {
	Resource string
	Limit    string
	Current  string
	trace    Trace
}

func NewResourceExhausted(resource, limit, current string) *ResourceExhaustedError {
	return &ResourceExhaustedError{Resource: resource, Limit: limit, Current: current, trace: captureTrace(0)}
}
func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("resource %q exhausted: %s/%s", e.Resource, e.Current, e.Limit)
}
func (e *ResourceExhaustedError) Category() Category { return CategoryResourceExhaustion }
func (e *ResourceExhaustedError) Severity() Severity { return SeverityWarning }
func (e *ResourceExhaustedError) Trace() Trace       { return e.trace }

// NotFoundError reports that a named resource could not be located.
type NotFoundError struct {
	ResourceType string
	Identifier   string
	trace        Trace
}

func NewNotFound(resourceType, identifier string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, Identifier: identifier, trace: captureTrace(0)}
}
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.ResourceType, e.Identifier)
}
func (e *NotFoundError) Category() Category { return CategoryNotFound }
func (e *NotFoundError) Severity() Severity { return SeverityError }
func (e *NotFoundError) Trace() Trace       { return e.trace }

// StateConflictError reports that an operation could not proceed because
// of the current state of some stateful component.
type StateConflictError struct {
	Message string
	trace   Trace
}

func NewStateConflict(message string) *StateConflictError {
	return &StateConflictError{Message: message, trace: captureTrace(0)}
}
func (e *StateConflictError) Error() string      { return fmt.Sprintf("state conflict: %s", e.Message) }
func (e *StateConflictError) Category() Category { return CategoryStateConflict }
func (e *StateConflictError) Severity() Severity { return SeverityError }
func (e *StateConflictError) Trace() Trace       { return e.trace }

// ConcurrencyError reports a failure rooted in concurrent access —
// lock contention, a poisoned lock, or a detected data race.
type ConcurrencyError struct {
	Message string
	Source  error
	trace   Trace
}

func NewConcurrency(message string, source error) *ConcurrencyError {
	return &ConcurrencyError{Message: message, Source: source, trace: captureTrace(0)}
}
func (e *ConcurrencyError) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("concurrency error: %s: %v", e.Message, e.Source)
	}
	return fmt.Sprintf("concurrency error: %s", e.Message)
}
func (e *ConcurrencyError) Unwrap() error      { return e.Source }
func (e *ConcurrencyError) Category() Category { return CategoryConcurrency }
func (e *ConcurrencyError) Severity() Severity { return SeverityError }
func (e *ConcurrencyError) Trace() Trace       { return e.trace }

// ExternalServiceError reports a failure attributed to a downstream
// service this program depends on but does not control.
type ExternalServiceError struct {
	ServiceName string
	Message     string
	Source      error
	trace       Trace
}

func NewExternalService(serviceName, message string, source error) *ExternalServiceError {
	return &ExternalServiceError{ServiceName: serviceName, Message: message, Source: source, trace: captureTrace(0)}
}
func (e *ExternalServiceError) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("external service %q failed: %s: %v", e.ServiceName, e.Message, e.Source)
	}
	return fmt.Sprintf("external service %q failed: %s", e.ServiceName, e.Message)
}
func (e *ExternalServiceError) Unwrap() error      { return e.Source }
func (e *ExternalServiceError) Category() Category { return CategoryExternalService }
func (e *ExternalServiceError) Severity() Severity { return SeverityError }
func (e *ExternalServiceError) Trace() Trace       { return e.trace }

// MissingValueError reports that a required value was absent — the Go
// counterpart of lifting a None out of an Option via OrMissingValue.
type MissingValueError struct {
	ItemDescription string
	trace           Trace
}

func NewMissingValue(itemDescription string) *MissingValueError {
	return &MissingValueError{ItemDescription: itemDescription, trace: captureTrace(0)}
}
func (e *MissingValueError) Error() string {
	return fmt.Sprintf("missing required value: %s", e.ItemDescription)
}
func (e *MissingValueError) Category() Category { return CategoryValidation }
func (e *MissingValueError) Severity() Severity { return SeverityError }
func (e *MissingValueError) Trace() Trace       { return e.trace }

// MultipleErrors aggregates more than one error into a single value.
type MultipleErrors struct {
	Errors []error
	trace  Trace
}

func NewMultipleErrors(errs []error) *MultipleErrors {
	return &MultipleErrors{Errors: errs, trace: captureTrace(0)}
}
func (e *MultipleErrors) Error() string {
	return fmt.Sprintf("%d errors occurred: %v", len(e.Errors), e.Errors)
}
func (e *MultipleErrors) Category() Category { return CategoryMultiple }
func (e *MultipleErrors) Severity() Severity { return SeverityError }
func (e *MultipleErrors) Trace() Trace       { return e.trace }

// WithRichContext wraps any error with a structured Context without
// mutating the wrapped error itself. Category delegates through the
// chain to the innermost non-context variant — Severity is the one place WithRichContext does
// NOT simply defer to its source: it reports its own Context.Severity,
// since that is the whole point of attaching one.
type WithRichContext struct {
	Ctx    *Context
	Source error
	trace  Trace
}

func NewWithRichContext(ctx *Context, source error) *WithRichContext {
	return &WithRichContext{Ctx: ctx, Source: source, trace: captureTrace(0)}
}
func (e *WithRichContext) Error() string {
	return fmt.Sprintf("%s: %v", e.Ctx.Message, e.Source)
}
func (e *WithRichContext) Unwrap() error { return e.Source }
func (e *WithRichContext) Category() Category {
	if se, ok := e.Source.(SentinelError); ok {
		return se.Category()
	}
	return CategoryUnspecified
}
func (e *WithRichContext) Severity() Severity { return e.Ctx.Severity }
func (e *WithRichContext) Trace() Trace       { return e.trace }

// Whatever is the escape hatch for errors that don't fit any other
// variant. Unlike every other variant, its backtrace is optional — it
// may be constructed from contexts where a capture point would be
// meaningless (e.g. deserialized from another process).
type Whatever struct {
	Message string
	Source  error
	trace   *Trace
}

func NewWhatever(message string, source error) *Whatever {
	t := captureTrace(0)
	return &Whatever{Message: message, Source: source, trace: &t}
}

// NewWhateverNoTrace builds a Whatever with no captured backtrace.
func NewWhateverNoTrace(message string, source error) *Whatever {
	return &Whatever{Message: message, Source: source}
}
func (e *Whatever) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Source)
	}
	return e.Message
}
func (e *Whatever) Unwrap() error      { return e.Source }
func (e *Whatever) Category() Category { return CategoryUnspecified }
func (e *Whatever) Severity() Severity { return SeverityError }
func (e *Whatever) Trace() Trace {
	if e.trace == nil {
		return Trace{}
	}
	return *e.trace
}

// AddContext wraps err in a WithRichContext carrying ctx, without
// mutating err.
func AddContext(err error, ctx *Context) error {
	return NewWithRichContext(ctx, err)
}

// AddContextMessage wraps err in a WithRichContext built from a bare message.
func AddContextMessage(err error, message string) error {
	return AddContext(err, NewContext(message))
}

// GetContext returns the Context carried by err, if and only if err's
// outermost variant is a WithRichContext. It does not search further
// down the chain — mirroring the Rust original's get_rich_context,
// which only matches the top-level variant.
func GetContext(err error) (*Context, bool) {
	if wc, ok := err.(*WithRichContext); ok {
		return wc.Ctx, true
	}
	return nil, false
}

// CategoryOf returns the category of err if it implements SentinelError,
// else CategoryUnspecified.
func CategoryOf(err error) Category {
	if se, ok := err.(SentinelError); ok {
		return se.Category()
	}
	return CategoryUnspecified
}

// SeverityOf returns the severity of err if it implements SentinelError,
// else SeverityError.
func SeverityOf(err error) Severity {
	if se, ok := err.(SentinelError); ok {
		return se.Severity()
	}
	return SeverityError
}
