package errs

import (
	"errors"
	"io/fs"
	"time"
)

// ClassifyIOError approximates an error's io.ErrorKind-equivalent. It is
// deliberately narrow — just the two kinds the autocorrection engine
// treats specially — rather than a general-purpose errno mapping.
func ClassifyIOError(err error) IOErrorKind {
	if err == nil {
		return IOKindOther
	}
	if errors.Is(err, fs.ErrNotExist) {
		return IOKindNotFound
	}
	if errors.Is(err, fs.ErrPermission) {
		return IOKindPermissionDenied
	}
	return IOKindOther
}

// surrogateIOError stands in for a foreign *fs.PathError (or similar)
// that cannot itself be deep-cloned. It preserves the original's
// display text and classified kind so that ClassifyIOError and the
// decrust engine's heuristics still behave the same after a clone.
type surrogateIOError struct {
	msg  string
	kind IOErrorKind
}

func (s *surrogateIOError) Error() string { return s.msg }

// Is lets errors.Is(clonedErr, fs.ErrNotExist) (etc.) keep working after
// cloning, since the surrogate no longer carries the original *fs.PathError.
func (s *surrogateIOError) Is(target error) bool {
	switch s.kind {
	case IOKindNotFound:
		return target == fs.ErrNotExist
	case IOKindPermissionDenied:
		return target == fs.ErrPermission
	default:
		return false
	}
}

// surrogateError stands in for any other foreign error that cannot be
// deep-cloned. Only its display text is preserved.
type surrogateError struct {
	msg string
}

func (s *surrogateError) Error() string { return s.msg }

// cloneForeign reconstructs a surrogate for a wrapped foreign error. The
// foreign error's own type is never preserved — only its message (and,
// for IO-classifiable errors, its kind) survives the clone.
func cloneForeign(err error) error {
	if err == nil {
		return nil
	}
	return &surrogateError{msg: err.Error()}
}

// cloneForeignIO is cloneForeign specialized for the IOError variant,
// which additionally preserves the classified IOErrorKind.
func cloneForeignIO(err error) error {
	if err == nil {
		return nil
	}
	return &surrogateIOError{msg: err.Error(), kind: ClassifyIOError(err)}
}

func (e *IOError) Clone() error {
	var path *string
	if e.Path != nil {
		p := *e.Path
		path = &p
	}
	return &IOError{Source: cloneForeignIO(e.Source), Path: path, Operation: e.Operation, trace: captureTrace(0)}
}

func (e *ParseError) Clone() error {
	return &ParseError{Source: cloneForeign(e.Source), Kind: e.Kind, ContextInfo: e.ContextInfo, trace: captureTrace(0)}
}

func (e *NetworkError) Clone() error {
	var url *string
	if e.URL != nil {
		u := *e.URL
		url = &u
	}
	return &NetworkError{Source: cloneForeign(e.Source), URL: url, Kind: e.Kind, trace: captureTrace(0)}
}

func (e *ConfigError) Clone() error {
	var path *string
	if e.Path != nil {
		p := *e.Path
		path = &p
	}
	return &ConfigError{Message: e.Message, Path: path, Source: cloneForeign(e.Source), trace: captureTrace(0)}
}

func (e *ValidationError) Clone() error {
	return &ValidationError{Field: e.Field, Message: e.Message, trace: captureTrace(0)}
}

func (e *InternalError) Clone() error {
	return &InternalError{Message: e.Message, Source: cloneForeign(e.Source), trace: captureTrace(0)}
}

func (e *CircuitBreakerOpenError) Clone() error {
	var retryAfter *time.Duration
	if e.RetryAfter != nil {
		d := *e.RetryAfter
		retryAfter = &d
	}
	return &CircuitBreakerOpenError{Name: e.Name, RetryAfter: retryAfter, trace: captureTrace(0)}
}

func (e *TimeoutError) Clone() error {
	return &TimeoutError{Operation: e.Operation, Duration: e.Duration, trace: captureTrace(0)}
}

func (e *ResourceExhaustedError) Clone() error {
	return &ResourceExhaustedError{Resource: e.Resource, Limit: e.Limit, Current: e.Current, trace: captureTrace(0)}
}

func (e *NotFoundError) Clone() error {
	return &NotFoundError{ResourceType: e.ResourceType, Identifier: e.Identifier, trace: captureTrace(0)}
}

func (e *StateConflictError) Clone() error {
	return &StateConflictError{Message: e.Message, trace: captureTrace(0)}
}

func (e *ConcurrencyError) Clone() error {
	return &ConcurrencyError{Message: e.Message, Source: cloneForeign(e.Source), trace: captureTrace(0)}
}

func (e *ExternalServiceError) Clone() error {
	return &ExternalServiceError{ServiceName: e.ServiceName, Message: e.Message, Source: cloneForeign(e.Source), trace: captureTrace(0)}
}

func (e *MissingValueError) Clone() error {
	return &MissingValueError{ItemDescription: e.ItemDescription, trace: captureTrace(0)}
}

func (e *MultipleErrors) Clone() error {
	cloned := make([]error, len(e.Errors))
	for i, inner := range e.Errors {
		cloned[i] = cloneAny(inner)
	}
	return &MultipleErrors{Errors: cloned, trace: captureTrace(0)}
}

func (e *WithRichContext) Clone() error {
	return &WithRichContext{Ctx: cloneContext(e.Ctx), Source: cloneAny(e.Source), trace: captureTrace(0)}
}

// cloneContext returns an independent copy of ctx: every container and
// pointer field is copied rather than shared, so mutating the clone
// (AddTag, WithMetadata, ...) can never reach back into the original.
func cloneContext(ctx *Context) *Context {
	if ctx == nil {
		return nil
	}
	cp := *ctx

	if ctx.SourceLocation != nil {
		loc := *ctx.SourceLocation
		if ctx.SourceLocation.Column != nil {
			col := *ctx.SourceLocation.Column
			loc.Column = &col
		}
		if ctx.SourceLocation.Function != nil {
			fn := *ctx.SourceLocation.Function
			loc.Function = &fn
		}
		cp.SourceLocation = &loc
	}
	if ctx.RecoverySuggestion != nil {
		s := *ctx.RecoverySuggestion
		cp.RecoverySuggestion = &s
	}
	if ctx.Metadata != nil {
		m := make(map[string]string, len(ctx.Metadata))
		for k, v := range ctx.Metadata {
			m[k] = v
		}
		cp.Metadata = m
	}
	if ctx.Timestamp != nil {
		ts := *ctx.Timestamp
		cp.Timestamp = &ts
	}
	if ctx.CorrelationID != nil {
		id := *ctx.CorrelationID
		cp.CorrelationID = &id
	}
	if ctx.Component != nil {
		c := *ctx.Component
		cp.Component = &c
	}
	if ctx.Tags != nil {
		tags := make([]string, len(ctx.Tags))
		copy(tags, ctx.Tags)
		cp.Tags = tags
	}
	if ctx.Diagnostic != nil {
		cp.Diagnostic = cloneDiagnosticResult(ctx.Diagnostic)
	}
	return &cp
}

func cloneLocation(loc Location) Location {
	cp := loc
	if loc.VariantTag != nil {
		tag := *loc.VariantTag
		cp.VariantTag = &tag
	}
	return cp
}

func cloneDiagnosticResult(d *DiagnosticResult) *DiagnosticResult {
	if d == nil {
		return nil
	}
	cp := *d
	if d.PrimaryLocation != nil {
		loc := cloneLocation(*d.PrimaryLocation)
		cp.PrimaryLocation = &loc
	}
	if d.ExpansionTrace != nil {
		trace := make([]ExpansionStep, len(d.ExpansionTrace))
		for i, step := range d.ExpansionTrace {
			step.Site = cloneLocation(step.Site)
			trace[i] = step
		}
		cp.ExpansionTrace = trace
	}
	if d.SuggestedFixes != nil {
		fixes := make([]string, len(d.SuggestedFixes))
		copy(fixes, d.SuggestedFixes)
		cp.SuggestedFixes = fixes
	}
	if d.OriginalMessage != nil {
		m := *d.OriginalMessage
		cp.OriginalMessage = &m
	}
	if d.DiagnosticCode != nil {
		c := *d.DiagnosticCode
		cp.DiagnosticCode = &c
	}
	return &cp
}

func (e *Whatever) Clone() error {
	t := captureTrace(0)
	return &Whatever{Message: e.Message, Source: cloneForeign(e.Source), trace: &t}
}

// cloneAny clones err via its own Clone method if it is a SentinelError,
// else falls back to a surrogate carrying only its message.
func cloneAny(err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(SentinelError); ok {
		return se.Clone()
	}
	return cloneForeign(err)
}
