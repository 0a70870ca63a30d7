// Package errs implements the closed set of tagged error variants used
// across this module, plus the structured context and diagnostic types
// that the autocorrection engine in package decrust consumes.
package errs

import "time"

// Severity orders how urgently an error should be surfaced. The ordering
// matters: callers compare severities, not just equality.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Category buckets every variant for routing and metrics. WithRichContext
// never appears here directly — Category always delegates to the
// innermost non-context variant.
type Category int

const (
	CategoryIO Category = iota
	CategoryParsing
	CategoryNetwork
	CategoryConfiguration
	CategoryValidation
	CategoryInternal
	CategoryCircuitBreaker
	CategoryTimeout
	CategoryResourceExhaustion
	CategoryNotFound
	CategoryStateConflict
	CategoryConcurrency
	CategoryExternalService
	CategoryMultiple
	CategoryUnspecified
)

func (c Category) String() string {
	switch c {
	case CategoryIO:
		return "Io"
	case CategoryParsing:
		return "Parsing"
	case CategoryNetwork:
		return "Network"
	case CategoryConfiguration:
		return "Configuration"
	case CategoryValidation:
		return "Validation"
	case CategoryInternal:
		return "Internal"
	case CategoryCircuitBreaker:
		return "CircuitBreaker"
	case CategoryTimeout:
		return "Timeout"
	case CategoryResourceExhaustion:
		return "ResourceExhaustion"
	case CategoryNotFound:
		return "NotFound"
	case CategoryStateConflict:
		return "StateConflict"
	case CategoryConcurrency:
		return "Concurrency"
	case CategoryExternalService:
		return "ExternalService"
	case CategoryMultiple:
		return "Multiple"
	default:
		return "Unspecified"
	}
}

// IOErrorKind is a small, Go-native stand-in for Rust's io::ErrorKind —
// just enough classification for the autocorrection engine's Io
// heuristics and for clone-by-approximation to preserve what matters.
type IOErrorKind int

const (
	IOKindOther IOErrorKind = iota
	IOKindNotFound
	IOKindPermissionDenied
)

// FixType is the closed set of autocorrection kinds decrust may suggest.
type FixType int

const (
	FixTextReplacement FixType = iota
	FixAstModification
	FixAddImport
	FixAddDependency
	FixConfigurationChange
	FixExecuteCommand
	FixRefactor
	FixManualInterventionRequired
	FixInformation
	FixUpdateDependencyManifest
	FixRunBuildToolCommand
	FixSuggestAlternativeMethod
)

func (f FixType) String() string {
	switch f {
	case FixTextReplacement:
		return "TextReplacement"
	case FixAstModification:
		return "AstModification"
	case FixAddImport:
		return "AddImport"
	case FixAddDependency:
		return "AddDependency"
	case FixConfigurationChange:
		return "ConfigurationChange"
	case FixExecuteCommand:
		return "ExecuteCommand"
	case FixRefactor:
		return "Refactor"
	case FixManualInterventionRequired:
		return "ManualInterventionRequired"
	case FixInformation:
		return "Information"
	case FixUpdateDependencyManifest:
		return "UpdateDependencyManifest"
	case FixRunBuildToolCommand:
		return "RunBuildToolCommand"
	case FixSuggestAlternativeMethod:
		return "SuggestAlternativeMethod"
	default:
		return "Unknown"
	}
}

// TextReplaceDetail anchors a suggested text substitution at an exact span.
type TextReplaceDetail struct {
	FilePath        string
	LineStart       int
	ColumnStart     int
	LineEnd         int
	ColumnEnd       int
	OriginalSnippet string
	ReplacementText string
}

// AddImportDetail names an import to add to a file.
type AddImportDetail struct {
	FilePath string
	Import   string
}

// AddDependencyDetail names a module dependency to add to the build.
type AddDependencyDetail struct {
	Dependency   string
	Version      string
	Features     []string
	IsDevelOnly  bool
}

// ExecuteCommandDetail names a shell command the user may choose to run.
type ExecuteCommandDetail struct {
	Command    string
	Args       []string
	WorkingDir string
}

// SuggestCodeChangeDetail points at a location and describes what to change.
type SuggestCodeChangeDetail struct {
	FilePath       string
	LineHint       int
	SuggestedCode  string
	Explanation    string
}

// FixDetailsKind discriminates which field of FixDetails is populated.
type FixDetailsKind int

const (
	FixDetailsNone FixDetailsKind = iota
	FixDetailsTextReplace
	FixDetailsAddImport
	FixDetailsAddDependency
	FixDetailsExecuteCommand
	FixDetailsSuggestCodeChange
)

// FixDetails is a closed, tagged union of the concrete shapes an
// Autocorrection's details may take. Only the field matching Kind is set.
type FixDetails struct {
	Kind              FixDetailsKind
	TextReplace       *TextReplaceDetail
	AddImport         *AddImportDetail
	AddDependency     *AddDependencyDetail
	ExecuteCommand    *ExecuteCommandDetail
	SuggestCodeChange *SuggestCodeChangeDetail
}

// Location pinpoints a spot in source: file, line, column, the enclosing
// function, and — when the error was produced by a tagged variant
// constructor — which variant tag produced it.
type Location struct {
	File            string
	Line            int
	Column          int
	FunctionContext string
	VariantTag      *string
}

// WithVariantTag returns a copy of the location annotated with the
// producing variant's tag.
func (l Location) WithVariantTag(tag string) Location {
	l.VariantTag = &tag
	return l
}

// ExpansionStep records one step of macro/generator-driven code expansion
// that contributed to an error site. Go has no macro system, but the
// autocorrection engine's diagnostic trace shape is preserved so that
// diagnostics produced by code generators (or by other languages'
// tooling feeding into this process) still round-trip cleanly.
type ExpansionStep struct {
	Name            string
	Site            Location
	GeneratedSource string
}

// DiagnosticResult carries whatever a source-analysis tool (a linter,
// compiler, or generator) attached to an error before it reached this
// library — the embedded diagnostic the decrust engine prefers over its
// own heuristics when one is present.
type DiagnosticResult struct {
	PrimaryLocation *Location
	ExpansionTrace  []ExpansionStep
	SuggestedFixes  []string
	OriginalMessage *string
	DiagnosticCode  *string
}

// Source identifies where an error-producing call originated.
type Source struct {
	File     string
	Line     int
	Module   string
	Column   *int
	Function *string
}

// WithColumn returns a copy of the source annotated with a column.
func (s Source) WithColumn(col int) Source {
	s.Column = &col
	return s
}

// WithFunction returns a copy of the source annotated with a function name.
func (s Source) WithFunction(fn string) Source {
	s.Function = &fn
	return s
}

// Context carries everything WithRichContext attaches to a wrapped error:
// a human message, where it happened, how to recover, free-form metadata,
// severity, when it happened, a correlation id for tying related errors
// together, which component raised it, free-form tags, and an optional
// embedded DiagnosticResult.
type Context struct {
	Message            string
	SourceLocation     *Source
	RecoverySuggestion *string
	Metadata           map[string]string
	Severity           Severity
	Timestamp          *time.Time
	CorrelationID      *string
	Component          *string
	Tags               []string
	Diagnostic         *DiagnosticResult
}

// NewContext builds a Context carrying just a message, default severity
// SeverityError, and no other fields set.
func NewContext(message string) *Context {
	return &Context{Message: message, Severity: SeverityError}
}

// WithSeverity sets the context's severity and returns it for chaining.
func (c *Context) WithSeverity(s Severity) *Context {
	c.Severity = s
	return c
}

// WithSourceLocation sets where the wrapped error originated.
func (c *Context) WithSourceLocation(s Source) *Context {
	c.SourceLocation = &s
	return c
}

// WithRecoverySuggestion attaches free-text recovery guidance.
func (c *Context) WithRecoverySuggestion(s string) *Context {
	c.RecoverySuggestion = &s
	return c
}

// WithMetadata attaches a single key/value pair, allocating the backing
// map on first use.
func (c *Context) WithMetadata(key, value string) *Context {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[key] = value
	return c
}

// WithCorrelationID sets an explicit correlation id.
func (c *Context) WithCorrelationID(id string) *Context {
	c.CorrelationID = &id
	return c
}

// WithComponent names the subsystem that raised the error.
func (c *Context) WithComponent(name string) *Context {
	c.Component = &name
	return c
}

// AddTag appends a free-form tag.
func (c *Context) AddTag(tag string) *Context {
	c.Tags = append(c.Tags, tag)
	return c
}

// WithDiagnostic attaches an embedded DiagnosticResult, which the
// decrust engine will prefer over its own category heuristics.
func (c *Context) WithDiagnostic(d DiagnosticResult) *Context {
	c.Diagnostic = &d
	return c
}

// Autocorrection is a single suggested fix produced by the decrust engine.
type Autocorrection struct {
	Description      string
	FixType          FixType
	Confidence       float64
	Details          *FixDetails
	DiffSuggestion   *string
	CommandsToApply  []string
	TargetsErrorCode *string
}

// NewAutocorrection builds an Autocorrection with the required fields set.
func NewAutocorrection(description string, fixType FixType, confidence float64) *Autocorrection {
	return &Autocorrection{Description: description, FixType: fixType, Confidence: confidence}
}

// WithDetails attaches structured fix details.
func (a *Autocorrection) WithDetails(d FixDetails) *Autocorrection {
	a.Details = &d
	return a
}

// WithDiffSuggestion attaches a unified-diff-style suggestion string.
func (a *Autocorrection) WithDiffSuggestion(diff string) *Autocorrection {
	a.DiffSuggestion = &diff
	return a
}

// AddCommand appends one shell command the user may run to apply the fix.
func (a *Autocorrection) AddCommand(cmd string) *Autocorrection {
	a.CommandsToApply = append(a.CommandsToApply, cmd)
	return a
}

// WithTargetErrorCode records which diagnostic code this correction targets.
func (a *Autocorrection) WithTargetErrorCode(code string) *Autocorrection {
	a.TargetsErrorCode = &code
	return a
}
