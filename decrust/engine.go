// Package decrust suggests automated or semi-automated corrections for
// errors produced by package errs. It never acts on its own — every
// suggestion is a description of what could be done, left for the
// caller to apply.
package decrust

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/1mb-dev/sentinel/errs"
)

// Engine suggests Autocorrections for errors. It is safe for concurrent
// use — it holds no mutable state beyond its logger.
type Engine struct {
	logger *zap.Logger
}

// New builds an Engine. A nil logger is replaced with a no-op one, so
// callers who don't care about tracing don't need to construct one.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Suggest proposes an Autocorrection for err, or reports false when
// nothing applies. sourceContext — surrounding source text, when the
// caller has it — is accepted for forward compatibility with richer
// heuristics but is not consulted by any rule below.
//
// Priority order: if err's outermost variant carries an embedded
// DiagnosticResult with suggested fixes, that beats every other rule.
// Otherwise, a small set of category-driven heuristics cover NotFound,
// Io, and Configuration; every other category yields no suggestion.
func (e *Engine) Suggest(err error, sourceContext *string) (*errs.Autocorrection, bool) {
	_ = sourceContext

	if ctx, ok := errs.GetContext(err); ok && ctx.Diagnostic != nil && len(ctx.Diagnostic.SuggestedFixes) > 0 {
		return e.suggestFromDiagnostic(ctx.Diagnostic), true
	}

	switch errs.CategoryOf(err) {
	case errs.CategoryNotFound:
		if fix, ok := e.suggestForNotFound(err); ok {
			return fix, true
		}
	case errs.CategoryIO:
		if fix, ok := e.suggestForIO(err); ok {
			return fix, true
		}
	case errs.CategoryConfiguration:
		if fix, ok := e.suggestForConfig(err); ok {
			return fix, true
		}
	}

	e.logger.Debug("decrust: no autocorrection rule matched", zap.String("category", errs.CategoryOf(err).String()))
	return nil, false
}

// suggestFromDiagnostic turns an embedded DiagnosticResult into a
// location-anchored text replacement. It only attaches TextReplace
// details when the diagnostic actually carries a PrimaryLocation to
// anchor them to — mirroring the reference implementation, which maps
// the diagnostic's optional file path into the fix details and leaves
// them absent rather than fabricate a zero-valued location.
func (e *Engine) suggestFromDiagnostic(diag *errs.DiagnosticResult) *errs.Autocorrection {
	primaryFixText := strings.Join(diag.SuggestedFixes, "\n")

	ac := errs.NewAutocorrection("Apply fix suggested by diagnostic tool.", errs.FixTextReplacement, 0.85)
	if diag.DiagnosticCode != nil {
		ac = ac.WithTargetErrorCode(*diag.DiagnosticCode)
	}

	if diag.PrimaryLocation == nil {
		return ac
	}
	loc := *diag.PrimaryLocation

	nonNewlineRunes := 0
	for _, r := range primaryFixText {
		if r != '\n' {
			nonNewlineRunes++
		}
	}
	if nonNewlineRunes == 0 {
		nonNewlineRunes = 1
	}

	details := errs.FixDetails{
		Kind: errs.FixDetailsTextReplace,
		TextReplace: &errs.TextReplaceDetail{
			FilePath:        loc.File,
			LineStart:       loc.Line,
			ColumnStart:     loc.Column,
			LineEnd:         loc.Line,
			ColumnEnd:       loc.Column + nonNewlineRunes,
			ReplacementText: primaryFixText,
		},
	}
	return ac.WithDetails(details)
}

func (e *Engine) suggestForNotFound(err error) (*errs.Autocorrection, bool) {
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		e.logger.Warn("decrust: NotFound category but no *errs.NotFoundError in chain")
		return nil, false
	}

	resourceType := strings.ToLower(nf.ResourceType)
	var commands []string
	fixType := errs.FixManualInterventionRequired
	if resourceType == "file" || resourceType == "path" {
		commands = ensureFileCommands(nf.Identifier)
		if len(commands) > 0 {
			fixType = errs.FixExecuteCommand
		}
	}

	ac := errs.NewAutocorrection(
		fmt.Sprintf("Create the missing %s %q.", nf.ResourceType, nf.Identifier),
		fixType, 0.7,
	).WithTargetErrorCode(errs.CategoryNotFound.String())

	if len(commands) > 0 {
		ac = ac.WithDetails(errs.FixDetails{
			Kind: errs.FixDetailsExecuteCommand,
			ExecuteCommand: &errs.ExecuteCommandDetail{
				Command: commandName(commands[0]),
				Args:    commandArgs(commands[0]),
			},
		})
		for _, c := range commands {
			ac.AddCommand(c)
		}
	}
	return ac, true
}

func (e *Engine) suggestForIO(err error) (*errs.Autocorrection, bool) {
	var ioErr *errs.IOError
	if !errors.As(err, &ioErr) {
		return nil, false
	}

	switch ioErr.Kind() {
	case errs.IOKindNotFound:
		path := ""
		if ioErr.Path != nil {
			path = *ioErr.Path
		}
		var commands []string
		if filepath.Ext(path) == "" {
			commands = []string{fmt.Sprintf("mkdir -p %q", path)}
		} else {
			commands = ensureFileCommands(path)
		}
		ac := errs.NewAutocorrection(
			fmt.Sprintf("Create the missing path %q.", path), errs.FixExecuteCommand, 0.65,
		).WithDetails(errs.FixDetails{
			Kind: errs.FixDetailsSuggestCodeChange,
			SuggestCodeChange: &errs.SuggestCodeChangeDetail{
				FilePath:    path,
				LineHint:    1,
				Explanation: "path does not exist; create it before retrying",
			},
		})
		for _, c := range commands {
			ac.AddCommand(c)
		}
		return ac, true
	case errs.IOKindPermissionDenied:
		path := ""
		if ioErr.Path != nil {
			path = *ioErr.Path
		}
		ac := errs.NewAutocorrection(
			fmt.Sprintf("Check permissions for %q.", path), errs.FixConfigurationChange, 0.65,
		).WithDetails(errs.FixDetails{
			Kind: errs.FixDetailsSuggestCodeChange,
			SuggestCodeChange: &errs.SuggestCodeChangeDetail{
				FilePath:    path,
				LineHint:    1,
				Explanation: fmt.Sprintf("check permissions for path %q", path),
			},
		})
		return ac, true
	default:
		return errs.NewAutocorrection("No automated fix available for this I/O error.", errs.FixInformation, 0.65), true
	}
}

func (e *Engine) suggestForConfig(err error) (*errs.Autocorrection, bool) {
	var cfgErr *errs.ConfigError
	if !errors.As(err, &cfgErr) {
		return nil, false
	}

	targetFile := "config.yaml"
	if cfgErr.Path != nil {
		targetFile = *cfgErr.Path
	}

	ac := errs.NewAutocorrection(
		fmt.Sprintf("Review configuration: %s", cfgErr.Message), errs.FixConfigurationChange, 0.7,
	).WithTargetErrorCode(errs.CategoryConfiguration.String()).
		WithDetails(errs.FixDetails{
			Kind: errs.FixDetailsSuggestCodeChange,
			SuggestCodeChange: &errs.SuggestCodeChangeDetail{
				FilePath:    targetFile,
				LineHint:    1,
				Explanation: cfgErr.Message,
			},
		})
	return ac, true
}

// ensureFileCommands builds the mkdir-p/touch sequence for a missing
// file at identifier, skipping the mkdir step when the parent directory
// already exists.
func ensureFileCommands(identifier string) []string {
	var commands []string
	parent := filepath.Dir(identifier)
	if parent != "" && parent != "." {
		if _, err := os.Stat(parent); os.IsNotExist(err) {
			commands = append(commands, fmt.Sprintf("mkdir -p %q", parent))
		}
	}
	commands = append(commands, fmt.Sprintf("touch %q", identifier))
	return commands
}

func commandName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func commandArgs(full string) []string {
	parts := strings.Fields(full)
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}
