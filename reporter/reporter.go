// Package reporter formats errs.SentinelError values for humans or for
// machine consumption. It is intentionally outside the error model and
// the circuit breaker core — both treat it as an external collaborator,
// never a dependency.
package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/1mb-dev/sentinel/errs"
)

// Format selects how Render renders a report.
type Format int

const (
	FormatPlain Format = iota
	FormatMarkdown
	FormatJSON
)

// Report is the structured shape a rendered error takes before being
// serialized — exported so callers needing JSON don't have to go
// through the Render/string round-trip.
type Report struct {
	Message       string            `json:"message"`
	Category      string            `json:"category"`
	Severity      string            `json:"severity"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Component     string            `json:"component,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Recovery      string            `json:"recovery_suggestion,omitempty"`
	DiagnosticMsg string            `json:"diagnostic_message,omitempty"`
}

// Build assembles a Report from err, pulling whatever WithRichContext
// fields are present at the outermost level.
func Build(err error) Report {
	r := Report{
		Message:  err.Error(),
		Category: errs.CategoryOf(err).String(),
		Severity: errs.SeverityOf(err).String(),
	}
	if ctx, ok := errs.GetContext(err); ok {
		if ctx.CorrelationID != nil {
			r.CorrelationID = *ctx.CorrelationID
		}
		if ctx.Component != nil {
			r.Component = *ctx.Component
		}
		r.Tags = ctx.Tags
		r.Metadata = ctx.Metadata
		if ctx.RecoverySuggestion != nil {
			r.Recovery = *ctx.RecoverySuggestion
		}
		if ctx.Diagnostic != nil && ctx.Diagnostic.OriginalMessage != nil {
			r.DiagnosticMsg = *ctx.Diagnostic.OriginalMessage
		}
	}
	return r
}

// Render formats err as f.
func Render(err error, f Format) (string, error) {
	report := Build(err)
	switch f {
	case FormatJSON:
		data, jsonErr := json.MarshalIndent(report, "", "  ")
		if jsonErr != nil {
			return "", jsonErr
		}
		return string(data), nil
	case FormatMarkdown:
		return renderMarkdown(report), nil
	default:
		return renderPlain(report), nil
	}
}

func renderPlain(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s/%s] %s\n", r.Severity, r.Category, r.Message)
	if r.Component != "" {
		fmt.Fprintf(&b, "component: %s\n", r.Component)
	}
	if r.CorrelationID != "" {
		fmt.Fprintf(&b, "correlation-id: %s\n", r.CorrelationID)
	}
	if r.Recovery != "" {
		fmt.Fprintf(&b, "suggested recovery: %s\n", r.Recovery)
	}
	for _, tag := range r.Tags {
		fmt.Fprintf(&b, "tag: %s\n", tag)
	}
	return b.String()
}

func renderMarkdown(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", r.Message)
	fmt.Fprintf(&b, "- **severity**: %s\n", r.Severity)
	fmt.Fprintf(&b, "- **category**: %s\n", r.Category)
	if r.Component != "" {
		fmt.Fprintf(&b, "- **component**: %s\n", r.Component)
	}
	if r.CorrelationID != "" {
		fmt.Fprintf(&b, "- **correlation id**: `%s`\n", r.CorrelationID)
	}
	if r.Recovery != "" {
		fmt.Fprintf(&b, "- **recovery**: %s\n", r.Recovery)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, "- **tags**: %s\n", strings.Join(r.Tags, ", "))
	}
	return b.String()
}
