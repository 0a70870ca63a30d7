package decrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1mb-dev/sentinel/errs"
)

func TestSuggestPrefersEmbeddedDiagnostic(t *testing.T) {
	line := 42
	loc := errs.Location{File: "main.go", Line: line, Column: 5}
	diag := errs.DiagnosticResult{
		PrimaryLocation: &loc,
		SuggestedFixes:  []string{"unused import"},
	}
	base := errs.NewValidation("import", "unused")
	wrapped := errs.AddContext(base, errs.NewContext("compile failed").WithDiagnostic(diag))

	eng := New(nil)
	ac, ok := eng.Suggest(wrapped, nil)
	require.True(t, ok)
	assert.Equal(t, errs.FixTextReplacement, ac.FixType)
	assert.InDelta(t, 0.85, ac.Confidence, 0.0001)
	require.NotNil(t, ac.Details)
	require.NotNil(t, ac.Details.TextReplace)
	assert.Equal(t, "unused import", ac.Details.TextReplace.ReplacementText)
}

func TestSuggestFromDiagnosticWithoutLocationOmitsDetails(t *testing.T) {
	diag := errs.DiagnosticResult{
		SuggestedFixes: []string{"enable the feature flag"},
		DiagnosticCode: strPtr("E9999"),
	}
	base := errs.NewValidation("flag", "disabled")
	wrapped := errs.AddContext(base, errs.NewContext("compile failed").WithDiagnostic(diag))

	eng := New(nil)
	ac, ok := eng.Suggest(wrapped, nil)
	require.True(t, ok)
	assert.Equal(t, errs.FixTextReplacement, ac.FixType)
	assert.Nil(t, ac.Details, "no PrimaryLocation to anchor a fix to, Details must stay nil")
	require.NotNil(t, ac.TargetsErrorCode)
	assert.Equal(t, "E9999", *ac.TargetsErrorCode)
}

func TestSuggestForNotFoundFile(t *testing.T) {
	err := errs.NewNotFound("file", "/tmp/does-not-exist-xyz/report.txt")
	eng := New(nil)
	ac, ok := eng.Suggest(err, nil)
	require.True(t, ok)
	assert.Equal(t, errs.FixExecuteCommand, ac.FixType)
	assert.InDelta(t, 0.7, ac.Confidence, 0.0001)
	assert.NotEmpty(t, ac.CommandsToApply)
}

func TestSuggestForNotFoundOtherResource(t *testing.T) {
	err := errs.NewNotFound("user", "42")
	eng := New(nil)
	ac, ok := eng.Suggest(err, nil)
	require.True(t, ok)
	assert.Equal(t, errs.FixManualInterventionRequired, ac.FixType)
	assert.Empty(t, ac.CommandsToApply)
}

func TestSuggestForConfig(t *testing.T) {
	path := "/etc/app/config.yaml"
	err := errs.NewConfig("missing required key 'port'", &path, nil)
	eng := New(nil)
	ac, ok := eng.Suggest(err, nil)
	require.True(t, ok)
	assert.Equal(t, errs.FixConfigurationChange, ac.FixType)
	require.NotNil(t, ac.Details)
	require.NotNil(t, ac.Details.SuggestCodeChange)
	assert.Equal(t, path, ac.Details.SuggestCodeChange.FilePath)
}

func TestSuggestNoneForUnsupportedCategory(t *testing.T) {
	err := errs.NewStateConflict("already running")
	eng := New(nil)
	_, ok := eng.Suggest(err, nil)
	assert.False(t, ok)
}

func strPtr(s string) *string { return &s }
