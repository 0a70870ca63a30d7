package errs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, SeverityDebug, SeverityInfo)
	assert.Less(t, SeverityInfo, SeverityWarning)
	assert.Less(t, SeverityWarning, SeverityError)
	assert.Less(t, SeverityError, SeverityCritical)
}

func TestContextBuilders(t *testing.T) {
	ctx := NewContext("boom").
		WithSeverity(SeverityCritical).
		WithRecoverySuggestion("restart the service").
		WithMetadata("region", "us-east-1").
		WithComponent("ingest").
		AddTag("retryable")

	require.Equal(t, "boom", ctx.Message)
	assert.Equal(t, SeverityCritical, ctx.Severity)
	require.NotNil(t, ctx.RecoverySuggestion)
	assert.Equal(t, "restart the service", *ctx.RecoverySuggestion)
	assert.Equal(t, "us-east-1", ctx.Metadata["region"])
	require.NotNil(t, ctx.Component)
	assert.Equal(t, "ingest", *ctx.Component)
	assert.Contains(t, ctx.Tags, "retryable")
}

func TestGeneratedCorrelationID(t *testing.T) {
	ctx := NewContext("boom").WithGeneratedCorrelationID()
	require.NotNil(t, ctx.CorrelationID)
	assert.NotEmpty(t, *ctx.CorrelationID)
}

func TestCategoryProjection(t *testing.T) {
	base := NewNotFound("file", "/etc/missing.conf")
	assert.Equal(t, CategoryNotFound, base.Category())

	wrapped := AddContextMessage(base, "while loading config")
	assert.Equal(t, CategoryNotFound, CategoryOf(wrapped))
}

func TestWithRichContextSeverityOverridesSource(t *testing.T) {
	base := NewInternal("unexpected nil pointer", nil)
	assert.Equal(t, SeverityCritical, base.Severity())

	wrapped := AddContext(base, NewContext("during startup").WithSeverity(SeverityWarning))
	assert.Equal(t, SeverityWarning, SeverityOf(wrapped))
}

func TestGetContextOnlyMatchesOutermostVariant(t *testing.T) {
	base := NewNotFound("file", "a.txt")
	_, ok := GetContext(base)
	assert.False(t, ok)

	wrapped := AddContext(base, NewContext("loading"))
	ctx, ok := GetContext(wrapped)
	require.True(t, ok)
	assert.Equal(t, "loading", ctx.Message)

	nested := NewInternal("outer", wrapped)
	_, ok = GetContext(nested)
	assert.False(t, ok)
}

func TestCircuitBreakerOpenRetryAfter(t *testing.T) {
	d := 50 * time.Millisecond
	err := NewCircuitBreakerOpen("payments", &d)
	assert.Contains(t, err.Error(), "payments")
	assert.Contains(t, err.Error(), "50ms")
}

func TestMultipleErrorsAggregation(t *testing.T) {
	m := NewMultipleErrors([]error{
		NewValidation("name", "required"),
		NewValidation("age", "must be positive"),
	})
	assert.Equal(t, CategoryMultiple, m.Category())
	assert.Len(t, m.Errors, 2)
}

func TestOrMissingValue(t *testing.T) {
	_, err := OrMissingValue(0, false, "cache entry")
	require.Error(t, err)
	var mv *MissingValueError
	require.True(t, errors.As(err, &mv))
	assert.Equal(t, "cache entry", mv.ItemDescription)

	v, err := OrMissingValue(42, true, "cache entry")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
