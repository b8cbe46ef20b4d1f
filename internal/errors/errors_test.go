package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// SiftError Behavior
// ============================================================================

func TestSiftError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "no config in home directory",
			expected: "[ERR_101_CONFIG_NOT_FOUND] no config in home directory",
		},
		{
			name:     "walk error",
			code:     ErrCodeWalkFailed,
			message:  "docs/vendor: permission denied",
			expected: "[ERR_203_WALK_FAILED] docs/vendor: permission denied",
		},
		{
			name:     "state error",
			code:     ErrCodeStateMalformed,
			message:  "truncated zstd frame",
			expected: "[ERR_301_STATE_MALFORMED] truncated zstd frame",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.code, tt.message, nil).Error())
		})
	}
}

func TestSiftError_Unwrap_PreservesOriginalError(t *testing.T) {
	cause := errors.New("open state.json: permission denied")

	err := New(ErrCodeFileNotFound, "cannot open state file", cause)

	require.NotNil(t, err)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestSiftError_Is_ComparesCodesNotMessages(t *testing.T) {
	missingA := New(ErrCodeFileNotFound, "missing docs/guide.md", nil)
	missingB := New(ErrCodeFileNotFound, "missing docs/api.md", nil)
	badConfig := New(ErrCodeConfigNotFound, "no config", nil)

	assert.True(t, errors.Is(missingA, missingB))
	assert.False(t, errors.Is(missingA, badConfig))
}

func TestSiftError_WithDetail_AccumulatesAndOverwrites(t *testing.T) {
	err := New(ErrCodeExtractFailed, "extraction failed", nil).
		WithDetail("path", "docs/api/reference.md").
		WithDetail("attempt", "1")

	err = err.WithDetail("attempt", "2")

	assert.Equal(t, "docs/api/reference.md", err.Details["path"])
	assert.Equal(t, "2", err.Details["attempt"])
	assert.Len(t, err.Details, 2)
}

func TestSiftError_WithSuggestion_SetsHint(t *testing.T) {
	err := New(ErrCodeStateMalformed, "truncated state file", nil).
		WithSuggestion("Run 'docsift index' to rebuild the state file")

	assert.Equal(t, "Run 'docsift index' to rebuild the state file", err.Suggestion)
}

// ============================================================================
// Derivation From Codes
// ============================================================================

func TestSiftError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileNotFound, CategoryIO},
		{ErrCodeWalkFailed, CategoryIO},
		{ErrCodeStateMalformed, CategoryState},
		{ErrCodeStateLocked, CategoryState},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeQueryEmpty, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeQueryFailed, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.wantCategory, New(tt.code, "x", nil).Category)
		})
	}
}

func TestSiftError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeWalkFailed, SeverityFatal},
		{ErrCodeStateMalformed, SeverityFatal},
		{ErrCodeStateSaveFailed, SeverityFatal},
		{ErrCodeStateVersion, SeverityFatal},
		{ErrCodeFileNotFound, SeverityError},
		{ErrCodeExtractFailed, SeverityWarning},
		{ErrCodeUnsupportedFormat, SeverityWarning},
		{ErrCodeStateLocked, SeverityWarning}, // retryable, so warning
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.wantSeverity, New(tt.code, "x", nil).Severity)
		})
	}
}

func TestSiftError_RetryableFromCode(t *testing.T) {
	tests := []struct {
		code          string
		wantRetryable bool
	}{
		{ErrCodeStateLocked, true},
		{ErrCodeFileNotFound, false},
		{ErrCodeConfigInvalid, false},
		{ErrCodeStateMalformed, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.wantRetryable, New(tt.code, "x", nil).Retryable)
		})
	}
}

// ============================================================================
// Construction Helpers
// ============================================================================

func TestWrap_LiftsForeignError(t *testing.T) {
	cause := errors.New("yaml: line 3: mapping values are not allowed")

	err := Wrap(ErrCodeConfigInvalid, cause)

	require.NotNil(t, err)
	assert.Equal(t, ErrCodeConfigInvalid, err.Code)
	assert.Equal(t, cause.Error(), err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, CategoryConfig, err.Category)
}

func TestWrap_NilErrorReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_DerivesRetryableFlag(t *testing.T) {
	err := Wrap(ErrCodeStateLocked, errors.New("flock: resource temporarily unavailable"))

	assert.True(t, err.Retryable)
	assert.Equal(t, SeverityWarning, err.Severity)
}

func TestConfigError_CreatesConfigCategoryError(t *testing.T) {
	err := ConfigError("unknown key 'serch'", nil)

	assert.Equal(t, CategoryConfig, err.Category)
	assert.Contains(t, err.Code, "CONFIG")
}

func TestWalkError_IsFatal(t *testing.T) {
	err := WalkError("cannot stat entry", nil)

	assert.Equal(t, CategoryIO, err.Category)
	assert.True(t, IsFatal(err))
}

func TestExtractError_IsRecoverable(t *testing.T) {
	err := ExtractError("malformed xml", nil)

	assert.Equal(t, CategoryIO, err.Category)
	assert.False(t, IsFatal(err))
}

func TestStateError_LockedIsRetryable(t *testing.T) {
	err := StateError(ErrCodeStateLocked, "state file is locked", nil)

	assert.Equal(t, CategoryState, err.Category)
	assert.True(t, err.Retryable)
}

func TestValidationError_CreatesValidationCategoryError(t *testing.T) {
	err := ValidationError("query cannot be empty", nil)

	assert.Equal(t, CategoryValidation, err.Category)
}

// ============================================================================
// Inspection Helpers
// ============================================================================

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable code", New(ErrCodeStateLocked, "locked", nil), true},
		{"non-retryable code", New(ErrCodeStateMalformed, "bad state", nil), false},
		{"foreign error", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestInspection_SeesThroughWrapping(t *testing.T) {
	inner := New(ErrCodeStateLocked, "state file is locked", nil)
	wrapped := fmt.Errorf("saving index: %w", inner)

	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, ErrCodeStateLocked, GetCode(wrapped))
	assert.Equal(t, CategoryState, GetCategory(wrapped))
}

func TestIsFatal_SeesThroughWrapping(t *testing.T) {
	inner := WalkError("docs: permission denied", nil)
	wrapped := fmt.Errorf("indexing docs: %w", inner)

	assert.True(t, IsFatal(wrapped))
	assert.False(t, IsFatal(fmt.Errorf("plain: %w", errors.New("x"))))
	assert.False(t, IsFatal(nil))
}

func TestGetCode_ForeignAndNil(t *testing.T) {
	assert.Equal(t, ErrCodeStateMalformed, GetCode(New(ErrCodeStateMalformed, "bad state", nil)))
	assert.Equal(t, "", GetCode(errors.New("plain")))
	assert.Equal(t, "", GetCode(nil))
}

func TestGetCategory_ForeignErrorHasNone(t *testing.T) {
	assert.Equal(t, CategoryIO, GetCategory(WalkError("walk failed", nil)))
	assert.Equal(t, Category(""), GetCategory(errors.New("plain")))
}
