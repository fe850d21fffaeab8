package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		wantCategory Category
		wantSeverity Severity
	}{
		{name: "invalid regex", code: ErrCodeInvalidRegex, wantCategory: CategoryPattern, wantSeverity: SeverityFatal},
		{name: "invalid hex", code: ErrCodeInvalidHex, wantCategory: CategoryPattern, wantSeverity: SeverityFatal},
		{name: "root not found", code: ErrCodeRootNotFound, wantCategory: CategoryIO, wantSeverity: SeverityFatal},
		{name: "file read", code: ErrCodeFileRead, wantCategory: CategoryIO, wantSeverity: SeverityWarning},
		{name: "walk entry", code: ErrCodeWalkEntry, wantCategory: CategoryIO, wantSeverity: SeverityWarning},
		{name: "config invalid", code: ErrCodeConfigInvalid, wantCategory: CategoryConfig, wantSeverity: SeverityFatal},
		{name: "internal", code: ErrCodeInternal, wantCategory: CategoryInternal, wantSeverity: SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
			assert.Equal(t, tt.wantSeverity, err.Severity)
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := Wrap(ErrCodeFileRead, cause)
	require.NotNil(t, err)

	assert.Equal(t, ErrCodeFileRead, err.Code)
	assert.Equal(t, "permission denied", err.Message)
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeFileRead, nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(ErrCodeInvalidHex, "odd length", nil)
	target := New(ErrCodeInvalidHex, "different message", nil)

	assert.True(t, stderrors.Is(err, target))
	assert.False(t, stderrors.Is(err, New(ErrCodeInvalidRegex, "other", nil)))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeInvalidRegex, "bad", nil)))
	assert.False(t, IsFatal(New(ErrCodeFileRead, "bad", nil)))
	assert.False(t, IsFatal(fmt.Errorf("plain")))
	assert.False(t, IsFatal(nil))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := New(ErrCodeWalkEntry, "cannot stat", nil).
		WithDetail("path", "/tmp/x").
		WithSuggestion("check permissions")

	assert.Equal(t, "/tmp/x", err.Details["path"])
	assert.Equal(t, "check permissions", err.Suggestion)
}

func TestGetCodeAndCategory(t *testing.T) {
	err := New(ErrCodeRootNotFound, "no such dir", nil)
	assert.Equal(t, ErrCodeRootNotFound, GetCode(err))
	assert.Equal(t, CategoryIO, GetCategory(err))

	plain := fmt.Errorf("plain")
	assert.Empty(t, GetCode(plain))
	assert.Empty(t, string(GetCategory(plain)))
}

func TestFormatForCLI(t *testing.T) {
	err := New(ErrCodeInvalidRegex, "unbalanced paren", nil).
		WithSuggestion("escape literal parentheses with \\")

	out := FormatForCLI(err)
	assert.Contains(t, out, "Error: unbalanced paren")
	assert.Contains(t, out, "Hint: escape literal parentheses")
	assert.Contains(t, out, ErrCodeInvalidRegex)

	// Plain errors are wrapped as internal.
	out = FormatForCLI(fmt.Errorf("plain failure"))
	assert.Contains(t, out, "plain failure")
	assert.Contains(t, out, ErrCodeInternal)
}
