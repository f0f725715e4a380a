package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "error with wrapped error",
			appError: &AppError{
				Type:    ErrorTypeInput,
				Message: "failed to read input",
				Err:     errors.New("file not found"),
			},
			expected: "input: failed to read input: file not found",
		},
		{
			name: "error with kind",
			appError: &AppError{
				Type:    ErrorTypeParse,
				Kind:    KindEmptyOrHeaderOnly,
				Message: "CSV must have at least a header and one data row",
			},
			expected: "parse(EmptyOrHeaderOnly): CSV must have at least a header and one data row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	wrappedErr := errors.New("wrapped error")
	appErr := NewParseError(KindInvalidXML, "bad xml", wrappedErr)

	assert.Equal(t, wrappedErr, appErr.Unwrap())
	assert.ErrorIs(t, appErr, wrappedErr)
}

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		target   error
		expected bool
	}{
		{
			name:     "same type and kind",
			appError: NewShapeError(KindNotTabular, "x", nil),
			target:   ErrNotTabular,
			expected: true,
		},
		{
			name:     "same type, different kind",
			appError: NewParseError(KindInvalidXML, "x", nil),
			target:   ErrEmptyOrHeaderOnly,
			expected: false,
		},
		{
			name:     "target without kind matches type",
			appError: NewParseError(KindCompactParse, "x", nil),
			target:   &AppError{Type: ErrorTypeParse},
			expected: true,
		},
		{
			name:     "different type",
			appError: NewInputError(KindEmptyInput, "x", nil),
			target:   ErrInvalidJSON,
			expected: false,
		},
		{
			name:     "not an AppError",
			appError: NewInputError(KindEmptyInput, "x", nil),
			target:   errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Is(tt.target))
		})
	}
}

func TestConversionError(t *testing.T) {
	cause := NewParseError(KindEmptyOrHeaderOnly, "CSV must have at least a header and one data row", nil)
	err := &ConversionError{From: "csv", To: "json", Err: cause}

	assert.ErrorIs(t, err, ErrEmptyOrHeaderOnly)
	assert.Equal(t, KindEmptyOrHeaderOnly, KindOf(err))
	assert.Contains(t, err.Error(), "convert csv to json")

	wrapped := fmt.Errorf("outer: %w", err)
	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Same(t, cause, appErr)
}

func TestKindOf_NotAppError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestUserFriendlyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "input error",
			err:      NewInputError(KindEmptyInput, "Please enter some data to convert", nil),
			expected: "Input error: Please enter some data to convert",
		},
		{
			name:     "parse error",
			err:      NewParseError(KindInvalidXML, "Invalid XML format", nil),
			expected: "Parse error: Invalid XML format",
		},
		{
			name:     "shape error",
			err:      NewShapeError(KindNotTabular, "data must be an array with at least one object", nil),
			expected: "Unsupported structure: data must be an array with at least one object",
		},
		{
			name:     "upstream error",
			err:      NewUpstreamError(KindFeedUnavailable, "pricing feed returned 503", nil),
			expected: "Upstream error: pricing feed returned 503",
		},
		{
			name:     "config error",
			err:      NewConfigError("bad config", nil),
			expected: "Configuration error: bad config",
		},
		{
			name:     "output error",
			err:      NewOutputError("failed to write output", nil),
			expected: "Output error: failed to write output",
		},
		{
			name:     "wrapped in conversion error",
			err:      &ConversionError{From: "xml", To: "json", Err: NewParseError(KindInvalidXML, "Invalid XML format", nil)},
			expected: "Parse error: Invalid XML format",
		},
		{
			name:     "unknown error",
			err:      errors.New("some unknown error"),
			expected: "Error: some unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserFriendlyError(tt.err))
		})
	}
}
