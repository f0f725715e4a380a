package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput    ErrorType = "input"
	ErrorTypeParse    ErrorType = "parse"
	ErrorTypeShape    ErrorType = "shape"
	ErrorTypeUpstream ErrorType = "upstream"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeOutput   ErrorType = "output"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Kind is the machine-readable reason carried by an AppError.
type Kind string

const (
	KindEmptyInput        Kind = "EmptyInput"
	KindInvalidJSON       Kind = "InvalidJson"
	KindEmptyOrHeaderOnly Kind = "EmptyOrHeaderOnly"
	KindInvalidCSV        Kind = "InvalidCsv"
	KindNotTabular        Kind = "NotTabular"
	KindInvalidXML        Kind = "InvalidXml"
	KindCompactParse      Kind = "CompactParseError"
	KindUnsupportedFormat Kind = "UnsupportedFormat"
	KindFeedUnavailable   Kind = "FeedUnavailable"
	KindTokenizer         Kind = "TokenizerFault"
	KindInvalidConfig     Kind = "InvalidConfig"
)

// Sentinels for errors.Is. Matching compares Type and Kind only.
var (
	ErrEmptyInput        = &AppError{Type: ErrorTypeInput, Kind: KindEmptyInput}
	ErrInvalidJSON       = &AppError{Type: ErrorTypeParse, Kind: KindInvalidJSON}
	ErrEmptyOrHeaderOnly = &AppError{Type: ErrorTypeParse, Kind: KindEmptyOrHeaderOnly}
	ErrInvalidCSV        = &AppError{Type: ErrorTypeParse, Kind: KindInvalidCSV}
	ErrNotTabular        = &AppError{Type: ErrorTypeShape, Kind: KindNotTabular}
	ErrInvalidXML        = &AppError{Type: ErrorTypeParse, Kind: KindInvalidXML}
	ErrCompactParse      = &AppError{Type: ErrorTypeParse, Kind: KindCompactParse}
	ErrUnsupportedFormat = &AppError{Type: ErrorTypeInput, Kind: KindUnsupportedFormat}
	ErrFeedUnavailable   = &AppError{Type: ErrorTypeUpstream, Kind: KindFeedUnavailable}
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Kind    Kind
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	prefix := string(e.Type)
	if e.Kind != "" {
		prefix = fmt.Sprintf("%s(%s)", e.Type, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison. A target without a Kind matches
// any error of the same Type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e.Type != t.Type {
		return false
	}
	return t.Kind == "" || e.Kind == t.Kind
}

// NewInputError creates a new error related to input processing
func NewInputError(kind Kind, message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInput, Kind: kind, Message: message, Err: err}
}

// NewParseError creates a new error for source text that is malformed for its
// declared format.
func NewParseError(kind Kind, message string, err error) *AppError {
	return &AppError{Type: ErrorTypeParse, Kind: kind, Message: message, Err: err}
}

// NewShapeError creates a new error for a tree the target format cannot express.
func NewShapeError(kind Kind, message string, err error) *AppError {
	return &AppError{Type: ErrorTypeShape, Kind: kind, Message: message, Err: err}
}

// NewUpstreamError creates a new error for a failing external collaborator.
func NewUpstreamError(kind Kind, message string, err error) *AppError {
	return &AppError{Type: ErrorTypeUpstream, Kind: kind, Message: message, Err: err}
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeConfig, Kind: KindInvalidConfig, Message: message, Err: err}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeOutput, Message: message, Err: err}
}

// KindOf returns the Kind of the first AppError in err's chain, or "".
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// ConversionError reports the failing leg of a format conversion. It wraps
// the adapter's AppError unchanged.
type ConversionError struct {
	From string
	To   string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s to %s: %v", e.From, e.To, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeParse:
			return fmt.Sprintf("Parse error: %s", appErr.Message)
		case ErrorTypeShape:
			return fmt.Sprintf("Unsupported structure: %s", appErr.Message)
		case ErrorTypeUpstream:
			return fmt.Sprintf("Upstream error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
