package errors

import (
	stderrors "errors"
)

// SiftError is the structured error used across docsift. The code
// string drives everything derived from it: category, severity, and
// whether a retry could help.
type SiftError struct {
	// Code identifies the failure, e.g. "ERR_301_STATE_MALFORMED".
	Code string
	// Message is the human-readable description.
	Message string
	// Cause holds the wrapped underlying error, if any.
	Cause error

	// Category and Severity classify the failure for reporting.
	Category Category
	Severity Severity
	// Retryable marks failures where trying again could succeed.
	Retryable bool

	// Details carries extra key-value context for logs.
	Details map[string]string
	// Suggestion tells the user what to do about it.
	Suggestion string
}

func (se *SiftError) Error() string {
	return "[" + se.Code + "] " + se.Message
}

// Unwrap exposes the cause to the stdlib errors package.
func (se *SiftError) Unwrap() error { return se.Cause }

// Is matches by code, so errors.Is treats two SiftErrors with the same
// code as equal regardless of message.
func (se *SiftError) Is(target error) bool {
	other, ok := target.(*SiftError)
	return ok && other.Code == se.Code
}

// WithDetail attaches one key-value pair, allocating the map on first
// use. Returns se for chaining.
func (se *SiftError) WithDetail(key, value string) *SiftError {
	if se.Details == nil {
		se.Details = map[string]string{}
	}
	se.Details[key] = value
	return se
}

// WithSuggestion sets the user-facing remediation hint. Returns se for
// chaining.
func (se *SiftError) WithSuggestion(s string) *SiftError {
	se.Suggestion = s
	return se
}

// New builds a SiftError, deriving category, severity, and the
// retryable flag from the code.
func New(code, msg string, cause error) *SiftError {
	se := &SiftError{Code: code, Message: msg, Cause: cause}
	se.Category = categoryFromCode(code)
	se.Severity = severityFromCode(code)
	se.Retryable = isRetryableCode(code)
	return se
}

// Wrap lifts an existing error into a SiftError, reusing its text as
// the message. A nil err stays nil.
func Wrap(code string, err error) *SiftError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError builds an error under the config-invalid code.
func ConfigError(msg string, cause error) *SiftError {
	return New(ErrCodeConfigInvalid, msg, cause)
}

// WalkError creates a directory-walk error. Walk errors are fatal:
// a single unreadable entry aborts the whole walk.
func WalkError(msg string, cause error) *SiftError {
	return New(ErrCodeWalkFailed, msg, cause)
}

// ExtractError creates a per-document extraction error. These are
// recoverable; the document is skipped and the walk continues.
func ExtractError(msg string, cause error) *SiftError {
	return New(ErrCodeExtractFailed, msg, cause)
}

// StateError builds a persisted-state error under the given code.
func StateError(code, msg string, cause error) *SiftError {
	return New(code, msg, cause)
}

// ValidationError builds an error for rejected input.
func ValidationError(msg string, cause error) *SiftError {
	return New(ErrCodeInvalidInput, msg, cause)
}

// InternalError builds an error under the catch-all internal code.
func InternalError(msg string, cause error) *SiftError {
	return New(ErrCodeInternal, msg, cause)
}

// asSift digs a SiftError out of err's chain.
func asSift(err error) (*SiftError, bool) {
	var se *SiftError
	ok := stderrors.As(err, &se)
	return se, ok
}

// IsRetryable reports whether retrying the operation behind err could
// succeed. Foreign errors are never retryable.
func IsRetryable(err error) bool {
	se, ok := asSift(err)
	return ok && se.Retryable
}

// IsFatal reports whether err should abort the enclosing operation.
func IsFatal(err error) bool {
	se, ok := asSift(err)
	return ok && se.Severity == SeverityFatal
}

// GetCode returns err's code, or "" for foreign errors.
func GetCode(err error) string {
	if se, ok := asSift(err); ok {
		return se.Code
	}
	return ""
}

// GetCategory returns err's category, or "" for foreign errors.
func GetCategory(err error) Category {
	if se, ok := asSift(err); ok {
		return se.Category
	}
	return ""
}
