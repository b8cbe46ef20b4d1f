// Package errors carries docsift's structured error type and its
// code taxonomy.
//
// Codes are strings of the form ERR_XXX_DESCRIPTION. The leading digit
// of the numeric block names the category:
//
//	1xx configuration
//	2xx IO (walking, extraction)
//	3xx persisted state (load, save, locking)
//	4xx validation
//	5xx internal
package errors

// Category classifies an error by the subsystem it came from.
type Category string

const (
	// CategoryConfig covers configuration loading and merging.
	CategoryConfig Category = "CONFIG"
	// CategoryIO covers file and directory access.
	CategoryIO Category = "IO"
	// CategoryState covers the persisted index state.
	CategoryState Category = "STATE"
	// CategoryValidation covers rejected input.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal covers everything unexpected.
	CategoryInternal Category = "INTERNAL"
)

// Severity says how an error affects the operation that hit it.
type Severity string

const (
	// SeverityFatal aborts the enclosing operation.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails one unit of work; the operation continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning degrades the result without failing anything.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo is informational only.
	SeverityInfo Severity = "INFO"
)

const (
	// 1xx: configuration
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// 2xx: IO
	ErrCodeFileNotFound      = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission    = "ERR_202_FILE_PERMISSION"
	ErrCodeWalkFailed        = "ERR_203_WALK_FAILED"
	ErrCodeExtractFailed     = "ERR_204_EXTRACT_FAILED"
	ErrCodeUnsupportedFormat = "ERR_205_UNSUPPORTED_FORMAT"

	// 3xx: state
	ErrCodeStateMalformed  = "ERR_301_STATE_MALFORMED"
	ErrCodeStateLocked     = "ERR_302_STATE_LOCKED"
	ErrCodeStateSaveFailed = "ERR_303_STATE_SAVE_FAILED"
	ErrCodeStateVersion    = "ERR_304_STATE_VERSION"

	// 4xx: validation
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty   = "ERR_402_QUERY_EMPTY"
	ErrCodeInvalidPath  = "ERR_403_INVALID_PATH"

	// 5xx: internal
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeQueryFailed = "ERR_502_QUERY_FAILED"
	ErrCodeIndexFailed = "ERR_503_INDEX_FAILED"
)

const codePrefix = "ERR_"

// categoryByDigit maps the leading digit of a code's numeric block to
// its category.
var categoryByDigit = map[byte]Category{
	'1': CategoryConfig,
	'2': CategoryIO,
	'3': CategoryState,
	'4': CategoryValidation,
	'5': CategoryInternal,
}

// categoryFromCode reads the category out of a code. Malformed codes
// count as internal.
func categoryFromCode(code string) Category {
	if len(code) <= len(codePrefix) || code[:len(codePrefix)] != codePrefix {
		return CategoryInternal
	}
	if cat, ok := categoryByDigit[code[len(codePrefix)]]; ok {
		return cat
	}
	return CategoryInternal
}

// severityOverrides lists codes whose severity differs from the plain
// per-unit default. Walk and state failures take the whole operation
// down; a skipped or unsupported document only degrades the corpus.
var severityOverrides = map[string]Severity{
	ErrCodeWalkFailed:        SeverityFatal,
	ErrCodeStateMalformed:    SeverityFatal,
	ErrCodeStateSaveFailed:   SeverityFatal,
	ErrCodeStateVersion:      SeverityFatal,
	ErrCodeExtractFailed:     SeverityWarning,
	ErrCodeUnsupportedFormat: SeverityWarning,
}

func severityFromCode(code string) Severity {
	if sev, ok := severityOverrides[code]; ok {
		return sev
	}
	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether retrying the failed operation could
// succeed. Only lock contention qualifies; another process may release
// the state file at any moment.
func isRetryableCode(code string) bool {
	return code == ErrCodeStateLocked
}
