package errors

import (
	"encoding/json"
	"strings"
)

// coerce returns err as a SiftError, wrapping foreign errors under the
// internal code. Formatting shows the error as given, so no chain
// digging here.
func coerce(err error) *SiftError {
	if se, ok := err.(*SiftError); ok {
		return se
	}
	return Wrap(ErrCodeInternal, err)
}

// FormatForCLI renders an error compactly for terminal output: the
// message, an optional hint, and the code for reference.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	se := coerce(err)

	lines := []string{"Error: " + se.Message}
	if se.Suggestion != "" {
		lines = append(lines, "  Hint: "+se.Suggestion)
	}
	lines = append(lines, "  Code: "+se.Code)

	return strings.Join(lines, "\n") + "\n"
}

// errorPayload is the wire shape FormatJSON emits.
type errorPayload struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON renders an error as a JSON object for machine consumers.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}
	se := coerce(err)

	payload := errorPayload{
		Code:       se.Code,
		Message:    se.Message,
		Category:   string(se.Category),
		Severity:   string(se.Severity),
		Details:    se.Details,
		Suggestion: se.Suggestion,
		Retryable:  se.Retryable,
	}
	if se.Cause != nil {
		payload.Cause = se.Cause.Error()
	}

	return json.Marshal(payload)
}

// FormatForLog flattens an error into slog attributes. Foreign errors
// produce a single "error" field.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	se, ok := err.(*SiftError)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	fields := map[string]any{
		"error_code": se.Code,
		"message":    se.Message,
		"category":   string(se.Category),
		"severity":   string(se.Severity),
		"retryable":  se.Retryable,
	}
	if se.Cause != nil {
		fields["cause"] = se.Cause.Error()
	}
	if se.Suggestion != "" {
		fields["suggestion"] = se.Suggestion
	}
	for k, v := range se.Details {
		fields["detail_"+k] = v
	}

	return fields
}
