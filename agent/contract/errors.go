package contract

import "errors"

// Sentinel errors for the turn pipeline. Callers match them with errors.Is;
// sites wrap them with fmt.Errorf("%w: ...") to add detail.
var (
	ErrModelInvoke     = errors.New("chat model invocation failed")
	ErrSchemaViolation = errors.New("chat model response violates the expected schema")
	ErrPromptMissing   = errors.New("system prompt is missing")
	ErrValidation      = errors.New("turn input validation failed")
)
