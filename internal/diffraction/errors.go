package diffraction

import "fmt"

// ValidationError reports malformed input: mismatched lengths, empty arrays
// or non-finite values. It is the only error Analyze surfaces to callers;
// every later failure degrades into warnings on the returned Result.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func validationErr(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
