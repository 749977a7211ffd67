package deployment

import "fmt"

// ValidationError reports a malformed or out-of-range field. It is always
// produced before any call leaves the process.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func missing(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}

func outOfRange(field string, v int, r Range) error {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("%d is outside [%d, %d]", v, r.Min, r.Max),
	}
}

func notOneOf[T ~string](field, v string, allowed []T) error {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("%q is not one of %v", v, allowed),
	}
}
