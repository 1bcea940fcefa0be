package application

import "errors"

var (
	// ErrNotFound is returned when the requested court, session, block or
	// waitlist entry does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a mutation lost the race against a
	// concurrent writer and the caller should re-fetch and retry.
	ErrConflict = errors.New("application: concurrent update conflict")
	// ErrAlreadyExists is returned when a record with the same identity is
	// already stored.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can
// surface to users. Validation failures never partially mutate state.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func validationError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}
