package domain

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, tag name with no word characters).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidTagName is returned when a tag name normalizes to an empty slug.
// It always travels wrapped together with ErrValidation.
var ErrInvalidTagName = errors.New("invalid tag name")

// ErrDuplicateSlug is returned by the repo layer when an insert races another
// insert of the same (slug, region) pair and the unique index rejects it.
// Services convert it into a field-level validation error; it is never retried.
var ErrDuplicateSlug = errors.New("duplicate tag slug")

// FieldError is a single validation failure tied to an input field.
// Err optionally carries a more specific sentinel such as ErrInvalidTagName.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// ValidationErrors collects field errors produced while validating one input.
// errors.Is(v, ErrValidation) reports true so handlers can treat it like any
// other validation failure.
type ValidationErrors []FieldError

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Merge appends every field error carried by err when it is a
// ValidationErrors, and reports whether it was one.
func (v *ValidationErrors) Merge(err error) bool {
	var other ValidationErrors
	if !errors.As(err, &other) {
		return false
	}
	*v = append(*v, other...)
	return true
}

// Err returns v as an error, or nil when no field errors were collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "validation error: " + strings.Join(msgs, "; ")
}

// Is makes ValidationErrors match ErrValidation and any sentinel carried by
// one of its field errors.
func (v ValidationErrors) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	for _, fe := range v {
		if fe.Err != nil && errors.Is(fe.Err, target) {
			return true
		}
	}
	return false
}

// Invalid returns a single-field ValidationErrors wrapping cause.
func Invalid(field, message string, cause error) error {
	return ValidationErrors{{Field: field, Message: message, Err: cause}}
}
