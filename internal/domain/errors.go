package domain

import "errors"

// Error classes. Concrete errors below wrap one of these so callers can
// classify with errors.Is without enumerating every case.
var (
	// ErrValidation indicates the request was rejected before any state changed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a concurrent change won; the caller may retry.
	ErrConflict = errors.New("conflict")
)

// Domain errors returned by the service and repository implementations.
var (
	ErrTaskNotFound = wrap(ErrNotFound, "task not found")
	ErrTodoNotFound = wrap(ErrNotFound, "todo not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	// Wraps ErrNotFound: an ID that cannot parse cannot exist.
	ErrInvalidID = wrap(ErrNotFound, "invalid ID format")

	ErrTextRequired    = wrap(ErrValidation, "text is required")
	ErrTextTooLong     = wrap(ErrValidation, "text must be 1000 characters or less")
	ErrTitleRequired   = wrap(ErrValidation, "title is required")
	ErrTitleTooLong    = wrap(ErrValidation, "title must be 255 characters or less")
	ErrOwnerRequired   = wrap(ErrValidation, "owner is required")
	ErrNothingToUpdate = wrap(ErrValidation, "no fields to update")

	// ErrPositionTaken is returned by repositories when an insert races with
	// another insert for the same position.
	ErrPositionTaken = wrap(ErrConflict, "position already taken")
	ErrDuplicateID   = wrap(ErrConflict, "id already exists")
)

type classError struct {
	class error
	msg   string
}

func (e *classError) Error() string { return e.msg }
func (e *classError) Unwrap() error { return e.class }

func wrap(class error, msg string) error {
	return &classError{class: class, msg: msg}
}
