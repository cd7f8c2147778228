package repositories

import "fmt"

// ErrorKind labels the category of a repository failure.
type ErrorKind int

const (
	// KindNotFound means the requested record does not exist.
	KindNotFound ErrorKind = iota
	// KindConflict means the write collided with concurrent state.
	KindConflict
	// KindUnavailable means the backing store could not serve the request.
	KindUnavailable
)

// Error is the concrete RepositoryError implementation shared by the in-memory stores.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewNotFound builds a not-found repository error for the given resource.
func NewNotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

// NewConflict builds a conflict repository error.
func NewConflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewUnavailable builds an unavailable repository error wrapping the cause.
func NewUnavailable(message string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause when present.
func (e *Error) Unwrap() error { return e.Err }

// IsNotFound implements RepositoryError.
func (e *Error) IsNotFound() bool { return e != nil && e.Kind == KindNotFound }

// IsConflict implements RepositoryError.
func (e *Error) IsConflict() bool { return e != nil && e.Kind == KindConflict }

// IsUnavailable implements RepositoryError.
func (e *Error) IsUnavailable() bool { return e != nil && e.Kind == KindUnavailable }
