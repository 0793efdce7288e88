package workflow

import "errors"

var (
	ErrUnauthorized      = errors.New("role is not allowed to perform this operation")
	ErrNotFound          = errors.New("project has no workflow record")
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrMissingOpinion    = errors.New("review opinion is required")
	ErrPersistence       = errors.New("workflow persistence failure")
)

// PersistenceError wraps a store failure that aborted a transaction.
// It matches both ErrPersistence and the original store error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
