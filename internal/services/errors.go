package services

import "errors"

// Error kinds returned by the financing services. Handlers map them to HTTP
// status codes; everything else is treated as an infrastructure failure.
var (
	// ErrValidation marks malformed or inconsistent input. Nothing is
	// persisted when it is returned.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState marks an operation attempted against a plan or payment
	// whose current state forbids it.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound marks a missing plan, payment or customer.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a duplicate submission or a lost lock race; the
	// caller should retry the whole operation.
	ErrConflict = errors.New("conflict")
)
