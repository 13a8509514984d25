package transaction

import "errors"

var (
	// ErrValidation occurs when a request is malformed or the recipient details
	// do not match the shape the transaction type requires. Nothing is written.
	ErrValidation = errors.New("invalid transaction request")

	// ErrNotFound occurs when the referenced transaction does not exist.
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateReference indicates a reference uniqueness violation that
	// survived a regeneration retry.
	ErrDuplicateReference = errors.New("duplicate transaction reference")

	// ErrInvalidTransition occurs on any status change other than
	// pending->completed or pending->failed. Callers retrying an
	// already-applied transition should treat this as "already processed".
	ErrInvalidTransition = errors.New("invalid status transition")
)
