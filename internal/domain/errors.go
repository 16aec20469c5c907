package domain

import "errors"

// Error taxonomy shared by all services. Callers classify with errors.Is;
// everything a repository or service returns wraps one of these.
var (
	// ErrValidation means the input is malformed or missing. Retrying
	// without fixing the input will fail again.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the resource does not exist or is not owned by the
	// calling user. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the store detected concurrent-update contention or
	// a uniqueness violation. The whole operation is safe to retry.
	ErrConflict = errors.New("conflict")

	// ErrPersistence means the store was unreachable or a write failed.
	// Transient; callers may retry with backoff. Never retried internally.
	ErrPersistence = errors.New("persistence failure")
)
