package core

import "errors"

var (
	ErrAlreadyExists = errors.New("document already exists")
	ErrNotFound      = errors.New("document not found")
	ErrInvalidID     = errors.New("invalid document id")
	ErrInvalidData   = errors.New("invalid document data")
	// ErrCorrupt is returned when a stored document no longer parses as JSON,
	// e.g. after a crash mid-write or while racing a concurrent update.
	ErrCorrupt = errors.New("stored document is not valid JSON")
	// ErrLockTimeout and ErrConcurrentWrite are retryable.
	ErrLockTimeout     = errors.New("timed out waiting for document lock")
	ErrConcurrentWrite = errors.New("document changed concurrently")
)
