package repository

import "errors"

var (
	// ErrNotFound means no document matched the id (and owner, where scoped).
	ErrNotFound = errors.New("not found")
	// ErrStatusMismatch means the session exists but is not in the expected status.
	ErrStatusMismatch = errors.New("session status mismatch")
	// ErrConflict means a conditional write kept losing to concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")
)

// maxCASAttempts bounds the revision-guarded retry loop.
const maxCASAttempts = 5
