package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrDuplicateTournament rejects an unverified batch whose (name, mode) tournament already exists.
	ErrDuplicateTournament = errors.New("tournament already exists")
	// ErrPersistence wraps store failures; the operation was rolled back and may be retried.
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidTransition = errors.New("invalid verification status transition")
)
