package model

import "errors"

var (
	// ErrNotFound is returned when a session, solve, cube or person does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed times, penalties or empty updates.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageUnavailable wraps failures of the underlying database.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrRankingUnavailable is returned when ranking data cannot be fetched.
	ErrRankingUnavailable = errors.New("ranking unavailable")
)
