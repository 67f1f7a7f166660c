// Package common defines shared constants and sentinel errors used across
// GophDrive layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Hierarchy validation errors.
	ErrorInvalidParent   = errors.New("invalid parent")
	ErrorInvalidName     = errors.New("invalid name")
	ErrorInvalidLocation = errors.New("invalid location")
	ErrorInvalidSize     = errors.New("invalid size")
	ErrorNotAFile        = errors.New("entry is not a file")

	// Hierarchy structural errors.
	ErrorCycleDetected      = errors.New("cycle detected")
	ErrorFolderNotEmpty     = errors.New("folder not empty")
	ErrorIntegrityViolation = errors.New("integrity violation")

	// Transactional conflict that survived the retry budget.
	ErrorConflict = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
