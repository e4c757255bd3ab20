// Package common defines shared constants and sentinel errors used across
// CrewTally components. Callers should use errors.Is (or errors.As for
// AccountLockedError) to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// repository / store errors
	ErrNotFound = errors.New("not found")

	// user registry errors
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrUserNotFound      = errors.New("user not found")

	// login flow errors
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrAccountLocked      = errors.New("account locked")

	// area registry errors
	ErrDuplicateArea = errors.New("duplicate area name")
	ErrAreaNotFound  = errors.New("area not found")

	// backup errors
	ErrInvalidBackup = errors.New("invalid backup payload")

	// token errors (HTTP API layer)
	ErrInvalidToken = errors.New("invalid token")

	// validation errors
	ErrInvalidPresentValue = errors.New("present must be a non-negative integer or empty")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters")
)

// AccountLockedError reports an active login cooldown. RemainingMinutes is
// the ceiling of the time left, so callers can show "try again in N minutes".
// It unwraps to ErrAccountLocked for errors.Is matching.
type AccountLockedError struct {
	RemainingMinutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minute(s)", e.RemainingMinutes)
}

func (e *AccountLockedError) Unwrap() error {
	return ErrAccountLocked
}
