package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a request the engine rejected without changing anything
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a child has no behavior profile yet
	ErrNotFound = errors.New("not found")
	// ErrProfileNotReady is returned when a profile is regenerated before the tracking threshold
	ErrProfileNotReady = errors.New("profile not ready")

	// errDuplicateView rolls back a video transaction that lost the dedup race
	errDuplicateView = errors.New("duplicate video view")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalid(err error) error {
	return fmt.Errorf("%w: %s", ErrValidation, err.Error())
}
