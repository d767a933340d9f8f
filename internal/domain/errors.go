package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("invalid request")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotFound          = errors.New("not found")
)

// Validationf wraps ErrValidation with a user-facing reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Transitionf wraps ErrInvalidTransition with a user-facing reason.
func Transitionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// InsufficientFunds reports how much was needed and how much was available.
func InsufficientFunds(need, have float64) error {
	return fmt.Errorf("%w: need %.1f, have %.1f", ErrInsufficientFunds, need, have)
}
