package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrValidation          = errors.New("output validation failed")
	ErrTemporary           = errors.New("temporary failure")
	ErrReferenceIntegrity  = errors.New("reference integrity violation")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// InvalidInputf builds an ErrInvalidInput error from a formatted message.
func InvalidInputf(operation, format string, args ...any) error {
	return WrapError(ErrInvalidInput, operation, fmt.Errorf(format, args...))
}

// Validationf builds an ErrValidation error from a formatted message.
func Validationf(operation, format string, args ...any) error {
	return WrapError(ErrValidation, operation, fmt.Errorf(format, args...))
}
