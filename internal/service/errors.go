package service

import (
	"errors"
	"fmt"

	"realty/api/internal/store"
)

var (
	ErrNotFound           = store.ErrNotFound
	ErrForbidden          = errors.New("forbidden")
	ErrUnverified         = errors.New("email not verified")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrAlreadyVerified    = errors.New("already verified")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
