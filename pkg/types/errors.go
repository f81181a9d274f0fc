package types

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrUpstream        = errors.New("upstream error")
	ErrStorage         = errors.New("storage error")
	ErrReportNotFound  = errors.New("report not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyNotified = errors.New("report was already sent to the city")
)

// ValidationError is bad input. The message is safe to show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, msg string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(msg, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func ConfigurationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, msg)
}

func UpstreamError(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, msg, err)
}

func StorageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
