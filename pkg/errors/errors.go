package errors

import (
	"errors"
	"fmt"
)

var (
	ErrStorageUnavailable = errors.New("durable storage unavailable")
	ErrImportNotFound     = errors.New("import not found")
	ErrFeedbackNotFound   = errors.New("feedback not found")
	ErrInvalidFileFormat  = errors.New("invalid file format")
	ErrSchemaValidation   = errors.New("schema validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSubmitRejected     = errors.New("submission rejected by server")
)

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

type RetryableError struct {
	Err     error
	Message string
}

func (e RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %s - %s", e.Message, e.Err.Error())
}

func (e RetryableError) Unwrap() error {
	return e.Err
}

func NewRetryableError(err error, message string) error {
	return RetryableError{
		Err:     err,
		Message: message,
	}
}

// IsRetryable reports whether err, or anything it wraps, is a RetryableError.
func IsRetryable(err error) bool {
	var re RetryableError
	return errors.As(err, &re)
}
