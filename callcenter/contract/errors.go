package contract

import "errors"

var (
	ErrSessionNotFound = errors.New("call session not found or already ended")
	ErrInference       = errors.New("inference gateway failed")
	ErrSchemaViolation = errors.New("inference response violates schema")
	ErrPersistence     = errors.New("record store operation failed")
	ErrValidation      = errors.New("validation failed")
)

// IsInferenceFailure reports whether err is a gateway transport failure or a
// malformed structured response. Call sites treat both the same way: fall
// back, log a system event, keep the conversation moving.
func IsInferenceFailure(err error) bool {
	return errors.Is(err, ErrInference) || errors.Is(err, ErrSchemaViolation)
}
