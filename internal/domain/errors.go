package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by repositories and services.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateReferral = errors.New("referral already exists for this referrer and email")
	ErrConflict          = errors.New("conflicts with an existing record")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrExhaustedRetries  = errors.New("could not generate a unique referral code")
	ErrValidation        = errors.New("validation failed")
	ErrTransactionFailed = errors.New("transaction failed")
)

// ValidationError describes a single invalid input field.
// errors.Is(err, ErrValidation) reports true for any *ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransactionError is returned when a write inside a transaction failed and
// the transaction was rolled back. It matches ErrTransactionFailed and unwraps
// to the underlying cause.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrTransactionFailed, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailed
}
