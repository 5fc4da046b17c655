package spd

import (
	"errors"
	"fmt"
)

// Payment string errors
var (
	// ErrMissingMandatoryField is returned when the account, amount, currency
	// or variable symbol cannot be resolved. This is an ordinary outcome for
	// invoices that have no bank details yet.
	ErrMissingMandatoryField = errors.New("missing mandatory payment field")

	// ErrInvalidAmount is returned when payment_amount resolves to something
	// that is not a number.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrRasterizationFailed is returned when the QR collaborator fails or
	// panics.
	ErrRasterizationFailed = errors.New("QR rasterization failed")
)

// PaymentError wraps errors with the operation and field that failed.
type PaymentError struct {
	// Op is the operation that failed (e.g., "Payload", "Generate").
	Op string

	// Field is the record field involved, if any.
	Field string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("spd: %s failed (field: %s): %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("spd: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a PaymentError.
func NewPaymentError(op, field string, err error) *PaymentError {
	return &PaymentError{
		Op:    op,
		Field: field,
		Err:   err,
	}
}

// IsInsufficientData reports whether err means the record simply lacks the
// data for a payment string, as opposed to a broken record or encoder.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrMissingMandatoryField) || errors.Is(err, ErrInvalidAmount)
}
