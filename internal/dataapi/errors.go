package dataapi

import (
	"errors"
	"fmt"
)

var (
	// ErrReasonRequired is returned when a verification is rejected without a reason.
	ErrReasonRequired = errors.New("rejection reason is required")

	// ErrMissingField is returned when a required request field is empty.
	ErrMissingField = errors.New("required field missing")
)

// APIError is a non-2xx response from the data API. Message comes from the
// upstream {"message": ...} error envelope when present.
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dataapi: %s: status %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("dataapi: %s: status %d: %s", e.Operation, e.Status, e.Message)
}

// DecodeError reports a 2xx response whose body does not match the expected
// envelope schema.
type DecodeError struct {
	Operation string
	Reason    string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataapi: %s: decode: %s: %v", e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("dataapi: %s: decode: %s", e.Operation, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func missingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}
