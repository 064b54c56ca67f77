package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrAppointmentNotFound = errors.New("inventory: appointment not found")
	ErrInsufficientStock   = errors.New("inventory: insufficient stock")
	ErrInvalidUsage        = errors.New("inventory: invalid usage")
)

// UsageError rejects a consumption request before anything is written.
type UsageError struct {
	Reason string
	Err    error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Reason)
}

func (e *UsageError) Unwrap() error { return e.Err }

func (e *UsageError) UserMessage() string { return e.Reason }
