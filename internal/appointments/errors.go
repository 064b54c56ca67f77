package appointments

import (
	"errors"
	"fmt"
)

var (
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")
	ErrInvalidTransition   = errors.New("appointments: invalid transition")
	ErrUnresolvedReference = errors.New("appointments: unresolved reference")
)

// ValidationError is a local precondition failure. No request was issued.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("appointments: invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("appointments: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// UserMessage is the text shown to staff.
func (e *ValidationError) UserMessage() string { return e.Reason }

// PartialFailure means the appointment was marked Done but its billing record
// could not be created. The status update is not rolled back.
type PartialFailure struct {
	AppointmentID int
	Err           error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("appointments: appointment %d completed but billing failed: %v", e.AppointmentID, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }
