package clinicapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when a lookup by name or id matches nothing.
var ErrNotFound = errors.New("clinicapi: not found")

// TransportError means the clinic API could not be reached or answered with
// something that is not JSON. It is never retried automatically.
type TransportError struct {
	Op      string
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("clinicapi: %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("clinicapi: %s: %s", e.Op, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RequestError means the clinic API answered with a non-success status.
// Message carries the server-provided text when there was one.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("clinicapi: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *RequestError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
