// Package records holds the clinic record types exchanged with the clinic API.
package records

import (
	"fmt"
	"strings"
)

// Status is the lifecycle status of an appointment. The zero value is never
// stored: decoding and construction normalize it to StatusNotDone.
type Status string

const (
	StatusNotDone  Status = "Not Done"
	StatusDone     Status = "Done"
	StatusCanceled Status = "Canceled"
)

// OrDefault returns StatusNotDone for an empty status.
func (s Status) OrDefault() Status {
	if strings.TrimSpace(string(s)) == "" {
		return StatusNotDone
	}
	return s
}

// Terminal reports whether no designed transition leaves s.
func (s Status) Terminal() bool {
	switch s.OrDefault() {
	case StatusDone, StatusCanceled:
		return true
	default:
		return false
	}
}

// ParseStatus accepts the canonical labels case-insensitively. Empty input
// parses to StatusNotDone.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "not done":
		return StatusNotDone, nil
	case "done":
		return StatusDone, nil
	case "canceled", "cancelled":
		return StatusCanceled, nil
	default:
		return "", fmt.Errorf("records: unknown status %q", raw)
	}
}

// VisitType tags the kind of appointment and drives the billing tariff.
type VisitType string

const (
	VisitCheckUp   VisitType = "Check-up"
	VisitProcedure VisitType = "Procedure"
	VisitEmergency VisitType = "Emergency"
)

// Known reports whether v is one of the closed set of visit types.
func (v VisitType) Known() bool {
	switch v {
	case VisitCheckUp, VisitProcedure, VisitEmergency:
		return true
	default:
		return false
	}
}

// JobType is the staff role.
type JobType string

const (
	JobDoctor JobType = "Doctor"
	JobNurse  JobType = "Nurse"
	JobAdmin  JobType = "Admin"
)
