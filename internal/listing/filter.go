package listing

import (
	"strings"

	"github.com/wolfman30/clinic-nexus/internal/records"
)

// ContainsFold reports whether any field contains term, ignoring case.
// An empty term matches everything.
func ContainsFold(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Filter keeps the items whose fields contain term.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	if strings.TrimSpace(term) == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if ContainsFold(term, fields(item)...) {
			out = append(out, item)
		}
	}
	return out
}

// FilterAppointments matches patient name, doctor name, visit type and notes.
func FilterAppointments(rows []records.AppointmentRow, term string) []records.AppointmentRow {
	return Filter(rows, term, func(r records.AppointmentRow) []string {
		return []string{r.PatientName, r.DoctorName, string(r.VisitType), r.Notes}
	})
}
