package billing

import (
	"context"
	"fmt"

	"github.com/wolfman30/clinic-nexus/internal/listing"
	"github.com/wolfman30/clinic-nexus/internal/records"
)

const (
	unknownPatient = "Unknown Patient"
	unknownDoctor  = "Unknown Doctor"
	unknownDate    = "Unknown Date"
	unknownType    = "Unknown Type"
)

// Detail is a billing record joined with its appointment's display fields.
type Detail struct {
	records.Billing
	PatientName     string `json:"patientName"`
	DoctorName      string `json:"doctorName"`
	AppointmentDate string `json:"appointmentDate"`
	VisitType       string `json:"visitType"`
}

// Join attaches appointment names to each billing record. Records whose
// appointment is gone get the Unknown placeholders.
func Join(bills []records.Billing, rows []records.AppointmentRow) []Detail {
	byID := make(map[int]records.AppointmentRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]Detail, 0, len(bills))
	for _, b := range bills {
		d := Detail{
			Billing:         b,
			PatientName:     unknownPatient,
			DoctorName:      unknownDoctor,
			AppointmentDate: unknownDate,
			VisitType:       unknownType,
		}
		if r, ok := byID[b.AppointmentID]; ok {
			d.PatientName = orDefault(r.PatientName, unknownPatient)
			d.DoctorName = orDefault(r.DoctorName, unknownDoctor)
			d.AppointmentDate = orDefault(r.Date, unknownDate)
			d.VisitType = orDefault(string(r.VisitType), unknownType)
		}
		out = append(out, d)
	}
	return out
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// ListWithDetails returns joined billing records matching term.
func (s *Service) ListWithDetails(ctx context.Context, term string) ([]Detail, error) {
	bills, err := s.bills.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("billing: list: %w", err)
	}
	rows, err := s.appointments.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("billing: list appointments: %w", err)
	}
	return Filter(Join(bills, rows), term), nil
}

// Filter matches patient name, doctor name, visit type and amount.
func Filter(details []Detail, term string) []Detail {
	return listing.Filter(details, term, func(d Detail) []string {
		return []string{d.PatientName, d.DoctorName, d.VisitType, d.Amount.String()}
	})
}

// Summary aggregates billing records.
type Summary struct {
	TotalRevenue records.Amount `json:"totalRevenue"`
	Pending      records.Amount `json:"pendingAmount"`
	PaidCount    int            `json:"paidCount"`
	UnpaidCount  int            `json:"unpaidCount"`
}

// Summarize totals paid records as revenue and unpaid ones as pending.
func Summarize(bills []records.Billing) Summary {
	var s Summary
	for _, b := range bills {
		if b.Paid {
			s.TotalRevenue = s.TotalRevenue.Add(b.Amount)
			s.PaidCount++
			continue
		}
		s.Pending = s.Pending.Add(b.Amount)
		s.UnpaidCount++
	}
	return s
}

// Summary totals the current billing list.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	bills, err := s.bills.Items(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("billing: summary: %w", err)
	}
	return Summarize(bills), nil
}
