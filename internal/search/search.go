// Package search resolves free-text fragments into entity references for
// autocomplete inputs.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-nexus/internal/autocomplete"
	"github.com/wolfman30/clinic-nexus/internal/listing"
	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

// Kind names a searchable entity collection.
type Kind string

const (
	KindPatient     Kind = "patient"
	KindStaff       Kind = "staff"
	KindAppointment Kind = "appointment"
)

// ErrUnknownKind is returned for kinds other than patient, staff (or doctor)
// and appointment.
var ErrUnknownKind = errors.New("search: unknown kind")

// ParseKind accepts the plural forms and "doctor" as an alias for staff.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "patient", "patients":
		return KindPatient, nil
	case "staff", "doctor", "doctors":
		return KindStaff, nil
	case "appointment", "appointments":
		return KindAppointment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// Hit is one entity reference. Name is the value written into the input on
// selection.
type Hit struct {
	Kind   Kind   `json:"kind"`
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

func (h Hit) EntityID() int       { return h.ID }
func (h Hit) DisplayName() string { return h.Name }

// DisplayName is the autocomplete display extractor for hits.
func DisplayName(h Hit) string { return h.Name }

// Searcher looks up entity references of one kind.
type Searcher interface {
	Search(ctx context.Context, kind Kind, query string) ([]Hit, error)
}

// Backend is the slice of the clinic API the directory needs.
type Backend interface {
	SearchPatients(ctx context.Context, name string) ([]records.Patient, error)
	SearchStaff(ctx context.Context, name string) ([]records.Staff, error)
	ListAppointmentsWithNames(ctx context.Context) ([]records.AppointmentRow, error)
}

// Directory searches patients and staff through the clinic API search
// endpoints and appointments by filtering the with-names list.
type Directory struct {
	backend      Backend
	appointments *listing.Collection[records.AppointmentRow]
	logger       *logging.Logger
}

// NewDirectory creates a Directory. appointments may be nil, in which case the
// with-names list is fetched on every appointment search.
func NewDirectory(backend Backend, appointments *listing.Collection[records.AppointmentRow], logger *logging.Logger) *Directory {
	if logger == nil {
		logger = logging.Default()
	}
	return &Directory{backend: backend, appointments: appointments, logger: logger}
}

func (d *Directory) Search(ctx context.Context, kind Kind, query string) ([]Hit, error) {
	switch kind {
	case KindPatient:
		patients, err := d.backend.SearchPatients(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("search: patients: %w", err)
		}
		hits := make([]Hit, 0, len(patients))
		for _, p := range patients {
			hits = append(hits, Hit{Kind: kind, ID: p.ID, Name: p.Name, Detail: p.Phone})
		}
		return hits, nil
	case KindStaff:
		staff, err := d.backend.SearchStaff(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("search: staff: %w", err)
		}
		hits := make([]Hit, 0, len(staff))
		for _, s := range staff {
			hits = append(hits, Hit{Kind: kind, ID: s.ID, Name: s.Name, Detail: string(s.JobType)})
		}
		return hits, nil
	case KindAppointment:
		rows, err := d.appointmentRows(ctx)
		if err != nil {
			return nil, fmt.Errorf("search: appointments: %w", err)
		}
		hits := make([]Hit, 0)
		for _, r := range rows {
			if listing.ContainsFold(query, r.PatientName, r.DoctorName, string(r.VisitType)) {
				hits = append(hits, Hit{Kind: kind, ID: r.ID, Name: r.PatientName, Detail: r.Label()})
			}
		}
		return hits, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (d *Directory) appointmentRows(ctx context.Context) ([]records.AppointmentRow, error) {
	if d.appointments != nil {
		return d.appointments.Items(ctx)
	}
	return d.backend.ListAppointmentsWithNames(ctx)
}

// Bind adapts a Searcher to an autocomplete lookup for one kind.
func Bind(s Searcher, kind Kind) autocomplete.SearchFunc[Hit] {
	return func(ctx context.Context, query string) ([]Hit, error) {
		return s.Search(ctx, kind, query)
	}
}

// NewEngine builds an autocomplete engine over one kind.
func NewEngine(s Searcher, kind Kind, debounce time.Duration, minChars int, m *metrics.SearchMetrics, logger *logging.Logger) *autocomplete.Engine[Hit] {
	return autocomplete.New(Bind(s, kind), DisplayName, autocomplete.Options{
		Debounce: debounce,
		MinChars: minChars,
		Logger:   logger,
		Metrics:  m,
		Kind:     string(kind),
	})
}
