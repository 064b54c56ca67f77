// Package dashboard aggregates the clinic's day-at-a-glance counters.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/clinic-nexus/internal/listing"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

// TodayListLimit caps the appointments listed for today.
const TodayListLimit = 4

// Backend is the slice of the clinic API the dashboard reads.
type Backend interface {
	ListPatients(ctx context.Context) ([]records.Patient, error)
	ListStaff(ctx context.Context) ([]records.Staff, error)
	ListInventory(ctx context.Context) ([]records.InventoryItem, error)
}

// Summary is the dashboard for one calendar day.
type Summary struct {
	Date              string                   `json:"date"`
	ActivePatients    int                      `json:"activePatients"`
	ActiveDoctors     int                      `json:"activeDoctors"`
	TodayAppointments int                      `json:"todayAppointments"`
	CompletedToday    int                      `json:"completedToday"`
	PendingToday      int                      `json:"pendingToday"`
	OutOfStock        int                      `json:"outOfStock"`
	LowStock          int                      `json:"lowStock"`
	CriticalInventory int                      `json:"criticalInventory"`
	Today             []records.AppointmentRow `json:"today"`
}

// Service loads the dashboard inputs and summarizes them.
type Service struct {
	backend Backend
	rows    *listing.Collection[records.AppointmentRow]
	logger  *logging.Logger
	now     func() time.Time
}

// NewService shares rows with the appointment views so that appointment
// mutations refresh the dashboard too.
func NewService(backend Backend, rows *listing.Collection[records.AppointmentRow], logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{backend: backend, rows: rows, logger: logger, now: time.Now}
}

// Summary reads every input and summarizes the current day.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	patients, err := s.backend.ListPatients(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard: list patients: %w", err)
	}
	staff, err := s.backend.ListStaff(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard: list staff: %w", err)
	}
	rows, err := s.rows.Items(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard: list appointments: %w", err)
	}
	items, err := s.backend.ListInventory(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard: list inventory: %w", err)
	}

	out := Summarize(patients, staff, rows, items, s.now())
	s.logger.Debug("dashboard: summarized", "date", out.Date, "today", out.TodayAppointments, "critical_inventory", out.CriticalInventory)
	return out, nil
}

// Summarize counts active patients (unless explicitly inactive), active
// doctors, today's appointments by status, and items that are out of stock
// or at/below their reorder threshold.
func Summarize(patients []records.Patient, staff []records.Staff, rows []records.AppointmentRow, items []records.InventoryItem, now time.Time) Summary {
	out := Summary{Date: records.FormatDate(now), Today: []records.AppointmentRow{}}

	for _, p := range patients {
		if p.ActiveStatus == nil || *p.ActiveStatus {
			out.ActivePatients++
		}
	}
	for _, st := range staff {
		if st.JobType == records.JobDoctor && st.ActiveStatus != nil && *st.ActiveStatus {
			out.ActiveDoctors++
		}
	}

	var today []records.AppointmentRow
	for _, row := range rows {
		if !strings.HasPrefix(row.Date, out.Date) {
			continue
		}
		today = append(today, row)
		switch row.Status.OrDefault() {
		case records.StatusDone:
			out.CompletedToday++
		case records.StatusNotDone:
			out.PendingToday++
		}
	}
	out.TodayAppointments = len(today)
	sort.SliceStable(today, func(i, j int) bool { return today[i].Time < today[j].Time })
	if len(today) > TodayListLimit {
		today = today[:TodayListLimit]
	}
	out.Today = append(out.Today, today...)

	for _, item := range items {
		switch {
		case item.StockQuantity <= 0:
			out.OutOfStock++
		case item.StockQuantity <= item.ReorderThreshold:
			out.LowStock++
		}
	}
	out.CriticalInventory = out.OutOfStock + out.LowStock
	return out
}
