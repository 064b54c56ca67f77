package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-nexus/internal/listing"
	"github.com/wolfman30/clinic-nexus/internal/notify"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

// Backend is the slice of the clinic API billing needs.
type Backend interface {
	ListBilling(ctx context.Context) ([]records.Billing, error)
	GetBilling(ctx context.Context, id int) (records.Billing, error)
	CreateBilling(ctx context.Context, b records.Billing, idempotencyKey string) (records.Billing, error)
	UpdateBilling(ctx context.Context, id int, b records.Billing) (records.Billing, error)
	DeleteBilling(ctx context.Context, id int) error
	ListAppointmentsWithNames(ctx context.Context) ([]records.AppointmentRow, error)
}

// Service manages billing records on behalf of staff.
type Service struct {
	backend      Backend
	bills        *listing.Collection[records.Billing]
	appointments *listing.Collection[records.AppointmentRow]
	notifier     notify.Notifier
	logger       *logging.Logger
	now          func() time.Time
	onDelete     []func(ctx context.Context, appointmentID int)
}

// NewService creates a billing service. appointments may be shared with other
// services so that appointment mutations invalidate it.
func NewService(backend Backend, appointments *listing.Collection[records.AppointmentRow], notifier notify.Notifier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if appointments == nil {
		appointments = listing.NewCollection("appointments", backend.ListAppointmentsWithNames, 0, logger)
	}
	return &Service{
		backend:      backend,
		bills:        listing.NewCollection("billing", backend.ListBilling, 0, logger),
		appointments: appointments,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// Invalidate drops the cached billing list, e.g. after completion created a record.
func (s *Service) Invalidate() {
	s.bills.Invalidate()
}

// Appointment finds the with-names row for id, or nil when none matches.
func (s *Service) Appointment(ctx context.Context, id int) (*records.AppointmentRow, error) {
	rows, err := s.appointments.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("billing: list appointments: %w", err)
	}
	for i := range rows {
		if rows[i].ID == id {
			row := rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

// CreateFromAppointment creates an unpaid record for a picked appointment.
// A nil amount defaults to the tariff of the appointment's visit type.
func (s *Service) CreateFromAppointment(ctx context.Context, row *records.AppointmentRow, amount *records.Amount) (records.Billing, error) {
	n := notify.FromContext(ctx, s.notifier)
	if row == nil || row.ID == 0 {
		err := &ValidationError{Field: "appointmentID", Reason: msgSelectAppointment}
		s.fail(ctx, n, err)
		return records.Billing{}, err
	}
	value := Tariff(row.VisitType)
	if amount != nil {
		value = *amount
	}
	if !value.IsPositive() {
		err := &ValidationError{Field: "amount", Reason: msgInvalidAmount}
		s.fail(ctx, n, err)
		return records.Billing{}, err
	}

	var created records.Billing
	err := s.bills.Mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.backend.CreateBilling(ctx, records.Billing{
			AppointmentID: row.ID,
			Amount:        value,
		}, uuid.NewString())
		return err
	})
	if err != nil {
		s.fail(ctx, n, err)
		return records.Billing{}, fmt.Errorf("billing: create: %w", err)
	}
	s.logger.Info("billing: record created", "appointment_id", row.ID, "amount", value.String())
	if n != nil {
		n.Notify(ctx, notify.Success(notify.TitleBillingCreated, "Billing record created for "+value.Dollars()))
	}
	return created, nil
}

// MarkPaid returns b marked paid on today's date.
func MarkPaid(b records.Billing, today time.Time) records.Billing {
	b.Paid = true
	b.PaymentDate = records.FormatDate(today)
	return b
}

// MarkUnpaid returns b with the paid flag and payment date cleared.
func MarkUnpaid(b records.Billing) records.Billing {
	b.Paid = false
	b.PaymentDate = ""
	return b
}

// Pay marks record id paid today.
func (s *Service) Pay(ctx context.Context, id int) (records.Billing, error) {
	return s.toggle(ctx, id, true)
}

// Unpay reverts record id to unpaid.
func (s *Service) Unpay(ctx context.Context, id int) (records.Billing, error) {
	return s.toggle(ctx, id, false)
}

func (s *Service) toggle(ctx context.Context, id int, paid bool) (records.Billing, error) {
	current, err := s.backend.GetBilling(ctx, id)
	if err != nil {
		s.fail(ctx, notify.FromContext(ctx, s.notifier), err)
		return records.Billing{}, fmt.Errorf("billing: load %d: %w", id, err)
	}
	next := MarkUnpaid(current)
	if paid {
		next = MarkPaid(current, s.now())
	}
	return s.Update(ctx, id, next)
}

// Update replaces record id. A paid record must carry a payment date and an
// unpaid one never does.
func (s *Service) Update(ctx context.Context, id int, b records.Billing) (records.Billing, error) {
	n := notify.FromContext(ctx, s.notifier)
	if b.Amount.IsNegative() {
		err := &ValidationError{Field: "amount", Reason: msgInvalidAmount}
		s.fail(ctx, n, err)
		return records.Billing{}, err
	}
	if b.Paid && b.PaymentDate == "" {
		err := &ValidationError{Field: "paymentDate", Reason: msgPaymentDate}
		s.fail(ctx, n, err)
		return records.Billing{}, err
	}
	if !b.Paid {
		b.PaymentDate = ""
	}
	b.ID = id

	var updated records.Billing
	err := s.bills.Mutate(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.backend.UpdateBilling(ctx, id, b)
		return err
	})
	if err != nil {
		s.fail(ctx, n, err)
		return records.Billing{}, fmt.Errorf("billing: update %d: %w", id, err)
	}
	if n != nil {
		n.Notify(ctx, notify.Success(notify.TitleBillingUpdated, "Billing record has been updated successfully."))
	}
	return updated, nil
}

// OnDelete registers fn to run with the appointment of every deleted record.
func (s *Service) OnDelete(fn func(ctx context.Context, appointmentID int)) {
	s.onDelete = append(s.onDelete, fn)
}

// Delete removes record id.
func (s *Service) Delete(ctx context.Context, id int) error {
	n := notify.FromContext(ctx, s.notifier)
	appointmentID := s.appointmentOf(ctx, id)
	err := s.bills.Mutate(ctx, func(ctx context.Context) error {
		return s.backend.DeleteBilling(ctx, id)
	})
	if err != nil {
		s.fail(ctx, n, err)
		return fmt.Errorf("billing: delete %d: %w", id, err)
	}
	if appointmentID != 0 {
		for _, fn := range s.onDelete {
			fn(ctx, appointmentID)
		}
	}
	if n != nil {
		n.Notify(ctx, notify.Success(notify.TitleBillingDeleted, "Billing record has been deleted successfully."))
	}
	return nil
}

func (s *Service) appointmentOf(ctx context.Context, id int) int {
	bills, err := s.bills.Items(ctx)
	if err != nil {
		s.logger.Debug("billing: lookup before delete failed", "billing_id", id, "error", err)
		return 0
	}
	for _, b := range bills {
		if b.ID == id {
			return b.AppointmentID
		}
	}
	return 0
}

func (s *Service) fail(ctx context.Context, n notify.Notifier, err error) {
	s.logger.Warn("billing: operation failed", "error", err)
	if n != nil {
		n.Notify(ctx, notify.FromError(notify.TitleError, err))
	}
}
