// Package appointments coordinates the appointment lifecycle and the side
// effects each transition triggers.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-nexus/internal/clinicapi"
	"github.com/wolfman30/clinic-nexus/internal/notify"
	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

var tracer = otel.Tracer("clinicnexus.internal.appointments")

// Transition names used in logs, spans and metrics.
const (
	TransitionSchedule   = "schedule"
	TransitionReschedule = "reschedule"
	TransitionEdit       = "edit"
	TransitionComplete   = "complete"
	TransitionCancel     = "cancel"
)

// CancelPolicy decides what cancel does to the record.
type CancelPolicy string

const (
	// CancelByStatus marks the appointment Canceled and keeps it.
	CancelByStatus CancelPolicy = "status"
	// CancelByDelete removes the appointment.
	CancelByDelete CancelPolicy = "delete"
)

// ParseCancelPolicy defaults to CancelByStatus.
func ParseCancelPolicy(raw string) (CancelPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(CancelByStatus):
		return CancelByStatus, nil
	case string(CancelByDelete):
		return CancelByDelete, nil
	default:
		return "", fmt.Errorf("appointments: unknown cancel policy %q", raw)
	}
}

// Backend is the slice of the clinic API the coordinator drives.
type Backend interface {
	GetAppointment(ctx context.Context, id int) (records.Appointment, error)
	CreateAppointment(ctx context.Context, a records.Appointment) (records.Appointment, error)
	UpdateAppointment(ctx context.Context, id int, a records.Appointment) (records.Appointment, error)
	DeleteAppointment(ctx context.Context, id int) error
	PatientIDByName(ctx context.Context, name string) (int, error)
	StaffIDByName(ctx context.Context, name string) (int, error)
	CreateBilling(ctx context.Context, b records.Billing, idempotencyKey string) (records.Billing, error)
}

// Options wires optional collaborators into a Coordinator.
type Options struct {
	Guard        CompletionGuard
	CancelPolicy CancelPolicy
	Notifier     notify.Notifier
	Metrics      *metrics.WorkflowMetrics
	Logger       *logging.Logger
	// AfterMutate runs after every successful mutation, typically to
	// invalidate list views.
	AfterMutate []func()
}

// Coordinator owns appointment state transitions. Every failure is also
// reported as a notification.
type Coordinator struct {
	backend     Backend
	guard       CompletionGuard
	policy      CancelPolicy
	notifier    notify.Notifier
	metrics     *metrics.WorkflowMetrics
	logger      *logging.Logger
	afterMutate []func()
}

func NewCoordinator(backend Backend, opts Options) *Coordinator {
	if backend == nil {
		panic("appointments: backend required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Guard == nil {
		opts.Guard = NewMemoryGuard(24 * time.Hour)
	}
	if opts.CancelPolicy == "" {
		opts.CancelPolicy = CancelByStatus
	}
	return &Coordinator{
		backend:     backend,
		guard:       opts.Guard,
		policy:      opts.CancelPolicy,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		afterMutate: opts.AfterMutate,
	}
}

// CancelPolicy reports the configured cancel policy.
func (c *Coordinator) CancelPolicy() CancelPolicy {
	return c.policy
}

// Load fetches the current record for id.
func (c *Coordinator) Load(ctx context.Context, id int) (records.Appointment, error) {
	appt, err := c.backend.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, clinicapi.ErrNotFound) {
			return records.Appointment{}, fmt.Errorf("%w: %d: %w", ErrAppointmentNotFound, id, err)
		}
		return records.Appointment{}, fmt.Errorf("appointments: load %d: %w", id, err)
	}
	appt.Status = appt.Status.OrDefault()
	return appt, nil
}

// Ref identifies a patient or doctor either by id or by exact name.
type Ref struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// ScheduleRequest describes a new appointment.
type ScheduleRequest struct {
	Patient   Ref               `json:"patient"`
	Doctor    Ref               `json:"doctor"`
	Date      string            `json:"date"`
	Time      string            `json:"time"`
	Duration  int               `json:"duration"`
	VisitType records.VisitType `json:"visitType"`
	Notes     string            `json:"notes"`
}

// Schedule resolves both references and creates the appointment as Not Done.
// Resolution and format failures abort before the creation request.
func (c *Coordinator) Schedule(ctx context.Context, req ScheduleRequest) (records.Appointment, error) {
	ctx, span, done := c.begin(ctx, TransitionSchedule, 0, req.VisitType)
	defer span.End()
	n := notify.FromContext(ctx, c.notifier)

	if err := validateSlot(req.Date, req.Time); err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, err)
	}
	if req.Duration < 0 {
		return records.Appointment{}, c.fail(ctx, span, done, n, &ValidationError{Field: "duration", Reason: "Duration must not be negative"})
	}
	patientID, err := c.resolve(ctx, "patient", req.Patient, c.backend.PatientIDByName)
	if err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, err)
	}
	doctorID, err := c.resolve(ctx, "doctor", req.Doctor, c.backend.StaffIDByName)
	if err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, err)
	}

	visitType := req.VisitType
	if visitType == "" {
		visitType = records.VisitCheckUp
	}
	created, err := c.backend.CreateAppointment(ctx, records.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      req.Date,
		Time:      req.Time,
		Duration:  req.Duration,
		VisitType: visitType,
		Status:    records.StatusNotDone,
		Notes:     req.Notes,
	})
	if err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, fmt.Errorf("appointments: create: %w", err))
	}
	created.Status = created.Status.OrDefault()
	span.SetAttributes(attribute.Int("clinic.appointment_id", created.ID))
	c.succeed(ctx, done, n, notify.Success(notify.TitleAppointmentScheduled, "Appointment has been scheduled successfully."))
	c.logger.Info("appointment scheduled", "appointment_id", created.ID, "patient_id", patientID, "doctor_id", doctorID, "visit_type", string(visitType))
	return created, nil
}

// Reschedule moves a Not Done appointment to a new date and time. Every
// other field, status included, is sent back unchanged.
func (c *Coordinator) Reschedule(ctx context.Context, appt records.Appointment, date, at string) (records.Appointment, error) {
	ctx, span, done := c.begin(ctx, TransitionReschedule, appt.ID, appt.VisitType)
	defer span.End()
	n := notify.FromContext(ctx, c.notifier)

	if err := requireScheduled(appt, "rescheduled"); err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, err)
	}
	if err := validateSlot(date, at); err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, err)
	}

	next := appt
	next.Status = appt.Status.OrDefault()
	next.Date = date
	next.Time = at
	updated, err := c.backend.UpdateAppointment(ctx, appt.ID, next)
	if err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, fmt.Errorf("appointments: reschedule %d: %w", appt.ID, err))
	}
	c.succeed(ctx, done, n, notify.Success(notify.TitleAppointmentUpdated, "Appointment has been rescheduled successfully."))
	c.logger.Info("appointment rescheduled", "appointment_id", appt.ID, "date", date, "time", at)
	return orDefaultStatus(updated, next), nil
}

// Edit replaces every mutable field from any state. It can move an
// appointment out of a terminal status and does not derive billing. Moving a
// Done record back to Not Done re-arms billing for its next completion.
func (c *Coordinator) Edit(ctx context.Context, id int, next records.Appointment) (records.Appointment, error) {
	ctx, span, done := c.begin(ctx, TransitionEdit, id, next.VisitType)
	defer span.End()
	n := notify.FromContext(ctx, c.notifier)

	if id == 0 {
		return records.Appointment{}, c.fail(ctx, span, done, n, &ValidationError{Field: "appointmentID", Reason: "Please select an appointment"})
	}
	if next.PatientID == 0 || next.DoctorID == 0 {
		return records.Appointment{}, c.fail(ctx, span, done, n, &ValidationError{Field: "reference", Reason: "Patient and doctor are required"})
	}
	if err := validateSlot(next.Date, next.Time); err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, err)
	}
	next.ID = id
	next.Status = next.Status.OrDefault()

	updated, err := c.backend.UpdateAppointment(ctx, id, next)
	if err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, fmt.Errorf("appointments: edit %d: %w", id, err))
	}
	if next.Status != records.StatusDone {
		c.ReleaseCompletion(ctx, id)
	}
	c.succeed(ctx, done, n, notify.Success(notify.TitleAppointmentUpdated, "Appointment has been updated successfully."))
	c.logger.Info("appointment edited", "appointment_id", id, "status", string(next.Status))
	return orDefaultStatus(updated, next), nil
}

// ReleaseCompletion lets the next completion of appointmentID derive billing
// again. Edit calls it when a record leaves Done; billing calls it when the
// derived record is deleted.
func (c *Coordinator) ReleaseCompletion(ctx context.Context, appointmentID int) {
	if appointmentID == 0 {
		return
	}
	if err := c.guard.Release(ctx, appointmentID); err != nil {
		c.logger.Warn("completion guard release failed", "appointment_id", appointmentID, "error", err)
	}
}

// Cancel applies the configured cancel policy. It never derives billing.
func (c *Coordinator) Cancel(ctx context.Context, appt records.Appointment) (records.Appointment, error) {
	ctx, span, done := c.begin(ctx, TransitionCancel, appt.ID, appt.VisitType)
	defer span.End()
	span.SetAttributes(attribute.String("clinic.cancel_policy", string(c.policy)))
	n := notify.FromContext(ctx, c.notifier)

	if appt.ID == 0 {
		return records.Appointment{}, c.fail(ctx, span, done, n, &ValidationError{Field: "appointmentID", Reason: "Please select an appointment"})
	}

	if c.policy == CancelByDelete {
		if err := c.backend.DeleteAppointment(ctx, appt.ID); err != nil {
			return records.Appointment{}, c.fail(ctx, span, done, n, fmt.Errorf("appointments: delete %d: %w", appt.ID, err))
		}
		c.succeed(ctx, done, n, notify.Success(notify.TitleAppointmentCanceled, "Appointment has been cancelled successfully."))
		c.logger.Info("appointment deleted on cancel", "appointment_id", appt.ID)
		return appt, nil
	}

	if err := requireScheduled(appt, "canceled"); err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, err)
	}
	next := appt
	next.Status = records.StatusCanceled
	updated, err := c.backend.UpdateAppointment(ctx, appt.ID, next)
	if err != nil {
		return records.Appointment{}, c.fail(ctx, span, done, n, fmt.Errorf("appointments: cancel %d: %w", appt.ID, err))
	}
	c.succeed(ctx, done, n, notify.Success(notify.TitleAppointmentCanceled, "Appointment has been cancelled successfully."))
	c.logger.Info("appointment canceled", "appointment_id", appt.ID)
	return orDefaultStatus(updated, next), nil
}

func (c *Coordinator) resolve(ctx context.Context, field string, ref Ref, byName func(context.Context, string) (int, error)) (int, error) {
	if ref.ID > 0 {
		return ref.ID, nil
	}
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("Please select a %s", field), Err: ErrUnresolvedReference}
	}
	id, err := byName(ctx, name)
	if err != nil {
		if errors.Is(err, clinicapi.ErrNotFound) {
			return 0, &ValidationError{
				Field:  field,
				Reason: fmt.Sprintf("No %s named %q was found", field, name),
				Err:    ErrUnresolvedReference,
			}
		}
		return 0, fmt.Errorf("appointments: resolve %s: %w", field, err)
	}
	return id, nil
}

func validateSlot(date, at string) error {
	if err := records.ValidDate(date); err != nil {
		return &ValidationError{Field: "date", Reason: "Date must be in YYYY-MM-DD format", Err: err}
	}
	if err := records.ValidTime(at); err != nil {
		return &ValidationError{Field: "time", Reason: "Time must be in HH:MM format", Err: err}
	}
	return nil
}

func requireScheduled(appt records.Appointment, verb string) error {
	if appt.ID == 0 {
		return &ValidationError{Field: "appointmentID", Reason: "Please select an appointment"}
	}
	if status := appt.Status.OrDefault(); status != records.StatusNotDone {
		return &ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("Only scheduled appointments can be %s (status is %s)", verb, status),
			Err:    ErrInvalidTransition,
		}
	}
	return nil
}

// orDefaultStatus prefers the collaborator's echo of the record but falls
// back to what was sent when the response body was empty.
func orDefaultStatus(echo, sent records.Appointment) records.Appointment {
	if echo.ID == 0 {
		return sent
	}
	echo.Status = echo.Status.OrDefault()
	return echo
}

type finish func(result string)

func (c *Coordinator) begin(ctx context.Context, transition string, id int, visitType records.VisitType) (context.Context, trace.Span, finish) {
	ctx, span := tracer.Start(ctx, "appointments."+transition)
	span.SetAttributes(attribute.String("clinic.transition", transition))
	if id != 0 {
		span.SetAttributes(attribute.Int("clinic.appointment_id", id))
	}
	if visitType != "" {
		span.SetAttributes(attribute.String("clinic.visit_type", string(visitType)))
	}
	start := time.Now()
	return ctx, span, func(result string) {
		c.metrics.ObserveTransition(transition, result, time.Since(start))
	}
}

func (c *Coordinator) fail(ctx context.Context, span trace.Span, done finish, n notify.Notifier, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	result := "error"
	var ve *ValidationError
	if errors.As(err, &ve) {
		result = "invalid"
		c.logger.Info("appointment transition rejected", "field", ve.Field, "reason", ve.Reason)
	} else {
		c.logger.Warn("appointment transition failed", "error", err)
	}
	done(result)
	if n != nil {
		n.Notify(ctx, notify.FromError(notify.TitleError, err))
	}
	return err
}

func (c *Coordinator) succeed(ctx context.Context, done finish, n notify.Notifier, note notify.Notification) {
	done("ok")
	for _, fn := range c.afterMutate {
		fn()
	}
	if n != nil {
		n.Notify(ctx, note)
	}
}
