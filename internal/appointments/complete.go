package appointments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-nexus/internal/billing"
	"github.com/wolfman30/clinic-nexus/internal/clinicapi"
	"github.com/wolfman30/clinic-nexus/internal/notify"
	"github.com/wolfman30/clinic-nexus/internal/records"
)

// Billing outcomes of a completion.
const (
	BillingCreated = "created"
	BillingFailed  = "failed"
	BillingSkipped = "skipped"
)

// Completion reports both requests issued by Complete.
type Completion struct {
	Appointment   records.Appointment `json:"appointment"`
	Billing       *records.Billing    `json:"billing,omitempty"`
	BillingResult string              `json:"billingResult"`
	StatusErr     error               `json:"-"`
	BillingErr    error               `json:"-"`
}

// Complete marks a Not Done appointment Done and derives its billing record
// from the tariff. The billing request is issued once the status update has
// been initiated, without waiting for its result; both outcomes are reported
// independently and neither is rolled back.
//
// A billing failure after a successful status update returns *PartialFailure.
func (c *Coordinator) Complete(ctx context.Context, appt records.Appointment) (Completion, error) {
	ctx, span, done := c.begin(ctx, TransitionComplete, appt.ID, appt.VisitType)
	defer span.End()
	n := notify.FromContext(ctx, c.notifier)

	if err := requireScheduled(appt, "completed"); err != nil {
		return Completion{}, c.fail(ctx, span, done, n, err)
	}

	first, err := c.guard.Acquire(ctx, appt.ID)
	if err != nil {
		c.logger.Warn("completion guard unavailable", "appointment_id", appt.ID, "error", err)
		first = true
	}

	next := appt
	next.Status = records.StatusDone
	result := Completion{Appointment: next, BillingResult: BillingSkipped}

	var (
		wg      sync.WaitGroup
		once    sync.Once
		started = make(chan struct{})
		signal  = func() { once.Do(func() { close(started) }) }
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer signal()
		updated, err := c.backend.UpdateAppointment(clinicapi.WithSendHook(ctx, signal), appt.ID, next)
		if err != nil {
			result.StatusErr = err
			return
		}
		result.Appointment = orDefaultStatus(updated, next)
	}()

	if first {
		bill := billing.ForAppointment(appt.ID, appt.VisitType)
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-started
			created, err := c.backend.CreateBilling(ctx, bill, completionKey(appt.ID, uuid.NewString()))
			if err != nil {
				result.BillingErr = err
				return
			}
			if created.ID == 0 {
				created = bill
			}
			result.Billing = &created
		}()
	} else {
		c.logger.Info("billing already derived for appointment, skipping", "appointment_id", appt.ID)
	}

	wg.Wait()
	err = c.reportCompletion(ctx, span, done, n, appt, first, &result)
	return result, err
}

func (c *Coordinator) reportCompletion(ctx context.Context, span trace.Span, done finish, n notify.Notifier, appt records.Appointment, billed bool, result *Completion) error {
	span.SetAttributes(attribute.String("clinic.billing_result", billingResult(billed, result.BillingErr)))

	if result.StatusErr != nil {
		c.notifyTo(ctx, n, notify.FromError(notify.TitleError, result.StatusErr))
		c.logger.Warn("completion status update failed", "appointment_id", appt.ID, "error", result.StatusErr)
	} else {
		c.notifyTo(ctx, n, notify.Success(notify.TitleAppointmentUpdated, "Appointment has been marked as completed."))
	}

	if billed {
		if result.BillingErr != nil {
			result.BillingResult = BillingFailed
			c.ReleaseCompletion(ctx, appt.ID)
			c.notifyTo(ctx, n, notify.FromError(notify.TitleBillingError, result.BillingErr))
			c.logger.Warn("completion billing failed", "appointment_id", appt.ID, "error", result.BillingErr)
		} else {
			result.BillingResult = BillingCreated
			amount := billing.Tariff(appt.VisitType)
			c.notifyTo(ctx, n, notify.Success(notify.TitleBillingCreated, "Billing record created for "+amount.Dollars()))
			c.logger.Info("completion billing created", "appointment_id", appt.ID, "visit_type", string(appt.VisitType), "amount", amount.String())
		}
	} else {
		c.notifyTo(ctx, n, notify.Info(notify.TitleBillingSkipped, "Billing already exists for this appointment."))
	}
	c.metrics.ObserveBilling(result.BillingResult)

	if result.StatusErr == nil || result.BillingResult == BillingCreated {
		for _, fn := range c.afterMutate {
			fn()
		}
	}

	switch {
	case result.StatusErr != nil && result.BillingErr != nil:
		err := fmt.Errorf("appointments: complete %d: %w", appt.ID, errors.Join(result.StatusErr, result.BillingErr))
		span.RecordError(err)
		span.SetStatus(codes.Error, "status and billing failed")
		done("error")
		return err
	case result.StatusErr != nil:
		err := fmt.Errorf("appointments: complete %d: update status: %w", appt.ID, result.StatusErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, "status update failed")
		done("error")
		return err
	case result.BillingErr != nil:
		err := &PartialFailure{AppointmentID: appt.ID, Err: result.BillingErr}
		span.RecordError(err)
		span.SetStatus(codes.Error, "billing failed")
		done("partial")
		return err
	}
	done("ok")
	c.logger.Info("appointment completed", "appointment_id", appt.ID, "billing", result.BillingResult)
	return nil
}

func (c *Coordinator) notifyTo(ctx context.Context, n notify.Notifier, note notify.Notification) {
	if n != nil {
		n.Notify(ctx, note)
	}
}

func billingResult(billed bool, err error) string {
	switch {
	case !billed:
		return BillingSkipped
	case err != nil:
		return BillingFailed
	default:
		return BillingCreated
	}
}

// completionKey is the idempotency key of the billing request derived from
// one completion of appointmentID. A re-armed completion gets a new attempt
// and so a new key.
func completionKey(appointmentID int, attempt string) string {
	return fmt.Sprintf("appointment-%d-completion-%s", appointmentID, attempt)
}
