package handlers

import (
	"net/http"

	"github.com/wolfman30/clinic-nexus/internal/appointments"
	"github.com/wolfman30/clinic-nexus/internal/inventory"
	"github.com/wolfman30/clinic-nexus/internal/listing"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

type AppointmentsConfig struct {
	Coordinator *appointments.Coordinator
	Rows        *listing.Collection[records.AppointmentRow]
	Inventory   *inventory.Tracker
	Logger      *logging.Logger
}

// AppointmentsHandler exposes the appointment lifecycle to the presentation layer.
type AppointmentsHandler struct {
	coord     *appointments.Coordinator
	rows      *listing.Collection[records.AppointmentRow]
	inventory *inventory.Tracker
	logger    *logging.Logger
}

func NewAppointmentsHandler(cfg AppointmentsConfig) *AppointmentsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AppointmentsHandler{
		coord:     cfg.Coordinator,
		rows:      cfg.Rows,
		inventory: cfg.Inventory,
		logger:    cfg.Logger,
	}
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type usageRequest struct {
	Items []inventory.Usage `json:"items"`
}

// List returns the with-names list filtered by ?q=.
// Route: GET /appointments
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rows.Items(r.Context())
	if err != nil {
		h.logger.Error("appointments: list failed", "error", err)
		respond(w, http.StatusOK, nil, err, nil)
		return
	}
	respond(w, http.StatusOK, listing.FilterAppointments(rows, r.URL.Query().Get("q")), nil, nil)
}

// Schedule creates an appointment.
// Route: POST /appointments
func (h *AppointmentsHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req appointments.ScheduleRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, rec := collect(r)
	created, err := h.coord.Schedule(ctx, req)
	if err != nil {
		respond(w, http.StatusCreated, nil, err, rec)
		return
	}
	respond(w, http.StatusCreated, created, nil, rec)
}

// Edit replaces an appointment.
// Route: PUT /appointments/{id}
func (h *AppointmentsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var next records.Appointment
	if !decode(w, r, &next) {
		return
	}
	ctx, rec := collect(r)
	updated, err := h.coord.Edit(ctx, id, next)
	if err != nil {
		respond(w, http.StatusOK, nil, err, rec)
		return
	}
	respond(w, http.StatusOK, updated, nil, rec)
}

// Reschedule moves an appointment to a new slot.
// Route: POST /appointments/{id}/reschedule
func (h *AppointmentsHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req rescheduleRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, rec := collect(r)
	appt, err := h.coord.Load(ctx, id)
	if err != nil {
		respond(w, http.StatusOK, nil, err, rec)
		return
	}
	moved, err := h.coord.Reschedule(ctx, appt, req.Date, req.Time)
	if err != nil {
		respond(w, http.StatusOK, nil, err, rec)
		return
	}
	respond(w, http.StatusOK, moved, nil, rec)
}

// Complete marks an appointment done and bills it. A billing failure after
// the status update still answers 200 with the error set.
// Route: POST /appointments/{id}/complete
func (h *AppointmentsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, rec := collect(r)
	appt, err := h.coord.Load(ctx, id)
	if err != nil {
		respond(w, http.StatusOK, nil, err, rec)
		return
	}
	result, err := h.coord.Complete(ctx, appt)
	if err != nil && result.Appointment.ID == 0 {
		respond(w, http.StatusOK, nil, err, rec)
		return
	}
	respond(w, http.StatusOK, result, err, rec)
}

// Cancel applies the configured cancel policy.
// Route: POST /appointments/{id}/cancel
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, rec := collect(r)
	appt, err := h.coord.Load(ctx, id)
	if err != nil {
		respond(w, http.StatusOK, nil, err, rec)
		return
	}
	canceled, err := h.coord.Cancel(ctx, appt)
	if err != nil {
		respond(w, http.StatusOK, nil, err, rec)
		return
	}
	respond(w, http.StatusOK, canceled, nil, rec)
}

// Usage lists the inventory an appointment consumed.
// Route: GET /appointments/{id}/inventory
func (h *AppointmentsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	lines, err := h.inventory.UsageFor(r.Context(), id)
	if err != nil {
		respond(w, http.StatusOK, nil, err, nil)
		return
	}
	respond(w, http.StatusOK, lines, nil, nil)
}

// RecordUsage consumes stock for an appointment.
// Route: POST /appointments/{id}/inventory
func (h *AppointmentsHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req usageRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, rec := collect(r)
	result, err := h.inventory.RecordUsage(ctx, id, req.Items)
	if err != nil {
		respond(w, http.StatusCreated, nil, err, rec)
		return
	}
	respond(w, http.StatusCreated, result, nil, rec)
}
