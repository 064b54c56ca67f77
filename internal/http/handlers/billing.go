package handlers

import (
	"net/http"

	"github.com/wolfman30/clinic-nexus/internal/billing"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

// BillingHandler serves billing records and the fee schedule.
type BillingHandler struct {
	svc    *billing.Service
	logger *logging.Logger
}

func NewBillingHandler(svc *billing.Service, logger *logging.Logger) *BillingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BillingHandler{svc: svc, logger: logger}
}

type createBillingRequest struct {
	AppointmentID int             `json:"appointmentID"`
	Amount        *records.Amount `json:"amount,omitempty"`
}

type tariffResponse struct {
	VisitType records.VisitType `json:"visitType"`
	Amount    records.Amount    `json:"amount"`
}

// List returns billing records joined with their appointments, filtered by ?q=.
// Route: GET /billing
func (h *BillingHandler) List(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.ListWithDetails(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("billing: list failed", "error", err)
		respond(w, http.StatusOK, nil, err, nil)
		return
	}
	respond(w, http.StatusOK, details, nil, nil)
}

// Create bills an appointment, at the tariff unless an amount is given.
// Route: POST /billing
func (h *BillingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBillingRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, rec := collect(r)
	var row *records.AppointmentRow
	if req.AppointmentID > 0 {
		found, err := h.svc.Appointment(ctx, req.AppointmentID)
		if err != nil {
			respond(w, http.StatusCreated, nil, err, rec)
			return
		}
		row = found
	}
	created, err := h.svc.CreateFromAppointment(ctx, row, req.Amount)
	if err != nil {
		respond(w, http.StatusCreated, nil, err, rec)
		return
	}
	respond(w, http.StatusCreated, created, nil, rec)
}

// Pay marks a record paid today.
// Route: POST /billing/{id}/pay
func (h *BillingHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// Unpay reverts a record to unpaid.
// Route: POST /billing/{id}/unpay
func (h *BillingHandler) Unpay(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *BillingHandler) toggle(w http.ResponseWriter, r *http.Request, paid bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, rec := collect(r)
	var (
		updated records.Billing
		err     error
	)
	if paid {
		updated, err = h.svc.Pay(ctx, id)
	} else {
		updated, err = h.svc.Unpay(ctx, id)
	}
	if err != nil {
		respond(w, http.StatusOK, nil, err, rec)
		return
	}
	respond(w, http.StatusOK, updated, nil, rec)
}

// Delete removes a record.
// Route: DELETE /billing/{id}
func (h *BillingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, rec := collect(r)
	respond(w, http.StatusOK, nil, h.svc.Delete(ctx, id), rec)
}

// Summary returns revenue and pending totals.
// Route: GET /billing/summary
func (h *BillingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		respond(w, http.StatusOK, nil, err, nil)
		return
	}
	respond(w, http.StatusOK, summary, nil, nil)
}

// Tariff quotes the fee for ?visitType=.
// Route: GET /billing/tariff
func (h *BillingHandler) Tariff(w http.ResponseWriter, r *http.Request) {
	visitType := records.VisitType(r.URL.Query().Get("visitType"))
	respond(w, http.StatusOK, tariffResponse{VisitType: visitType, Amount: billing.Tariff(visitType)}, nil, nil)
}
