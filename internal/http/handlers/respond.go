package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-nexus/internal/appointments"
	"github.com/wolfman30/clinic-nexus/internal/clinicapi"
	"github.com/wolfman30/clinic-nexus/internal/inventory"
	"github.com/wolfman30/clinic-nexus/internal/notify"
)

// Envelope is the body of every gateway response. Notifications carry the
// toasts the presentation layer shows; Error is set when the operation failed.
type Envelope struct {
	Data          any                   `json:"data,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
	Error         string                `json:"error,omitempty"`
}

type userMessager interface {
	UserMessage() string
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// collect routes notifications raised while serving r into a recorder that
// is returned with the response.
func collect(r *http.Request) (context.Context, *notify.Recorder) {
	rec := notify.NewRecorder()
	return notify.WithNotifier(r.Context(), rec), rec
}

// respond writes data with the collected notifications. A failure that raised
// no notification of its own gets a generic one so the caller always sees why.
func respond(w http.ResponseWriter, ok int, data any, err error, rec *notify.Recorder) {
	env := Envelope{Data: data, Notifications: []notify.Notification{}}
	if rec != nil {
		env.Notifications = rec.Notifications()
	}
	if err == nil {
		writeJSON(w, ok, env)
		return
	}
	if len(env.Notifications) == 0 {
		env.Notifications = append(env.Notifications, notify.FromError(notify.TitleError, err))
	}
	env.Error = errorMessage(err)
	writeJSON(w, statusFor(err), env)
}

func errorMessage(err error) string {
	return notify.FromError(notify.TitleError, err).Description
}

func statusFor(err error) int {
	var partial *appointments.PartialFailure
	if errors.As(err, &partial) {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, appointments.ErrAppointmentNotFound),
		errors.Is(err, inventory.ErrAppointmentNotFound),
		errors.Is(err, clinicapi.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, appointments.ErrInvalidTransition),
		errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusConflict
	}
	var um userMessager
	if errors.As(err, &um) {
		return http.StatusBadRequest
	}
	if clinicapi.IsTransport(err) {
		return http.StatusBadGateway
	}
	var reqErr *clinicapi.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.StatusCode >= 400 && reqErr.StatusCode < 500 {
			return reqErr.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Envelope{
		Notifications: []notify.Notification{notify.Failure(notify.TitleError, message)},
		Error:         message,
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}
