package clinicapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/", logging.Discard())
}

func TestListAppointmentsWithNames_DefaultsStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appointments/with-names", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"appointmentID": 7, "patientName": "John Smith", "doctorName": "Dr. Lee", "date": "2025-01-10", "time": "09:00", "visitType": "Procedure"},
		})
	})

	rows, err := c.ListAppointmentsWithNames(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].ID)
	assert.Equal(t, records.StatusNotDone, rows[0].Status)
}

func TestCreateAppointment_SendsJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var got records.Appointment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		got.ID = 42
		writeJSON(w, http.StatusCreated, got)
	})

	created, err := c.CreateAppointment(context.Background(), records.Appointment{
		PatientID: 1, DoctorID: 2, Date: "2025-02-01", Time: "10:30", Duration: 30,
		VisitType: records.VisitCheckUp, Status: records.StatusNotDone,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, created.ID)
	assert.Equal(t, "10:30", created.Time)
}

func TestDo_NoContentSucceeds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/billing/3", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteBilling(context.Background(), 3))
}

func TestDo_RequestErrorUsesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Appointment not found", http.StatusNotFound)
	})

	_, err := c.GetAppointment(context.Background(), 9)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "Appointment not found", reqErr.Message)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDo_RequestErrorGenericMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.ListBilling(context.Background())
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "HTTP 500: Internal Server Error", reqErr.Message)
}

func TestDo_NonJSONIsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html></html>")
	})

	_, err := c.ListPatients(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Server returned text/html response. Is the backend server running?", te.Message)
	assert.True(t, IsTransport(err))
}

func TestDo_UnreachableIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(url, logging.Discard())
	_, err := c.ListStaff(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Message, "Cannot connect to backend server")
	assert.NotNil(t, errors.Unwrap(err))
}

func TestSearchPatients_EscapesFragment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/patients/search/Jo%20Sm", r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, []map[string]any{{"patientID": 1, "name": "Jo Smith"}})
	})

	patients, err := c.SearchPatients(context.Background(), "Jo Sm")
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Jo Smith", patients[0].DisplayName())
}

func TestIDByName(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantID  int
		wantErr error
	}{
		{name: "found", status: http.StatusOK, body: 12, wantID: 12},
		{name: "null", status: http.StatusOK, body: nil, wantErr: ErrNotFound},
		{name: "zero", status: http.StatusOK, body: 0, wantErr: ErrNotFound},
		{name: "missing", status: http.StatusNotFound, body: "no such staff", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/staff/id/Dr. Lee", r.URL.Path)
				writeJSON(w, tt.status, tt.body)
			})
			id, err := c.StaffIDByName(context.Background(), "Dr. Lee")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCreateBilling_SendsIdempotencyKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "appt-7-complete", r.Header.Get("Idempotency-Key"))
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, 150.0, got["amount"])
		assert.Equal(t, false, got["paid"])
		got["billingID"] = 5
		writeJSON(w, http.StatusCreated, got)
	})

	out, err := c.CreateBilling(context.Background(), records.Billing{
		AppointmentID: 7,
		Amount:        records.MustAmount("150"),
	}, "appt-7-complete")
	require.NoError(t, err)
	assert.Equal(t, 5, out.ID)
	assert.Equal(t, "150.00", out.Amount.String())
}

func TestRequestIDPropagates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-123", r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, []any{})
	})

	_, err := c.ListStaff(WithRequestID(context.Background(), "req-123"))
	require.NoError(t, err)
}

func TestSendHookRunsBeforeRequest(t *testing.T) {
	var hooked atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, hooked.Load())
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := WithSendHook(context.Background(), func() { hooked.Store(true) })
	require.NoError(t, c.DeleteAppointment(ctx, 1))
}
