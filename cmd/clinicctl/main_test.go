package main

import (
	"bytes"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-nexus/internal/clinicapi/clinicapitest"
	"github.com/wolfman30/clinic-nexus/internal/records"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CANCEL_POLICY", "")
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func seed(t *testing.T) (*clinicapitest.Server, records.Appointment) {
	t.Helper()
	api := clinicapitest.New(t)
	p := api.AddPatient(records.Patient{Name: "John Smith"})
	d := api.AddStaff(records.Staff{Name: "Dr. Lee", JobType: records.JobDoctor})
	appt := api.AddAppointment(records.Appointment{
		PatientID: p.ID, DoctorID: d.ID, Date: "2025-03-01", Time: "09:00",
		VisitType: records.VisitProcedure, Status: records.StatusNotDone,
	})
	return api, appt
}

func TestTariffNeedsNoBackend(t *testing.T) {
	out, _, err := run(t, "billing", "tariff", "Emergency")
	require.NoError(t, err)
	assert.Contains(t, out, "$200.00")

	out, _, err = run(t, "billing", "tariff", "-o", "json")
	require.NoError(t, err)
	var fees map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &fees))
	assert.Equal(t, map[string]float64{"Check-up": 75, "Procedure": 150, "Emergency": 200}, fees)
}

func TestAppointmentsListAndComplete(t *testing.T) {
	api, appt := seed(t)

	out, _, err := run(t, "appointments", "list", "--api", api.URL, "--q", "smith")
	require.NoError(t, err)
	assert.Contains(t, out, "John Smith")
	assert.Contains(t, out, "Dr. Lee")

	out, errOut, err := run(t, "appointments", "complete", strconv.Itoa(appt.ID), "--api", api.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "created")
	assert.Contains(t, errOut, "Billing record created for $150.00")

	bills := api.Billing()
	require.Len(t, bills, 1)
	assert.Equal(t, appt.ID, bills[0].AppointmentID)

	_, _, err = run(t, "appointments", "complete", strconv.Itoa(appt.ID), "--api", api.URL)
	assert.Error(t, err)
}

func TestAppointmentsRescheduleAndCancel(t *testing.T) {
	api, appt := seed(t)
	id := strconv.Itoa(appt.ID)

	_, _, err := run(t, "appointments", "reschedule", id, "--date", "2025-03-09", "--time", "11:00", "--api", api.URL)
	require.NoError(t, err)
	stored, _ := api.Appointment(appt.ID)
	assert.Equal(t, "2025-03-09", stored.Date)

	_, errOut, err := run(t, "appointments", "cancel", id, "--api", api.URL)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Appointment Canceled")
	stored, _ = api.Appointment(appt.ID)
	assert.Equal(t, records.StatusCanceled, stored.Status)
}

func TestSearchAndLowStock(t *testing.T) {
	api, _ := seed(t)
	api.AddInventoryItem(records.InventoryItem{Name: "Gauze", StockQuantity: 2, ReorderThreshold: 5, ActiveStatus: true})

	out, _, err := run(t, "search", "doctors", "lee", "--api", api.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Dr. Lee")

	_, _, err = run(t, "search", "rooms", "a", "--api", api.URL)
	assert.Error(t, err)

	out, _, err = run(t, "inventory", "low-stock", "--api", api.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Gauze")
	assert.Contains(t, out, "50")
}

func TestBillingPayAndSummary(t *testing.T) {
	api, appt := seed(t)
	bill := api.AddBilling(records.Billing{AppointmentID: appt.ID, Amount: records.MustAmount("150")})

	_, _, err := run(t, "billing", "pay", strconv.Itoa(bill.ID), "--api", api.URL)
	require.NoError(t, err)

	out, _, err := run(t, "billing", "summary", "--api", api.URL, "-o", "json")
	require.NoError(t, err)
	var summary struct {
		TotalRevenue float64 `json:"totalRevenue"`
		PaidCount    int     `json:"paidCount"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 150.0, summary.TotalRevenue)
	assert.Equal(t, 1, summary.PaidCount)
}

func TestInvalidID(t *testing.T) {
	_, _, err := run(t, "appointments", "cancel", "abc")
	assert.Error(t, err)
}

func TestDashboard(t *testing.T) {
	api := clinicapitest.New(t)
	p := api.AddPatient(records.Patient{Name: "John Smith"})
	d := api.AddStaff(records.Staff{Name: "Dr. Lee", JobType: records.JobDoctor})
	api.AddAppointment(records.Appointment{
		PatientID: p.ID, DoctorID: d.ID, Date: records.FormatDate(time.Now()), Time: "08:30",
		VisitType: records.VisitCheckUp, Status: records.StatusDone,
	})

	out, _, err := run(t, "dashboard", "--api", api.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "08:30")
	assert.Contains(t, out, "John Smith with Dr. Lee")

	out, _, err = run(t, "dashboard", "--api", api.URL, "-o", "json")
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, float64(1), summary["completedToday"])
	assert.Equal(t, float64(1), summary["activePatients"])
}
