package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentDecodeDefaultsStatus(t *testing.T) {
	var appt Appointment
	require.NoError(t, json.Unmarshal([]byte(`{"appointmentID":4,"patientID":1,"doctorID":2,"date":"2025-03-01","time":"09:00","visitType":"Check-up"}`), &appt))
	assert.Equal(t, StatusNotDone, appt.Status)

	var row AppointmentRow
	require.NoError(t, json.Unmarshal([]byte(`{"appointmentID":4,"patientName":"Jane","status":null}`), &row))
	assert.Equal(t, StatusNotDone, row.Status)
}

func TestAppointmentDecodeKeepsExplicitStatus(t *testing.T) {
	var appt Appointment
	require.NoError(t, json.Unmarshal([]byte(`{"appointmentID":4,"status":"Done"}`), &appt))
	assert.Equal(t, StatusDone, appt.Status)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, Status("").Terminal())
	assert.False(t, StatusNotDone.Terminal())
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusCanceled.Terminal())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"", StatusNotDone, false},
		{"not done", StatusNotDone, false},
		{"DONE", StatusDone, false},
		{"cancelled", StatusCanceled, false},
		{"pending", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountJSON(t *testing.T) {
	b := Billing{AppointmentID: 9, Amount: MustAmount("150")}
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"appointmentID":9,"amount":150.00,"paid":false}`, string(data))
	assert.Contains(t, string(data), `"amount":150.00`)

	var decoded Billing
	require.NoError(t, json.Unmarshal([]byte(`{"appointmentID":9,"amount":"75.5"}`), &decoded))
	assert.Equal(t, "75.50", decoded.Amount.String())
	assert.Equal(t, int64(7550), decoded.Amount.Cents())
}

func TestAmountArithmetic(t *testing.T) {
	total := AmountFromCents(7500).Add(MustAmount("200"))
	assert.True(t, total.Equal(MustAmount("275.00")))
	assert.Equal(t, "$275.00", total.Dollars())
	assert.True(t, Amount{}.IsZero())
	assert.True(t, MustAmount("-1").IsNegative())
}

func TestValidDateAndTime(t *testing.T) {
	assert.NoError(t, ValidDate("2025-12-31"))
	assert.Error(t, ValidDate("31/12/2025"))
	assert.NoError(t, ValidTime("09:30"))
	assert.NoError(t, ValidTime("09:30:00"))
	assert.Error(t, ValidTime("9.30am"))
}

func TestAppointmentRowEntity(t *testing.T) {
	row := AppointmentRow{ID: 3, PatientName: "Jane Doe", DoctorName: "Dr. House", VisitType: VisitProcedure}
	var e Entity = row
	assert.Equal(t, 3, e.EntityID())
	assert.Equal(t, "Jane Doe", e.DisplayName())
	assert.Equal(t, "Jane Doe - Dr. House (Procedure)", row.Label())
}
