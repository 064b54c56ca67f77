// Package billing derives and manages billing records for appointments.
package billing

import "github.com/wolfman30/clinic-nexus/internal/records"

var (
	checkUpFee   = records.MustAmount("75.00")
	procedureFee = records.MustAmount("150.00")
	emergencyFee = records.MustAmount("200.00")
	defaultFee   = records.MustAmount("100.00")
)

// Tariff is the fee charged for a visit type. Unknown types get the default fee.
func Tariff(visitType records.VisitType) records.Amount {
	switch visitType {
	case records.VisitCheckUp:
		return checkUpFee
	case records.VisitProcedure:
		return procedureFee
	case records.VisitEmergency:
		return emergencyFee
	default:
		return defaultFee
	}
}

// ForAppointment builds the unpaid billing record for a completed appointment.
func ForAppointment(appointmentID int, visitType records.VisitType) records.Billing {
	return records.Billing{
		AppointmentID: appointmentID,
		Amount:        Tariff(visitType),
		Paid:          false,
	}
}
