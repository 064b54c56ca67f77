package billing

const (
	msgSelectAppointment = "Please select an appointment"
	msgInvalidAmount     = "Please enter a valid amount"
	msgPaymentDate       = "Payment date is required when a record is paid"
)

// ValidationError is a local precondition failure; no request was issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "billing: invalid " + e.Field + ": " + e.Reason
}

// UserMessage is the text shown to staff.
func (e *ValidationError) UserMessage() string {
	return e.Reason
}
