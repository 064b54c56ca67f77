package records

import (
	"encoding/json"
	"strconv"
)

// Entity is anything the autocomplete can resolve: an identity plus a
// display name.
type Entity interface {
	EntityID() int
	DisplayName() string
}

// Patient is a clinic patient.
type Patient struct {
	ID              int    `json:"patientID,omitempty"`
	Name            string `json:"name"`
	BirthDate       string `json:"birthDate,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	InsuranceInfo   string `json:"insuranceInfo,omitempty"`
	FirstVisitDate  string `json:"firstVisitDate,omitempty"`
	PrimaryDoctorID int    `json:"primaryDoctorID,omitempty"`
	ActiveStatus    *bool  `json:"activeStatus,omitempty"`
}

func (p Patient) EntityID() int       { return p.ID }
func (p Patient) DisplayName() string { return p.Name }

// Staff is a clinic employee; doctors are staff with JobType Doctor.
type Staff struct {
	ID             int     `json:"staffID,omitempty"`
	Name           string  `json:"name"`
	JobType        JobType `json:"jobType"`
	Specialization string  `json:"specialization,omitempty"`
	LicenseNumber  string  `json:"licenseNumber,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Email          string  `json:"email,omitempty"`
	HireDate       string  `json:"hireDate,omitempty"`
	WorkingDays    string  `json:"workingDays,omitempty"`
	ActiveStatus   *bool   `json:"activeStatus,omitempty"`
}

func (s Staff) EntityID() int       { return s.ID }
func (s Staff) DisplayName() string { return s.Name }

// Appointment is the persisted appointment. Status is always populated once
// decoded; an absent status on the wire reads as StatusNotDone.
type Appointment struct {
	ID        int       `json:"appointmentID,omitempty"`
	PatientID int       `json:"patientID"`
	DoctorID  int       `json:"doctorID"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Duration  int       `json:"duration,omitempty"`
	VisitType VisitType `json:"visitType"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
}

// UnmarshalJSON applies the status default at decode time so no read path
// ever sees an empty status.
func (a *Appointment) UnmarshalJSON(data []byte) error {
	type alias Appointment
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw.Status = raw.Status.OrDefault()
	*a = Appointment(raw)
	return nil
}

// AppointmentRow is an appointment pre-joined with patient and doctor names,
// as served by the with-names endpoint.
type AppointmentRow struct {
	ID          int       `json:"appointmentID"`
	PatientName string    `json:"patientName"`
	DoctorName  string    `json:"doctorName"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Duration    int       `json:"duration,omitempty"`
	VisitType   VisitType `json:"visitType"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
}

func (r *AppointmentRow) UnmarshalJSON(data []byte) error {
	type alias AppointmentRow
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw.Status = raw.Status.OrDefault()
	*r = AppointmentRow(raw)
	return nil
}

func (r AppointmentRow) EntityID() int       { return r.ID }
func (r AppointmentRow) DisplayName() string { return r.PatientName }

// Label is the long form shown once a row is picked in a billing form.
func (r AppointmentRow) Label() string {
	return r.PatientName + " - " + r.DoctorName + " (" + string(r.VisitType) + ")"
}

// Billing is the invoice derived from a completed appointment. PaymentDate is
// set iff Paid is true.
type Billing struct {
	ID            int    `json:"billingID,omitempty"`
	AppointmentID int    `json:"appointmentID"`
	Amount        Amount `json:"amount"`
	Paid          bool   `json:"paid"`
	PaymentDate   string `json:"paymentDate,omitempty"`
}

// InventoryItem is a medicine or equipment stock line.
type InventoryItem struct {
	ID               int    `json:"itemID,omitempty"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Purpose          string `json:"purpose,omitempty"`
	StockQuantity    int    `json:"stockQuantity"`
	ReorderThreshold int    `json:"reorderThreshold"`
	UnitPrice        Amount `json:"unitPrice"`
	SupplierInfo     string `json:"supplierInfo,omitempty"`
	ExpiryDate       string `json:"expiryDate,omitempty"`
	ActiveStatus     bool   `json:"activeStatus"`
}

func (i InventoryItem) EntityID() int       { return i.ID }
func (i InventoryItem) DisplayName() string { return i.Name }

// AppointmentInventory records how much of one item an appointment consumed.
type AppointmentInventory struct {
	AppointmentID int `json:"appointmentID"`
	ItemID        int `json:"itemID"`
	QuantityUsed  int `json:"quantityUsed"`
}

// FormatID renders an identity for URL paths.
func FormatID(id int) string {
	return strconv.Itoa(id)
}
