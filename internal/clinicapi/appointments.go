package clinicapi

import (
	"context"

	"github.com/wolfman30/clinic-nexus/internal/records"
)

// ListAppointmentsWithNames returns appointments pre-joined with patient and doctor names.
func (c *Client) ListAppointmentsWithNames(ctx context.Context) ([]records.AppointmentRow, error) {
	var out []records.AppointmentRow
	if err := c.get(ctx, "/api/appointments/with-names", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAppointment(ctx context.Context, id int) (records.Appointment, error) {
	var out records.Appointment
	err := c.get(ctx, "/api/appointments/"+records.FormatID(id), &out)
	return out, err
}

func (c *Client) CreateAppointment(ctx context.Context, a records.Appointment) (records.Appointment, error) {
	var out records.Appointment
	err := c.post(ctx, "/api/appointments", a, &out)
	return out, err
}

// UpdateAppointment sends the full record; the collaborator replaces every field.
func (c *Client) UpdateAppointment(ctx context.Context, id int, a records.Appointment) (records.Appointment, error) {
	var out records.Appointment
	err := c.put(ctx, "/api/appointments/"+records.FormatID(id), a, &out)
	return out, err
}

func (c *Client) DeleteAppointment(ctx context.Context, id int) error {
	return c.del(ctx, "/api/appointments/"+records.FormatID(id))
}
