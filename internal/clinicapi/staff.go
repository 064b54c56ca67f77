package clinicapi

import (
	"context"

	"github.com/wolfman30/clinic-nexus/internal/records"
)

func (c *Client) ListStaff(ctx context.Context) ([]records.Staff, error) {
	var out []records.Staff
	if err := c.get(ctx, "/api/staff", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchStaff returns staff members whose name contains the fragment.
func (c *Client) SearchStaff(ctx context.Context, name string) ([]records.Staff, error) {
	var out []records.Staff
	if err := c.get(ctx, "/api/staff/search/"+segment(name), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StaffIDByName resolves an exact staff name to its id.
func (c *Client) StaffIDByName(ctx context.Context, name string) (int, error) {
	return c.idByName(ctx, "/api/staff/id/", name)
}
