package clinicapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/clinic-nexus/internal/records"
)

// ListPatients returns every patient record.
func (c *Client) ListPatients(ctx context.Context) ([]records.Patient, error) {
	var out []records.Patient
	if err := c.get(ctx, "/api/patients", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchPatients returns patients whose name contains the fragment.
func (c *Client) SearchPatients(ctx context.Context, name string) ([]records.Patient, error) {
	var out []records.Patient
	if err := c.get(ctx, "/api/patients/search/"+segment(name), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PatientIDByName resolves an exact patient name to its id.
func (c *Client) PatientIDByName(ctx context.Context, name string) (int, error) {
	return c.idByName(ctx, "/api/patients/id/", name)
}

func (c *Client) idByName(ctx context.Context, prefix, name string) (int, error) {
	var id *int
	if err := c.get(ctx, prefix+segment(name), &id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("clinicapi: resolve %q: %w", name, ErrNotFound)
		}
		return 0, err
	}
	if id == nil || *id <= 0 {
		return 0, fmt.Errorf("clinicapi: resolve %q: %w", name, ErrNotFound)
	}
	return *id, nil
}
