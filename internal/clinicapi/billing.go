package clinicapi

import (
	"context"

	"github.com/wolfman30/clinic-nexus/internal/records"
)

func (c *Client) ListBilling(ctx context.Context) ([]records.Billing, error) {
	var out []records.Billing
	if err := c.get(ctx, "/api/billing", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBilling(ctx context.Context, id int) (records.Billing, error) {
	var out records.Billing
	err := c.get(ctx, "/api/billing/"+records.FormatID(id), &out)
	return out, err
}

// CreateBilling posts a billing record. A non-empty idempotencyKey is sent as
// the Idempotency-Key header.
func (c *Client) CreateBilling(ctx context.Context, b records.Billing, idempotencyKey string) (records.Billing, error) {
	var out records.Billing
	var headers []header
	if idempotencyKey != "" {
		headers = append(headers, header{key: "Idempotency-Key", value: idempotencyKey})
	}
	err := c.post(ctx, "/api/billing", b, &out, headers...)
	return out, err
}

func (c *Client) UpdateBilling(ctx context.Context, id int, b records.Billing) (records.Billing, error) {
	var out records.Billing
	err := c.put(ctx, "/api/billing/"+records.FormatID(id), b, &out)
	return out, err
}

func (c *Client) DeleteBilling(ctx context.Context, id int) error {
	return c.del(ctx, "/api/billing/"+records.FormatID(id))
}
