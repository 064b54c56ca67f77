package clinicapi

import (
	"context"

	"github.com/wolfman30/clinic-nexus/internal/records"
)

func (c *Client) ListInventory(ctx context.Context) ([]records.InventoryItem, error) {
	var out []records.InventoryItem
	if err := c.get(ctx, "/api/inventory", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetInventoryItem(ctx context.Context, id int) (records.InventoryItem, error) {
	var out records.InventoryItem
	err := c.get(ctx, "/api/inventory/"+records.FormatID(id), &out)
	return out, err
}

func (c *Client) UpdateInventoryItem(ctx context.Context, id int, item records.InventoryItem) (records.InventoryItem, error) {
	var out records.InventoryItem
	err := c.put(ctx, "/api/inventory/"+records.FormatID(id), item, &out)
	return out, err
}

func (c *Client) ListAppointmentInventory(ctx context.Context) ([]records.AppointmentInventory, error) {
	var out []records.AppointmentInventory
	if err := c.get(ctx, "/api/appointment-inventory", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAppointmentInventory(ctx context.Context, row records.AppointmentInventory) (records.AppointmentInventory, error) {
	var out records.AppointmentInventory
	err := c.post(ctx, "/api/appointment-inventory", row, &out)
	return out, err
}
