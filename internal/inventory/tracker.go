// Package inventory tracks per-appointment consumption of stock items and
// flags items that need reordering.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/wolfman30/clinic-nexus/internal/clinicapi"
	"github.com/wolfman30/clinic-nexus/internal/notify"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

const minReorderQuantity = 50

// Backend is the slice of the clinic API the tracker needs.
type Backend interface {
	GetAppointment(ctx context.Context, id int) (records.Appointment, error)
	ListInventory(ctx context.Context) ([]records.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id int) (records.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id int, item records.InventoryItem) (records.InventoryItem, error)
	ListAppointmentInventory(ctx context.Context) ([]records.AppointmentInventory, error)
	CreateAppointmentInventory(ctx context.Context, row records.AppointmentInventory) (records.AppointmentInventory, error)
}

// Usage is the quantity of one item consumed by an appointment.
type Usage struct {
	ItemID   int `json:"itemID"`
	Quantity int `json:"quantityUsed"`
}

// UsageResult lists what was consumed and which items fell to their threshold.
type UsageResult struct {
	Processed     []string `json:"processed"`
	ReorderAlerts []string `json:"reorderAlerts"`
}

// UsageLine is one consumption row with the item's name.
type UsageLine struct {
	records.AppointmentInventory
	ItemName string `json:"itemName"`
}

// Reorder is a low-stock item and the quantity to order.
type Reorder struct {
	Item     records.InventoryItem `json:"item"`
	Quantity int                   `json:"reorderQuantity"`
}

type Tracker struct {
	backend  Backend
	notifier notify.Notifier
	logger   *logging.Logger
}

func NewTracker(backend Backend, notifier notify.Notifier, logger *logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Tracker{backend: backend, notifier: notifier, logger: logger}
}

// RecordUsage checks every item has enough active stock before writing
// anything, then records one consumption row per item and decrements stock.
// The clinic API has no transactions, so a failure part way through leaves
// the earlier items recorded; the error names the item that failed.
func (t *Tracker) RecordUsage(ctx context.Context, appointmentID int, usage []Usage) (UsageResult, error) {
	n := notify.FromContext(ctx, t.notifier)
	result, err := t.recordUsage(ctx, appointmentID, usage)
	if err != nil {
		t.logger.Warn("inventory: record usage failed", "appointment_id", appointmentID, "error", err)
		if n != nil {
			n.Notify(ctx, notify.FromError(notify.TitleError, err))
		}
		return result, err
	}
	t.logger.Info("inventory: usage recorded", "appointment_id", appointmentID, "items", len(result.Processed), "alerts", len(result.ReorderAlerts))
	if n != nil {
		n.Notify(ctx, notify.Success(notify.TitleInventoryRecorded, "Inventory usage processed successfully"))
	}
	return result, nil
}

func (t *Tracker) recordUsage(ctx context.Context, appointmentID int, usage []Usage) (UsageResult, error) {
	merged, err := mergeUsage(usage)
	if err != nil {
		return UsageResult{}, err
	}

	if _, err := t.backend.GetAppointment(ctx, appointmentID); err != nil {
		if errors.Is(err, clinicapi.ErrNotFound) {
			return UsageResult{}, &UsageError{Reason: "Appointment not found", Err: ErrAppointmentNotFound}
		}
		return UsageResult{}, fmt.Errorf("inventory: load appointment %d: %w", appointmentID, err)
	}

	items := make(map[int]records.InventoryItem, len(merged))
	for _, u := range merged {
		item, err := t.backend.GetInventoryItem(ctx, u.ItemID)
		if err != nil && !errors.Is(err, clinicapi.ErrNotFound) {
			return UsageResult{}, fmt.Errorf("inventory: load item %d: %w", u.ItemID, err)
		}
		if err != nil || !item.ActiveStatus || item.StockQuantity < u.Quantity {
			name := item.Name
			if err != nil || name == "" {
				name = fmt.Sprintf("Item ID %d", u.ItemID)
			}
			return UsageResult{}, &UsageError{Reason: "Insufficient stock for " + name, Err: ErrInsufficientStock}
		}
		items[u.ItemID] = item
	}

	result := UsageResult{Processed: []string{}, ReorderAlerts: []string{}}
	for _, u := range merged {
		item := items[u.ItemID]
		row := records.AppointmentInventory{AppointmentID: appointmentID, ItemID: u.ItemID, QuantityUsed: u.Quantity}
		if _, err := t.backend.CreateAppointmentInventory(ctx, row); err != nil {
			return result, fmt.Errorf("inventory: record usage of %s: %w", item.Name, err)
		}
		item.StockQuantity -= u.Quantity
		if _, err := t.backend.UpdateInventoryItem(ctx, item.ID, item); err != nil {
			return result, fmt.Errorf("inventory: decrement %s: %w", item.Name, err)
		}
		result.Processed = append(result.Processed, fmt.Sprintf("%s (Used: %d)", item.Name, u.Quantity))
		if NeedsReorder(item) {
			result.ReorderAlerts = append(result.ReorderAlerts, fmt.Sprintf("REORDER ALERT: %s (Stock: %d, Threshold: %d)", item.Name, item.StockQuantity, item.ReorderThreshold))
		}
	}
	return result, nil
}

// mergeUsage sums duplicate items and orders them by item id.
func mergeUsage(usage []Usage) ([]Usage, error) {
	if len(usage) == 0 {
		return nil, &UsageError{Reason: "Select at least one item", Err: ErrInvalidUsage}
	}
	totals := make(map[int]int, len(usage))
	for _, u := range usage {
		if u.ItemID <= 0 || u.Quantity <= 0 {
			return nil, &UsageError{Reason: "Quantities must be positive", Err: ErrInvalidUsage}
		}
		totals[u.ItemID] += u.Quantity
	}
	out := make([]Usage, 0, len(totals))
	for id, qty := range totals {
		out = append(out, Usage{ItemID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// UsageFor lists what one appointment consumed.
func (t *Tracker) UsageFor(ctx context.Context, appointmentID int) ([]UsageLine, error) {
	rows, err := t.backend.ListAppointmentInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: list usage: %w", err)
	}
	items, err := t.backend.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: list items: %w", err)
	}
	names := make(map[int]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}
	out := []UsageLine{}
	for _, r := range rows {
		if r.AppointmentID != appointmentID {
			continue
		}
		name, ok := names[r.ItemID]
		if !ok {
			name = fmt.Sprintf("Item ID %d", r.ItemID)
		}
		out = append(out, UsageLine{AppointmentInventory: r, ItemName: name})
	}
	return out, nil
}

// NeedsReorder reports whether an active item is at or below its threshold.
func NeedsReorder(item records.InventoryItem) bool {
	return item.ActiveStatus && item.StockQuantity <= item.ReorderThreshold
}

// ReorderQuantity is twice the threshold, with a floor of 50 units.
func ReorderQuantity(item records.InventoryItem) int {
	return max(2*item.ReorderThreshold, minReorderQuantity)
}

// LowStock filters items that need reordering.
func LowStock(items []records.InventoryItem) []Reorder {
	out := []Reorder{}
	for _, item := range items {
		if NeedsReorder(item) {
			out = append(out, Reorder{Item: item, Quantity: ReorderQuantity(item)})
		}
	}
	return out
}

// LowStock fetches the inventory and returns items that need reordering.
func (t *Tracker) LowStock(ctx context.Context) ([]Reorder, error) {
	items, err := t.backend.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: list items: %w", err)
	}
	return LowStock(items), nil
}
