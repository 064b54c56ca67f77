package handlers

import (
	"net/http"

	"github.com/wolfman30/clinic-nexus/internal/inventory"
)

// InventoryHandler reports stock levels.
type InventoryHandler struct {
	tracker *inventory.Tracker
}

func NewInventoryHandler(tracker *inventory.Tracker) *InventoryHandler {
	return &InventoryHandler{tracker: tracker}
}

// LowStock lists active items at or below their reorder threshold.
// Route: GET /inventory/low-stock
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	reorders, err := h.tracker.LowStock(r.Context())
	if err != nil {
		respond(w, http.StatusOK, nil, err, nil)
		return
	}
	respond(w, http.StatusOK, reorders, nil, nil)
}
