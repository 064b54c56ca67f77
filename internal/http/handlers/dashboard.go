package handlers

import (
	"net/http"

	"github.com/wolfman30/clinic-nexus/internal/dashboard"
)

// DashboardHandler serves the day-at-a-glance summary.
type DashboardHandler struct {
	svc *dashboard.Service
}

func NewDashboardHandler(svc *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Summary counts today's appointments, active staff and patients, and
// critical inventory.
// Route: GET /dashboard
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		respond(w, http.StatusOK, nil, err, nil)
		return
	}
	respond(w, http.StatusOK, summary, nil, nil)
}
