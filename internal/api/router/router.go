package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-nexus/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-nexus/internal/http/middleware"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Appointments       *handlers.AppointmentsHandler
	Billing            *handlers.BillingHandler
	Search             *handlers.SearchHandler
	Inventory          *handlers.InventoryHandler
	Dashboard          *handlers.DashboardHandler
	MetricsHandler     http.Handler
	Origins            *httpmiddleware.OriginPolicy
	RateLimiter        *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Origins.CrossOrigin() {
		r.Use(httpmiddleware.CORS(cfg.Origins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Websocket sessions are long-lived and must not be compressed.
	if cfg.Search != nil {
		r.Get("/ws/search/{kind}", cfg.Search.Socket)
	}

	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter, cfg.Logger))
		}
		api.Use(middleware.Compress(5))

		if cfg.Appointments != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.Appointments.List)
				r.Post("/", cfg.Appointments.Schedule)
				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", cfg.Appointments.Edit)
					r.Post("/reschedule", cfg.Appointments.Reschedule)
					r.Post("/complete", cfg.Appointments.Complete)
					r.Post("/cancel", cfg.Appointments.Cancel)
					r.Get("/inventory", cfg.Appointments.Usage)
					r.Post("/inventory", cfg.Appointments.RecordUsage)
				})
			})
		}
		if cfg.Billing != nil {
			api.Route("/billing", func(r chi.Router) {
				r.Get("/", cfg.Billing.List)
				r.Post("/", cfg.Billing.Create)
				r.Get("/summary", cfg.Billing.Summary)
				r.Get("/tariff", cfg.Billing.Tariff)
				r.Post("/{id}/pay", cfg.Billing.Pay)
				r.Post("/{id}/unpay", cfg.Billing.Unpay)
				r.Delete("/{id}", cfg.Billing.Delete)
			})
		}
		if cfg.Search != nil {
			api.Get("/search/{kind}", cfg.Search.Lookup)
		}
		if cfg.Inventory != nil {
			api.Get("/inventory/low-stock", cfg.Inventory.LowStock)
		}
		if cfg.Dashboard != nil {
			api.Get("/dashboard", cfg.Dashboard.Summary)
		}
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
