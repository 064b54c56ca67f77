package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-nexus/internal/api/router"
	"github.com/wolfman30/clinic-nexus/internal/appointments"
	"github.com/wolfman30/clinic-nexus/internal/billing"
	"github.com/wolfman30/clinic-nexus/internal/clinicapi"
	"github.com/wolfman30/clinic-nexus/internal/dashboard"
	appconfig "github.com/wolfman30/clinic-nexus/internal/config"
	"github.com/wolfman30/clinic-nexus/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-nexus/internal/http/middleware"
	"github.com/wolfman30/clinic-nexus/internal/inventory"
	"github.com/wolfman30/clinic-nexus/internal/listing"
	"github.com/wolfman30/clinic-nexus/internal/notify"
	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/internal/search"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

const cacheInvalidateTimeout = 2 * time.Second

// Services is the wired workflow layer shared by the gateway and the CLI.
type Services struct {
	Client       *clinicapi.Client
	Redis        *redis.Client
	Rows         *listing.Collection[records.AppointmentRow]
	Coordinator  *appointments.Coordinator
	Billing      *billing.Service
	Inventory    *inventory.Tracker
	Dashboard    *dashboard.Service
	Searcher     search.Searcher
	SearchStats  *metrics.SearchMetrics
	InventoryObs *metrics.InventoryMetrics
}

// BuildServices wires the clinic API client into every workflow component.
// reg may be nil to disable metrics.
func BuildServices(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg prometheus.Registerer) (*Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	policy, err := appointments.ParseCancelPolicy(cfg.CancelPolicy)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	var (
		workflowMetrics  *metrics.WorkflowMetrics
		searchMetrics    *metrics.SearchMetrics
		inventoryMetrics *metrics.InventoryMetrics
	)
	if reg != nil {
		workflowMetrics = metrics.NewWorkflowMetrics(reg)
		searchMetrics = metrics.NewSearchMetrics(reg)
		inventoryMetrics = metrics.NewInventoryMetrics(reg)
	}

	client := clinicapi.NewClient(cfg.ClinicAPIURL, logger.Component("clinicapi"), clinicapi.WithTimeout(cfg.ClinicAPITimeout))
	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	notifier := notify.NewLogNotifier(logger.Component("notify"))

	rows := listing.NewCollection("appointments", client.ListAppointmentsWithNames, 0, logger.Component("listing"))
	bills := billing.NewService(client, rows, notifier, logger.Component("billing"))
	searcher := BuildSearcher(client, rows, redisClient, cfg, searchMetrics, logger.Component("search"))

	afterMutate := []func(){rows.Invalidate, bills.Invalidate}
	if cached, ok := searcher.(*search.CachedSearcher); ok {
		afterMutate = append(afterMutate, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cacheInvalidateTimeout)
			defer cancel()
			if err := cached.Invalidate(ctx, search.KindAppointment); err != nil {
				logger.Warn("search cache invalidation failed", "error", err)
			}
		})
	}

	coord := appointments.NewCoordinator(client, appointments.Options{
		Guard:        BuildCompletionGuard(redisClient, cfg),
		CancelPolicy: policy,
		Notifier:     notifier,
		Metrics:      workflowMetrics,
		Logger:       logger.Component("appointments"),
		AfterMutate:  afterMutate,
	})
	bills.OnDelete(coord.ReleaseCompletion)

	return &Services{
		Client:       client,
		Redis:        redisClient,
		Rows:         rows,
		Coordinator:  coord,
		Billing:      bills,
		Inventory:    inventory.NewTracker(client, notifier, logger.Component("inventory")),
		Dashboard:    dashboard.NewService(client, rows, logger.Component("dashboard")),
		Searcher:     searcher,
		SearchStats:  searchMetrics,
		InventoryObs: inventoryMetrics,
	}, nil
}

// BuildHandler mounts the gateway routes over svc. metricsHandler may be nil.
func BuildHandler(cfg *appconfig.Config, svc *Services, limiter *httpmiddleware.RateLimiter, metricsHandler http.Handler, logger *logging.Logger) http.Handler {
	origins := httpmiddleware.NewOriginPolicy(cfg.CORSAllowedOrigins)
	return router.New(&router.Config{
		Logger: logger,
		Appointments: handlers.NewAppointmentsHandler(handlers.AppointmentsConfig{
			Coordinator: svc.Coordinator,
			Rows:        svc.Rows,
			Inventory:   svc.Inventory,
			Logger:      logger,
		}),
		Billing: handlers.NewBillingHandler(svc.Billing, logger),
		Search: handlers.NewSearchHandler(handlers.SearchConfig{
			Searcher: svc.Searcher,
			Debounce: cfg.SearchDebounce,
			MinChars: cfg.SearchMinChars,
			Origins:  origins,
			Metrics:  svc.SearchStats,
			Logger:   logger,
		}),
		Inventory:          handlers.NewInventoryHandler(svc.Inventory),
		Dashboard:          handlers.NewDashboardHandler(svc.Dashboard),
		MetricsHandler:     metricsHandler,
		Origins:            origins,
		RateLimiter:        limiter,
	})
}

// MetricsHandler serves g in the Prometheus exposition format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Close releases the Redis connection pool, if any.
func (s *Services) Close() error {
	if s == nil || s.Redis == nil {
		return nil
	}
	return s.Redis.Close()
}
