package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

const sweepTimeout = time.Minute

// Sweeper periodically logs reorder alerts and publishes the low-stock gauge.
type Sweeper struct {
	tracker *Tracker
	metrics *metrics.InventoryMetrics
	logger  *logging.Logger
	cron    *cron.Cron
}

func NewSweeper(tracker *Tracker, m *metrics.InventoryMetrics, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		tracker: tracker,
		metrics: m,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start schedules the sweep on a standard five-field cron spec, e.g. "5 0 * * *".
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("inventory: sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("inventory: schedule sweep %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("inventory: sweeper started", "schedule", spec)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Sweep runs one low-stock check.
func (s *Sweeper) Sweep(ctx context.Context) ([]Reorder, error) {
	reorders, err := s.tracker.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetLowStock(len(reorders))
	for _, r := range reorders {
		s.logger.Warn("inventory: reorder needed",
			"item_id", r.Item.ID,
			"item", r.Item.Name,
			"stock", r.Item.StockQuantity,
			"threshold", r.Item.ReorderThreshold,
			"reorder_quantity", r.Quantity,
		)
	}
	return reorders, nil
}
