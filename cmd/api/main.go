package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wolfman30/clinic-nexus/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-nexus/internal/config"
	httpmiddleware "github.com/wolfman30/clinic-nexus/internal/http/middleware"
	"github.com/wolfman30/clinic-nexus/internal/inventory"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting clinic-nexus gateway",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic_api", cfg.ClinicAPIURL,
	)

	reg, metricsHandler := setupMetrics(cfg.MetricsEnabled)
	svc, err := bootstrap.BuildServices(context.Background(), cfg, logger, reg)
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	done := make(chan struct{})
	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.Run(done)
	}

	sweeper := inventory.NewSweeper(svc.Inventory, svc.InventoryObs, logger.Component("inventory"))
	if cfg.InventorySweepSchedule != "" {
		if err := sweeper.Start(cfg.InventorySweepSchedule); err != nil {
			logger.Error("failed to schedule inventory sweep", "error", err)
			os.Exit(1)
		}
	}

	// No read/write timeouts: autocomplete websockets outlive any fixed deadline.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           bootstrap.BuildHandler(cfg, svc, limiter, metricsHandler, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sweeper.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics returns a fresh registry and its /metrics handler, or nils
// when metrics are disabled.
func setupMetrics(enabled bool) (prometheus.Registerer, http.Handler) {
	if !enabled {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, bootstrap.MetricsHandler(reg)
}
