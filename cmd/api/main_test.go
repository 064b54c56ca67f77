package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
)

func TestSetupMetricsExposesWorkflowMetrics(t *testing.T) {
	reg, handler := setupMetrics(true)
	if reg == nil || handler == nil {
		t.Fatalf("expected non-nil registry and handler")
	}

	metrics.NewWorkflowMetrics(reg).ObserveBilling("created")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "clinic_workflow_billing_total") {
		t.Fatalf("expected billing counter to be exported")
	}
}

func TestSetupMetricsDisabled(t *testing.T) {
	reg, handler := setupMetrics(false)
	if reg != nil || handler != nil {
		t.Fatalf("expected metrics to be disabled")
	}
}
