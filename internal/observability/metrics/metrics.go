package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics counts appointment lifecycle transitions and the billing
// side effect of completion.
type WorkflowMetrics struct {
	transitions *prometheus.CounterVec
	billing     *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	m := &WorkflowMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Appointment lifecycle transitions by outcome",
		}, []string{"transition", "result"}),
		billing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "workflow",
			Name:      "billing_total",
			Help:      "Billing records derived from completed appointments",
		}, []string{"result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "workflow",
			Name:      "transition_seconds",
			Help:      "Time spent in a lifecycle transition including collaborator requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transition"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.billing, m.latency)
	return m
}

func (m *WorkflowMetrics) ObserveTransition(transition, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition, result).Inc()
	m.latency.WithLabelValues(transition).Observe(elapsed.Seconds())
}

func (m *WorkflowMetrics) ObserveBilling(result string) {
	if m == nil {
		return
	}
	m.billing.WithLabelValues(result).Inc()
}

// Search lookup results.
const (
	LookupApplied = "applied"
	LookupStale   = "stale"
	LookupError   = "error"
	LookupCached  = "cached"
)

// SearchMetrics tracks autocomplete lookups per entity kind.
type SearchMetrics struct {
	lookups *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	m := &SearchMetrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "search",
			Name:      "lookups_total",
			Help:      "Entity search lookups by outcome",
		}, []string{"kind", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "search",
			Name:      "lookup_seconds",
			Help:      "Latency of entity search lookups",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.lookups, m.latency)
	return m
}

func (m *SearchMetrics) ObserveLookup(kind, result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(kind, result).Inc()
}

func (m *SearchMetrics) ObserveLatency(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// InventoryMetrics exposes the size of the low-stock list from the last sweep.
type InventoryMetrics struct {
	lowStock prometheus.Gauge
}

func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	m := &InventoryMetrics{
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "inventory",
			Name:      "low_stock_items",
			Help:      "Active inventory items at or below their reorder threshold",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.lowStock)
	return m
}

func (m *InventoryMetrics) SetLowStock(n int) {
	if m == nil {
		return
	}
	m.lowStock.Set(float64(n))
}
