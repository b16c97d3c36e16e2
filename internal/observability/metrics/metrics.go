// Package metrics registers prometheus instruments for the HTTP surface and
// the cost engine.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Config carries the constant labels applied to every instrument.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics owns the process registry and the engine instruments.
type Metrics struct {
	registry *prometheus.Registry

	httpDuration        *prometheus.HistogramVec
	calcDuration        prometheus.Histogram
	calcTotal           *prometheus.CounterVec
	unpricedAllocations prometheus.Counter
}

// New builds a registry with the standard process collectors plus the
// service instruments.
func New(cfg Config) *Metrics {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "procura"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "procura_http_request_duration_seconds",
			Help:        "HTTP request duration by endpoint and status.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "status"},
	)

	calcDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "procura_cost_calculation_duration_seconds",
			Help:        "End-to-end duration of a cost calculation.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			ConstLabels: constLabels,
		},
	)

	calcTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "procura_cost_calculations_total",
			Help:        "Cost calculations by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // ok | partial | invalid
	)

	unpricedAllocations := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "procura_unpriced_allocations_total",
			Help:        "Allocation rows that resolved to no offer at any tier.",
			ConstLabels: constLabels,
		},
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpDuration,
		calcDuration,
		calcTotal,
		unpricedAllocations,
	)

	return &Metrics{
		registry:            registry,
		httpDuration:        httpDuration,
		calcDuration:        calcDuration,
		calcTotal:           calcTotal,
		unpricedAllocations: unpricedAllocations,
	}
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCalculation records the duration and result of one calculation.
func (m *Metrics) ObserveCalculation(duration time.Duration, result string) {
	if m == nil {
		return
	}
	m.calcDuration.Observe(duration.Seconds())
	m.calcTotal.WithLabelValues(result).Inc()
}

// IncUnpricedAllocation counts an allocation that found no offer.
func (m *Metrics) IncUnpricedAllocation() {
	if m == nil {
		return
	}
	m.unpricedAllocations.Inc()
}
