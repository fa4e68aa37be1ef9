// Package metrics exposes Prometheus instrumentation for the cart.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cart"

// Metrics groups the collectors recorded by the cart service.
type Metrics struct {
	registry *prometheus.Registry

	ItemsAdded       prometheus.Counter
	ItemsRemoved     prometheus.Counter
	Clears           prometheus.Counter
	Quotes           prometheus.Counter
	ValidationErrors *prometheus.CounterVec
	QuoteTotal       prometheus.Histogram
	LineItems        prometheus.Gauge
}

// New creates the collectors on a private registry. Go runtime and process
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ItemsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_added_total",
			Help:      "Units added to the cart.",
		}),
		ItemsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_removed_total",
			Help:      "Line items removed from the cart.",
		}),
		Clears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clears_total",
			Help:      "Times the cart was cleared.",
		}),
		Quotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Successful total calculations.",
		}),
		ValidationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Rejected operations by error kind.",
		}, []string{"kind"}),
		QuoteTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_total_amount",
			Help:      "Distribution of calculated order totals.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
		LineItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "line_items",
			Help:      "Distinct line items currently in the cart.",
		}),
	}

	m.registry.MustRegister(
		m.ItemsAdded,
		m.ItemsRemoved,
		m.Clears,
		m.Quotes,
		m.ValidationErrors,
		m.QuoteTotal,
		m.LineItems,
	)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
