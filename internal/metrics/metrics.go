// Package metrics provides the Prometheus metrics of the auth service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the custom metrics and the registry they are exposed from.
type Metrics struct {
	registry *prometheus.Registry

	Outcomes             *prometheus.CounterVec
	NotificationFailures prometheus.Counter
}

// New creates a dedicated registry with the Go and process collectors
// and registers the custom metrics on it.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emailauth_outcomes_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		NotificationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "emailauth_notification_failures_total",
				Help: "Total number of verification emails that could not be sent",
			},
		),
	}

	registry.MustRegister(m.Outcomes)
	registry.MustRegister(m.NotificationFailures)

	return m
}

// ObserveOutcome counts one finished operation. Safe to call on a nil *Metrics.
func (m *Metrics) ObserveOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(operation, outcome).Inc()
}

// ObserveNotificationFailure counts one failed notification. Safe to call on a nil *Metrics.
func (m *Metrics) ObserveNotificationFailure() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
