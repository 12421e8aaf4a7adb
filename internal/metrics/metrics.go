// Package metrics exposes the service's Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salonbook"

// Metrics holds Prometheus metrics for bookings and notifications.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// BookingsCreated is the total number of bookings created.
	BookingsCreated prometheus.Counter

	// BookingsUpdated is the total number of bookings changed by an admin.
	BookingsUpdated prometheus.Counter

	// BookingsCancelled counts cancellation attempts by outcome.
	BookingsCancelled *prometheus.CounterVec

	// NotificationsProcessed counts notification intents by kind and status.
	NotificationsProcessed *prometheus.CounterVec

	// SlotComputeDuration is the time to compute a day's slots.
	SlotComputeDuration prometheus.Histogram

	// HTTPRequests counts API requests by route pattern and status code.
	HTTPRequests *prometheus.CounterVec
}

// New creates the metrics on a private registry, alongside the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		BookingsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_created_total",
				Help:      "Total number of bookings created",
			},
		),

		BookingsUpdated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_updated_total",
				Help:      "Total number of bookings updated",
			},
		),

		BookingsCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_cancelled_total",
				Help:      "Total number of cancellation attempts by outcome",
			},
			[]string{"outcome"},
		),

		NotificationsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_processed_total",
				Help:      "Total number of notification intents processed",
			},
			[]string{"kind", "status"},
		),

		SlotComputeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "slot_compute_duration_seconds",
				Help:      "Time to compute available slots for a day",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status",
			},
			[]string{"route", "code"},
		),
	}
}

func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
}

func (m *Metrics) BookingUpdated() {
	if m == nil {
		return
	}
	m.BookingsUpdated.Inc()
}

func (m *Metrics) BookingCancelled(outcome string) {
	if m == nil {
		return
	}
	m.BookingsCancelled.WithLabelValues(outcome).Inc()
}

func (m *Metrics) NotificationProcessed(kind, status string) {
	if m == nil {
		return
	}
	m.NotificationsProcessed.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) ObserveSlotComputation(d time.Duration) {
	if m == nil {
		return
	}
	m.SlotComputeDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(route string, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
