package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	requestErrors *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	escalations   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	conflicts     prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "HTTP error responses by method, route and error code.",
		}, []string{"method", "path", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_transitions_total",
			Help: "Successful ticket status transitions.",
		}, []string{"from", "to"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_escalations_total",
			Help: "Successful escalations by target level code.",
		}, []string{"to"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_notifications_total",
			Help: "Notification attempts by event type and result.",
		}, []string{"event", "result"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_ticket_concurrent_modifications_total",
			Help: "Ticket writes rejected because of a stale version.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestErrors,
		m.latency,
		m.transitions,
		m.escalations,
		m.notifications,
		m.conflicts,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest counts a request and observes its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.requestErrors.WithLabelValues(method, path, code).Inc()
}

func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordEscalation(toLevel string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(toLevel).Inc()
}

// RecordNotification counts a notification; result is "sent", "failed" or
// "skipped".
func (m *Metrics) RecordNotification(eventType, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) RecordConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}
