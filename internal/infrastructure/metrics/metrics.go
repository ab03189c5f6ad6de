package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Deliveries      *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	PositionWrites  *prometheus.CounterVec
	Reminders       *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_deliveries_total",
				Help: "Background delivery attempts by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "notification_queue_depth",
				Help: "Delivery jobs waiting in the queue",
			},
		),
		PositionWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "position_writes_total",
				Help: "Position rows rewritten by reorder and move operations",
			},
			[]string{"scope"},
		),
		Reminders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_tasks_total",
				Help: "Tasks handled by reminder sweeps by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.Deliveries,
		m.QueueDepth,
		m.PositionWrites,
		m.Reminders,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies per route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			m.RequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			m.RequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// ObserveDelivery counts one delivery outcome. Safe on a nil receiver so
// callers built without metrics need no guards.
func (m *Metrics) ObserveDelivery(channel, outcome string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) AddPositionWrites(scope string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.PositionWrites.WithLabelValues(scope).Add(float64(n))
}

func (m *Metrics) ObserveReminder(outcome string) {
	if m == nil {
		return
	}
	m.Reminders.WithLabelValues(outcome).Inc()
}
