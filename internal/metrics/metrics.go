package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported by the API.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	IngestRequests  *prometheus.CounterVec
	InboundStatuses *prometheus.CounterVec
	RODRuns         *prometheus.CounterVec
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		IngestRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_ingest_requests_total",
				Help: "Lead webhook deliveries by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		InboundStatuses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_inbound_lead_status_total",
				Help: "Terminal processing status of legacy inbound leads",
			},
			[]string{"status"},
		),
		RODRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rod_automation_runs_total",
				Help: "ROD automation jobs by type and outcome",
			},
			[]string{"type", "outcome"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Middleware records request counts and latency keyed by the matched route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// ObserveIngest counts one webhook delivery.
func (m *Metrics) ObserveIngest(flow, outcome string) {
	if m == nil {
		return
	}
	m.IngestRequests.WithLabelValues(flow, outcome).Inc()
}

// ObserveInboundStatus counts the status a legacy inbound lead ended in.
func (m *Metrics) ObserveInboundStatus(status string) {
	if m == nil {
		return
	}
	m.InboundStatuses.WithLabelValues(status).Inc()
}

// ObserveROD counts one ROD automation run.
func (m *Metrics) ObserveROD(jobType, outcome string) {
	if m == nil {
		return
	}
	m.RODRuns.WithLabelValues(jobType, outcome).Inc()
}
