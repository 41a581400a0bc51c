// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by middleware and services
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordUserOperation(operation, outcome string)
	RecordLogin(surface string, success bool)
	RecordRegistration(outcome string)
}

// Collector records metrics into a Prometheus registry
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	userOperations *prometheus.CounterVec
	logins         *prometheus.CounterVec
	registrations  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdesk_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventdesk_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		userOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdesk_user_operations_total",
			Help: "User management operations by outcome",
		}, []string{"operation", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdesk_logins_total",
			Help: "Login attempts by surface and result",
		}, []string{"surface", "result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdesk_event_registrations_total",
			Help: "Event registration attempts by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.userOperations,
		c.logins,
		c.registrations,
	)

	return c
}

// RecordHTTPRequest records a served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUserOperation records a user workflow operation outcome
func (c *Collector) RecordUserOperation(operation, outcome string) {
	c.userOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordLogin records a login attempt
func (c *Collector) RecordLogin(surface string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(surface, result).Inc()
}

// RecordRegistration records an event registration attempt
func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP handler serving the gatherer's metrics
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every metric
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}

func (Nop) RecordUserOperation(string, string) {}

func (Nop) RecordLogin(string, bool) {}

func (Nop) RecordRegistration(string) {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
