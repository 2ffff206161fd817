// Package metrics exposes Prometheus counters for registration outcomes,
// rate-limit rejections and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/diasporalink/backend/internal/registration"
)

// Metrics holds the service collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	RegistrationSubmissions *prometheus.CounterVec
	RateLimitRejections     *prometheus.CounterVec
	HTTPRequests            *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RegistrationSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "diaspora_registration_submissions_total",
			Help: "Registration submissions by terminal outcome",
		}, []string{"outcome"}),
		RateLimitRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "diaspora_ratelimit_rejections_total",
			Help: "Requests rejected by a rate limit policy",
		}, []string{"policy"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "diaspora_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "diaspora_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// RecordSubmission implements registration.Recorder.
func (m *Metrics) RecordSubmission(outcome registration.Outcome) {
	m.RegistrationSubmissions.WithLabelValues(string(outcome)).Inc()
	if outcome == registration.OutcomeRateLimited {
		m.RateLimitRejections.WithLabelValues("registration").Inc()
	}
}

// RecordRejection counts a request refused by the named policy.
func (m *Metrics) RecordRejection(policy string) {
	m.RateLimitRejections.WithLabelValues(policy).Inc()
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
