// Package metrics exposes Prometheus counters for the auth service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	logins       *prometheus.CounterVec
	locks        prometheus.Counter
	unlocks      prometheus.Counter
	cacheLookups *prometheus.CounterVec
	bruteForce   *prometheus.CounterVec
	auditDropped prometheus.Counter
	degraded     *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// New registers the collectors on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealvote_auth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		locks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealvote_auth_account_locks_total",
			Help: "Accounts locked after repeated failures.",
		}),
		unlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealvote_auth_account_unlocks_total",
			Help: "Accounts unlocked by an operator.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealvote_auth_role_cache_lookups_total",
			Help: "Role permission cache lookups by result.",
		}, []string{"result"}),
		bruteForce: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealvote_auth_bruteforce_alerts_total",
			Help: "Failure groups at or above the lockout threshold seen by the monitor.",
		}, []string{"group_by"}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealvote_auth_audit_dropped_total",
			Help: "Audit entries dropped on a full buffer.",
		}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealvote_auth_degraded_total",
			Help: "Operations answered with a fallback because the store was unavailable.",
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealvote_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mealvote_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mealvote_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logins, m.locks, m.unlocks, m.cacheLookups, m.bruteForce,
		m.auditDropped, m.degraded, m.httpRequests, m.httpDuration, m.httpInFlight,
	)
	return m
}

// Registry is exposed for tests gathering values.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Login counts a login outcome: "success", "master" or a failure reason.
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AccountLocked() {
	if m == nil {
		return
	}
	m.locks.Inc()
}

func (m *Metrics) AccountUnlocked() {
	if m == nil {
		return
	}
	m.unlocks.Inc()
}

// RoleCache counts a cache lookup.
func (m *Metrics) RoleCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) BruteForceAlerts(groupBy string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bruteForce.WithLabelValues(groupBy).Add(float64(n))
}

func (m *Metrics) AuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}

// Degraded counts an operation that fell back to its safe default.
func (m *Metrics) Degraded(operation string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(operation).Inc()
}

// Instrument records request count, latency and in-flight requests. Routes
// are labeled by their ServeMux pattern to keep cardinality bounded.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.code)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
