package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes recorded by LoginAttempt.
const (
	LoginSuccess      = "success"
	LoginUnknownUser  = "unknown_user"
	LoginBadPassword  = "bad_password"
	LoginInactive     = "inactive"
	LoginLocked       = "locked"
	LoginLockoutTrips = "lockout_tripped"
)

// Metrics holds the Prometheus collectors of the API. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LoginAttemptsTotal   *prometheus.CounterVec
	SessionsCreatedTotal prometheus.Counter
	SessionsRevokedTotal prometheus.Counter
	SessionsSweptTotal   prometheus.Counter
	PasswordResetsTotal  *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hospital_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hospital_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hospital_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		SessionsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hospital_sessions_created_total",
				Help: "Sessions created by successful logins",
			},
		),
		SessionsRevokedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hospital_sessions_revoked_total",
				Help: "Sessions revoked by logout or password reset",
			},
		),
		SessionsSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hospital_sessions_swept_total",
				Help: "Expired sessions deleted by the sweeper",
			},
		),
		PasswordResetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hospital_password_resets_total",
				Help: "Password reset requests and completions",
			},
			[]string{"stage"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginAttemptsTotal,
		m.SessionsCreatedTotal,
		m.SessionsRevokedTotal,
		m.SessionsSweptTotal,
		m.PasswordResetsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RegisterGaugeFunc exposes a value computed at scrape time.
func (m *Metrics) RegisterGaugeFunc(name string, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreatedTotal.Inc()
}

func (m *Metrics) SessionsRevoked(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsRevokedTotal.Add(float64(n))
}

func (m *Metrics) SessionsSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsSweptTotal.Add(float64(n))
}

func (m *Metrics) PasswordReset(stage string) {
	if m == nil {
		return
	}
	m.PasswordResetsTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware labels requests with the chi route pattern rather than the raw
// path, so ids in URLs do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
