// Package metrics provides Prometheus metrics for the quiz service.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"quiznufi-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the quiz collectors and implements app.Metrics.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	sessionsStarted   *prometheus.CounterVec
	sessionsCompleted prometheus.Counter
	scorePercentage   prometheus.Histogram
	answers           *prometheus.CounterVec
	poolFetchLatency  prometheus.Histogram
	poolFetchErrors   prometheus.Counter
	submissionErrors  prometheus.Counter
	leaderboardErrors prometheus.Counter

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

type Option func(*Manager)

func WithNamespace(namespace string) Option {
	return func(m *Manager) { m.namespace = namespace }
}

func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) { m.histogramBuckets = buckets }
}

// WithRegistry registers collectors on registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = registry }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "quiznufi",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsStarted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sessions_started_total",
		Help:      "Quiz sessions started by area",
	}, []string{"area"})

	m.sessionsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sessions_completed_total",
		Help:      "Quiz sessions that reached completion",
	})

	m.scorePercentage = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "score_percentage",
		Help:      "Final score percentage of completed sessions",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.answers = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "answers_total",
		Help:      "Resolved questions by outcome",
	}, []string{"outcome"})

	m.poolFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "pool_fetch_seconds",
		Help:      "Latency of question pool fetches",
		Buckets:   m.histogramBuckets,
	})

	m.poolFetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "pool_fetch_errors_total",
		Help:      "Question pool fetches that failed",
	})

	m.submissionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_submission_errors_total",
		Help:      "Leaderboard submissions that failed",
	})

	m.leaderboardErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_fetch_errors_total",
		Help:      "Leaderboard reads that failed",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by route and method",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

func (m *Manager) SessionStarted(area string) {
	m.sessionsStarted.WithLabelValues(area).Inc()
}

func (m *Manager) SessionCompleted(percentage float64) {
	m.sessionsCompleted.Inc()
	m.scorePercentage.Observe(percentage)
}

func (m *Manager) AnswerRecorded(kind domain.OutcomeKind) {
	m.answers.WithLabelValues(string(kind)).Inc()
}

func (m *Manager) PoolFetched(d time.Duration, err error) {
	m.poolFetchLatency.Observe(d.Seconds())
	if err != nil {
		m.poolFetchErrors.Inc()
	}
}

func (m *Manager) SubmissionFailed()       { m.submissionErrors.Inc() }
func (m *Manager) LeaderboardFetchFailed() { m.leaderboardErrors.Inc() }

// Registry exposes the registry for tests and extra collectors.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack keeps websocket upgrades working behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errNotHijacker
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

var errNotHijacker = errors.New("response writer does not support hijacking")
