package providers

import (
	"studyd/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncSessionsOpened(source string)
	IncSessionsClosed(source string)
	AddSecondsAccumulated(tier string, seconds float64)
	IncFlushRetries()
	AddSecondsLost(seconds float64)
	IncHydrations(result string)
	IncPosts(trigger string)
	IncExports(result string)
	SetOpenSessions(count int)
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sessionsOpened  *prometheus.CounterVec
	sessionsClosed  *prometheus.CounterVec
	secondsTotal    *prometheus.CounterVec
	flushRetries    prometheus.Counter
	secondsLost     prometheus.Counter
	hydrations      *prometheus.CounterVec
	posts           *prometheus.CounterVec
	exports         *prometheus.CounterVec
	openSessions    prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncSessionsOpened(source string) {
	m.sessionsOpened.WithLabelValues(source).Inc()
}

func (m *MetricsProvider) IncSessionsClosed(source string) {
	m.sessionsClosed.WithLabelValues(source).Inc()
}

func (m *MetricsProvider) AddSecondsAccumulated(tier string, seconds float64) {
	m.secondsTotal.WithLabelValues(tier).Add(seconds)
}

func (m *MetricsProvider) IncFlushRetries() {
	m.flushRetries.Inc()
}

func (m *MetricsProvider) AddSecondsLost(seconds float64) {
	m.secondsLost.Add(seconds)
}

func (m *MetricsProvider) IncHydrations(result string) {
	m.hydrations.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) IncPosts(trigger string) {
	m.posts.WithLabelValues(trigger).Inc()
}

func (m *MetricsProvider) IncExports(result string) {
	m.exports.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) SetOpenSessions(count int) {
	m.openSessions.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studyd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studyd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		sessionsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studyd_sessions_opened_total",
			Help: "Presence sessions opened, by source (event|poll)",
		}, []string{"source"}),

		sessionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studyd_sessions_closed_total",
			Help: "Presence sessions closed, by source (event|poll)",
		}, []string{"source"}),

		secondsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studyd_seconds_accumulated_total",
			Help: "Study seconds written to the ledger, by tier (raw|ranked)",
		}, []string{"tier"}),

		flushRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studyd_flush_retries_total",
			Help: "Ledger write retries",
		}),

		secondsLost: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studyd_seconds_lost_total",
			Help: "Study seconds dropped after exhausting write retries",
		}),

		hydrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studyd_glyph_hydrations_total",
			Help: "Glyph cache hydration attempts, by result (rebuilt|unchanged|mismatch|error)",
		}, []string{"result"}),

		posts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studyd_posts_total",
			Help: "Leaderboard posting cycles, by trigger (daily|backfill|manual)",
		}, []string{"trigger"}),

		exports: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studyd_exports_total",
			Help: "Webhook export attempts, by result (ok|error)",
		}, []string{"result"}),

		openSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "studyd_open_sessions",
			Help: "Currently open presence sessions",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncSessionsOpened(_ string)                       {}
func (n *noopMetrics) IncSessionsClosed(_ string)                       {}
func (n *noopMetrics) AddSecondsAccumulated(_ string, _ float64)        {}
func (n *noopMetrics) IncFlushRetries()                                 {}
func (n *noopMetrics) AddSecondsLost(_ float64)                         {}
func (n *noopMetrics) IncHydrations(_ string)                           {}
func (n *noopMetrics) IncPosts(_ string)                                {}
func (n *noopMetrics) IncExports(_ string)                              {}
func (n *noopMetrics) SetOpenSessions(_ int)                            {}
