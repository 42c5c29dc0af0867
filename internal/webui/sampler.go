package webui

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kayz/biometrics/internal/dashboard"
)

// Sampler aggregates request statistics between two Sample calls.
type Sampler struct {
	mu       sync.Mutex
	since    time.Time
	count    int
	errors   int
	duration time.Duration
}

func NewSampler(now time.Time) *Sampler {
	return &Sampler{since: now}
}

// Observe records one finished request. Status codes >= 500 count as
// errors.
func (s *Sampler) Observe(d time.Duration, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	s.duration += d
	if status >= 500 {
		s.errors++
	}
}

// Sample returns the rates since the previous sample and starts a new
// window. QueueSize is left for the caller.
func (s *Sampler) Sample(now time.Time) dashboard.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	var m dashboard.Metrics
	elapsed := now.Sub(s.since).Seconds()
	if elapsed > 0 {
		m.RequestRate = float64(s.count) / elapsed
	}
	if s.count > 0 {
		m.AvgResponse = float64(s.duration.Milliseconds()) / float64(s.count)
		m.ErrorRate = float64(s.errors) / float64(s.count) * 100
	}

	s.since = now
	s.count = 0
	s.errors = 0
	s.duration = 0
	return m
}

type serverMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	clients         prometheus.Gauge
	broadcastsTotal *prometheus.CounterVec
	queueSize       prometheus.Gauge
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	f := promauto.With(reg)
	return &serverMetrics{
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biometrics_http_requests_total",
				Help: "HTTP requests served by the dashboard server",
			},
			[]string{"path", "code"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "biometrics_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		clients: f.NewGauge(prometheus.GaugeOpts{
			Name: "biometrics_dashboard_clients",
			Help: "Connected dashboard push clients",
		}),
		broadcastsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biometrics_dashboard_broadcasts_total",
				Help: "Push messages broadcast by type",
			},
			[]string{"type"},
		),
		queueSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "biometrics_dashboard_queue_size",
			Help: "Push messages waiting in client queues",
		}),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument feeds the sampler and the Prometheus collectors. Push
// connections and the metrics endpoint itself are not measured.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == dashboard.PushPath || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		d := time.Since(start)

		s.sampler.Observe(d, rec.status)
		path := routeLabel(r.URL.Path)
		s.metrics.requestsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(path).Observe(d.Seconds())
	})
}

// routeLabel keeps label cardinality bounded.
func routeLabel(path string) string {
	switch path {
	case "/", "/api/status", dashboard.BootstrapPath, "/api/agents", "/api/alerts":
		return path
	default:
		return "other"
	}
}
