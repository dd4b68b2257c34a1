package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	// StatusCodeCategoryCounter groups responses into 2xx/3xx/4xx/5xx.
	StatusCodeCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category",
		},
		[]string{"service", "category"},
	)

	// VerificationOutcomes counts Telegram verification steps by result.
	VerificationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_verification_total",
			Help: "Telegram verification operations by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	// RateLimitRejections counts requests refused by the rate limiter.
	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"rule"},
	)

	registerOnce sync.Once
)

// Register adds every collector to the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDurationHistogram,
			StatusCodeCategoryCounter,
			VerificationOutcomes,
			RateLimitRejections,
		)
	})
}

// Handler serves /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMetrics records request metrics for one service.
type HTTPMetrics struct {
	ServiceName string
}

func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	Register()
	return &HTTPMetrics{ServiceName: serviceName}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware labels requests by chi route pattern, not raw path, to keep
// label cardinality bounded.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		RequestCounter.WithLabelValues(m.ServiceName, r.Method, path, strconv.Itoa(rec.status)).Inc()
		RequestDurationHistogram.WithLabelValues(m.ServiceName, r.Method, path).Observe(time.Since(start).Seconds())
		if category := StatusCategory(rec.status); category != "" {
			StatusCodeCategoryCounter.WithLabelValues(m.ServiceName, category).Inc()
		}
	})
}

// StatusCategory maps 200..599 to "2xx".."5xx" and everything else to "".
func StatusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}
