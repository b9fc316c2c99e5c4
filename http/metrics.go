package http

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"path", "method", "status"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Served predictions by outcome",
		},
		[]string{"outcome"},
	)

	registerOnce sync.Once
)

func registerMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, predictionsTotal)
	})
}

// MetricsMiddleware records request counts and latencies. Path labels stay
// low-cardinality because every route is a fixed pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	registerMetrics()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(seconds float64) {
			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, status).Inc()
			httpRequestDuration.WithLabelValues(r.URL.Path, r.Method, status).Observe(seconds)
		}))
		defer timer.ObserveDuration()

		next.ServeHTTP(wrapped, r)
	})
}

// MetricsHandler exposes the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	registerMetrics()
	return promhttp.Handler()
}

func countPrediction(err error) {
	registerMetrics()
	if err != nil {
		predictionsTotal.WithLabelValues("error").Inc()
		return
	}
	predictionsTotal.WithLabelValues("ok").Inc()
}
