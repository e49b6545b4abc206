// Package metrics holds the Prometheus collectors for AgroMind.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agromind",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agromind",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method"})

	// ShapesResolved counts field shapes resolved for rendering, by kind.
	ShapesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agromind",
		Subsystem: "geometry",
		Name:      "shapes_resolved_total",
		Help:      "Field shapes resolved for rendering",
	}, []string{"kind"})

	// TilesEncoded counts vector tiles served.
	TilesEncoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agromind",
		Subsystem: "tiles",
		Name:      "encoded_total",
		Help:      "Vector tiles encoded",
	})

	// MapSubscribers tracks open map event streams.
	MapSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "agromind",
		Subsystem: "map",
		Name:      "event_subscribers",
		Help:      "Open map event streams",
	})
)

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Middleware records request counts and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
