package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	capturesTotal     *prometheus.CounterVec
	tryOnTotal        *prometheus.CounterVec
	outfitsSavedTotal *prometheus.CounterVec
	exportsTotal      *prometheus.CounterVec
}

func NewHTTPMetrics(service string) *HTTPMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardrobe",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wardrobe",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wardrobe",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	capturesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardrobe",
			Subsystem: "items",
			Name:      "captures_total",
			Help:      "Total garment captures accepted.",
		},
		[]string{"service"},
	)
	tryOnTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardrobe",
			Subsystem: "tryon",
			Name:      "requests_total",
			Help:      "Total try-on compositions by type and status.",
		},
		[]string{"service", "type", "status"},
	)
	outfitsSavedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardrobe",
			Subsystem: "outfits",
			Name:      "saved_total",
			Help:      "Total outfit compositions saved.",
		},
		[]string{"service"},
	)
	exportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardrobe",
			Subsystem: "items",
			Name:      "exports_total",
			Help:      "Total inventory exports produced.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		capturesTotal,
		tryOnTotal,
		outfitsSavedTotal,
		exportsTotal,
	)

	return &HTTPMetrics{
		registry:          registry,
		service:           service,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		capturesTotal:     capturesTotal,
		tryOnTotal:        tryOnTotal,
		outfitsSavedTotal: outfitsSavedTotal,
		exportsTotal:      exportsTotal,
	}
}

func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses per-entity paths so metric cardinality stays
// bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/items/stats"), strings.HasPrefix(path, "/v1/items/export"):
		return path
	case strings.HasPrefix(path, "/v1/items/"):
		return "/v1/items/{item_id}"
	case strings.HasPrefix(path, "/v1/outfits/"):
		return "/v1/outfits/{outfit_id}"
	case strings.HasPrefix(path, "/v1/images/"):
		return "/v1/images/{key}"
	default:
		return path
	}
}

func (m *HTTPMetrics) RecordCapture() {
	m.capturesTotal.WithLabelValues(m.service).Inc()
}

func (m *HTTPMetrics) RecordTryOn(tryOnType string, err error) {
	if tryOnType == "" {
		tryOnType = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.tryOnTotal.WithLabelValues(m.service, tryOnType, status).Inc()
}

func (m *HTTPMetrics) RecordOutfitSaved() {
	m.outfitsSavedTotal.WithLabelValues(m.service).Inc()
}

func (m *HTTPMetrics) RecordExport() {
	m.exportsTotal.WithLabelValues(m.service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
