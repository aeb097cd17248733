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

const namespace = "interview"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	questionsServedTotal *prometheus.CounterVec
	selectionDuration    *prometheus.HistogramVec
	answersTotal         *prometheus.CounterVec
	answerSimilarity     *prometheus.HistogramVec
	decisionsTotal       *prometheus.CounterVec
	hireProbability      *prometheus.HistogramVec
	breakerTransitions   *prometheus.CounterVec
	rateLimitedTotal     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	questionsServedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "questions_total",
			Help:      "Next-question requests by outcome (served, fallback, exhausted, error).",
		},
		[]string{"service", "outcome"},
	)
	selectionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "duration_seconds",
			Help:      "Scoring and search duration per next-question request.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "answers",
			Name:      "evaluated_total",
			Help:      "Evaluated answers by whether a blended score was computed.",
		},
		[]string{"service", "scored"},
	)
	answerSimilarity := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "answers",
			Name:      "similarity",
			Help:      "Cosine similarity between submitted and canonical answers.",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "total",
			Help:      "Hire decisions by label.",
		},
		[]string{"service", "decision"},
	)
	hireProbability := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "hire_probability",
			Help:      "Distribution of predicted hire probability.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions by operation.",
		},
		[]string{"service", "operation", "to"},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		questionsServedTotal,
		selectionDuration,
		answersTotal,
		answerSimilarity,
		decisionsTotal,
		hireProbability,
		breakerTransitions,
		rateLimitedTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		questionsServedTotal: questionsServedTotal,
		selectionDuration:    selectionDuration,
		answersTotal:         answersTotal,
		answerSimilarity:     answerSimilarity,
		decisionsTotal:       decisionsTotal,
		hireProbability:      hireProbability,
		breakerTransitions:   breakerTransitions,
		rateLimitedTotal:     rateLimitedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
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
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses assessment ids to keep label cardinality bounded.
func normalizePath(path string) string {
	const prefix = "/v1/assessments/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return prefix + "{assessment_id}" + rest[idx:]
	}
	return prefix + "{assessment_id}"
}

// RecordSelection records one next-question outcome: served, fallback,
// exhausted or error.
func (m *HTTPServerMetrics) RecordSelection(service, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.questionsServedTotal.WithLabelValues(service, outcome).Inc()
	m.selectionDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordAnswer(service string, similarity float64, scored bool) {
	m.answersTotal.WithLabelValues(service, strconv.FormatBool(scored)).Inc()
	m.answerSimilarity.WithLabelValues(service).Observe(similarity)
}

func (m *HTTPServerMetrics) RecordDecision(service, decision string, hireProbability float64) {
	m.decisionsTotal.WithLabelValues(service, decision).Inc()
	m.hireProbability.WithLabelValues(service).Observe(hireProbability)
}

func (m *HTTPServerMetrics) RecordBreakerTransition(service, operation, to string) {
	m.breakerTransitions.WithLabelValues(service, operation, to).Inc()
}

func (m *HTTPServerMetrics) RecordRateLimited(service string) {
	m.rateLimitedTotal.WithLabelValues(service).Inc()
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
