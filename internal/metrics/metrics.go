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
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "route"},
	)

	AttemptsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_attempts_started_total",
		Help: "Attempts created (idempotent re-starts excluded)",
	})

	AttemptsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_attempts_submitted_total",
		Help: "Attempts graded and finalized",
	})

	AttemptScoreRatio = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quiz_attempt_score_ratio",
		Help:    "Score divided by total points at submission",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	Rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_operation_rejections_total",
			Help: "Engine operations rejected, by error kind",
		},
		[]string{"kind"},
	)
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration,
			AttemptsStarted, AttemptsSubmitted, AttemptScoreRatio, Rejections)
	})
}

// ObserveScore records the score ratio of a submitted attempt.
func ObserveScore(score, total float64) {
	if total <= 0 {
		return
	}
	AttemptScoreRatio.Observe(score / total)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler { return promhttp.Handler() }
