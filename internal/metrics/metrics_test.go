package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/metrics"
)

func TestMiddlewareCountsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/quizzes/{quizID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(metrics.RequestCounter.WithLabelValues("GET", "/api/quizzes/{quizID}", "418"))
	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/quizzes/"+id, nil))
	}
	after := testutil.ToFloat64(metrics.RequestCounter.WithLabelValues("GET", "/api/quizzes/{quizID}", "418"))
	assert.Equal(t, 2.0, after-before)
}

func scoreSamples(t *testing.T) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.AttemptScoreRatio.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestObserveScoreSkipsZeroTotal(t *testing.T) {
	before := scoreSamples(t)
	metrics.ObserveScore(5, 0)
	assert.Equal(t, before, scoreSamples(t))
	metrics.ObserveScore(5, 10)
	assert.Equal(t, before+1, scoreSamples(t))
}

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	metrics.Init()
	metrics.Init()
	metrics.AttemptsStarted.Inc()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "quiz_attempts_started_total"))
}
