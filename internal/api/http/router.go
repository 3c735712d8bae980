package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/assessment"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/auth"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/events"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/metrics"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

type Deps struct {
	Service *assessment.Service
	Auth    *auth.AuthService
	Users   *auth.UserStore // nil disables /auth/login
	Events  *events.EventRepo
	Limiter *Limiter
	Log     *zap.Logger

	CORSOrigins []string
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d Deps) chi.Router {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Log), middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if d.Users != nil {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Users, d.Log))
	}

	svc := d.Service
	limited := d.Limiter.Middleware

	// Protected API (JWT → principal in context → RBAC → ownership in the service)
	r.Route("/api", func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.Route("/courses/{courseID}", func(cr chi.Router) {
			cr.With(rbac.Require("quiz:view")).Get("/quizzes", ListCourseQuizzesHandler(svc))
			cr.With(rbac.Require("quiz:author")).Post("/quizzes", CreateQuizHandler(svc))
			cr.With(rbac.Require("course:delete_own")).Delete("/", DeleteCourseHandler(svc))
		})

		pr.Route("/quizzes/{quizID}", func(qr chi.Router) {
			qr.With(rbac.Require("quiz:view")).Get("/", GetQuizHandler(svc))
			qr.With(rbac.Require("quiz:author")).Put("/", UpdateQuizHandler(svc))
			qr.With(rbac.Require("quiz:author")).Delete("/", DeleteQuizHandler(svc))
			qr.With(rbac.Require("quiz:debug")).Get("/debug", DebugQuizHandler(svc))

			qr.With(rbac.Require("quiz:author")).Post("/questions", AddQuestionHandler(svc))
			qr.With(rbac.Require("quiz:author")).Put("/questions/{questionID}", UpdateQuestionHandler(svc))
			qr.With(rbac.Require("quiz:author")).Delete("/questions/{questionID}", DeleteQuestionHandler(svc))

			qr.With(rbac.Require("attempt:create"), limited).Post("/attempts/start", StartAttemptHandler(svc))
			qr.With(rbac.Require("attempt:view-own")).Get("/attempts", ListAttemptsHandler(svc))
			qr.With(rbac.Require("attempt:view-own")).Get("/attempts/count", AttemptCountHandler(svc))
			qr.With(rbac.Require("attempt:view-own")).Get("/attempts/latest", LatestAttemptHandler(svc))
			qr.With(rbac.Require("attempt:view-own")).Get("/attempts/in-progress", InProgressAttemptHandler(svc))
			qr.With(rbac.Require("attempt:view-all")).Get("/attempts/all", ListQuizAttemptsHandler(svc))
		})

		pr.Route("/attempts/{attemptID}", func(ar chi.Router) {
			ar.With(rbac.Require("attempt:view-own")).Get("/", GetAttemptHandler(svc))
			ar.With(rbac.Require("attempt:save")).Put("/update", UpdateAttemptHandler(svc))
			ar.With(rbac.Require("attempt:submit"), limited).Post("/submit", SubmitAttemptHandler(svc))
		})

		if d.Events != nil {
			pr.With(rbac.Require("events:read")).Get("/events", EventsHandler(d.Events))
		}
	})
	return r
}

// EventsHandler pages through the event log: ?after=<seq>&limit=<n>.
func EventsHandler(repo *events.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		evs, err := repo.Since(r.Context(), after, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
