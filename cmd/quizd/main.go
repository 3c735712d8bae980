package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	api "github.com/nishamurthy-22/kambaz-node-server-app/internal/api/http"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/assessment"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/auth"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/config"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/course"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/db"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/events"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/grading"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/logging"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/metrics"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

func main() {
	configDir := flag.String("config", ".", "directory holding an optional config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("quizd stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()

	policy, err := grading.ParseBlankPolicy(cfg.FillBlankPolicy)
	if err != nil {
		return err
	}

	metrics.Init()
	eventRepo := events.NewEventRepo(dbh, cfg.SiteID)
	svc := assessment.New(
		quiz.NewSQLStore(dbh),
		course.NewSQLDirectory(dbh),
		assessment.WithGrader(grading.NewDefaultGrader(grading.WithBlankPolicy(policy))),
		assessment.WithEvents(eventRepo),
		assessment.WithLogger(log.Named("assessment")),
	)

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	var users *auth.UserStore
	if cfg.EnableLocalAuth {
		users = auth.NewUserStore(dbh)
		if cfg.AdminPassHash != "" {
			admin := auth.User{ID: cfg.AdminUser, Username: cfg.AdminUser, Role: rbac.RoleAdmin}
			if err := users.CreateUserWithHash(ctx, admin, cfg.AdminPassHash); err != nil {
				return err
			}
		}
	}

	router := api.NewRouter(api.Deps{
		Service:     svc,
		Auth:        authSvc,
		Users:       users,
		Events:      eventRepo,
		Limiter:     api.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Log:         log.Named("http"),
		CORSOrigins: cfg.CORSOrigins(),
		Ready:       dbh.PingContext,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)), zap.String("db", cfg.DBDriver),
			zap.String("fill_blank_policy", string(policy)))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
