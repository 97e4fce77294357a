package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"planivo/internal/domain/audit"
	"planivo/internal/domain/auth"
	"planivo/internal/domain/notifications"
	"planivo/internal/domain/org"
	"planivo/internal/domain/roster"
	"planivo/internal/domain/vacation"
	"planivo/internal/platform/config"
	"planivo/internal/platform/db"
	"planivo/internal/platform/mailqueue"
	"planivo/internal/platform/metrics"
	"planivo/internal/transport/http/api"
	authhandler "planivo/internal/transport/http/handlers/auth"
	notificationshandler "planivo/internal/transport/http/handlers/notifications"
	vacationhandler "planivo/internal/transport/http/handlers/vacation"
	"planivo/internal/transport/http/middleware"
)

type Server struct {
	cfg       config.Config
	pool      *pgxpool.Pool
	queue     *mailqueue.Publisher
	collector *metrics.Collector
	router    chi.Router
}

// New connects the database, applies migrations and seed data when enabled,
// and wires the full handler tree. The returned server owns the pool and
// queue connections until Close.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	queue, err := mailqueue.Connect(cfg)
	if err != nil {
		slog.Warn("mail queue unavailable, notifications will not be emailed", "err", err)
		queue = nil
	}

	s := &Server{
		cfg:       cfg,
		pool:      pool,
		queue:     queue,
		collector: metrics.New(),
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() chi.Router {
	authStore := auth.NewStore(s.pool)
	orgStore := org.NewStore(s.pool)
	rosterStore := roster.NewStore(s.pool)
	vacationStore := vacation.NewStore(s.pool)
	notificationStore := notifications.NewStore(s.pool)
	auditSvc := audit.New(s.pool)

	// A typed nil Publisher must not reach the Queue interface.
	var queue notifications.Queue
	if s.queue != nil {
		queue = s.queue
	}
	notificationSvc := notifications.New(notificationStore, queue)

	vacationSvc := vacation.NewService(vacationStore, orgStore, rosterStore, notificationSvc, s.cfg.MaxPlanSegments)

	authH := authhandler.NewHandler(authStore, s.cfg.JWTSecret)
	vacationH := vacationhandler.NewHandler(vacationSvc, orgStore, auditSvc)
	notificationsH := notificationshandler.NewHandler(notificationSvc)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.SecureHeaders(s.cfg.Environment == "production"))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.collector))
	r.Use(middleware.Recoverer)
	r.Use(middleware.BodyLimit(s.cfg.MaxBodyBytes))
	r.Use(middleware.Auth(s.cfg.JWTSecret))
	r.Use(middleware.RateLimit(s.cfg.RateLimitPerMinute, time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.cfg.MetricsEnabled {
		r.Get("/metrics", s.handleMetrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authH.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Use(middleware.Idempotency(middleware.NewIdempotencyStore(s.pool)))
			r.Route("/vacation", vacationH.RegisterRoutes)
			r.Route("/notifications", notificationsH.RegisterRoutes)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database unavailable", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(r.Context()))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, s.collector.Snapshot(), middleware.GetRequestID(r.Context()))
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Close() {
	s.queue.Close()
	s.pool.Close()
}

// Run serves until the context is cancelled or a termination signal arrives,
// then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.cfg.Addr, "env", s.cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
