// Package server provides the HTTP server for the meal planning API
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/greenbite/mealplanner/internal/infrastructure/config"
	"github.com/greenbite/mealplanner/internal/infrastructure/http/handlers"
	"github.com/greenbite/mealplanner/internal/infrastructure/http/middleware"
	"github.com/greenbite/mealplanner/internal/infrastructure/monitoring"
	"github.com/greenbite/mealplanner/pkg/healthcheck"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	config    *config.Config
	logger    *zap.Logger
	router    *chi.Mux
	server    *http.Server
	mealPlans *handlers.MealPlanHandlers
	pantry    *handlers.PantryHandlers
	health    *healthcheck.HealthCheck
	metrics   *monitoring.MetricsCollector
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	mealPlans *handlers.MealPlanHandlers,
	pantry *handlers.PantryHandlers,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger.Named("http-server"),
		mealPlans: mealPlans,
		pantry:    pantry,
		health:    health,
		metrics:   metrics,
	}

	s.router = s.setupRouter()

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)),
		Handler:           otelhttp.NewHandler(s.router, "mealplanner-api"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s
}

// Router exposes the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}
	if s.config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
	}

	if s.health != nil {
		r.Get("/health", s.health.Handler())
		r.Get("/health/live", s.health.LivenessHandler())
		r.Get("/health/ready", s.health.ReadinessHandler())
	}
	if s.metrics != nil && s.config.Monitoring.MetricsEnabled {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.JSONOnly())
		r.Use(middleware.Authenticate([]byte(s.config.Auth.JWTSecret), s.config.Auth.Issuer))

		r.Route("/meal-plans", func(r chi.Router) {
			r.Get("/", s.mealPlans.List)
			r.Post("/generate", s.mealPlans.Generate)
			r.Get("/tasks/{id}", s.mealPlans.GetTask)
			r.Post("/days/{id}/confirm", s.mealPlans.ConfirmDay)
			r.Post("/meals/{id}/skip", s.mealPlans.SkipMeal)
			r.Get("/{id}", s.mealPlans.Get)
			r.Delete("/{id}", s.mealPlans.Delete)
		})

		r.Route("/pantry", func(r chi.Router) {
			r.Get("/", s.pantry.List)
			r.Put("/items", s.pantry.Restock)
		})
	})

	return r
}

// Start begins serving in the background. Listen errors are reported before it returns.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
