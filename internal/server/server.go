// Package server exposes the simulation session over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"portfolioSim/internal/analytics"
	"portfolioSim/internal/app"
	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

// Simulation is the session the handlers drive. *app.SimulationService
// implements it.
type Simulation interface {
	RunSimulation(ctx context.Context) (app.RunSummary, error)
	CatchUp(ctx context.Context) ([]app.RunSummary, error)
	Reset(ctx context.Context) error
	SetCapital(ctx context.Context, capital float64) error
	Metrics() analytics.Report
	Trades() []domain.TradeRecord
	Positions() map[string]domain.Position
	ChartData() analytics.ChartData
}

// Config holds server configuration
type Config struct {
	Port           int
	Logger         ports.Logger
	Simulation     Simulation
	DefaultCapital float64 // Used by set_capital when the body has no capital
	StaticDir      string  // Dashboard files served at /; skipped when missing
	DevMode        bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	logger         ports.Logger
	sim            Simulation
	defaultCapital float64
	port           int
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil || cfg.Simulation == nil {
		return nil, fmt.Errorf("logger and simulation are required for server")
	}

	s := &Server{
		router:         chi.NewRouter(),
		logger:         cfg.Logger,
		sim:            cfg.Simulation,
		defaultCapital: cfg.DefaultCapital,
		port:           cfg.Port,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg.StaticDir)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // Catch-up can run long
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(staticDir string) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
		r.Get("/trades", s.handleTrades)
		r.Get("/positions", s.handlePositions)
		r.Get("/chart_data", s.handleChartData)

		r.Get("/start_simulation", s.handleStartSimulation)
		r.Post("/start_simulation", s.handleStartSimulation)
		r.Get("/reset_simulation", s.handleResetSimulation)
		r.Post("/reset_simulation", s.handleResetSimulation)
		r.Post("/set_capital", s.handleSetCapital)
		r.Post("/catch_up", s.handleCatchUp)
	})

	// Serve static files (for dashboard)
	if staticDir == "" {
		return
	}
	if info, err := os.Stat(staticDir); err != nil || !info.IsDir() {
		s.logger.Warn(context.Background(), "Static directory not found, dashboard disabled", map[string]interface{}{"dir": staticDir})
		return
	}
	s.router.Handle("/*", http.FileServer(http.Dir(staticDir)))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Starting HTTP server", map[string]interface{}{"port": s.port})
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "HTTP request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestID":  middleware.GetReqID(r.Context()),
		})
	})
}
