// Package server assembles the HTTP surface: middleware, health and metrics
// endpoints, and every feature package's routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/supportdesk/internal/audit"
	"github.com/ziadkadry99/supportdesk/internal/contextmerge"
	"github.com/ziadkadry99/supportdesk/internal/db"
	"github.com/ziadkadry99/supportdesk/internal/logging"
	"github.com/ziadkadry99/supportdesk/internal/metrics"
	"github.com/ziadkadry99/supportdesk/internal/queue"
	"github.com/ziadkadry99/supportdesk/internal/related"
	"github.com/ziadkadry99/supportdesk/internal/timeline"
	"github.com/ziadkadry99/supportdesk/internal/triage"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool          // allow all CORS origins (dev mode)
	RequestTimeout time.Duration // zero means 60s
}

// Deps are the components whose routes the server mounts. Index and Triage
// may be nil.
type Deps struct {
	DB        *db.DB
	Scheduler *queue.Scheduler
	Engine    *contextmerge.Engine
	Stream    *timeline.Stream
	Triage    *triage.Service
	Audit     *audit.Store
	Index     *related.Index
}

// Server is the supportdesk HTTP server.
type Server struct {
	cfg        Config
	deps       Deps
	log        *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server and registers every route.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  logging.OrDiscard(logger),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	timeout := s.cfg.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(timeoutExceptUpgrades(timeout))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	if s.deps.Scheduler != nil {
		queue.RegisterRoutes(r, s.deps.Scheduler)
	}
	if s.deps.Engine != nil {
		contextmerge.RegisterRoutes(r, s.deps.Engine)
	}
	if s.deps.Stream != nil {
		timeline.RegisterRoutes(r, s.deps.Stream)
	}
	if s.deps.Triage != nil {
		triage.RegisterRoutes(r, s.deps.Triage)
	}
	if s.deps.Audit != nil {
		audit.RegisterRoutes(r, s.deps.Audit)
	}
	if s.deps.Index != nil {
		related.RegisterRoutes(r, s.deps.Index)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// timeoutExceptUpgrades applies middleware.Timeout to every request except
// websocket upgrades, which stay open until the client leaves.
func timeoutExceptUpgrades(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		bounded := middleware.Timeout(d)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			bounded.ServeHTTP(w, r)
		})
	}
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("supportdesk server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
