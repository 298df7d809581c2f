// Package server wires the chi router, middleware chain and handlers
// into the gateway's HTTP surface.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zachlagden/zlapi/internal/config"
	"github.com/zachlagden/zlapi/internal/handler"
	"github.com/zachlagden/zlapi/internal/keystore"
	"github.com/zachlagden/zlapi/internal/lastfm"
	"github.com/zachlagden/zlapi/internal/openapi"
	"github.com/zachlagden/zlapi/internal/server/middleware"
	"github.com/zachlagden/zlapi/internal/service"
)

// Server owns the router and the shared collaborators behind it.
type Server struct {
	cfg        *config.Config
	version    string
	router     chi.Router
	store      *keystore.Store
	auth       *service.Authenticator
	logger     *slog.Logger
	httpServer *http.Server
}

// New builds a fully routed Server. lfm may be nil for tests that never
// touch the activity endpoints.
func New(cfg *config.Config, version string, store *keystore.Store, auth *service.Authenticator, lfm *lastfm.Client, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		version: version,
		store:   store,
		auth:    auth,
		logger:  logger,
	}
	s.setupRouter(lfm)
	return s
}

func (s *Server) setupRouter(lfm *lastfm.Client) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recover(s.logger))
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimit.PerHour > 0 {
		r.Use(middleware.RateLimit(s.cfg.RateLimit.PerHour, time.Hour))
	}
	if s.cfg.RateLimit.PerDay > 0 {
		r.Use(middleware.RateLimit(s.cfg.RateLimit.PerDay, 24*time.Hour))
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/openapi.json", openapi.Handler(s.version))

	activityHandler := handler.NewActivityHandler(lfm)
	r.Route("/activity", func(r chi.Router) {
		r.Use(middleware.RequireKey(s.auth))
		r.Get("/now_playing", activityHandler.NowPlaying)
		r.Get("/recent_tracks", activityHandler.RecentTracks)
	})

	imagesHandler := handler.NewImagesHandler(nil)
	r.Route("/images", func(r chi.Router) {
		r.Use(middleware.RequireKey(s.auth))
		r.Get("/qr", imagesHandler.QR)
		r.Get("/barcode", imagesHandler.Barcode)
		r.Get("/dominant_colors", imagesHandler.DominantColors)
	})

	systemHandler := handler.NewSystemHandler(s.store)
	r.Route("/system", func(r chi.Router) {
		r.Use(middleware.RequireMaster(s.auth))
		r.Get("/api-key", systemHandler.ListKeys)
		r.Post("/api-key", systemHandler.CreateKey)
	})

	s.router = r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(fmt.Sprintf(
		`{"service":"zlapi","version":%q,"docs":"/openapi.json"}`+"\n", s.version)))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// ListenAndServe starts the HTTP server and blocks until SIGINT/SIGTERM,
// then drains in-flight requests.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router exposes the chi router for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
