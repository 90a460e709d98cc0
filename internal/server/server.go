// Package server provides the HTTP server and routing for SuperVaults.
package server

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	dashboardhandlers "github.com/superform-xyz/supervaults/internal/modules/dashboard/handlers"
	systemhandlers "github.com/superform-xyz/supervaults/internal/modules/system/handlers"
	"github.com/superform-xyz/supervaults/internal/web"
)

// Config holds server configuration
type Config struct {
	Log              zerolog.Logger
	Port             int
	DevMode          bool
	RenderTimeout    time.Duration // bound on a full dashboard assembly
	DashboardHandler *dashboardhandlers.Handler
	SystemHandler    *systemhandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router            *chi.Mux
	server            *http.Server
	log               zerolog.Logger
	renderTimeout     time.Duration
	dashboardHandlers *dashboardhandlers.Handler
	systemHandlers    *systemhandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	// Register common MIME types to ensure correct Content-Type headers
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	renderTimeout := cfg.RenderTimeout
	if renderTimeout <= 0 {
		renderTimeout = 4 * time.Minute
	}

	s := &Server{
		router:            chi.NewRouter(),
		log:               cfg.Log.With().Str("component", "server").Logger(),
		renderTimeout:     renderTimeout,
		dashboardHandlers: cfg.DashboardHandler,
		systemHandlers:    cfg.SystemHandler,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// The dashboard endpoint streams its response only after the full
		// render; the write timeout must cover the slowest render.
		WriteTimeout: renderTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check (before page routing)
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Dashboard assembly can legitimately take minutes on slow RPCs;
		// it gets its own timeout bracket.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.renderTimeout + 10*time.Second))
			r.Get("/supervaults", s.dashboardHandlers.HandleGetSuperVaults)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/vaults", s.dashboardHandlers.HandleListVaults)
			s.systemHandlers.RegisterRoutes(r)
		})
	})

	// Embedded pages and assets
	s.router.Get("/", s.handlePage("index.html"))
	s.router.Get("/integrations", s.handlePage("integrations.html"))

	staticFS, err := fs.Sub(web.Files, "static")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create static filesystem from embedded files")
	} else {
		fileServer := http.FileServer(http.FS(staticFS))
		s.router.Handle("/static/*", http.StripPrefix("/static/", s.assetsHandler(fileServer)))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handlePage serves one embedded HTML page.
func (s *Server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := web.Files.Open(name)
		if err != nil {
			s.log.Error().Err(err).Str("page", name).Msg("Failed to open embedded page")
			http.Error(w, "Page not available", http.StatusInternalServerError)
			return
		}
		defer page.Close()

		data, err := io.ReadAll(page)
		if err != nil {
			s.log.Error().Err(err).Str("page", name).Msg("Failed to read embedded page")
			http.Error(w, "Page not available", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(data); err != nil {
			s.log.Error().Err(err).Str("page", name).Msg("Failed to write page response")
		}
	}
}

// assetsHandler wraps the file server to set correct MIME types
func (s *Server) assetsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ext := filepath.Ext(r.URL.Path)

		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			switch ext {
			case ".js":
				contentType = "application/javascript"
			case ".css":
				contentType = "text/css"
			case ".json":
				contentType = "application/json"
			case ".svg":
				contentType = "image/svg+xml"
			default:
				contentType = "application/octet-stream"
			}
		}
		w.Header().Set("Content-Type", contentType)

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
