// Package server exposes the conversion pipeline over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/wdm0006/datasweeper/internal/apierr"
	"github.com/wdm0006/datasweeper/internal/config"
	"github.com/wdm0006/datasweeper/internal/metrics"
	"github.com/wdm0006/datasweeper/internal/middleware"
	"github.com/wdm0006/datasweeper/pkg/convert"
)

//go:embed static/index.html
var static embed.FS

// Server wires the router, the processor and its metrics.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	version  string
	proc     *convert.Processor
	metrics  *metrics.Metrics
	errs     *apierr.ErrorHandler
	validate *validator.Validate
	forms    *schema.Decoder
	router   chi.Router
}

func New(cfg *config.Config, logger *slog.Logger, version string) *Server {
	m := metrics.New()
	s := &Server{
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "server")),
		version:  version,
		proc:     convert.NewProcessor(logger, m),
		metrics:  m,
		errs:     apierr.NewErrorHandler(logger),
		validate: newValidator(),
		forms:    newFormDecoder(),
	}
	s.router = s.routes(logger)
	return s
}

func (s *Server) routes(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader, BatchIDHeader},
		MaxAge:         300,
	}))
	r.NotFound(s.errs.NotFound)
	r.MethodNotAllowed(s.errs.MethodNotAllowed)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if rl := s.cfg.Security.RateLimit; rl.Enabled {
			r.Use(middleware.NewRateLimiter(rl.RPS, rl.Burst, logger).Handler)
		}
		r.Get("/formats", s.handleFormats)
		r.Post("/preview", s.handlePreview)
		r.Post("/convert", s.handleConvert)
	})
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Std(),
		WriteTimeout: s.cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  s.cfg.Server.IdleTimeout.Std(),
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", ln.Addr().String()), slog.String("version", s.version))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", slog.Duration("timeout", s.cfg.Server.ShutdownTimeout.Std()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

type formatInfo struct {
	Name      convert.Format `json:"name"`
	Extension string         `json:"extension"`
	MIME      string         `json:"mime"`
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	out := make([]formatInfo, 0, len(convert.Targets))
	for _, f := range convert.Targets {
		out = append(out, formatInfo{Name: f, Extension: f.Extension(), MIME: f.MIME()})
	}
	render.JSON(w, r, map[string]any{"inputs": []string{".csv", ".xlsx"}, "targets": out})
}
