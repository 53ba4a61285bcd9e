package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates the HTTP server for the easel web UI and JSON API,
// listening on cfg.Web.Bind:cfg.Web.Port.
func NewServer(db *sql.DB, cfg *config.Config, version string, logger *log.Logger) (*http.Server, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		db:       db,
		cfg:      cfg,
		renderer: NewRenderer(templateSub, version, logger),
	}

	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Web.Bind, strconv.Itoa(cfg.Web.Port)),
		Handler:           newRouter(h, staticSub, cfg.Web.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func newRouter(h *Handlers, static fs.FS, origins []string, logger *log.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(logger))
	router.Use(securityHeaders)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/drafts", http.StatusFound)
	})
	router.Route("/drafts", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/purge", h.HandlePurge)
		r.Get("/{id}", h.HandleDetail)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/delete", h.HandleDelete)
		r.Get("/{id}/history", h.HandleHistory)
	})

	router.Route("/api", func(r chi.Router) {
		if len(origins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: origins,
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
				ExposedHeaders: []string{"Location", "X-Request-ID"},
				MaxAge:         300,
			}))
		}
		r.Route("/projects/{project}/drafts", func(r chi.Router) {
			r.Get("/", h.APIListDrafts)
			r.Post("/", h.APICreateDraft)
		})
		r.Route("/drafts/{id}", func(r chi.Router) {
			r.Get("/", h.APIGetDraft)
			r.Put("/", h.APIUpdateDraft)
			r.Delete("/", h.APIDeleteDraft)
			r.Get("/export", h.APIExportDraft)
			r.Get("/history", h.APIDraftHistory)
		})
		r.Post("/convert", h.APIConvert)
		r.Post("/render", h.APIRender)
	})

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.renderer.renderError(w, r, notFoundRoute(r))
	})
	return router
}

// requestLogger logs one line per request at info level.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func Run(ctx context.Context, srv *http.Server) error {
	logger := logging.FromContext(ctx)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("easel UI running", "url", "http://"+srv.Addr)
	if host, _, err := net.SplitHostPort(srv.Addr); err == nil {
		if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
			logger.Warn("server is binding to all interfaces and may be accessible from the network")
		}
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
