package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
)

type Server struct {
	router    *chi.Mux
	dashboard DashboardUseCase
	now       func() time.Time
}

type Options func(*Server)

// WithClock replaces time.Now, used for export file names
func WithClock(now func() time.Time) Options {
	return func(s *Server) {
		s.now = now
	}
}

func New(dashboard DashboardUseCase, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router:    r,
		dashboard: dashboard,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", usersHandler(s.dashboard))
		r.Post("/sync", syncHandler(s.dashboard))
		r.Get("/status", statusHandler(s.dashboard))
		r.Get("/stats", statsHandler(s.dashboard))
		r.Get("/export.csv", exportHandler(s.dashboard, s.now))
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok")) //nolint:errcheck // header already committed
}
