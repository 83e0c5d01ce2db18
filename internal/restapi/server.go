package restapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/auth"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/session"
)

// NewRouter builds the complete /api/sessions surface plus the
// unauthenticated health probe.
func NewRouter(svc *session.Service, creds auth.Credentials) *chi.Mux {
	h := NewHandlers(svc)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(log.Middleware())

	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Group(func(r chi.Router) {
			r.Use(basicAuth(creds))

			r.Post("/", h.register)
			r.Get("/", h.listActive)
			r.Get("/all", h.listAll)
			r.Get("/inactive", h.listInactive)
			r.Post("/cleanup", h.cleanup)

			r.Get("/{id}", h.get)
			r.Get("/{id}/active", h.isActive)
			r.Put("/{id}/heartbeat", h.heartbeat)
			r.Put("/{id}/status", h.updateStatus)
			r.Put("/{id}/recording-path", h.updateRecordingPath)
			r.Put("/{id}/stop", h.stop)
			r.Put("/{id}/deactivate", h.deactivate)
			r.Delete("/{id}", h.deregister)
		})
	})

	return r
}

// Server wraps an http.Server with the teacher's graceful-shutdown shape:
// Shutdown(ctx) drains in-flight requests before returning.
type Server struct {
	httpServer *http.Server
}

// NewServer binds router to addr.
func NewServer(addr string, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe runs the server until it is shut down or fails.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// complete or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
