// Package server exposes the lending catalog over a JSON HTTP API.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"library-lending/library"
)

// Server holds the handler dependencies.
type Server struct {
	mgr      *library.Manager
	log      *slog.Logger
	metrics  *Metrics
	validate *validator.Validate
}

// New builds the router. metrics may be nil.
func New(mgr *library.Manager, log *slog.Logger, metrics *Metrics) http.Handler {
	s := &Server{mgr: mgr, log: log, metrics: metrics, validate: validator.New()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		ok(w, map[string]string{"status": "ok"}, log)
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.listItems)
		r.Post("/", s.addItem)
	})
	r.Route("/patrons", func(r chi.Router) {
		r.Get("/", s.listPatrons)
		r.Post("/", s.registerPatron)
		r.Get("/{id}", s.getPatron)
		r.Get("/{id}/history", s.patronHistory)
		r.Get("/{id}/events", s.patronEvents)
	})
	r.Post("/loans", s.borrow)
	r.Post("/returns", s.returnItem)
	r.Route("/reports", func(r chi.Router) {
		r.Get("/outstanding", s.outstanding)
		r.Get("/popular", s.popular)
	})
	return r
}

func (s *Server) observe(operation string, res library.Result) {
	if s.metrics != nil {
		s.metrics.Observe(operation, res)
	}
	if !res.Success {
		s.log.Debug("lending operation rejected", "operation", operation, "reason", res.Message)
	}
}
