// File: internal/infra/web/server.go
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"mbti-assessment-client/internal/usecase"
)

// Server is the local gateway the presentation layer talks to. It owns no
// session semantics; every route is a thin translation onto the use case.
type Server struct {
	uc  usecase.SessionUseCase
	log *zerolog.Logger
}

func NewServer(uc usecase.SessionUseCase, logger *zerolog.Logger) *Server {
	return &Server{uc: uc, log: logger}
}

// Router builds the chi mux with all gateway routes attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Route("/api/v1/session", func(r chi.Router) {
		r.Get("/", s.handleSnapshot)
		r.Post("/start", s.handleStart)
		r.Post("/message", s.handleMessage)
		r.Post("/retry", s.handleRetry)
		r.Post("/upgrade", s.handleUpgrade)
		r.Post("/finish", s.handleFinish)
		r.Post("/qa", s.handleQA)
		r.Post("/reset", s.handleReset)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
