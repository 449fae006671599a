package http

import (
	"net/http"

	"discpress/internal/port"
	"discpress/internal/service"
)

type Server struct {
	mux        *http.ServeMux
	handlers   *Handlers
	sseHandler *SSEHandler
	auth       *TokenAuth
}

func NewServer(queue QueueService, history port.History, bus *service.EventBus, auth *TokenAuth) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		handlers:   NewHandlers(queue, history),
		sseHandler: NewSSEHandler(bus, queue),
		auth:       auth,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handlers.Health())

	guard := s.auth.Middleware

	s.mux.HandleFunc("POST /api/workflows/{workflow}/jobs", guard(s.handlers.EnqueueJob()))
	s.mux.HandleFunc("GET /api/workflows/{workflow}/jobs", guard(s.handlers.ListJobs()))
	s.mux.HandleFunc("GET /api/workflows/{workflow}/jobs/{id}", guard(s.handlers.GetJob()))
	s.mux.HandleFunc("POST /api/workflows/{workflow}/jobs/{id}/cancel", guard(s.handlers.CancelJob()))
	s.mux.HandleFunc("POST /api/workflows/{workflow}/jobs/{id}/retry", guard(s.handlers.RetryJob()))
	s.mux.HandleFunc("DELETE /api/workflows/{workflow}/jobs/{id}", guard(s.handlers.RemoveJob()))

	s.mux.HandleFunc("POST /api/workflows/{workflow}/start", guard(s.handlers.StartWorkflow()))
	s.mux.HandleFunc("POST /api/workflows/{workflow}/stop", guard(s.handlers.StopWorkflow()))
	s.mux.HandleFunc("POST /api/workflows/{workflow}/cancel", guard(s.handlers.CancelWorkflow()))
	s.mux.HandleFunc("POST /api/workflows/{workflow}/clear", guard(s.handlers.ClearWorkflow()))
	s.mux.HandleFunc("PUT /api/workflows/{workflow}/concurrency", guard(s.handlers.SetConcurrency()))

	s.mux.HandleFunc("GET /api/workflows/{workflow}/events", guard(s.sseHandler.Events()))

	s.mux.HandleFunc("GET /api/history", guard(s.handlers.History()))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	s.mux.ServeHTTP(w, r)
}
