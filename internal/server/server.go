// Package server implements taskhubd: the identity provider and the
// owner-scoped document store with live snapshot push.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"taskhub/internal/logger"
	"taskhub/internal/server/store"
)

// shutdownTimeout bounds the graceful-shutdown drain.
const shutdownTimeout = 5 * time.Second

// Server is the taskhubd HTTP server.
type Server struct {
	cfg    Config
	store  *store.Store
	hub    *Hub
	log    logger.Logger
	router *mux.Router
}

// New wires the router, handlers and middleware.
func New(cfg Config, st *store.Store, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{
		cfg:   cfg,
		store: st,
		hub:   NewHub(),
		log:   log,
	}

	r := mux.NewRouter()
	r.Use(logger.RequestLogger(log))

	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.Handle("/auth/me", s.requireAuth(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)
	r.Handle("/auth/profile", s.requireAuth(http.HandlerFunc(s.handleProfile))).Methods(http.MethodPut)

	r.Handle("/tasks", s.requireAuth(http.HandlerFunc(s.handleListTasks))).Methods(http.MethodGet)
	r.Handle("/tasks", s.requireAuth(http.HandlerFunc(s.handleCreateTask))).Methods(http.MethodPost)
	r.Handle("/tasks/stream", s.requireAuth(http.HandlerFunc(s.handleStreamTasks))).Methods(http.MethodGet)
	r.Handle("/tasks/{id}", s.requireAuth(http.HandlerFunc(s.handleUpdateTask))).Methods(http.MethodPatch)
	r.Handle("/tasks/{id}", s.requireAuth(http.HandlerFunc(s.handleDeleteTask))).Methods(http.MethodDelete)

	s.router = r
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("internal error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}
