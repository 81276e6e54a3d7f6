// Package web provides the HTTP server for the project-management REST API.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/pmfeed/internal/auth"
	"github.com/evcraddock/pmfeed/internal/comment"
	"github.com/evcraddock/pmfeed/internal/logging"
	"github.com/evcraddock/pmfeed/internal/project"
	"github.com/evcraddock/pmfeed/internal/user"
)

// Server is the REST API HTTP server.
type Server struct {
	users    *user.Repository
	projects *project.Repository
	comments *comment.Repository
	issuer   *auth.Issuer
	limiter  *auth.RateLimiter
	mux      *http.ServeMux
	handler  http.Handler
}

// NewServer creates an API server over the given database.
func NewServer(db *sql.DB, cfg auth.Config) *Server {
	return newServer(db, cfg, user.NewRepository(db))
}

func newServer(db *sql.DB, cfg auth.Config, users *user.Repository) *Server {
	s := &Server{
		users:    users,
		projects: project.NewRepository(db),
		comments: comment.NewRepository(db),
		issuer:   auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		limiter:  auth.NewRateLimiter(auth.RateLimitWindow, auth.RateLimitMaxFail),
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	s.mux.HandleFunc("GET /api/users", s.handleListUsers)
	s.mux.HandleFunc("POST /api/users", auth.RequireAdmin(s.handleCreateUser))

	s.mux.HandleFunc("POST /api/projects", auth.RequireAdmin(s.handleCreateProject))
	s.mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	s.mux.HandleFunc("GET /api/projects/{id}/tasks", s.handleListTasks)
	s.mux.HandleFunc("POST /api/tasks", auth.RequireAdmin(s.handleCreateTask))
	s.mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)

	for _, kind := range []comment.ParentKind{comment.ParentProject, comment.ParentTask} {
		h := &commentHandlers{kind: kind, comments: s.comments, projects: s.projects, users: s.users}
		s.mux.HandleFunc(fmt.Sprintf("GET /api/%ss/{id}/comments", kind), h.list)
		s.mux.HandleFunc(fmt.Sprintf("POST /api/%s-comments", kind), h.create)
		s.mux.HandleFunc(fmt.Sprintf("PUT /api/%s-comments/{id}", kind), h.update)
		s.mux.HandleFunc(fmt.Sprintf("DELETE /api/%s-comments/{id}", kind), auth.RequireAdmin(h.remove))
	}

	s.handler = logging.RequestLogger(auth.RequireToken(s.issuer, s.mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("starting api server", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	slog.Info("api server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
