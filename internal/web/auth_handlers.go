package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/pmfeed/internal/auth"
	"github.com/evcraddock/pmfeed/internal/user"
)

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// handleLogin exchanges a username and password for a bearer token.
// Failed attempts are rate limited per client address.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := auth.ClientIP(r)
	if s.limiter.Blocked(ip) {
		apiError(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		apiError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	u, err := s.users.Authenticate(req.Username, req.Password)
	if errors.Is(err, user.ErrInvalidCredentials) {
		if s.limiter.RecordFailure(ip) {
			slog.Warn("login rate limit reached", "ip", ip)
		}
		apiError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		internalError(w, r, "authenticating", err)
		return
	}

	token, err := s.issuer.Issue(u)
	if err != nil {
		internalError(w, r, "issuing token", err)
		return
	}

	slog.Info("user logged in", "username", u.Username)
	apiJSON(w, loginResponse{
		Token:    token,
		Username: u.Username,
		Name:     u.Name,
		Role:     string(u.Role),
	}, http.StatusOK)
}
