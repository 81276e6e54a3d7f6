package web

import (
	"net/http"
	"strings"

	"github.com/evcraddock/pmfeed/internal/user"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List()
	if err != nil {
		internalError(w, r, "listing users", err)
		return
	}
	if users == nil {
		users = []*user.User{}
	}
	apiJSON(w, users, http.StatusOK)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req user.CreateParams
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := user.ParseRole(string(req.Role))
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Role = role

	u, err := s.users.Create(req)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "already exists"):
			apiError(w, err.Error(), http.StatusConflict)
		case strings.Contains(err.Error(), "required"):
			apiError(w, err.Error(), http.StatusBadRequest)
		default:
			internalError(w, r, "creating user", err)
		}
		return
	}

	apiJSON(w, u, http.StatusCreated)
}
