package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/evcraddock/pmfeed/internal/auth"
	"github.com/evcraddock/pmfeed/internal/project"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apiError(w, "name is required", http.StatusBadRequest)
		return
	}
	status, err := project.ParseStatus(req.Status)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var createdBy *int64
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.UserID != 0 {
		createdBy = &claims.UserID
	}

	p, err := s.projects.Create(req.Name, req.Description, status, createdBy)
	if err != nil {
		internalError(w, r, "creating project", err)
		return
	}
	apiJSON(w, p, http.StatusCreated)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "project")
	if !ok {
		return
	}

	p, err := s.projects.GetByID(id)
	if errors.Is(err, project.ErrNotFound) {
		apiError(w, "project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, "getting project", err)
		return
	}
	apiJSON(w, p, http.StatusOK)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "project")
	if !ok {
		return
	}
	if _, err := s.projects.GetByID(id); errors.Is(err, project.ErrNotFound) {
		apiError(w, "project not found", http.StatusNotFound)
		return
	}

	tasks, err := s.projects.ListTasks(id)
	if err != nil {
		internalError(w, r, "listing tasks", err)
		return
	}
	if tasks == nil {
		tasks = []*project.Task{}
	}
	apiJSON(w, tasks, http.StatusOK)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID   int64  `json:"projectId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Priority    string `json:"priority"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		apiError(w, "title is required", http.StatusBadRequest)
		return
	}
	status, err := project.ParseTaskStatus(req.Status)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	priority, err := project.ParsePriority(req.Priority)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	t, err := s.projects.CreateTask(project.Task{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
	})
	if errors.Is(err, project.ErrNotFound) {
		apiError(w, "project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, "creating task", err)
		return
	}
	apiJSON(w, t, http.StatusCreated)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "task")
	if !ok {
		return
	}

	t, err := s.projects.GetTask(id)
	if errors.Is(err, project.ErrNotFound) {
		apiError(w, "task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, "getting task", err)
		return
	}
	apiJSON(w, t, http.StatusOK)
}
