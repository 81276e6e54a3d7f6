package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/evcraddock/pmfeed/internal/auth"
	"github.com/evcraddock/pmfeed/internal/comment"
	"github.com/evcraddock/pmfeed/internal/project"
	"github.com/evcraddock/pmfeed/internal/user"
)

// commentHandlers serves the comment routes of one parent kind.
type commentHandlers struct {
	kind     comment.ParentKind
	comments *comment.Repository
	projects *project.Repository
	users    *user.Repository
}

// parentExists reports whether the project or task id exists.
func (h *commentHandlers) parentExists(id int64) (bool, error) {
	var err error
	if h.kind == comment.ParentTask {
		_, err = h.projects.GetTask(id)
	} else {
		_, err = h.projects.GetByID(id)
	}
	if errors.Is(err, project.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// found reports whether comment id exists under this kind, writing a 404 when it does not.
func (h *commentHandlers) found(w http.ResponseWriter, r *http.Request, id int64) bool {
	c, err := h.comments.GetByID(id)
	if errors.Is(err, comment.ErrNotFound) || (err == nil && c.ParentRef(h.kind) == nil) {
		apiError(w, "comment not found", http.StatusNotFound)
		return false
	}
	if err != nil {
		internalError(w, r, "looking up comment", err)
		return false
	}
	return true
}

func (h *commentHandlers) list(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, string(h.kind))
	if !ok {
		return
	}

	exists, err := h.parentExists(id)
	if err != nil {
		internalError(w, r, "looking up "+string(h.kind), err)
		return
	}
	if !exists {
		apiError(w, string(h.kind)+" not found", http.StatusNotFound)
		return
	}

	comments, err := h.comments.ListByParent(comment.Parent{Kind: h.kind, ID: id})
	if err != nil {
		internalError(w, r, "listing comments", err)
		return
	}
	apiJSON(w, comments, http.StatusOK)
}

func (h *commentHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content   string `json:"content"`
		ProjectID int64  `json:"projectId"`
		TaskID    int64  `json:"taskId"`
		AuthorID  int64  `json:"authorId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	parentID := req.ProjectID
	if h.kind == comment.ParentTask {
		parentID = req.TaskID
	}
	if strings.TrimSpace(req.Content) == "" {
		apiError(w, "content is required", http.StatusBadRequest)
		return
	}
	if parentID <= 0 {
		apiError(w, string(h.kind)+"Id is required", http.StatusBadRequest)
		return
	}

	exists, err := h.parentExists(parentID)
	if err != nil {
		internalError(w, r, "looking up "+string(h.kind), err)
		return
	}
	if !exists {
		apiError(w, string(h.kind)+" not found", http.StatusNotFound)
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	if claims == nil || (!claims.IsAdmin() && claims.UserID != req.AuthorID) {
		apiError(w, "only an admin may post on behalf of another user", http.StatusForbidden)
		return
	}
	if _, err := h.users.GetByID(req.AuthorID); errors.Is(err, user.ErrNotFound) {
		apiError(w, "author not found", http.StatusNotFound)
		return
	} else if err != nil {
		internalError(w, r, "looking up author", err)
		return
	}

	c, err := h.comments.Add(comment.Parent{Kind: h.kind, ID: parentID}, req.Content, req.AuthorID)
	if err != nil {
		internalError(w, r, "adding comment", err)
		return
	}
	apiJSON(w, c, http.StatusCreated)
}

// update replaces a comment's content. Only the author or an admin may edit.
func (h *commentHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "comment")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		apiError(w, "content is required", http.StatusBadRequest)
		return
	}

	if !h.found(w, r, id) {
		return
	}
	owner, err := h.comments.Owner(id)
	if err != nil {
		internalError(w, r, "looking up comment", err)
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	if claims == nil || (!claims.IsAdmin() && claims.UserID != owner) {
		apiError(w, "only the author or an admin may edit this comment", http.StatusForbidden)
		return
	}

	c, err := h.comments.Update(id, req.Content)
	if err != nil {
		internalError(w, r, "updating comment", err)
		return
	}
	apiJSON(w, c, http.StatusOK)
}

func (h *commentHandlers) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "comment")
	if !ok {
		return
	}

	if !h.found(w, r, id) {
		return
	}
	if err := h.comments.Delete(id); err != nil {
		internalError(w, r, "deleting comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
