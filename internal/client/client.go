// Package client provides an HTTP client for the project-management REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/pmfeed/internal/comment"
	"github.com/evcraddock/pmfeed/internal/project"
	"github.com/evcraddock/pmfeed/internal/user"
)

// Sentinel errors matched by APIError.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Client is an HTTP client for the project-management API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. baseURL is the server root, without /api.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// LoginResponse is the response from POST /api/auth/login.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.post(ctx, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUsers returns every user account.
func (c *Client) ListUsers(ctx context.Context) ([]*user.User, error) {
	var users []*user.User
	if err := c.get(ctx, "/api/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser adds a user account (admin only).
func (c *Client) CreateUser(ctx context.Context, params user.CreateParams) (*user.User, error) {
	var u user.User
	if err := c.post(ctx, "/api/users", params, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetProject returns a single project.
func (c *Client) GetProject(ctx context.Context, id int64) (*project.Project, error) {
	var p project.Project
	if err := c.get(ctx, fmt.Sprintf("/api/projects/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// CreateProject adds a project (admin only).
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*project.Project, error) {
	var p project.Project
	if err := c.post(ctx, "/api/projects", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	ProjectID   int64  `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// CreateTask adds a task to a project (admin only).
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*project.Task, error) {
	var t project.Task
	if err := c.post(ctx, "/api/tasks", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListComments returns the raw comment records for a project or task.
// Field names vary between servers; see comment.Normalize.
func (c *Client) ListComments(ctx context.Context, parent comment.Parent) ([]comment.Raw, error) {
	var raws []comment.Raw
	if err := c.get(ctx, fmt.Sprintf("/api/%ss/%d/comments", parent.Kind, parent.ID), &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

// CreateCommentRequest carries a new comment for a project or task.
type CreateCommentRequest struct {
	Content  string
	Parent   comment.Parent
	AuthorID int64
}

// CreateComment posts a comment. The server assigns the id and timestamps.
func (c *Client) CreateComment(ctx context.Context, req CreateCommentRequest) (comment.Comment, error) {
	body := map[string]interface{}{
		"content":  req.Content,
		"authorId": req.AuthorID,
	}
	body[string(req.Parent.Kind)+"Id"] = req.Parent.ID

	var raw comment.Raw
	if err := c.post(ctx, commentsPath(req.Parent.Kind), body, &raw); err != nil {
		return comment.Comment{}, err
	}
	return comment.Normalize(raw), nil
}

// UpdateComment replaces a comment's content.
func (c *Client) UpdateComment(ctx context.Context, kind comment.ParentKind, id int64, content string) (comment.Comment, error) {
	body := map[string]string{"content": content}
	var raw comment.Raw
	if err := c.put(ctx, fmt.Sprintf("%s/%d", commentsPath(kind), id), body, &raw); err != nil {
		return comment.Comment{}, err
	}
	return comment.Normalize(raw), nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, kind comment.ParentKind, id int64) error {
	return c.doDelete(ctx, fmt.Sprintf("%s/%d", commentsPath(kind), id))
}

// commentsPath is the collection endpoint for comments of a parent kind.
func commentsPath(kind comment.ParentKind) string {
	return fmt.Sprintf("/api/%s-comments", kind)
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.send(ctx, http.MethodPost, path, body, result)
}

// put performs a PUT request with a JSON body and decodes the response.
func (c *Client) put(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.send(ctx, http.MethodPut, path, body, result)
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// doDelete performs a DELETE request.
func (c *Client) doDelete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = fmt.Sprintf("server error: %s", http.StatusText(resp.StatusCode))
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
