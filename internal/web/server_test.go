package web

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/pmfeed/internal/auth"
	"github.com/evcraddock/pmfeed/internal/db"
	"github.com/evcraddock/pmfeed/internal/user"
)

const adminPassword = "admin-pass"

// testServer creates a server with a seeded admin and an employee.
func testServer(t *testing.T) (*Server, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	cfg := auth.Config{
		JWTSecret:     []byte("test-secret"),
		TokenTTL:      time.Hour,
		AdminUsername: "admin",
		AdminPassword: adminPassword,
		AdminName:     "System Administrator",
	}
	users := user.NewRepositoryWithCost(d, bcrypt.MinCost)
	if _, err := auth.SeedAdmin(users, cfg); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if _, err := users.Create(user.CreateParams{Username: "ann", Password: "ann-pass", Name: "Ann Smith"}); err != nil {
		t.Fatalf("create employee: %v", err)
	}

	return newServer(d, cfg, users), d
}

func apiRequest(t *testing.T, srv http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func login(t *testing.T, srv http.Handler, username, password string) string {
	t.Helper()
	w := apiRequest(t, srv, "POST", "/api/auth/login", "", map[string]string{"username": username, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", username, w.Code, w.Body.String())
	}
	var resp loginResponse
	decode(t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createProject(t *testing.T, srv http.Handler, token, name string) int64 {
	t.Helper()
	w := apiRequest(t, srv, "POST", "/api/projects", token, map[string]string{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: status %d: %s", w.Code, w.Body.String())
	}
	var p struct {
		ID int64 `json:"id"`
	}
	decode(t, w, &p)
	return p.ID
}

func userID(t *testing.T, srv http.Handler, token, username string) int64 {
	t.Helper()
	w := apiRequest(t, srv, "GET", "/api/users", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list users: status %d", w.Code)
	}
	var users []user.User
	decode(t, w, &users)
	for _, u := range users {
		if u.Username == username {
			return u.ID
		}
	}
	t.Fatalf("user %q not listed", username)
	return 0
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)

	w := apiRequest(t, srv, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

func TestLogin(t *testing.T) {
	srv, _ := testServer(t)

	w := apiRequest(t, srv, "POST", "/api/auth/login", "", map[string]string{"username": "admin", "password": adminPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp loginResponse
	decode(t, w, &resp)
	if resp.Token == "" || resp.Username != "admin" || resp.Role != "ADMIN" {
		t.Errorf("resp = %+v", resp)
	}

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"wrong password", map[string]string{"username": "admin", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "x"}, http.StatusUnauthorized},
		{"missing fields", map[string]string{"username": "admin"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, "POST", "/api/auth/login", "", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestLoginRateLimited(t *testing.T) {
	srv, _ := testServer(t)

	for i := 0; i < auth.RateLimitMaxFail; i++ {
		w := apiRequest(t, srv, "POST", "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, w.Code)
		}
	}

	w := apiRequest(t, srv, "POST", "/api/auth/login", "", map[string]string{"username": "admin", "password": adminPassword})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/api/users", "/api/projects/1", "/api/projects/1/comments", "/api/tasks/1/comments"} {
		w := apiRequest(t, srv, "GET", path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, w.Code)
		}
	}
}

func TestAdminOnlyRoutes(t *testing.T) {
	srv, _ := testServer(t)
	employee := login(t, srv, "ann", "ann-pass")

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{"POST", "/api/projects", map[string]string{"name": "x"}},
		{"POST", "/api/tasks", map[string]interface{}{"projectId": 1, "title": "x"}},
		{"POST", "/api/users", map[string]string{"username": "bob", "password": "pw"}},
		{"DELETE", "/api/project-comments/1", nil},
		{"DELETE", "/api/task-comments/1", nil},
	}
	for _, tt := range tests {
		w := apiRequest(t, srv, tt.method, tt.path, employee, tt.body)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s status = %d, want 403", tt.method, tt.path, w.Code)
		}
	}
}

func TestCreateUser(t *testing.T) {
	srv, _ := testServer(t)
	admin := login(t, srv, "admin", adminPassword)

	w := apiRequest(t, srv, "POST", "/api/users", admin, map[string]string{
		"username": "bob", "password": "pw", "name": "Bob", "role": "EMPLOYEE",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	w = apiRequest(t, srv, "POST", "/api/users", admin, map[string]string{"username": "bob", "password": "pw"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	w = apiRequest(t, srv, "POST", "/api/users", admin, map[string]string{"username": "eve", "password": "pw", "role": "ROOT"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad role status = %d, want 400", w.Code)
	}

	if login(t, srv, "bob", "pw") == "" {
		t.Error("expected new user to log in")
	}
}

func TestProjectsAndTasks(t *testing.T) {
	srv, _ := testServer(t)
	admin := login(t, srv, "admin", adminPassword)
	pid := createProject(t, srv, admin, "Apollo")

	w := apiRequest(t, srv, "GET", fmt.Sprintf("/api/projects/%d", pid), admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get project status = %d", w.Code)
	}
	var p struct {
		Name      string `json:"name"`
		Status    string `json:"status"`
		CreatedBy *int64 `json:"created_by"`
	}
	decode(t, w, &p)
	if p.Name != "Apollo" || p.Status != "NOT_STARTED" {
		t.Errorf("project = %+v", p)
	}
	if p.CreatedBy == nil {
		t.Error("expected created_by from token")
	}

	w = apiRequest(t, srv, "POST", "/api/tasks", admin, map[string]interface{}{"projectId": pid, "title": "Design", "priority": "HIGH"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create task status = %d: %s", w.Code, w.Body.String())
	}

	w = apiRequest(t, srv, "GET", fmt.Sprintf("/api/projects/%d/tasks", pid), admin, nil)
	var tasks []struct {
		Title    string `json:"title"`
		Priority string `json:"priority"`
	}
	decode(t, w, &tasks)
	if len(tasks) != 1 || tasks[0].Priority != "HIGH" {
		t.Errorf("tasks = %+v", tasks)
	}

	tests := []struct {
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"GET", "/api/projects/999", nil, http.StatusNotFound},
		{"GET", "/api/projects/abc", nil, http.StatusBadRequest},
		{"GET", "/api/tasks/999", nil, http.StatusNotFound},
		{"POST", "/api/tasks", map[string]interface{}{"projectId": 999, "title": "x"}, http.StatusNotFound},
		{"POST", "/api/tasks", map[string]interface{}{"projectId": pid, "title": " "}, http.StatusBadRequest},
		{"POST", "/api/projects", map[string]string{"name": "x", "status": "DONE"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := apiRequest(t, srv, tt.method, tt.path, admin, tt.body)
		if w.Code != tt.want {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.want)
		}
	}
}

func TestCommentLifecycle(t *testing.T) {
	srv, _ := testServer(t)
	admin := login(t, srv, "admin", adminPassword)
	employee := login(t, srv, "ann", "ann-pass")
	pid := createProject(t, srv, admin, "Apollo")
	annID := userID(t, srv, employee, "ann")

	w := apiRequest(t, srv, "POST", "/api/project-comments", employee, map[string]interface{}{
		"content": "  First!  ", "projectId": pid, "authorId": annID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var created map[string]interface{}
	decode(t, w, &created)
	if created["content"] != "First!" {
		t.Errorf("content = %v", created["content"])
	}
	if created["author_name"] != "Ann Smith" {
		t.Errorf("author_name = %v", created["author_name"])
	}
	if _, ok := created["created_at"]; !ok {
		t.Error("expected snake_case created_at")
	}
	cid := int64(created["id"].(float64))

	w = apiRequest(t, srv, "GET", fmt.Sprintf("/api/projects/%d/comments", pid), employee, nil)
	var listed []map[string]interface{}
	decode(t, w, &listed)
	if len(listed) != 1 {
		t.Fatalf("got %d comments, want 1", len(listed))
	}

	w = apiRequest(t, srv, "PUT", fmt.Sprintf("/api/project-comments/%d", cid), employee, map[string]string{"content": "First, edited"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}

	w = apiRequest(t, srv, "DELETE", fmt.Sprintf("/api/task-comments/%d", cid), admin, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete through wrong kind status = %d, want 404", w.Code)
	}

	w = apiRequest(t, srv, "DELETE", fmt.Sprintf("/api/project-comments/%d", cid), admin, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", w.Code, w.Body.String())
	}

	w = apiRequest(t, srv, "GET", fmt.Sprintf("/api/projects/%d/comments", pid), employee, nil)
	decode(t, w, &listed)
	if len(listed) != 0 {
		t.Errorf("got %d comments after delete, want 0", len(listed))
	}
}

func TestCommentValidation(t *testing.T) {
	srv, _ := testServer(t)
	admin := login(t, srv, "admin", adminPassword)
	pid := createProject(t, srv, admin, "Apollo")
	adminID := userID(t, srv, admin, "admin")

	tests := []struct {
		name string
		path string
		body map[string]interface{}
		want int
	}{
		{"empty content", "/api/project-comments", map[string]interface{}{"content": "  ", "projectId": pid, "authorId": adminID}, http.StatusBadRequest},
		{"missing parent", "/api/project-comments", map[string]interface{}{"content": "x", "authorId": adminID}, http.StatusBadRequest},
		{"unknown project", "/api/project-comments", map[string]interface{}{"content": "x", "projectId": 999, "authorId": adminID}, http.StatusNotFound},
		{"unknown task", "/api/task-comments", map[string]interface{}{"content": "x", "taskId": 999, "authorId": adminID}, http.StatusNotFound},
		{"unknown author", "/api/project-comments", map[string]interface{}{"content": "x", "projectId": pid, "authorId": 999}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, "POST", tt.path, admin, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	w := apiRequest(t, srv, "GET", "/api/projects/999/comments", admin, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("list unknown project status = %d, want 404", w.Code)
	}
}

func TestOnlyAuthorOrAdminEdits(t *testing.T) {
	srv, _ := testServer(t)
	admin := login(t, srv, "admin", adminPassword)
	pid := createProject(t, srv, admin, "Apollo")
	adminID := userID(t, srv, admin, "admin")

	w := apiRequest(t, srv, "POST", "/api/project-comments", admin, map[string]interface{}{
		"content": "admin note", "projectId": pid, "authorId": adminID,
	})
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, w, &created)

	employee := login(t, srv, "ann", "ann-pass")
	w = apiRequest(t, srv, "PUT", fmt.Sprintf("/api/project-comments/%d", created.ID), employee, map[string]string{"content": "hijack"})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}

	w = apiRequest(t, srv, "PUT", "/api/project-comments/999", admin, map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing comment status = %d, want 404", w.Code)
	}
}

func TestCommentAuthorMustBeCaller(t *testing.T) {
	srv, _ := testServer(t)
	admin := login(t, srv, "admin", adminPassword)
	employee := login(t, srv, "ann", "ann-pass")
	pid := createProject(t, srv, admin, "Apollo")
	adminID := userID(t, srv, admin, "admin")
	annID := userID(t, srv, employee, "ann")

	w := apiRequest(t, srv, "POST", "/api/project-comments", employee, map[string]interface{}{
		"content": "posing as admin", "projectId": pid, "authorId": adminID,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("employee as admin status = %d, want 403", w.Code)
	}

	w = apiRequest(t, srv, "POST", "/api/project-comments", admin, map[string]interface{}{
		"content": "on ann's behalf", "projectId": pid, "authorId": annID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("admin on behalf status = %d: %s", w.Code, w.Body.String())
	}
	var created map[string]interface{}
	decode(t, w, &created)
	if created["author_name"] != "Ann Smith" {
		t.Errorf("author_name = %v", created["author_name"])
	}

	w = apiRequest(t, srv, "GET", fmt.Sprintf("/api/projects/%d/comments", pid), admin, nil)
	var listed []map[string]interface{}
	decode(t, w, &listed)
	if len(listed) != 1 {
		t.Errorf("got %d comments, want 1", len(listed))
	}
}
