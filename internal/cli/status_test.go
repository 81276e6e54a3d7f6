package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func statusServer(t *testing.T, validToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
			return
		}
		_ = json.NewEncoder(w).Encode([]interface{}{})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatus(t *testing.T) {
	srv := statusServer(t, "good-token-1234567890")

	tests := []struct {
		name  string
		url   string
		token string
		want  string
	}{
		{"authenticated", srv.URL, "good-token-1234567890", "✓ connected and authenticated"},
		{"bad token", srv.URL, "bad-token", "invalid or expired token"},
		{"no token", srv.URL, "", "not configured"},
		{"unreachable", "http://127.0.0.1:1", "tok", "cannot reach server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("PM_SERVER_URL", tt.url)
			t.Setenv("PM_TOKEN", tt.token)

			var buf bytes.Buffer
			if err := runStatus(&buf); err != nil {
				t.Fatalf("status: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}
