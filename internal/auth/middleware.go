package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type contextKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by RequireToken.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}

// RequireToken is middleware that validates Bearer token auth for /api/ routes.
// Non-API routes and the login endpoint pass through untouched.
// Returns 401 for missing or invalid tokens.
func RequireToken(issuer *Issuer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, "authorization required", http.StatusUnauthorized)
			return
		}

		claims, err := issuer.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			slog.Debug("rejected bearer token", "path", r.URL.Path, "error", err)
			writeError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireAdmin wraps a handler so only tokens with the ADMIN role reach it.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, "authorization required", http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin() {
			writeError(w, "admin role required", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func isPublicPath(path string) bool {
	return path == "/api/auth/login"
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}

// RateLimiter tracks failed login attempts per client address.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	window   time.Duration
	maxFail  int
	now      func() time.Time
}

// Login rate limit defaults.
const (
	RateLimitWindow  = 1 * time.Minute
	RateLimitMaxFail = 10
)

// NewRateLimiter allows maxFail failures per window for each address.
func NewRateLimiter(window time.Duration, maxFail int) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		window:   window,
		maxFail:  maxFail,
		now:      time.Now,
	}
}

// Blocked reports whether ip has used up its failures for the current window.
func (rl *RateLimiter) Blocked(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip)) >= rl.maxFail
}

// RecordFailure records a failed attempt and returns true if ip is now rate limited.
func (rl *RateLimiter) RecordFailure(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := append(rl.prune(ip), rl.now())
	rl.attempts[ip] = valid
	return len(valid) >= rl.maxFail
}

// prune drops attempts older than the window. Caller holds mu.
func (rl *RateLimiter) prune(ip string) []time.Time {
	cutoff := rl.now().Add(-rl.window)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

// ClientIP returns the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
