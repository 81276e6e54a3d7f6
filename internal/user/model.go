// Package user provides the user domain model and data access.
package user

import (
	"errors"
	"fmt"
	"time"
)

// Role gates what a user may do.
type Role string

// Roles.
const (
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole validates a role string. Empty means EMPLOYEE.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleEmployee, nil
	case RoleEmployee, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role: %q (must be EMPLOYEE or ADMIN)", s)
	}
}

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// User is an account that can log in and author comments.
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Position   string    `json:"position"`
	Department string    `json:"department"`
	Age        *int64    `json:"age,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CreateParams holds the fields for a new user.
type CreateParams struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Age        *int64 `json:"age,omitempty"`
}
