// Package session describes the logged-in viewer and how it is provided.
package session

import "errors"

// ErrNoSession is returned when nobody is logged in.
var ErrNoSession = errors.New("not logged in")

// Admin is the role name that unlocks destructive operations.
const Admin = "ADMIN"

// Session is the identity of the current viewer.
type Session struct {
	Token    string `json:"token" yaml:"token,omitempty"`
	Username string `json:"username" yaml:"username,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Role     string `json:"role" yaml:"role,omitempty"`
}

// Valid reports whether the session carries a token and a username.
func (s Session) Valid() bool {
	return s.Token != "" && s.Username != ""
}

// IsAdmin reports whether the viewer holds the ADMIN role.
func (s Session) IsAdmin() bool {
	return s.Role == Admin
}

// DisplayName is what the viewer's own comments show before the server confirms them.
func (s Session) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Username != "":
		return s.Username
	default:
		return "You"
	}
}

// Provider yields the current session.
type Provider interface {
	Current() (Session, error)
}

// Static is a Provider that always returns the same session.
type Static Session

// Current implements Provider.
func (s Static) Current() (Session, error) {
	sess := Session(s)
	if !sess.Valid() {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func() (Session, error)

// Current calls f.
func (f ProviderFunc) Current() (Session, error) {
	return f()
}
