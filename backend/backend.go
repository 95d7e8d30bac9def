// Package backend defines the identity backend capability consumed by the
// engine, with two implementations: [Remote], an HTTP client for the hosted
// identity service, and [Local], a vault-persisted account store for
// offline-first deployments. The engine's logic never knows which one it is
// talking to.
package backend

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects the
	// presented email/password pair.
	ErrInvalidCredentials = errors.New("backend rejected credentials")
	// ErrAccountExists is returned by Register for a duplicate email.
	ErrAccountExists = errors.New("account already exists")
	// ErrUnavailable is returned when the backend cannot be reached or
	// answers with a transport-level fault.
	ErrUnavailable = errors.New("identity backend unavailable")
	// ErrInvalidToken is returned by Refresh for an expired or malformed
	// refresh token.
	ErrInvalidToken = errors.New("invalid refresh token")
)

// Session is one issued credential set. All fields are adopted by the engine
// exactly as returned.
type Session struct {
	UserID       string
	Email        string
	Name         string
	AccessToken  string
	RefreshToken string
}

// User is the profile payload of GET /user/{id}.
type User struct {
	ID    string
	Email string
	Name  string
}

// IdentityBackend is the capability the engine authenticates against.
type IdentityBackend interface {
	// Ping probes reachability. A nil error means the backend is worth
	// sending a real request to; it is not an authentication check.
	Ping(ctx context.Context) error

	Login(ctx context.Context, email, password string) (*Session, error)
	Register(ctx context.Context, name, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	User(ctx context.Context, id string) (*User, error)
}
