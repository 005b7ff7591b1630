// Package backend is the client for the hosted auth service that owns
// sessions and issues auth-change notifications. Row storage lives in
// Postgres and is accessed through internal/repository.
package backend

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by every operation when the backend URL or
// key is missing from the environment.
var ErrNotConfigured = errors.New("backend is not configured")

type SignOutScope string

const (
	SignOutGlobal SignOutScope = "global"
	SignOutLocal  SignOutScope = "local"
)

// Session is the cached reference to a backend-issued session. The backend
// owns the session; this struct is refreshed from lookups and auth events.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// AuthUser is the identity the backend reports for the current token.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthEventType string

const (
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
)

type AuthEvent struct {
	Type    AuthEventType `json:"event"`
	Session *Session      `json:"session,omitempty"`
}

// AuthClient is the capability surface consumed from the hosted auth service.
type AuthClient interface {
	// GetSession returns the current session, or (nil, nil) when no session
	// exists. With no stored token it still pings the backend, so callers can
	// use it as a lightweight reachability check.
	GetSession(ctx context.Context) (*Session, error)

	// GetUser resolves the identity behind the current access token.
	GetUser(ctx context.Context) (*AuthUser, error)

	// SignOut clears the session: remote revoke, token file, in-memory cache.
	// Each step is best-effort; failures are logged, never returned.
	SignOut(ctx context.Context, scope SignOutScope)

	// Events subscribes to auth-change notifications for the lifetime of ctx.
	Events(ctx context.Context) (<-chan AuthEvent, error)

	// Host returns the backend host:port for network-level reachability checks.
	Host() string
}

type stubClient struct{}

func (stubClient) GetSession(context.Context) (*Session, error) { return nil, ErrNotConfigured }
func (stubClient) GetUser(context.Context) (*AuthUser, error)   { return nil, ErrNotConfigured }
func (stubClient) SignOut(context.Context, SignOutScope)        {}
func (stubClient) Events(context.Context) (<-chan AuthEvent, error) {
	return nil, ErrNotConfigured
}
func (stubClient) Host() string { return "" }
