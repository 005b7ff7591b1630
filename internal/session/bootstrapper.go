// Package session owns the process-level session lifecycle against the
// hosted auth backend: forced sign-out on start, session verification, and
// synchronization with asynchronous auth-change notifications.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nmehta6/socialdesk/internal/backend"
	"github.com/nmehta6/socialdesk/internal/models"
	"github.com/nmehta6/socialdesk/internal/repository"
	"github.com/nmehta6/socialdesk/pkg/ringlog"
)

type State string

const (
	StateBooting       State = "booting"
	StateNoSession     State = "no-session"
	StateError         State = "error"
	StateAuthenticated State = "authenticated"
)

const retryBaseDelay = 500 * time.Millisecond

// Snapshot is the externally visible session state.
type Snapshot struct {
	State       State        `json:"state"`
	CurrentUser *models.User `json:"current_user"`
	Ready       bool         `json:"ready"`
	Error       string       `json:"error,omitempty"`
}

type Bootstrapper struct {
	auth  backend.AuthClient
	users repository.UserRepository
	ring  *ringlog.Ring

	mu       sync.Mutex
	snap     Snapshot
	attempts int

	retryCh chan struct{}
	resetCh chan struct{}
}

func NewBootstrapper(auth backend.AuthClient, users repository.UserRepository) *Bootstrapper {
	return &Bootstrapper{
		auth:    auth,
		users:   users,
		ring:    ringlog.New(ringlog.DefaultCapacity),
		snap:    Snapshot{State: StateBooting},
		retryCh: make(chan struct{}, 1),
		resetCh: make(chan struct{}, 1),
	}
}

// Run boots the session and then keeps it synchronized with auth events,
// retry signals and reset commands until ctx is cancelled.
func (b *Bootstrapper) Run(ctx context.Context) {
	events, err := b.auth.Events(ctx)
	if err != nil {
		slog.Info("auth event subscription unavailable", "error", err.Error())
		events = nil
	}

	b.Boot(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			b.handleEvent(ctx, ev)

		case <-b.resetCh:
			b.ring.Append("reset", "session reset requested")
			b.forceSignOut(ctx)
			b.setSnapshot(Snapshot{State: StateNoSession, Ready: true})

		case <-b.retryCh:
			attempt := b.bumpAttempt()
			delay := retryDelay(attempt)
			b.ring.Append("retry", "scheduled in "+delay.String())
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			b.Boot(ctx)
		}
	}
}

// Boot performs the startup sequence: the forced sign-out strictly precedes
// the session check, so a stale session can never be read before it is
// cleared.
func (b *Bootstrapper) Boot(ctx context.Context) {
	b.setSnapshot(Snapshot{State: StateBooting})
	b.ring.Append("boot", "forced sign-out")

	b.forceSignOut(ctx)

	b.ring.Append("boot", "session check")
	sess, err := b.auth.GetSession(ctx)
	if err != nil {
		slog.Error("session lookup failed", "error", err.Error())
		b.ring.Append("boot", "session lookup failed")
		b.setSnapshot(Snapshot{State: StateError, Error: "unable to verify session"})
		return
	}

	if sess == nil {
		b.ring.Append("boot", "no session")
		b.finishBoot(Snapshot{State: StateNoSession, Ready: true})
		return
	}

	b.resolveUser(ctx, sess.UserID)
}

func (b *Bootstrapper) resolveUser(ctx context.Context, subjectID string) {
	user, found, err := b.users.GetByID(ctx, subjectID)
	if err != nil || !found {
		// An unresolvable session is treated as invalid rather than surfaced,
		// so the UI never sits in an authenticated-looking state.
		if err != nil {
			slog.Error("user resolution failed", "subject", subjectID, "error", err.Error())
		} else {
			slog.Warn("session subject has no user row", "subject", subjectID)
		}
		b.ring.Append("resolve", "invalid session, signing out")
		b.forceSignOut(ctx)
		b.finishBoot(Snapshot{State: StateNoSession, Ready: true})
		return
	}

	b.ring.Append("resolve", "user "+user.ID)
	b.finishBoot(Snapshot{State: StateAuthenticated, CurrentUser: user, Ready: true})
}

func (b *Bootstrapper) handleEvent(ctx context.Context, ev backend.AuthEvent) {
	switch ev.Type {
	case backend.EventSignedIn, backend.EventTokenRefreshed:
		b.ring.Append("event", string(ev.Type))
		if ev.Session == nil {
			return
		}
		b.resolveUser(ctx, ev.Session.UserID)

	case backend.EventSignedOut:
		b.ring.Append("event", string(ev.Type))
		b.setSnapshot(Snapshot{State: StateNoSession, Ready: true})
	}
}

// forceSignOut clears the session store, cached entries and session cookies.
// Best-effort: the backend client logs failed steps and never reports them.
func (b *Bootstrapper) forceSignOut(ctx context.Context) {
	b.auth.SignOut(ctx, backend.SignOutGlobal)
}

// Retry re-runs the boot sequence after attempt × 500ms, to avoid hammering
// a backend that may still be initializing.
func (b *Bootstrapper) Retry() {
	select {
	case b.retryCh <- struct{}{}:
	default:
	}
}

// RequestReset delivers the session-reset command. The HTTP layer answers
// the caller with the entry/login URL.
func (b *Bootstrapper) RequestReset() {
	select {
	case b.resetCh <- struct{}{}:
	default:
	}
}

func (b *Bootstrapper) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap
}

func (b *Bootstrapper) CurrentUser() *models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap.CurrentUser
}

// Unauthenticated reports whether the entry/login surface is showing.
func (b *Bootstrapper) Unauthenticated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap.Ready && b.snap.CurrentUser == nil
}

func (b *Bootstrapper) Diagnostics() []ringlog.Entry {
	return b.ring.Entries()
}

func (b *Bootstrapper) setSnapshot(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = s
}

func (b *Bootstrapper) finishBoot(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = s
	b.attempts = 0
}

func (b *Bootstrapper) bumpAttempt() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	return b.attempts
}

func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * retryBaseDelay
}
