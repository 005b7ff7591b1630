package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nmehta6/socialdesk/internal/backend"
	"github.com/nmehta6/socialdesk/internal/models"
)

type fakeAuth struct {
	mu       sync.Mutex
	calls    []string
	session  *backend.Session
	getErr   error
	eventsCh chan backend.AuthEvent
}

func (f *fakeAuth) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAuth) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAuth) GetSession(ctx context.Context) (*backend.Session, error) {
	f.record("get_session")
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

func (f *fakeAuth) GetUser(ctx context.Context) (*backend.AuthUser, error) {
	f.record("get_user")
	return nil, errors.New("not implemented")
}

func (f *fakeAuth) SignOut(ctx context.Context, scope backend.SignOutScope) {
	f.record("sign_out")
}

func (f *fakeAuth) Events(ctx context.Context) (<-chan backend.AuthEvent, error) {
	if f.eventsCh == nil {
		f.eventsCh = make(chan backend.AuthEvent)
	}
	return f.eventsCh, nil
}

func (f *fakeAuth) Host() string { return "localhost:54321" }

type fakeUsers struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	u, ok := f.users[id]
	return u, ok, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	return nil, false, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]*models.User, error) {
	return nil, nil
}

func TestBoot_SignOutPrecedesSessionCheck(t *testing.T) {
	auth := &fakeAuth{}
	b := NewBootstrapper(auth, &fakeUsers{})

	b.Boot(context.Background())

	calls := auth.Calls()
	if len(calls) < 2 {
		t.Fatalf("expected at least 2 calls, got %v", calls)
	}
	if calls[0] != "sign_out" || calls[1] != "get_session" {
		t.Errorf("expected sign_out before get_session, got %v", calls)
	}
}

func TestBoot_NoSession(t *testing.T) {
	auth := &fakeAuth{}
	b := NewBootstrapper(auth, &fakeUsers{})

	b.Boot(context.Background())

	snap := b.Snapshot()
	if snap.CurrentUser != nil {
		t.Error("expected nil current user")
	}
	if !snap.Ready {
		t.Error("expected ready")
	}
	if snap.Error != "" {
		t.Errorf("expected no error, got %q", snap.Error)
	}
	if snap.State != StateNoSession {
		t.Errorf("expected no-session state, got %s", snap.State)
	}
}

func TestBoot_SessionLookupError(t *testing.T) {
	auth := &fakeAuth{getErr: errors.New("connect: connection refused")}
	b := NewBootstrapper(auth, &fakeUsers{})

	b.Boot(context.Background())

	snap := b.Snapshot()
	if snap.State != StateError {
		t.Errorf("expected error state, got %s", snap.State)
	}
	if snap.Error == "" {
		t.Error("expected error to be exposed")
	}
	if snap.Ready {
		t.Error("error state is not an authoritative answer")
	}
	if snap.CurrentUser != nil {
		t.Error("current user must not be set on lookup error")
	}
}

func TestBoot_UserResolutionFailureInvalidatesSession(t *testing.T) {
	auth := &fakeAuth{session: &backend.Session{UserID: "ghost", AccessToken: "tok"}}
	b := NewBootstrapper(auth, &fakeUsers{users: map[string]*models.User{}})

	// Boot twice: the end state must be identical both times.
	for i := 0; i < 2; i++ {
		b.Boot(context.Background())

		snap := b.Snapshot()
		if snap.CurrentUser != nil {
			t.Fatalf("boot %d: expected nil user", i)
		}
		if !snap.Ready {
			t.Fatalf("boot %d: expected ready", i)
		}
		if snap.State != StateNoSession {
			t.Fatalf("boot %d: expected no-session, got %s", i, snap.State)
		}
	}

	// Initial sign-out, then the invalid-session sign-out, per boot.
	var signOuts int
	for _, c := range auth.Calls() {
		if c == "sign_out" {
			signOuts++
		}
	}
	if signOuts != 4 {
		t.Errorf("expected 4 sign-out calls across 2 boots, got %d", signOuts)
	}
}

func TestBoot_ResolvesUser(t *testing.T) {
	auth := &fakeAuth{session: &backend.Session{UserID: "u1", Email: "a@b.c"}}
	users := &fakeUsers{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "a@b.c", Role: models.RoleAdmin},
	}}
	b := NewBootstrapper(auth, users)

	b.Boot(context.Background())

	snap := b.Snapshot()
	if snap.State != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", snap.State)
	}
	if snap.CurrentUser == nil || snap.CurrentUser.ID != "u1" {
		t.Errorf("unexpected user: %+v", snap.CurrentUser)
	}
	if !snap.CurrentUser.IsAdmin() {
		t.Error("expected admin role")
	}
}

func TestRun_SignedOutEventClearsUser(t *testing.T) {
	auth := &fakeAuth{
		session:  &backend.Session{UserID: "u1"},
		eventsCh: make(chan backend.AuthEvent),
	}
	users := &fakeUsers{users: map[string]*models.User{"u1": {ID: "u1"}}}
	b := NewBootstrapper(auth, users)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	waitFor(t, func() bool { return b.Snapshot().State == StateAuthenticated })

	auth.eventsCh <- backend.AuthEvent{Type: backend.EventSignedOut}

	waitFor(t, func() bool {
		snap := b.Snapshot()
		return snap.CurrentUser == nil && snap.Ready
	})
}

func TestRun_SignedInEventResolvesUser(t *testing.T) {
	auth := &fakeAuth{eventsCh: make(chan backend.AuthEvent)}
	users := &fakeUsers{users: map[string]*models.User{"u2": {ID: "u2", Email: "x@y.z"}}}
	b := NewBootstrapper(auth, users)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	waitFor(t, func() bool { return b.Snapshot().State == StateNoSession })

	auth.eventsCh <- backend.AuthEvent{
		Type:    backend.EventSignedIn,
		Session: &backend.Session{UserID: "u2"},
	}

	waitFor(t, func() bool {
		snap := b.Snapshot()
		return snap.CurrentUser != nil && snap.CurrentUser.ID == "u2"
	})
}

func TestRun_ResetClearsSession(t *testing.T) {
	auth := &fakeAuth{
		session:  &backend.Session{UserID: "u1"},
		eventsCh: make(chan backend.AuthEvent),
	}
	users := &fakeUsers{users: map[string]*models.User{"u1": {ID: "u1"}}}
	b := NewBootstrapper(auth, users)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	waitFor(t, func() bool { return b.Snapshot().State == StateAuthenticated })

	b.RequestReset()

	waitFor(t, func() bool {
		snap := b.Snapshot()
		return snap.State == StateNoSession && snap.CurrentUser == nil
	})
}

func TestRetryDelayGrows(t *testing.T) {
	for attempt, want := range map[int]time.Duration{
		1: 500 * time.Millisecond,
		2: 1000 * time.Millisecond,
		3: 1500 * time.Millisecond,
	} {
		if got := retryDelay(attempt); got != want {
			t.Errorf("attempt %d: expected %v, got %v", attempt, want, got)
		}
	}
	if got := retryDelay(0); got != 500*time.Millisecond {
		t.Errorf("attempt 0 should use the base delay, got %v", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
