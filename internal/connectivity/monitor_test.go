package connectivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nmehta6/socialdesk/internal/backend"
)

// waitUntil polls cond for up to two seconds.
func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

type probeAuth struct {
	mu         sync.Mutex
	sessions   int
	sessionErr error
	userErr    error
}

func (a *probeAuth) GetSession(ctx context.Context) (*backend.Session, error) {
	a.mu.Lock()
	a.sessions++
	a.mu.Unlock()
	return nil, a.sessionErr
}

func (a *probeAuth) sessionCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions
}

func (a *probeAuth) GetUser(ctx context.Context) (*backend.AuthUser, error) {
	if a.userErr != nil {
		return nil, a.userErr
	}
	return &backend.AuthUser{ID: "u1"}, nil
}

func (a *probeAuth) SignOut(ctx context.Context, scope backend.SignOutScope) {}

func (a *probeAuth) Events(ctx context.Context) (<-chan backend.AuthEvent, error) {
	return nil, errors.New("no events")
}

func (a *probeAuth) Host() string { return "localhost:54321" }

func TestBackoffDelaySequence(t *testing.T) {
	want := map[int]time.Duration{
		0: 5 * time.Second,
		1: 10 * time.Second,
		2: 20 * time.Second,
		3: 40 * time.Second,
		4: 80 * time.Second,
		5: 120 * time.Second,
		9: 120 * time.Second,
	}
	for attempt, expected := range want {
		if got := BackoffDelay(attempt); got != expected {
			t.Errorf("attempt %d: expected %v, got %v", attempt, expected, got)
		}
	}
}

func TestJitterBounded(t *testing.T) {
	for i := 0; i < 100; i++ {
		j := jitter()
		if j < 0 || j >= time.Second {
			t.Fatalf("jitter out of range: %v", j)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorClass
	}{
		{"context deadline exceeded", ClassTimeout},
		{"dial tcp: i/o timeout", ClassTimeout},
		{"connect: connection refused", ClassUnreachable},
		{"lookup api.example.com: no such host", ClassUnreachable},
		{"network is unreachable", ClassUnreachable},
		{"unexpected EOF", ClassUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.msg); got != tc.want {
			t.Errorf("Classify(%q): expected %s, got %s", tc.msg, tc.want, got)
		}
	}
}

func TestProbe_SessionCheckSucceeds(t *testing.T) {
	m := NewMonitor(&probeAuth{userErr: errors.New("should not be called")}, nil, nil)

	m.Probe(context.Background())

	snap := m.Snapshot()
	if snap.BackendStatus != StatusConnected {
		t.Errorf("expected connected, got %s", snap.BackendStatus)
	}
	if snap.Visible {
		t.Error("indicator must be hidden when online and connected")
	}
}

func TestProbe_FallbackIdentitySucceeds(t *testing.T) {
	m := NewMonitor(&probeAuth{sessionErr: errors.New("boom")}, nil, nil)

	m.Probe(context.Background())

	if got := m.Snapshot().BackendStatus; got != StatusConnected {
		t.Errorf("expected connected via fallback, got %s", got)
	}
}

func TestProbe_BothChecksFail(t *testing.T) {
	m := NewMonitor(&probeAuth{
		sessionErr: errors.New("context deadline exceeded"),
		userErr:    errors.New("context deadline exceeded"),
	}, nil, nil)

	m.Probe(context.Background())

	snap := m.Snapshot()
	if snap.BackendStatus != StatusDisconnected {
		t.Fatalf("expected disconnected, got %s", snap.BackendStatus)
	}
	if snap.ErrorClass != ClassTimeout {
		t.Errorf("expected timeout class, got %s", snap.ErrorClass)
	}
	if snap.Message == "" {
		t.Error("expected a user-facing message")
	}
	if !snap.Visible {
		t.Error("indicator must be visible when disconnected")
	}
}

func TestSetOnline_OfflineMarksDisconnectedWithoutProbe(t *testing.T) {
	// Auth that would report connected; going offline must not consult it.
	m := NewMonitor(&probeAuth{}, nil, nil)

	m.SetOnline(false)

	snap := m.Snapshot()
	if snap.Online {
		t.Error("expected offline")
	}
	if snap.BackendStatus != StatusDisconnected {
		t.Errorf("expected disconnected, got %s", snap.BackendStatus)
	}
	if snap.ErrorClass != ClassOffline {
		t.Errorf("expected offline class, got %s", snap.ErrorClass)
	}
}

func TestSetOnline_BackOnlineResetsAttempts(t *testing.T) {
	m := NewMonitor(&probeAuth{}, nil, nil)
	m.bumpAttempt()
	m.bumpAttempt()
	m.bumpAttempt()

	m.SetOnline(false)
	m.SetOnline(true)

	if got := m.Snapshot().Attempt; got != 0 {
		t.Errorf("expected attempt reset to 0, got %d", got)
	}
}

func TestProbe_OfflineShortCircuits(t *testing.T) {
	m := NewMonitor(&probeAuth{}, nil, nil)
	m.SetOnline(false)

	m.Probe(context.Background())

	if got := m.Snapshot().ErrorClass; got != ClassOffline {
		t.Errorf("expected offline class, got %s", got)
	}
}

func TestRetry_ResetsAndInvokesCallback(t *testing.T) {
	called := false
	m := NewMonitor(&probeAuth{
		sessionErr: errors.New("boom"),
		userErr:    errors.New("boom"),
	}, func() { called = true }, nil)

	m.Probe(context.Background())
	m.bumpAttempt()
	m.bumpAttempt()

	m.Retry()

	if !called {
		t.Error("expected retry callback to be invoked")
	}
	snap := m.Snapshot()
	if snap.Attempt != 0 {
		t.Errorf("expected attempt reset, got %d", snap.Attempt)
	}
	if snap.Message != "" || snap.ErrorClass == ClassOffline {
		t.Errorf("expected error cleared, got %q/%s", snap.Message, snap.ErrorClass)
	}
}

func TestRun_InitialProbeSuppressedOnLoginSurface(t *testing.T) {
	m := NewMonitor(&probeAuth{}, nil, func() bool { return true })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Run(ctx)

	// Still checking: the activation probe never ran.
	if got := m.Snapshot().BackendStatus; got != StatusChecking {
		t.Errorf("expected checking, got %s", got)
	}
}

func TestSetOnline_BackOnlineProbesImmediately(t *testing.T) {
	auth := &probeAuth{}
	m := NewMonitor(auth, nil, func() bool { return true })
	// Park the schedule so only the online transition can trigger a probe.
	m.delay = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	m.SetOnline(false)
	m.SetOnline(true)

	waitUntil(t, func() bool { return auth.sessionCalls() > 0 },
		"expected an immediate probe after coming back online")
	waitUntil(t, func() bool { return m.Snapshot().BackendStatus == StatusConnected },
		"expected connected after the back-online probe")
}

func TestRun_ScheduledProbesIncrementAttempt(t *testing.T) {
	auth := &probeAuth{
		sessionErr: errors.New("connection refused"),
		userErr:    errors.New("connection refused"),
	}
	m := NewMonitor(auth, nil, func() bool { return true })
	m.delay = func(int) time.Duration { return time.Millisecond }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitUntil(t, func() bool { return m.Snapshot().Attempt >= 3 },
		"expected each scheduled probe to increment the attempt counter")
	if calls := auth.sessionCalls(); calls < 3 {
		t.Errorf("expected at least 3 probes, got %d", calls)
	}
}

func TestRun_ActivationProbeRuns(t *testing.T) {
	m := NewMonitor(&probeAuth{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Run(ctx)

	if got := m.Snapshot().BackendStatus; got != StatusConnected {
		t.Errorf("expected connected after activation probe, got %s", got)
	}
}
