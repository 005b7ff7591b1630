// Package connectivity verifies that the hosted backend is reachable,
// independent of whether a session exists. Probes run on an exponential
// backoff schedule with jitter; network-level offline transitions short-
// circuit probing entirely.
package connectivity

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/nmehta6/socialdesk/internal/backend"
	"github.com/nmehta6/socialdesk/internal/metrics"
	"github.com/nmehta6/socialdesk/pkg/ringlog"
)

type Status string

const (
	StatusChecking     Status = "checking"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

type ErrorClass string

const (
	ClassNone        ErrorClass = ""
	ClassOffline     ErrorClass = "offline"
	ClassTimeout     ErrorClass = "timeout"
	ClassUnreachable ErrorClass = "unreachable"
	ClassUnknown     ErrorClass = "unknown"
)

const (
	baseDelay    = 5 * time.Second
	maxDelay     = 120 * time.Second
	maxJitter    = time.Second
	probeTimeout = 8 * time.Second
)

// Snapshot is the externally visible connectivity state.
type Snapshot struct {
	Online        bool       `json:"online"`
	BackendStatus Status     `json:"backend_status"`
	Attempt       int        `json:"attempt"`
	LastChecked   time.Time  `json:"last_checked"`
	ErrorClass    ErrorClass `json:"error_class,omitempty"`
	Message       string     `json:"message,omitempty"`
	// Visible is false only when both network and backend are healthy; the
	// UI renders the status indicator whenever it is true.
	Visible bool `json:"visible"`
}

type Monitor struct {
	auth            backend.AuthClient
	onRetry         func()
	suppressInitial func() bool
	ring            *ringlog.Ring

	mu          sync.Mutex
	online      bool
	status      Status
	attempt     int
	lastChecked time.Time
	errClass    ErrorClass
	message     string

	kickCh chan struct{}

	// delay schedules the next probe; replaced in tests.
	delay func(attempt int) time.Duration
}

// NewMonitor creates a Monitor. onRetry is invoked on manual retry, before
// re-probing; suppressInitial skips the activation probe while the
// entry/login surface is showing.
func NewMonitor(auth backend.AuthClient, onRetry func(), suppressInitial func() bool) *Monitor {
	if suppressInitial == nil {
		suppressInitial = func() bool { return false }
	}
	metrics.BackendStatus.Set(0)
	return &Monitor{
		auth:            auth,
		onRetry:         onRetry,
		suppressInitial: suppressInitial,
		ring:            ringlog.New(ringlog.DefaultCapacity),
		online:          true,
		status:          StatusChecking,
		kickCh:          make(chan struct{}, 1),
		delay: func(attempt int) time.Duration {
			return BackoffDelay(attempt) + jitter()
		},
	}
}

// Run probes once on activation and then on an exponential backoff schedule
// until ctx is cancelled. Every scheduled probe increments the attempt
// counter regardless of outcome; a successful probe resets it.
func (m *Monitor) Run(ctx context.Context) {
	if !m.suppressInitial() {
		m.Probe(ctx)
	} else {
		m.ring.Append("probe", "initial probe suppressed")
	}

	for {
		timer := time.NewTimer(m.nextDelay())

		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case <-m.kickCh:
			timer.Stop()
			m.Probe(ctx)

		case <-timer.C:
			m.bumpAttempt()
			m.Probe(ctx)
		}
	}
}

// Probe tries the lightweight session-presence check, then the fallback
// identity lookup. Either success marks the backend connected; both must
// fail before it is marked disconnected.
func (m *Monitor) Probe(ctx context.Context) {
	if !m.isOnline() {
		m.setDisconnected(ClassOffline, "network is offline")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, sessErr := m.auth.GetSession(ctx)
	if sessErr == nil {
		m.setConnected()
		return
	}

	_, userErr := m.auth.GetUser(ctx)
	if userErr == nil {
		m.setConnected()
		return
	}

	msg := sessErr.Error() + "; " + userErr.Error()
	class := Classify(msg)
	slog.Warn("backend probe failed", "class", string(class), "error", msg)
	m.setDisconnected(class, userMessage(class))
}

// Classify maps a failure message onto the class used to pick user-facing
// text. It is a substring match, nothing more.
func Classify(msg string) ErrorClass {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return ClassTimeout
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "unreachable"):
		return ClassUnreachable
	default:
		return ClassUnknown
	}
}

func userMessage(class ErrorClass) string {
	switch class {
	case ClassOffline:
		return "You appear to be offline."
	case ClassTimeout:
		return "The service is taking too long to respond."
	case ClassUnreachable:
		return "The service cannot be reached right now."
	default:
		return "Something went wrong while checking the connection."
	}
}

// SetOnline records a network-level transition. Going offline marks the
// backend disconnected without probing; coming back online resets the
// attempt counter and probes immediately.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	if !online {
		m.status = StatusDisconnected
		m.errClass = ClassOffline
		m.message = userMessage(ClassOffline)
	} else if changed {
		m.attempt = 0
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	if online {
		m.ring.Append("network", "online")
		select {
		case m.kickCh <- struct{}{}:
		default:
		}
	} else {
		m.ring.Append("network", "offline")
	}
}

// Retry clears the error, resets the attempt counter, notifies the external
// retry hook and re-probes immediately.
func (m *Monitor) Retry() {
	m.mu.Lock()
	m.attempt = 0
	m.errClass = ClassNone
	m.message = ""
	m.mu.Unlock()
	metrics.ProbeAttempt.Set(0)

	m.ring.Append("retry", "manual retry")
	if m.onRetry != nil {
		m.onRetry()
	}

	select {
	case m.kickCh <- struct{}{}:
	default:
	}
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Online:        m.online,
		BackendStatus: m.status,
		Attempt:       m.attempt,
		LastChecked:   m.lastChecked,
		ErrorClass:    m.errClass,
		Message:       m.message,
		Visible:       !(m.online && m.status == StatusConnected),
	}
}

func (m *Monitor) Diagnostics() []ringlog.Entry {
	return m.ring.Entries()
}

func (m *Monitor) isOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) bumpAttempt() {
	m.mu.Lock()
	m.attempt++
	attempt := m.attempt
	m.mu.Unlock()
	metrics.ProbeAttempt.Set(float64(attempt))
}

func (m *Monitor) nextDelay() time.Duration {
	m.mu.Lock()
	attempt := m.attempt
	m.mu.Unlock()
	return m.delay(attempt)
}

func (m *Monitor) setConnected() {
	m.mu.Lock()
	m.status = StatusConnected
	m.attempt = 0
	m.errClass = ClassNone
	m.message = ""
	m.lastChecked = time.Now()
	m.mu.Unlock()

	m.ring.Append("probe", "connected")
	metrics.BackendStatus.Set(1)
	metrics.ProbeAttempt.Set(0)
	metrics.ProbesTotal.WithLabelValues("connected").Inc()
}

func (m *Monitor) setDisconnected(class ErrorClass, message string) {
	m.mu.Lock()
	m.status = StatusDisconnected
	m.errClass = class
	m.message = message
	m.lastChecked = time.Now()
	m.mu.Unlock()

	m.ring.Append("probe", "disconnected: "+string(class))
	metrics.BackendStatus.Set(2)
	metrics.ProbesTotal.WithLabelValues("disconnected").Inc()
}

// BackoffDelay is min(5s × 2^attempt, 120s), before jitter.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return delay
}

func jitter() time.Duration {
	return time.Duration(rand.Int63n(int64(maxJitter)))
}
