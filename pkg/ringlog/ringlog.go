// Package ringlog provides a small bounded log of diagnostic steps. Each
// component owns its own ring; entries are exposed read-only and never drive
// control flow.
package ringlog

import (
	"sync"
	"time"
)

const DefaultCapacity = 10

type Entry struct {
	At     time.Time `json:"at"`
	Op     string    `json:"op"`
	Detail string    `json:"detail,omitempty"`
}

type Ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{entries: make([]Entry, capacity)}
}

// Append records a step, evicting the oldest entry once the ring is full.
func (r *Ring) Append(op, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = Entry{At: time.Now(), Op: op, Detail: detail}
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

// Entries returns a copy of the recorded steps, oldest first.
func (r *Ring) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}

	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}
