package ringlog

import (
	"fmt"
	"testing"
)

func TestAppendBelowCapacity(t *testing.T) {
	r := New(5)
	r.Append("boot", "start")
	r.Append("boot", "done")

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Detail != "start" || entries[1].Detail != "done" {
		t.Errorf("entries out of order: %+v", entries)
	}
}

func TestAppendEvictsOldest(t *testing.T) {
	r := New(3)
	for i := 0; i < 5; i++ {
		r.Append("probe", fmt.Sprintf("attempt-%d", i))
	}

	entries := r.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"attempt-2", "attempt-3", "attempt-4"}
	for i, w := range want {
		if entries[i].Detail != w {
			t.Errorf("entry %d: expected %q, got %q", i, w, entries[i].Detail)
		}
	}
}

func TestDefaultCapacity(t *testing.T) {
	r := New(0)
	for i := 0; i < 25; i++ {
		r.Append("op", "")
	}
	if r.Len() != DefaultCapacity {
		t.Errorf("expected ring capped at %d, got %d", DefaultCapacity, r.Len())
	}
}
