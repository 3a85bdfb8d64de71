package snapshot

import "testing"

func TestBeginAssignsDistinctXIDs(t *testing.T) {
	m := NewManager()
	a := m.Begin()
	b := m.Begin()
	if a == b {
		t.Fatalf("expected distinct XIDs")
	}
	if !m.IsActive(a) || !m.IsActive(b) {
		t.Fatalf("expected both transactions active")
	}
}

func TestSnapshotExcludesSelf(t *testing.T) {
	m := NewManager()
	a := m.Begin()
	snap := m.Snapshot(a)
	if _, ok := snap.Active[a]; ok {
		t.Fatalf("snapshot should not list the requester itself as active")
	}
}

func TestCommitRemovesFromActiveSet(t *testing.T) {
	m := NewManager()
	a := m.Begin()
	b := m.Begin()
	m.Commit(a)

	if m.IsActive(a) {
		t.Fatalf("committed transaction should no longer be active")
	}
	if !m.IsCommitted(a) {
		t.Fatalf("expected a to be committed")
	}

	snap := m.Snapshot(b)
	if _, ok := snap.Active[a]; ok {
		t.Fatalf("committed transaction should not appear in a later snapshot's active set")
	}
}

func TestIssuedBeforeOrdering(t *testing.T) {
	m := NewManager()
	a := m.Begin()
	b := m.Begin()
	if !m.IssuedBefore(a, b) {
		t.Fatalf("expected a to be issued before b")
	}
	if m.IssuedBefore(b, a) {
		t.Fatalf("expected b not issued before a")
	}
}
