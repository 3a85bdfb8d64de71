// Package snapshot implements MuduDB's MVCC snapshot manager (C8): XID
// assignment, the active-transaction set, and per-transaction visibility
// snapshots, all serialized under one mutex (grounded on the teacher's internal/domain transaction bookkeeping,
// generalized from its single global counter to a proper active-set model).
package snapshot

import (
	"sync"

	"github.com/mududb/mududb/internal/xid"
)

// Snapshot is the visibility view a transaction reads against: every XID
// strictly below WaterMark is visible unless it appears in Active (§4.6).
type Snapshot struct {
	WaterMark xid.XID
	Active    map[xid.XID]struct{}
}

// Visible reports whether a row version written by writer is visible to
// this snapshot: writer must not be the snapshot's own in-flight set, and
// must have been assigned (in issue order) before the snapshot was taken.
func (s Snapshot) Visible(writer xid.XID, issuedBefore bool) bool {
	if _, active := s.Active[writer]; active {
		return false
	}
	return issuedBefore
}

// txState is the lifecycle of one assigned transaction.
type txState int

const (
	txActive txState = iota
	txCommitted
	txAborted
)

// Manager is the XID assigner and active-set tracker (§4.6). All mutation
// happens under mu, so the active set and issue order never race; Begin
// additionally blocks on sem while defaultMaxInFlight transactions are
// active. There is no request channel or assigner goroutine.
type Manager struct {
	mu       sync.Mutex
	active   map[xid.XID]int64 // XID -> issue sequence number
	issueSeq int64
	order    []xid.XID // XIDs in issue order, including committed/aborted ones
	state    map[xid.XID]txState

	maxInFlight int
	sem         chan struct{}
}

// defaultMaxInFlight bounds the number of concurrently active transactions,
// per the spec's default of 10000 for the equivalent bounded queue.
const defaultMaxInFlight = 10000

// NewManager creates an empty snapshot manager.
func NewManager() *Manager {
	return &Manager{
		active:      make(map[xid.XID]int64),
		state:       make(map[xid.XID]txState),
		maxInFlight: defaultMaxInFlight,
		sem:         make(chan struct{}, defaultMaxInFlight),
	}
}

// Begin assigns a fresh XID and enters it into the active set, blocking if
// the in-flight bound is currently saturated.
func (m *Manager) Begin() xid.XID {
	m.sem <- struct{}{}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := xid.NewXID()
	m.issueSeq++
	m.active[id] = m.issueSeq
	m.order = append(m.order, id)
	m.state[id] = txActive
	return id
}

// Snapshot returns the current visibility snapshot: the set of still-active
// XIDs, and a water mark equal to the requesting transaction's own XID (so
// callers compare "issued before me" using issue sequence, not byte order).
func (m *Manager) Snapshot(requester xid.XID) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := make(map[xid.XID]struct{}, len(m.active))
	for id := range m.active {
		if id != requester {
			active[id] = struct{}{}
		}
	}
	return Snapshot{WaterMark: requester, Active: active}
}

// IssuedBefore reports whether writer was assigned its XID before reader,
// by issue sequence number; used by the visibility check above.
func (m *Manager) IssuedBefore(writer, reader xid.XID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, wok := m.seqOf(writer)
	rs, rok := m.seqOf(reader)
	if !wok || !rok {
		return false
	}
	return ws < rs
}

func (m *Manager) seqOf(id xid.XID) (int64, bool) {
	if seq, ok := m.active[id]; ok {
		return seq, true
	}
	for i, o := range m.order {
		if o == id {
			return int64(i) + 1, true
		}
	}
	return 0, false
}

// Commit marks id committed and removes it from the active set.
func (m *Manager) Commit(id xid.XID) {
	m.mu.Lock()
	delete(m.active, id)
	m.state[id] = txCommitted
	m.mu.Unlock()
	<-m.sem
}

// Abort marks id aborted and removes it from the active set.
func (m *Manager) Abort(id xid.XID) {
	m.mu.Lock()
	delete(m.active, id)
	m.state[id] = txAborted
	m.mu.Unlock()
	<-m.sem
}

// IsCommitted reports whether id has committed.
func (m *Manager) IsCommitted(id xid.XID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[id] == txCommitted
}

// IsActive reports whether id is still in the active set.
func (m *Manager) IsActive(id xid.XID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[id]
	return ok
}
