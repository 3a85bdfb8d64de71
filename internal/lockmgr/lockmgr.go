// Package lockmgr implements MuduDB's per-row lock manager (C9): a
// self-garbage-collecting map of lock slots keyed by tuple key, each with a
// FIFO waiter queue.
package lockmgr

import (
	"sync"

	"github.com/mududb/mududb/internal/tuple"
	"github.com/mududb/mududb/internal/xid"
)

// LockResult is the outcome of a Lock call (§4.7).
type LockResult int

const (
	Locked LockResult = iota
	LockFailed
)

// waiter is one queued Lock call: the XID requesting the slot and the
// channel it blocks on until handed ownership.
type waiter struct {
	xid xid.XID
	ch  chan struct{}
}

// slot is the per-key lock state: at most one holder, plus a FIFO queue of
// waiters. Slots are removed from their owning Manager once both the holder
// and the waiter queue are empty, so the map never grows unbounded with
// short-lived locks (§4.7: "self-garbage-collecting").
type slot struct {
	mu      sync.Mutex
	holder  xid.XID
	held    bool
	waiters []waiter
}

// Manager owns one lock table per tuple key, scoped to a single in-memory
// table (§3, §4.7).
type Manager struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewManager creates an empty lock manager.
func NewManager() *Manager {
	return &Manager{slots: make(map[string]*slot)}
}

// Lock attempts to acquire the row lock for key on behalf of holder,
// enqueueing the caller behind any existing waiters and blocking until it
// is woken. Ownership is handed directly to the woken waiter by Release
// before its channel is closed (§4.7), so a caller that wakes from <-ch
// already owns the slot and never re-races a newer Lock call for it.
func (m *Manager) Lock(key tuple.Key, holder xid.XID) LockResult {
	cacheKey := key.CacheKey()

	m.mu.Lock()
	s, ok := m.slots[cacheKey]
	if !ok {
		s = &slot{}
		m.slots[cacheKey] = s
	}
	m.mu.Unlock()

	s.mu.Lock()
	if !s.held {
		s.held = true
		s.holder = holder
		s.mu.Unlock()
		return Locked
	}

	ch := make(chan struct{})
	s.waiters = append(s.waiters, waiter{xid: holder, ch: ch})
	s.mu.Unlock()

	<-ch
	return Locked
}

// Release releases the lock on key, handing it directly to the next FIFO
// waiter if any (so it returns from Lock without re-acquiring), or else
// removing the now-empty slot from the manager.
func (m *Manager) Release(key tuple.Key, holder xid.XID) {
	cacheKey := key.CacheKey()
	m.mu.Lock()
	s, ok := m.slots[cacheKey]
	m.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	if !(s.held && s.holder == holder) {
		s.mu.Unlock()
		return
	}

	if len(s.waiters) > 0 {
		next := s.waiters[0]
		s.waiters = s.waiters[1:]
		// Hand off ownership before waking next, so it returns Locked
		// without re-racing a newer Lock caller for the slot (§4.7, §8.8).
		s.holder = next.xid
		s.mu.Unlock()
		close(next.ch)
		return
	}

	s.held = false
	s.mu.Unlock()

	m.mu.Lock()
	if cur, ok := m.slots[cacheKey]; ok && cur == s {
		s.mu.Lock()
		empty := !s.held && len(s.waiters) == 0
		s.mu.Unlock()
		if empty {
			delete(m.slots, cacheKey)
		}
	}
	m.mu.Unlock()
}

// ReleaseAll releases every lock held by holder across every key it was
// given, used when a transaction ends (§4.9).
func (m *Manager) ReleaseAll(holder xid.XID, keys []tuple.Key) {
	for _, k := range keys {
		m.Release(k, holder)
	}
}
