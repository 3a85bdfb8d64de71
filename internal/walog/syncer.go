package walog

import (
	"sync"

	"github.com/mududb/mududb/internal/xid"
)

// syncer tracks the highest LSN known to be durable (fsynced) and lets
// callers block until a target LSN has been made durable (§4.5: "commit
// waits for the syncer to confirm its LSN is durable before returning").
type syncer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	durable xid.LSN
}

func newSyncer() *syncer {
	s := &syncer{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// advance records that every LSN up to and including lsn is now durable.
func (s *syncer) advance(lsn xid.LSN) {
	s.mu.Lock()
	if lsn > s.durable {
		s.durable = lsn
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// waitFor blocks until durable >= lsn.
func (s *syncer) waitFor(lsn xid.LSN) {
	s.mu.Lock()
	for s.durable < lsn {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// Durable returns the last LSN known to be fsynced.
func (s *syncer) Durable() xid.LSN {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durable
}
