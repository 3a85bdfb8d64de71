// Package txn implements MuduDB's transaction and session context (C11):
// a session owns at most one active transaction, begun implicitly by the
// first statement that needs one, grounded on the teacher's
// internal/domain/transaction.Transaction lifecycle (ID/Active/StartTime)
// generalized to hold the row locks acquired during the transaction so
// they can be released uniformly at commit or rollback (buffer frames are
// not tracked or released by a transaction), and to route
// incoming WASM host calls back to the session that issued them by XID
// (§4.11, see database.go).
package txn

import (
	"time"

	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/lockmgr"
	"github.com/mududb/mududb/internal/snapshot"
	"github.com/mududb/mududb/internal/tuple"
	"github.com/mududb/mududb/internal/xid"
)

// Transaction is one in-flight unit of work (§4.8).
type Transaction struct {
	ID        xid.XID
	StartTime time.Time
	Active    bool

	snap snapshot.Snapshot

	heldLocks []heldLock
}

// heldLock is one row lock acquired during a transaction, paired with the
// lock manager that granted it so releaseLocks can group-release across
// more than one table without leaking locks on any but the last manager
// used.
type heldLock struct {
	mgr   *lockmgr.Manager
	table string
	key   tuple.Key
}

func (tx *Transaction) noteLock(mgr *lockmgr.Manager, table string, key tuple.Key) {
	tx.heldLocks = append(tx.heldLocks, heldLock{mgr: mgr, table: table, key: key})
}

// Session owns at most one active transaction (§4.8: "a session holds zero
// or one active transaction") and is bound to the shared Database catalog
// its statements execute against.
type Session struct {
	ID OID

	db *Database

	current *Transaction
}

// OID aliases xid.OID for session identity.
type OID = xid.OID

// NewSession creates a session bound to db.
func NewSession(db *Database) *Session {
	return db.NewSession()
}

// BeginTx starts a new transaction explicitly, failing if one is already
// active on this session, and binds the transaction's XID to this session
// so host calls tagged with it route back here (§4.11).
func (s *Session) BeginTx() (*Transaction, error) {
	if s.current != nil && s.current.Active {
		return nil, errs.New(errs.TxErr, "session already has an active transaction")
	}
	id := s.db.snapMgr.Begin()
	tx := &Transaction{ID: id, StartTime: time.Now(), Active: true}
	tx.snap = s.db.snapMgr.Snapshot(id)
	s.current = tx
	s.db.bindXID(id, s)
	return tx, nil
}

// EnsureTx returns the session's active transaction, beginning one
// implicitly if none is active; the bool reports whether it began one. An
// implicitly begun transaction stays active until CommitTx or RollbackTx.
func (s *Session) EnsureTx() (*Transaction, bool, error) {
	if s.current != nil && s.current.Active {
		return s.current, false, nil
	}
	tx, err := s.BeginTx()
	return tx, true, err
}

// CommitTx commits the session's active transaction, releasing every lock
// it acquired and unbinding its XID.
func (s *Session) CommitTx() error {
	tx := s.current
	if tx == nil || !tx.Active {
		return errs.New(errs.TxErr, "no active transaction to commit")
	}
	s.db.snapMgr.Commit(tx.ID)
	s.releaseLocks(tx)
	tx.Active = false
	s.current = nil
	s.db.unbindXID(tx.ID)
	return nil
}

// RollbackTx aborts the session's active transaction, releasing every lock
// it acquired and unbinding its XID.
func (s *Session) RollbackTx() error {
	tx := s.current
	if tx == nil || !tx.Active {
		return errs.New(errs.TxErr, "no active transaction to roll back")
	}
	s.db.snapMgr.Abort(tx.ID)
	s.releaseLocks(tx)
	tx.Active = false
	s.current = nil
	s.db.unbindXID(tx.ID)
	return nil
}

func (s *Session) releaseLocks(tx *Transaction) {
	byMgr := make(map[*lockmgr.Manager][]tuple.Key)
	for _, hl := range tx.heldLocks {
		byMgr[hl.mgr] = append(byMgr[hl.mgr], hl.key)
	}
	for mgr, keys := range byMgr {
		mgr.ReleaseAll(tx.ID, keys)
	}
	tx.heldLocks = nil
}

// Lock acquires the row lock for key in table on behalf of the session's
// active transaction, implicitly beginning one if needed, and remembers the
// lock so it is released automatically at commit/rollback.
func (s *Session) Lock(table string, key tuple.Key) (lockmgr.LockResult, error) {
	tx, _, err := s.EnsureTx()
	if err != nil {
		return lockmgr.LockFailed, err
	}
	te, err := s.db.lookupTable(table)
	if err != nil {
		return lockmgr.LockFailed, err
	}
	result := te.locks.Lock(key, tx.ID)
	if result == lockmgr.Locked {
		tx.noteLock(te.locks, table, key)
	}
	return result, nil
}

// Snapshot returns the active transaction's visibility snapshot, beginning
// one implicitly if needed.
func (s *Session) Snapshot() (snapshot.Snapshot, error) {
	tx, _, err := s.EnsureTx()
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return tx.snap, nil
}
