package txn

import (
	"sync"

	"github.com/mududb/mududb/internal/abi"
	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/lockmgr"
	"github.com/mududb/mududb/internal/resultset"
	"github.com/mududb/mududb/internal/snapshot"
	"github.com/mududb/mududb/internal/sqlfront"
	"github.com/mududb/mududb/internal/table"
	"github.com/mududb/mududb/internal/tuple"
	"github.com/mududb/mududb/internal/typesys"
	"github.com/mududb/mududb/internal/walog"
	"github.com/mududb/mududb/internal/wasmrt"
	"github.com/mududb/mududb/internal/xid"
)

// Database implements wasmrt.HostBridge, the seam the procedure runtime
// calls back into for query/fetch/command host calls (§4.11).
var _ wasmrt.HostBridge = (*Database)(nil)

// defaultBatchSize bounds how many rows a single query/fetch batch returns
// before handing back a cursor for the remainder (§4.9's "incremental,
// one batch per call" fetch model).
const defaultBatchSize = 256

// tableEntry is one registered table: its row layout, the key layout
// derived from it, the in-memory store (C10), and the table's own lock
// manager (C9), so two tables never contend on the same lock table.
type tableEntry struct {
	rowDesc *tuple.TupleBinaryDesc
	keyDesc *tuple.TupleBinaryDesc
	store   *table.Table
	locks   *lockmgr.Manager
}

// cursor is one open server-side query result, resumed by Fetch.
type cursor struct {
	it      *table.RangeIterator
	rowDesc *tuple.TupleBinaryDesc
}

// Database is the catalog a set of sessions share (C11): the table
// registry, the snapshot manager and WAL every session's transactions use,
// and the session/cursor bindings the WASM host-call ABI routes through by
// XID (§4.11). Database implements wasmrt.HostBridge directly, so it is
// the HostBridge a procedure invocation is given.
type Database struct {
	mu     sync.RWMutex
	tables map[string]*tableEntry

	snapMgr *snapshot.Manager
	wal     *walog.WAL

	sessionsMu sync.Mutex
	sessions   map[xid.XID]*Session

	cursorsMu    sync.Mutex
	cursors      map[uint64]*cursor
	nextCursorID uint64
}

// NewDatabase creates an empty catalog backed by snapMgr and wal. wal may
// be nil, in which case Command skips WAL durability (used by tests that
// exercise table/lock semantics without standing up a log directory).
func NewDatabase(snapMgr *snapshot.Manager, wal *walog.WAL) *Database {
	return &Database{
		tables:   make(map[string]*tableEntry),
		snapMgr:  snapMgr,
		wal:      wal,
		sessions: make(map[xid.XID]*Session),
		cursors:  make(map[uint64]*cursor),
	}
}

// CreateTable registers a new table under name with the given row layout.
// Its key descriptor is derived from rowDesc's first declared column:
// full WHERE-clause/column-list parsing is out of scope (§1 non-goals), so
// the leading column is the only one Command can use to address a row, a
// judgment call recorded in DESIGN.md.
func (db *Database) CreateTable(name string, rowDesc *tuple.TupleBinaryDesc) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.tables[name]; exists {
		return errs.New(errs.ExistingSuchElement, "table already exists: "+name)
	}
	fields := rowDesc.Fields()
	if len(fields) == 0 {
		return errs.New(errs.TupleErr, "table "+name+" must declare at least one column")
	}
	db.tables[name] = &tableEntry{
		rowDesc: rowDesc,
		keyDesc: tuple.NewDesc(fields[:1]),
		store:   table.New(rowDesc),
		locks:   lockmgr.NewManager(),
	}
	return nil
}

func (db *Database) lookupTable(name string) (*tableEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	te, ok := db.tables[name]
	if !ok {
		return nil, errs.New(errs.NoSuchElement, "unknown table: "+name)
	}
	return te, nil
}

// NewSession creates a session bound to this catalog.
func (db *Database) NewSession() *Session {
	return &Session{ID: xid.NewOID(), db: db}
}

func (db *Database) bindXID(id xid.XID, s *Session) {
	db.sessionsMu.Lock()
	db.sessions[id] = s
	db.sessionsMu.Unlock()
}

func (db *Database) unbindXID(id xid.XID) {
	db.sessionsMu.Lock()
	delete(db.sessions, id)
	db.sessionsMu.Unlock()
}

// sessionFor looks up the session bound to a transaction XID, the routing
// step every host call performs before executing (§4.11): "look up the
// session context bound to XID; if absent, return an encoded NoneErr".
func (db *Database) sessionFor(id xid.XID) (*Session, error) {
	db.sessionsMu.Lock()
	s, ok := db.sessions[id]
	db.sessionsMu.Unlock()
	if !ok {
		return nil, errs.New(errs.NoneErr, "no session bound to XID")
	}
	return s, nil
}

func (db *Database) appendWAL(payload []byte) error {
	if db.wal == nil {
		return nil
	}
	return db.wal.AppendSync(payload)
}

// Query implements wasmrt.HostBridge's query call (§4.9, §4.11): classify
// the statement, route it to the session bound to p.OID, and scan the
// addressed table under that session's transaction, returning the first
// batch plus an open cursor for whatever didn't fit.
func (db *Database) Query(p abi.QueryParam) (abi.QueryResult, error) {
	sess, err := db.sessionFor(p.OID)
	if err != nil {
		return abi.QueryResult{}, err
	}
	stmt, err := sqlfront.Classify(p.SQL)
	if err != nil {
		return abi.QueryResult{}, err
	}
	if stmt.Verb != sqlfront.Select {
		return abi.QueryResult{}, errs.New(errs.NotImplemented, "query requires a SELECT statement")
	}
	te, err := db.lookupTable(stmt.Table)
	if err != nil {
		return abi.QueryResult{}, err
	}
	if _, _, err := sess.EnsureTx(); err != nil {
		return abi.QueryResult{}, err
	}

	it := te.store.Range(nil, nil)
	rs, done, err := drainBatch(it, te.rowDesc, defaultBatchSize)
	if err != nil {
		it.Close()
		return abi.QueryResult{}, err
	}

	result := abi.QueryResult{Columns: columnNames(te.rowDesc), Rows: toWireRows(rs), Done: done}
	if done {
		it.Close()
		return result, nil
	}

	db.cursorsMu.Lock()
	db.nextCursorID++
	result.CursorID = db.nextCursorID
	db.cursors[result.CursorID] = &cursor{it: it, rowDesc: te.rowDesc}
	db.cursorsMu.Unlock()
	return result, nil
}

// Fetch implements wasmrt.HostBridge's fetch call: resume an open cursor
// opened by Query and return its next batch (§4.9: incremental, one batch
// per call).
func (db *Database) Fetch(p abi.FetchParam) (abi.FetchResult, error) {
	if _, err := db.sessionFor(p.OID); err != nil {
		return abi.FetchResult{}, err
	}

	db.cursorsMu.Lock()
	c, ok := db.cursors[p.CursorID]
	db.cursorsMu.Unlock()
	if !ok {
		return abi.FetchResult{}, errs.New(errs.NoSuchElement, "unknown cursor: no such element")
	}

	max := p.MaxRows
	if max <= 0 {
		max = defaultBatchSize
	}
	rs, done, err := drainBatch(c.it, c.rowDesc, max)
	if err != nil {
		return abi.FetchResult{}, err
	}
	if done {
		c.it.Close()
		db.cursorsMu.Lock()
		delete(db.cursors, p.CursorID)
		db.cursorsMu.Unlock()
	}
	return abi.FetchResult{Rows: toWireRows(rs), Done: done}, nil
}

// Command implements wasmrt.HostBridge's command call: classify the
// statement, route it to the session bound to p.OID, lock the row
// addressed by the first parameter, apply the INSERT/UPDATE/DELETE, append
// a WAL record, and report the affected row count (§4.9).
func (db *Database) Command(p abi.CommandParam) (abi.CommandResult, error) {
	sess, err := db.sessionFor(p.OID)
	if err != nil {
		return abi.CommandResult{}, err
	}
	stmt, err := sqlfront.Classify(p.SQL)
	if err != nil {
		return abi.CommandResult{}, err
	}
	te, err := db.lookupTable(stmt.Table)
	if err != nil {
		return abi.CommandResult{}, err
	}
	if len(p.Params) == 0 {
		return abi.CommandResult{}, errs.New(errs.TupleErr, "command requires at least the key column value")
	}

	keyBin, err := tuple.Build(te.keyDesc, p.Params[:1])
	if err != nil {
		return abi.CommandResult{}, err
	}
	key := tuple.NewKey(te.keyDesc, keyBin)

	if _, err := sess.Lock(stmt.Table, key); err != nil {
		return abi.CommandResult{}, err
	}

	var affected int64
	switch stmt.Verb {
	case sqlfront.Insert, sqlfront.Update:
		if len(p.Params) != len(te.rowDesc.Fields()) {
			return abi.CommandResult{}, errs.New(errs.TupleErr, "column count does not match the table's row layout")
		}
		row, err := tuple.Build(te.rowDesc, p.Params)
		if err != nil {
			return abi.CommandResult{}, err
		}
		if stmt.Verb == sqlfront.Update {
			if _, had := te.store.ReadKey(key); !had {
				return abi.CommandResult{RowsAffected: 0}, nil
			}
		}
		if err := db.appendWAL(row); err != nil {
			return abi.CommandResult{}, err
		}
		te.store.InsertKey(key, row)
		affected = 1
	case sqlfront.Delete:
		if err := db.appendWAL(keyBin); err != nil {
			return abi.CommandResult{}, err
		}
		if te.store.DeleteKey(key) {
			affected = 1
		}
	default:
		return abi.CommandResult{}, errs.New(errs.NotImplemented, "command requires INSERT/UPDATE/DELETE")
	}

	return abi.CommandResult{RowsAffected: affected}, nil
}

// drainBatch pulls up to max rows from it, decoding each through rowDesc
// into a resultset.ResultSet (C14), and reports whether the iterator is
// now exhausted.
func drainBatch(it *table.RangeIterator, rowDesc *tuple.TupleBinaryDesc, max int) (*resultset.ResultSet, bool, error) {
	desc := datumDescFor(rowDesc)
	rs := &resultset.ResultSet{Desc: desc}
	done := false
	for len(rs.Rows) < max {
		row, ok := it.Next()
		if !ok {
			done = true
			break
		}
		values, err := tuple.ReadAll(rowDesc, row.Row)
		if err != nil {
			return nil, false, err
		}
		rs.Rows = append(rs.Rows, resultset.TupleValue{Desc: desc, Fields: values})
	}
	return rs, done, nil
}

func datumDescFor(d *tuple.TupleBinaryDesc) *resultset.DatumDesc {
	fields := d.Fields()
	out := make([]resultset.TupleFieldDesc, len(fields))
	for i, f := range fields {
		out[i] = resultset.TupleFieldDesc{Name: f.Name, Type: f.Type}
	}
	return &resultset.DatumDesc{Fields: out}
}

func columnNames(d *tuple.TupleBinaryDesc) []string {
	fields := d.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func toWireRows(rs *resultset.ResultSet) [][]typesys.DatValue {
	out := make([][]typesys.DatValue, len(rs.Rows))
	for i, row := range rs.Rows {
		out[i] = row.Fields
	}
	return out
}
