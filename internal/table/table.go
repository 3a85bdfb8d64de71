// Package table implements MuduDB's in-memory table and ordered index
// (C10): a TupleKey-ordered map from key to row, backed by
// github.com/google/btree (grounded on erigon-lib's state/domain_committed.go
// use of btree.NewG), plus a lazy single-pass range iterator.
package table

import (
	"sync"

	"github.com/google/btree"

	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/tuple"
)

// degree is the B-tree branching factor; 32 matches the value used by
// erigon-lib's commitment tree for a similar ordered-key workload.
const degree = 32

// entry is one row stored in the tree, ordered by its key.
type entry struct {
	key tuple.Key
	row tuple.Binary
}

func less(a, b entry) bool {
	return a.key.Less(b.key)
}

// Table is an ordered in-memory map from TupleKey to row bytes (§3, §4.9).
type Table struct {
	desc *tuple.TupleBinaryDesc

	mu   sync.RWMutex
	tree *btree.BTreeG[entry]
}

// New creates an empty table over rows described by desc.
func New(desc *tuple.TupleBinaryDesc) *Table {
	return &Table{desc: desc, tree: btree.NewG[entry](degree, less)}
}

// InsertKey inserts or replaces the row at key, returning whether a prior
// row was replaced.
func (t *Table) InsertKey(key tuple.Key, row tuple.Binary) (replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, had := t.tree.ReplaceOrInsert(entry{key: key, row: row})
	return had
}

// ReadKey returns the row stored at key, if any.
func (t *Table) ReadKey(key tuple.Key) (tuple.Binary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.tree.Get(entry{key: key})
	if !ok {
		return nil, false
	}
	return e.row, true
}

// DeleteKey removes the row at key, returning whether it existed.
func (t *Table) DeleteKey(key tuple.Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, had := t.tree.Delete(entry{key: key})
	return had
}

// Len returns the number of rows currently stored.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree.Len()
}

// Row pairs a key with its row bytes, returned by range reads.
type Row struct {
	Key tuple.Key
	Row tuple.Binary
}

// ReadRange returns every row with key in [lo, hi) in ascending key order.
// A nil lo means "from the beginning"; a nil hi means "to the end".
func (t *Table) ReadRange(lo, hi *tuple.Key) ([]Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Row
	visit := func(e entry) bool {
		out = append(out, Row{Key: e.key, Row: e.row})
		return true
	}

	switch {
	case lo == nil && hi == nil:
		t.tree.Ascend(func(e entry) bool { return visit(e) })
	case lo == nil:
		t.tree.AscendLessThan(entry{key: *hi}, func(e entry) bool { return visit(e) })
	case hi == nil:
		t.tree.AscendGreaterOrEqual(entry{key: *lo}, func(e entry) bool { return visit(e) })
	default:
		if hi.Less(*lo) {
			return nil, errs.New(errs.IndexOutOfRange, "range upper bound precedes lower bound")
		}
		t.tree.AscendRange(entry{key: *lo}, entry{key: *hi}, func(e entry) bool { return visit(e) })
	}
	return out, nil
}

// RangeIterator lazily walks [lo, hi) one row at a time, without
// materializing the full result set (§4.9: "a single-pass lazy iterator").
type RangeIterator struct {
	items chan Row
	done  chan struct{}
}

// Range starts a lazy ascending iteration over [lo, hi).
func (t *Table) Range(lo, hi *tuple.Key) *RangeIterator {
	it := &RangeIterator{items: make(chan Row), done: make(chan struct{})}
	go func() {
		defer close(it.items)
		t.mu.RLock()
		defer t.mu.RUnlock()

		emit := func(e entry) bool {
			select {
			case it.items <- Row{Key: e.key, Row: e.row}:
				return true
			case <-it.done:
				return false
			}
		}
		switch {
		case lo == nil && hi == nil:
			t.tree.Ascend(func(e entry) bool { return emit(e) })
		case lo == nil:
			t.tree.AscendLessThan(entry{key: *hi}, func(e entry) bool { return emit(e) })
		case hi == nil:
			t.tree.AscendGreaterOrEqual(entry{key: *lo}, func(e entry) bool { return emit(e) })
		default:
			t.tree.AscendRange(entry{key: *lo}, entry{key: *hi}, func(e entry) bool { return emit(e) })
		}
	}()
	return it
}

// Next returns the next row, or ok=false once the iteration is exhausted.
func (it *RangeIterator) Next() (Row, bool) {
	r, ok := <-it.items
	return r, ok
}

// Close stops the iterator's background walk early.
func (it *RangeIterator) Close() {
	close(it.done)
}
