package txn

import (
	"testing"

	"github.com/mududb/mududb/internal/snapshot"
	"github.com/mududb/mududb/internal/tuple"
	"github.com/mududb/mududb/internal/typesys"
)

func testKey(v int32) tuple.Key {
	desc := tuple.NewDesc([]tuple.FieldDesc{{Name: "id", Type: typesys.NewScalar(typesys.I32)}})
	b, err := tuple.Build(desc, []typesys.DatValue{typesys.NewI32(v)})
	if err != nil {
		panic(err)
	}
	return tuple.NewKey(desc, b)
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db := NewDatabase(snapshot.NewManager(), nil)
	rowDesc := tuple.NewDesc([]tuple.FieldDesc{{Name: "id", Type: typesys.NewScalar(typesys.I32)}})
	if err := db.CreateTable("t", rowDesc); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	return db
}

func newTestSession(t *testing.T) *Session {
	return NewSession(newTestDatabase(t))
}

func TestImplicitBeginOnLock(t *testing.T) {
	s := newTestSession(t)
	if s.current != nil {
		t.Fatalf("expected no active transaction initially")
	}
	if _, err := s.Lock("t", testKey(1)); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if s.current == nil || !s.current.Active {
		t.Fatalf("expected implicit transaction to be active")
	}
}

func TestCommitReleasesLocksAndTransaction(t *testing.T) {
	db := newTestDatabase(t)
	s := NewSession(db)
	k := testKey(2)
	if _, err := s.Lock("t", k); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := s.CommitTx(); err != nil {
		t.Fatalf("CommitTx: %v", err)
	}
	if s.current != nil {
		t.Fatalf("expected no active transaction after commit")
	}

	s2 := NewSession(db)
	if _, err := s2.Lock("t", k); err != nil {
		t.Fatalf("expected lock free after commit released it: %v", err)
	}
}

func TestBeginTxRejectsWhenAlreadyActive(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.BeginTx(); err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := s.BeginTx(); err == nil {
		t.Fatalf("expected error beginning a second transaction on the same session")
	}
}
