package walog

import (
	"testing"

	"github.com/mududb/mududb/internal/xid"
)

func TestAppendSyncIsDurable(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, 2, xid.LSN(1))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	if err := w.AppendSync([]byte("hello")); err != nil {
		t.Fatalf("AppendSync: %v", err)
	}
	if w.Durable() < 1 {
		t.Fatalf("expected durable LSN >= 1, got %d", w.Durable())
	}
}

func TestRecoverOrdersByLSN(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, 3, xid.LSN(1))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	payloads := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")}
	for _, p := range payloads {
		if err := w.AppendSync(p); err != nil {
			t.Fatalf("AppendSync: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2, err := Open(dir, 3, xid.LSN(1))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer w2.Close()

	recs, err := w2.Recover()
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if len(recs) != len(payloads) {
		t.Fatalf("got %d records, want %d", len(recs), len(payloads))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].LSN <= recs[i-1].LSN {
			t.Fatalf("records not in ascending LSN order at index %d", i)
		}
	}
}
