package lockmgr

import (
	"testing"
	"time"

	"github.com/mududb/mududb/internal/tuple"
	"github.com/mududb/mududb/internal/typesys"
	"github.com/mududb/mududb/internal/xid"
)

func testKey(v int32) tuple.Key {
	desc := tuple.NewDesc([]tuple.FieldDesc{{Name: "id", Type: typesys.NewScalar(typesys.I32)}})
	b, err := tuple.Build(desc, []typesys.DatValue{typesys.NewI32(v)})
	if err != nil {
		panic(err)
	}
	return tuple.NewKey(desc, b)
}

func TestLockAndRelease(t *testing.T) {
	m := NewManager()
	k := testKey(1)
	a := xid.NewXID()

	if r := m.Lock(k, a); r != Locked {
		t.Fatalf("expected Locked, got %v", r)
	}
	m.Release(k, a)

	b := xid.NewXID()
	if r := m.Lock(k, b); r != Locked {
		t.Fatalf("expected second locker to acquire after release, got %v", r)
	}
	m.Release(k, b)
}

func TestLockBlocksUntilReleased(t *testing.T) {
	m := NewManager()
	k := testKey(2)
	a := xid.NewXID()
	b := xid.NewXID()

	if r := m.Lock(k, a); r != Locked {
		t.Fatalf("expected a to lock")
	}

	done := make(chan LockResult, 1)
	go func() {
		done <- m.Lock(k, b)
	}()

	select {
	case <-done:
		t.Fatalf("expected b to block while a holds the lock")
	case <-time.After(50 * time.Millisecond):
	}

	m.Release(k, a)

	select {
	case r := <-done:
		if r != Locked {
			t.Fatalf("expected b to acquire lock, got %v", r)
		}
	case <-time.After(time.Second):
		t.Fatalf("b never acquired the lock after release")
	}
	m.Release(k, b)
}
