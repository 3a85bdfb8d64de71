package table

import (
	"testing"

	"github.com/mududb/mududb/internal/tuple"
	"github.com/mududb/mududb/internal/typesys"
)

func testDesc() *tuple.TupleBinaryDesc {
	return tuple.NewDesc([]tuple.FieldDesc{{Name: "id", Type: typesys.NewScalar(typesys.I32)}})
}

func keyFor(t *testing.T, desc *tuple.TupleBinaryDesc, v int32) tuple.Key {
	t.Helper()
	b, err := tuple.Build(desc, []typesys.DatValue{typesys.NewI32(v)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tuple.NewKey(desc, b)
}

func TestInsertAndReadKey(t *testing.T) {
	desc := testDesc()
	tb := New(desc)
	k := keyFor(t, desc, 1)

	if tb.InsertKey(k, tuple.Binary("row1")) {
		t.Fatalf("expected no prior row")
	}
	row, ok := tb.ReadKey(k)
	if !ok || string(row) != "row1" {
		t.Fatalf("ReadKey = %q, %v", row, ok)
	}

	if !tb.InsertKey(k, tuple.Binary("row2")) {
		t.Fatalf("expected replace to report prior row")
	}
	row, _ = tb.ReadKey(k)
	if string(row) != "row2" {
		t.Fatalf("expected updated row, got %q", row)
	}
}

func TestReadRangeAscendingOrder(t *testing.T) {
	desc := testDesc()
	tb := New(desc)
	for _, v := range []int32{5, 1, 3, 2, 4} {
		tb.InsertKey(keyFor(t, desc, v), tuple.Binary{byte(v)})
	}

	rows, err := tb.ReadRange(nil, nil)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Key.Less(rows[i].Key) {
			t.Fatalf("rows not in ascending key order at index %d", i)
		}
	}
}

func TestRangeIteratorLazy(t *testing.T) {
	desc := testDesc()
	tb := New(desc)
	for _, v := range []int32{1, 2, 3} {
		tb.InsertKey(keyFor(t, desc, v), tuple.Binary{byte(v)})
	}

	it := tb.Range(nil, nil)
	defer it.Close()
	count := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 3 {
		t.Fatalf("iterated %d rows, want 3", count)
	}
}

func TestDeleteKey(t *testing.T) {
	desc := testDesc()
	tb := New(desc)
	k := keyFor(t, desc, 7)
	tb.InsertKey(k, tuple.Binary("x"))
	if !tb.DeleteKey(k) {
		t.Fatalf("expected delete to report existing row")
	}
	if _, ok := tb.ReadKey(k); ok {
		t.Fatalf("expected row to be gone after delete")
	}
}
