package txn

import (
	"testing"

	"github.com/mududb/mududb/internal/abi"
	"github.com/mududb/mududb/internal/snapshot"
	"github.com/mududb/mududb/internal/tuple"
	"github.com/mududb/mududb/internal/typesys"
)

func ordersRowDesc() *tuple.TupleBinaryDesc {
	return tuple.NewDesc([]tuple.FieldDesc{
		{Name: "id", Type: typesys.NewScalar(typesys.I32)},
		{Name: "qty", Type: typesys.NewScalar(typesys.I64)},
	})
}

func TestDatabaseInsertThenQueryRoundTrip(t *testing.T) {
	db := NewDatabase(snapshot.NewManager(), nil)
	if err := db.CreateTable("orders", ordersRowDesc()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	s := NewSession(db)
	tx, err := s.BeginTx()
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}

	insertParam := abi.CommandParam{
		OID:    tx.ID,
		SQL:    "INSERT INTO orders",
		Params: []typesys.DatValue{typesys.NewI32(1), typesys.NewI64(7)},
	}
	cmdResult, err := db.Command(insertParam)
	if err != nil {
		t.Fatalf("Command insert: %v", err)
	}
	if cmdResult.RowsAffected != 1 {
		t.Fatalf("expected 1 row affected, got %d", cmdResult.RowsAffected)
	}

	queryResult, err := db.Query(abi.QueryParam{OID: tx.ID, SQL: "SELECT * FROM orders"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !queryResult.Done {
		t.Fatalf("expected single-batch result to report Done")
	}
	if len(queryResult.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(queryResult.Rows))
	}
	if queryResult.Rows[0][0].I32() != 1 || queryResult.Rows[0][1].I64() != 7 {
		t.Fatalf("unexpected row contents: %+v", queryResult.Rows[0])
	}

	if err := s.CommitTx(); err != nil {
		t.Fatalf("CommitTx: %v", err)
	}
}

func TestDatabaseQueryRejectsUnboundXID(t *testing.T) {
	db := NewDatabase(snapshot.NewManager(), nil)
	if err := db.CreateTable("orders", ordersRowDesc()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := db.Query(abi.QueryParam{SQL: "SELECT * FROM orders"}); err == nil {
		t.Fatalf("expected an error for a query tagged with no bound session")
	}
}

func TestDatabaseQuerySingleBatchAndFetchUnknownCursor(t *testing.T) {
	db := NewDatabase(snapshot.NewManager(), nil)
	if err := db.CreateTable("orders", ordersRowDesc()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	s := NewSession(db)
	tx, err := s.BeginTx()
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}

	for i := int32(0); i < 3; i++ {
		_, err := db.Command(abi.CommandParam{
			OID:    tx.ID,
			SQL:    "INSERT INTO orders",
			Params: []typesys.DatValue{typesys.NewI32(i), typesys.NewI64(int64(i))},
		})
		if err != nil {
			t.Fatalf("Command insert %d: %v", i, err)
		}
	}

	first, err := db.Query(abi.QueryParam{OID: tx.ID, SQL: "SELECT * FROM orders"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !first.Done || len(first.Rows) != 3 {
		t.Fatalf("expected all 3 rows in the first batch, got %d rows, done=%v", len(first.Rows), first.Done)
	}

	if _, err := db.Fetch(abi.FetchParam{OID: tx.ID, CursorID: 999, MaxRows: 1}); err == nil {
		t.Fatalf("expected an error fetching an unknown cursor")
	}
}
