package resultset

import (
	"testing"

	"github.com/mududb/mududb/internal/typesys"
)

func TestTupleValueGet(t *testing.T) {
	desc := &DatumDesc{Fields: []TupleFieldDesc{
		{Name: "id", Type: typesys.NewScalar(typesys.I32)},
		{Name: "name", Type: typesys.NewStringType(0)},
	}}
	row := TupleValue{Desc: desc, Fields: []typesys.DatValue{
		typesys.NewI32(7),
		typesys.NewStringValue(desc.Fields[1].Type, "alice"),
	}}

	id, ok := row.Get("id")
	if !ok || id.I32() != 7 {
		t.Fatalf("Get(id) = %v, %v", id, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Fatalf("expected missing column to report false")
	}
}

func TestEntityNaming(t *testing.T) {
	if ObjectName("Order") != "object_Order" {
		t.Fatalf("unexpected object name: %s", ObjectName("Order"))
	}
	if FieldName("Order") != "field_Order" {
		t.Fatalf("unexpected field name: %s", FieldName("Order"))
	}
}
