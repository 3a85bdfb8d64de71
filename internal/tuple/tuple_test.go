package tuple

import (
	"testing"

	"github.com/mududb/mududb/internal/typesys"
)

func testDesc() *TupleBinaryDesc {
	return NewDesc([]FieldDesc{
		{Name: "a", Type: typesys.NewScalar(typesys.I32)},
		{Name: "b", Type: typesys.NewStringType(0)},
		{Name: "c", Type: typesys.NewScalar(typesys.I64)},
	})
}

// TestScenarioS2 implements spec.md §8 scenario S2.
func TestScenarioS2(t *testing.T) {
	d := testDesc()
	sdt := typesys.NewStringType(0)
	values := []typesys.DatValue{
		typesys.NewI32(1),
		typesys.NewStringValue(sdt, "xy"),
		typesys.NewI64(9),
	}
	tb, err := Build(d, values)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if tb[0] != 0 || tb[1] != 0 || tb[2] != 0 || tb[3] != 1 {
		t.Fatalf("fixed field a encoded wrong: % x", tb[:4])
	}

	b, err := Read(d, tb, 1)
	if err != nil {
		t.Fatalf("read b: %v", err)
	}
	if b.Str() != "xy" {
		t.Fatalf("b = %q, want xy", b.Str())
	}
}

// TestBuildReadRoundTrip implements spec.md §8 property 3.
func TestBuildReadRoundTrip(t *testing.T) {
	d := testDesc()
	sdt := typesys.NewStringType(0)
	values := []typesys.DatValue{
		typesys.NewI32(42),
		typesys.NewStringValue(sdt, "hello world"),
		typesys.NewI64(-7),
	}
	tb, err := Build(d, values)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i, v := range values {
		got, err := Read(d, tb, i)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if !typesys.TableFor(v.Type.Id()).Equal(got, v) {
			t.Fatalf("field %d: got %+v want %+v", i, got, v)
		}
	}

	all, err := ReadAll(d, tb)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	tb2, err := Build(d, all)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if string(tb) != string(tb2) {
		t.Fatalf("build(read-all(tb)) != tb")
	}
}

// TestCompareTotalOrder implements spec.md §8 property 4.
func TestCompareTotalOrder(t *testing.T) {
	d := testDesc()
	sdt := typesys.NewStringType(0)
	mk := func(a int32, s string, c int64) Binary {
		tb, err := Build(d, []typesys.DatValue{typesys.NewI32(a), typesys.NewStringValue(sdt, s), typesys.NewI64(c)})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		return tb
	}
	x := mk(1, "aa", 1)
	y := mk(1, "ab", 1)
	z := mk(2, "aa", 1)

	cxy, _ := Compare(d, x, y)
	cyx, _ := Compare(d, y, x)
	if (cxy < 0) != (cyx > 0) {
		t.Fatalf("compare not antisymmetric")
	}
	cxz, _ := Compare(d, x, z)
	cyz, _ := Compare(d, y, z)
	if !(cxy < 0 && cyz < 0 && cxz < 0) {
		t.Fatalf("compare not transitive for x<y<z")
	}

	eq, _ := Equal(d, x, x)
	hx, _ := Hash(d, x, typesys.NewHashSeed())
	hx2, _ := Hash(d, x, typesys.NewHashSeed())
	if !eq || hx != hx2 {
		t.Fatalf("equal tuples must hash equal")
	}
}

// TestUpdateInPlace and TestUpdateRewriteTail implement spec.md §8 property 5.
func TestUpdateInPlace(t *testing.T) {
	d := testDesc()
	sdt := typesys.NewStringType(0)
	tb, err := Build(d, []typesys.DatValue{
		typesys.NewI32(1), typesys.NewStringValue(sdt, "hello world"), typesys.NewI64(9),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	newB := typesys.NewStringValue(sdt, "hi") // shorter, fits in old capacity
	deltas, err := Update(d, 1, newB, tb)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	tb2 := Apply(tb, deltas)

	got, err := Read(d, tb2, 1)
	if err != nil || got.Str() != "hi" {
		t.Fatalf("field 1 after update = %+v, %v", got, err)
	}
	gotA, _ := Read(d, tb2, 0)
	gotC, _ := Read(d, tb2, 2)
	if gotA.I32() != 1 || gotC.I64() != 9 {
		t.Fatalf("untouched fields changed: a=%v c=%v", gotA, gotC)
	}
}

func TestUpdateRewriteTail(t *testing.T) {
	d := NewDesc([]FieldDesc{
		{Name: "a", Type: typesys.NewScalar(typesys.I32)},
		{Name: "b", Type: typesys.NewStringType(0)},
		{Name: "c", Type: typesys.NewStringType(0)},
	})
	sdt := typesys.NewStringType(0)
	tb, err := Build(d, []typesys.DatValue{
		typesys.NewI32(1), typesys.NewStringValue(sdt, "x"), typesys.NewStringValue(sdt, "y"),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	longer := typesys.NewStringValue(sdt, "this value is much longer than the capacity available")
	deltas, err := Update(d, 1, longer, tb)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	tb2 := Apply(tb, deltas)

	got1, err := Read(d, tb2, 1)
	if err != nil || got1.Str() != longer.Str() {
		t.Fatalf("field 1 after rewrite = %+v, %v", got1, err)
	}
	got2, err := Read(d, tb2, 2)
	if err != nil || got2.Str() != "y" {
		t.Fatalf("field 2 after rewrite = %+v, %v", got2, err)
	}
}
