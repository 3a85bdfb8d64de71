package typesys

import (
	"math/rand"
	"testing"
)

// TestCodecRoundTrip verifies §8 property 1: recv(send(v)) == (v, len).
func TestCodecRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	types := []*DatType{
		NewScalar(I32),
		NewScalar(I64),
		NewScalar(F32),
		NewScalar(F64),
		NewStringType(0),
		NewScalar(Binary),
		NewArrayType(NewScalar(I32)),
	}
	for _, dt := range types {
		t.Run(dt.String(), func(t *testing.T) {
			ft := TableFor(dt.Id())
			for i := 0; i < 20; i++ {
				v := ft.Fuzz(dt, r)
				sent := ft.Send(v)
				got, used, err := ft.Recv(dt, sent)
				if err != nil {
					t.Fatalf("recv: %v", err)
				}
				if used != len(sent) {
					t.Fatalf("consumed %d, want %d", used, len(sent))
				}
				if !ft.Equal(got, v) {
					t.Fatalf("round trip mismatch: got %+v, want %+v", got, v)
				}
			}
		})
	}
}

// TestTextualRoundTrip verifies §8 property 2 for scalar and string types.
func TestTextualRoundTrip(t *testing.T) {
	cases := []struct {
		dt   *DatType
		text string
	}{
		{NewScalar(I32), "-1"},
		{NewScalar(I64), "9"},
		{NewStringType(0), "xy"},
	}
	for _, c := range cases {
		ft := TableFor(c.dt.Id())
		v, err := ft.Input(c.dt, c.text)
		if err != nil {
			t.Fatalf("input: %v", err)
		}
		back := ft.Output(v)
		v2, err := ft.Input(c.dt, back)
		if err != nil {
			t.Fatalf("input2: %v", err)
		}
		if !ft.Equal(v, v2) {
			t.Fatalf("textual round trip mismatch: %v != %v", v, v2)
		}
	}
}

// TestScenarioS1 implements spec.md §8 scenario S1.
func TestScenarioS1(t *testing.T) {
	dt := NewScalar(I32)
	ft := TableFor(I32)
	v := NewI32(-1)

	sent := ft.Send(v)
	want := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	if len(sent) != 4 || sent[0] != want[0] || sent[1] != want[1] || sent[2] != want[2] || sent[3] != want[3] {
		t.Fatalf("send(-1) = % x, want % x", sent, want)
	}

	got, used, err := ft.Recv(dt, sent)
	if err != nil || used != 4 || got.I32() != -1 {
		t.Fatalf("recv(send(-1)) = (%v, %d, %v), want (-1, 4, nil)", got, used, err)
	}

	if out := ft.Output(v); out != "-1" {
		t.Fatalf("output(-1) = %q, want -1", out)
	}
	in, err := ft.Input(dt, "-1")
	if err != nil || in.I32() != -1 {
		t.Fatalf("input(-1) = (%v, %v)", in, err)
	}
}

func TestDatTypeEquality(t *testing.T) {
	a := NewStringType(10)
	b := NewStringType(10)
	c := NewStringType(20)
	if !a.Equal(b) {
		t.Fatalf("expected structurally equal string types to be equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected string types with differing max len to differ")
	}
}
