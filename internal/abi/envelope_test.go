package abi

import (
	"testing"

	"github.com/mududb/mududb/internal/typesys"
)

func TestFrameUnframeRoundTrip(t *testing.T) {
	payload := []byte("hello world")
	framed := Frame(payload)
	got, consumed, err := Unframe(framed)
	if err != nil {
		t.Fatalf("Unframe: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
	if consumed != len(framed) {
		t.Fatalf("consumed %d, want %d", consumed, len(framed))
	}
}

func TestEncodeDecodeJSONRoundTrip(t *testing.T) {
	in := QueryParam{SQL: "select 1", Params: []typesys.DatValue{typesys.NewI32(42)}}
	buf, err := EncodeJSON(in)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	var out QueryParam
	if err := DecodeJSON(buf, &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.SQL != in.SQL {
		t.Fatalf("SQL = %q, want %q", out.SQL, in.SQL)
	}
}

func TestUnframeTruncated(t *testing.T) {
	if _, _, err := Unframe([]byte{0, 0}); err == nil {
		t.Fatalf("expected error on truncated length prefix")
	}
	if _, _, err := Unframe([]byte{0, 0, 0, 5, 1, 2}); err == nil {
		t.Fatalf("expected error on truncated payload")
	}
}
