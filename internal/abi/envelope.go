// Package abi defines the wire envelope shared between the WASM guest and
// the host runtime (C13's host-call ABI): length-prefixed, network-byte-
// order framed parameters and results for the query/fetch/command host
// calls (§4.12).
package abi

import (
	"encoding/json"

	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/typesys"
	"github.com/mududb/mududb/internal/xid"
)

// Frame writes payload as [u32 length][bytes] in network byte order, the
// framing every host call uses to cross the guest/host memory boundary.
func Frame(payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	typesys.NetOrder.PutUint32(buf[0:4], uint32(len(payload)))
	copy(buf[4:], payload)
	return buf
}

// Unframe reads one [u32 length][bytes] frame from the front of buf,
// returning the payload and the number of bytes consumed.
func Unframe(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) < 4 {
		return nil, 0, errs.New(errs.DecodeErr, "truncated ABI frame length")
	}
	n := typesys.NetOrder.Uint32(buf[0:4])
	if len(buf) < 4+int(n) {
		return nil, 0, errs.New(errs.DecodeErr, "truncated ABI frame payload")
	}
	return buf[4 : 4+n], 4 + int(n), nil
}

// QueryParam is the argument to the "query" host call (§6: "oid: XID,
// stmt, params"): the calling transaction's XID, a parameterized SQL text,
// and positional bind values. The host looks up the session bound to oid
// to execute against (§4.11); an absent binding decodes to NoneErr.
type QueryParam struct {
	OID    xid.XID            `json:"oid"`
	SQL    string             `json:"stmt"`
	Params []typesys.DatValue `json:"params"`
}

// QueryResult is the result of a "query" host call: a column descriptor
// plus the first batch of row values, encoded positionally. CursorID
// identifies the open server-side cursor for subsequent "fetch" calls when
// Done is false; when Done is true the entire result fit in one batch and
// there is nothing left to fetch.
type QueryResult struct {
	Columns  []string             `json:"columns"`
	Rows     [][]typesys.DatValue `json:"rows"`
	CursorID uint64               `json:"cursor_id"`
	Done     bool                 `json:"done"`
}

// CommandParam is the argument to the "command" host call (§6): the same
// (oid, stmt, params) shape as QueryParam, for statements that mutate
// state rather than returning rows (INSERT/UPDATE/DELETE/DDL).
type CommandParam struct {
	OID    xid.XID            `json:"oid"`
	SQL    string             `json:"stmt"`
	Params []typesys.DatValue `json:"params"`
}

// CommandResult is the result of a "command" host call.
type CommandResult struct {
	RowsAffected int64 `json:"rows_affected"`
}

// FetchParam is the argument to the "fetch" host call, which pages through
// an already-open query result. OID routes the call to the owning session
// exactly as QueryParam/CommandParam's does (§4.11).
type FetchParam struct {
	OID      xid.XID `json:"oid"`
	CursorID uint64  `json:"cursor_id"`
	MaxRows  int     `json:"max_rows"`
}

// FetchResult is the result of a "fetch" host call.
type FetchResult struct {
	Rows [][]typesys.DatValue `json:"rows"`
	Done bool                 `json:"done"`
}

// EncodeJSON marshals v and frames it, the envelope format used for every
// host call in and out of the guest (§4.12).
func EncodeJSON(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Wrap(errs.EncodeErr, "encode ABI envelope", err)
	}
	return Frame(body), nil
}

// DecodeJSON unframes buf and unmarshals it into v.
func DecodeJSON(buf []byte, v any) error {
	body, _, err := Unframe(buf)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errs.Wrap(errs.DecodeErr, "decode ABI envelope", err)
	}
	return nil
}
