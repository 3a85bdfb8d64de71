// Package xid defines MuduDB's three identifier kinds: OID, XID, and LSN.
package xid

import (
	"encoding/json"
	"sync/atomic"

	"github.com/google/uuid"
)

// OID is an opaque, process-lifetime-unique identifier.
type OID uint64

// oidCounter is an atomic counter used to hand out OIDs, mirroring the
// teacher's txIDCounter pattern.
var oidCounter uint64

// NewOID allocates a fresh, process-unique OID.
func NewOID() OID {
	return OID(atomic.AddUint64(&oidCounter, 1))
}

// XID is a 128-bit transaction identifier. The zero value means "no
// transaction".
type XID [16]byte

// NoXID is the reserved "no transaction" sentinel.
var NoXID = XID{}

// NewXID allocates a fresh transaction identifier from a random UUID.
func NewXID() XID {
	var x XID
	copy(x[:], uuid.New()[:])
	return x
}

// IsZero reports whether x is the reserved NoXID sentinel.
func (x XID) IsZero() bool {
	return x == NoXID
}

// String renders x in canonical UUID form.
func (x XID) String() string {
	u, err := uuid.FromBytes(x[:])
	if err != nil {
		return uuid.Nil.String()
	}
	return u.String()
}

// MarshalJSON renders x as its canonical UUID string, so XIDs carried in
// ABI envelopes (§6) round-trip through JSON the same way they print.
func (x XID) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.String())
}

// UnmarshalJSON parses a canonical UUID string back into x.
func (x *XID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseXID(s)
	if err != nil {
		return err
	}
	*x = parsed
	return nil
}

// ParseXID parses a canonical UUID string back into an XID.
func ParseXID(s string) (XID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return XID{}, err
	}
	var x XID
	copy(x[:], u[:])
	return x, nil
}

// LSN is a monotonically increasing log sequence number.
type LSN uint64

// Allocator hands out strictly monotonic LSNs, safe for concurrent callers.
type Allocator struct {
	next uint64
}

// NewAllocator returns an Allocator that will hand out start as its first LSN.
func NewAllocator(start LSN) *Allocator {
	a := &Allocator{}
	atomic.StoreUint64(&a.next, uint64(start))
	return a
}

// Next allocates and returns the next LSN.
func (a *Allocator) Next() LSN {
	return LSN(atomic.AddUint64(&a.next, 1) - 1)
}

// Peek returns the LSN that will be handed out next, without allocating it.
func (a *Allocator) Peek() LSN {
	return LSN(atomic.LoadUint64(&a.next))
}

// Reset reinitializes the allocator to hand out start next. Used by WAL
// recovery once the highest durable LSN is known.
func (a *Allocator) Reset(start LSN) {
	atomic.StoreUint64(&a.next, uint64(start))
}
