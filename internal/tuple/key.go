package tuple

import "github.com/mududb/mududb/internal/typesys"

// Key is a (descriptor, bytes) pair usable as an ordered, hashable map key
// (§3 "TupleKey", §4 glossary). Ordering, equality, and hashing are all
// computed field-by-field through the tuple's own Compare/Equal/Hash, never
// by raw byte comparison, so two tuples that decode equal always hash equal
// even if their on-wire bytes differ (e.g. a variable field using spare
// slot capacity).
type Key struct {
	Desc  *TupleBinaryDesc
	Bytes Binary
}

// NewKey wraps an already-encoded tuple as a Key.
func NewKey(desc *TupleBinaryDesc, b Binary) Key { return Key{Desc: desc, Bytes: b} }

// Less reports whether k sorts before other. Both keys are decoded with k's
// descriptor (other.Desc is not consulted); panics if either fails to decode
// against it — callers never mix key shapes within one index.
func (k Key) Less(other Key) bool {
	c, err := Compare(k.Desc, k.Bytes, other.Bytes)
	if err != nil {
		// A malformed tuple key is a decode-time bug, not a recoverable
		// ordering outcome; surface it the same way btree.Less would panic
		// on a type assertion failure.
		panic(err)
	}
	return c < 0
}

// Equal reports whether k and other decode to equal value sequences.
func (k Key) Equal(other Key) bool {
	eq, err := Equal(k.Desc, k.Bytes, other.Bytes)
	if err != nil {
		panic(err)
	}
	return eq
}

// Hash returns k's hash, seeded from typesys.NewHashSeed().
func (k Key) Hash() uint64 {
	h, err := Hash(k.Desc, k.Bytes, typesys.NewHashSeed())
	if err != nil {
		panic(err)
	}
	return h
}

// CacheKey returns a Go-comparable string usable directly as a map key.
// Tuple bytes, not decoded values, back this string — two keys with equal
// CacheKey() always have Equal() == true, but the converse does not hold
// for tuples using different slot-capacity packings of the same values; the
// lock manager and in-memory table always construct keys through the same
// TupleBinaryDesc.Build path, so this distinction does not arise in
// practice.
func (k Key) CacheKey() string { return string(k.Bytes) }
