// Package page implements MuduDB's paged storage primitives (C5): page
// identity, the fixed page header/trailer layout, extents, data files, and
// per-table tablespaces.
package page

import (
	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/typesys"
)

// HeaderSize is the fixed 16-byte page header: page_id (u64) + lsn (u64)
// (§3 "PageBlock").
const HeaderSize = 16

// TrailerSize is the fixed 8-byte checksum trailer.
const TrailerSize = 8

// Index addresses a single page: (file_id, page_id). The zero value
// (file_id=0, page_id=0) is reserved as invalid (§3).
type Index struct {
	FileID uint64
	PageID uint64
}

// Invalid is the reserved "no page" sentinel.
var Invalid = Index{}

func (i Index) IsValid() bool { return i != Invalid }

// Block is one page-sized byte buffer. Layout: [header 16B][payload][trailer
// checksum 8B] (§3).
type Block struct {
	Size int
	Data []byte
}

// NewBlock allocates a zeroed block of the given page size.
func NewBlock(size int) *Block {
	return &Block{Size: size, Data: make([]byte, size)}
}

func (b *Block) PageID() uint64 { return typesys.NetOrder.Uint64(b.Data[0:8]) }
func (b *Block) LSN() uint64    { return typesys.NetOrder.Uint64(b.Data[8:16]) }

func (b *Block) SetPageID(id uint64) { typesys.NetOrder.PutUint64(b.Data[0:8], id) }
func (b *Block) SetLSN(lsn uint64)   { typesys.NetOrder.PutUint64(b.Data[8:16], lsn) }

// Payload returns the mutable region between header and trailer.
func (b *Block) Payload() []byte {
	return b.Data[HeaderSize : b.Size-TrailerSize]
}

// Seal computes and writes the trailer checksum over everything before it.
func (b *Block) Seal() {
	sum := typesys.Checksum(b.Data[:b.Size-TrailerSize])
	typesys.NetOrder.PutUint32(b.Data[b.Size-4:b.Size], sum)
	// upper 4 bytes of the 8-byte trailer are reserved/zero.
}

// Verify recomputes the checksum and compares it against the trailer,
// returning a StorageErr (fatal per §7) on mismatch.
func (b *Block) Verify() error {
	want := typesys.NetOrder.Uint32(b.Data[b.Size-4 : b.Size])
	got := typesys.Checksum(b.Data[:b.Size-TrailerSize])
	if want != got {
		return errs.New(errs.StorageErr, "page checksum mismatch")
	}
	return nil
}
