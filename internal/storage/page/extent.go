package page

import "github.com/mududb/mududb/internal/kernel/errs"

// Extent is a fixed-size run of contiguous pages within a data file (§3).
// Its header occupies the first page of the extent; bit 0 of the bitmap
// covers that header page itself and is set at creation.
type Extent struct {
	FileID       uint64
	TablespaceID uint64
	ExtentID     uint64
	StartPage    uint64
	PageCount    uint64
	Bitmap       []byte // one bit per page in the extent
}

// NewExtent creates an extent descriptor with the header page pre-allocated.
func NewExtent(fileID, tablespaceID, extentID, startPage, pageCount uint64) *Extent {
	e := &Extent{
		FileID:       fileID,
		TablespaceID: tablespaceID,
		ExtentID:     extentID,
		StartPage:    startPage,
		PageCount:    pageCount,
		Bitmap:       make([]byte, (pageCount+7)/8),
	}
	e.setBit(0, true)
	return e
}

func (e *Extent) setBit(i uint64, v bool) {
	byteIdx, bit := i/8, byte(1<<(i%8))
	if v {
		e.Bitmap[byteIdx] |= bit
	} else {
		e.Bitmap[byteIdx] &^= bit
	}
}

func (e *Extent) testBit(i uint64) bool {
	return e.Bitmap[i/8]&(1<<(i%8)) != 0
}

// AllocatePage returns the PageID of the first free page in the extent,
// marking it allocated. It returns NoSuchElement if the extent is full.
func (e *Extent) AllocatePage() (uint64, error) {
	for i := uint64(0); i < e.PageCount; i++ {
		if !e.testBit(i) {
			e.setBit(i, true)
			return e.StartPage + i, nil
		}
	}
	return 0, errs.New(errs.NoSuchElement, "extent is full")
}

// FreePage clears the allocation bit for pageID.
func (e *Extent) FreePage(pageID uint64) error {
	if pageID < e.StartPage || pageID >= e.StartPage+e.PageCount {
		return errs.New(errs.IndexOutOfRange, "page does not belong to extent")
	}
	e.setBit(pageID-e.StartPage, false)
	return nil
}

// IsFull reports whether every page in the extent is allocated.
func (e *Extent) IsFull() bool {
	for i := uint64(0); i < e.PageCount; i++ {
		if !e.testBit(i) {
			return false
		}
	}
	return true
}
