package buffer

import (
	"testing"

	"github.com/mududb/mududb/internal/storage/page"
)

// fakeDisk is an in-memory Disk used to test the buffer pool without real
// files.
type fakeDisk struct {
	pages map[page.Index][]byte
}

func newFakeDisk() *fakeDisk {
	return &fakeDisk{pages: make(map[page.Index][]byte)}
}

func (d *fakeDisk) ReadPageAt(idx page.Index, dst *page.Block) error {
	if b, ok := d.pages[idx]; ok {
		copy(dst.Data, b)
		return nil
	}
	dst.SetPageID(idx.PageID)
	dst.Seal()
	return nil
}

func (d *fakeDisk) WritePageAt(idx page.Index, src *page.Block) error {
	buf := make([]byte, len(src.Data))
	copy(buf, src.Data)
	d.pages[idx] = buf
	return nil
}

func TestGetPageCachesAndPins(t *testing.T) {
	disk := newFakeDisk()
	m := NewManager(disk, 2, 64)

	idx := page.Index{FileID: 1, PageID: 5}
	f1, err := m.GetPage(idx)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if f1.Page != idx {
		t.Fatalf("frame page = %+v, want %+v", f1.Page, idx)
	}

	f2, err := m.GetPage(idx)
	if err != nil {
		t.Fatalf("GetPage (cached): %v", err)
	}
	if f2 != f1 {
		t.Fatalf("expected same frame on cache hit")
	}
	f1.Unpin()
	f2.Unpin()
}

func TestGetPageEvictsAndFlushesDirty(t *testing.T) {
	disk := newFakeDisk()
	m := NewManager(disk, 1, 64)

	idxA := page.Index{FileID: 1, PageID: 1}
	idxB := page.Index{FileID: 1, PageID: 2}

	fa, err := m.GetPage(idxA)
	if err != nil {
		t.Fatalf("GetPage A: %v", err)
	}
	fa.MarkDirty()
	fa.Unpin()

	fb, err := m.GetPage(idxB)
	if err != nil {
		t.Fatalf("GetPage B: %v", err)
	}
	if fb.Page != idxB {
		t.Fatalf("frame page = %+v, want %+v", fb.Page, idxB)
	}
	if _, ok := disk.pages[idxA]; !ok {
		t.Fatalf("expected dirty page A to be flushed to disk on eviction")
	}
	fb.Unpin()
}

func TestSetFixedBlocksSwapOut(t *testing.T) {
	disk := newFakeDisk()
	m := NewManager(disk, 1, 64)

	idxA := page.Index{FileID: 1, PageID: 1}
	fa, err := m.GetPage(idxA)
	if err != nil {
		t.Fatalf("GetPage A: %v", err)
	}
	fa.SetFixed(true)
	fa.Unpin()

	idxB := page.Index{FileID: 1, PageID: 2}
	if _, err := m.GetPage(idxB); err == nil {
		t.Fatalf("expected error evicting a fixed frame")
	}
}
