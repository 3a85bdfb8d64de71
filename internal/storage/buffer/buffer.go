// Package buffer implements MuduDB's fixed-population buffer pool (C6):
// pinning, dirty-swap, and the frame free list.
package buffer

import (
	"sync"

	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/storage/page"
)

// Disk is the seam Manager uses to read/write pages, satisfied by
// page.DataFile (possibly behind a file_id -> *DataFile lookup for
// multi-file tablespaces).
type Disk interface {
	ReadPageAt(idx page.Index, dst *page.Block) error
	WritePageAt(idx page.Index, src *page.Block) error
}

// ctrl holds the mutable control state of one Frame, protected by the
// frame's own lock (§4.4 "Concurrency contract").
type ctrl struct {
	mu         sync.Mutex
	cond       *sync.Cond
	isDirty    bool
	isFixed    bool
	isSwapping bool
	usedCount  int
	valid      bool // frame currently caches a page
}

// Frame is one slot of the buffer pool caching a single page (§3 glossary).
type Frame struct {
	Index int
	Page  page.Index
	Block *page.Block
	ctrl  ctrl
}

func newFrame(idx int, pageSize int) *Frame {
	f := &Frame{Index: idx, Block: page.NewBlock(pageSize)}
	f.ctrl.cond = sync.NewCond(&f.ctrl.mu)
	return f
}

// pin increments the frame's observer count. It does not check whether a
// swap-out is in progress.
func (f *Frame) pin() {
	f.ctrl.mu.Lock()
	defer f.ctrl.mu.Unlock()
	f.ctrl.usedCount++
}

// Unpin decrements the observer count and wakes any swap-out waiter once it
// reaches zero.
func (f *Frame) Unpin() {
	f.ctrl.mu.Lock()
	f.ctrl.usedCount--
	if f.ctrl.usedCount == 0 {
		f.ctrl.cond.Broadcast()
	}
	f.ctrl.mu.Unlock()
}

// SetFixed pins the frame permanently, refusing swap-out until cleared
// (§4.4: "Pinning refuses swap-out and fails with a storage error").
func (f *Frame) SetFixed(fixed bool) {
	f.ctrl.mu.Lock()
	f.ctrl.isFixed = fixed
	f.ctrl.mu.Unlock()
}

func (f *Frame) MarkDirty() {
	f.ctrl.mu.Lock()
	f.ctrl.isDirty = true
	f.ctrl.mu.Unlock()
}

// swapOut waits until usedCount reaches zero under the frame lock, then
// flips state to swapped, returning whether the page was dirty. It is the
// single suspension point of the buffer manager (§5).
func (f *Frame) swapOut() (wasDirty bool, err error) {
	f.ctrl.mu.Lock()
	defer f.ctrl.mu.Unlock()

	if f.ctrl.isFixed {
		return false, errs.New(errs.StorageErr, "cannot swap out a pinned frame")
	}

	f.ctrl.isSwapping = true
	for f.ctrl.usedCount > 0 {
		f.ctrl.cond.Wait()
	}
	wasDirty = f.ctrl.isDirty
	f.ctrl.isDirty = false
	f.ctrl.isSwapping = false
	f.ctrl.valid = false
	return wasDirty, nil
}

// Manager is the fixed-population frame array plus free list (§4.4).
type Manager struct {
	disk     Disk
	pageSize int

	frames []*Frame

	mu       sync.Mutex
	cache    map[page.Index]*Frame // page cache: page_index -> frame
	freeList []int                 // frame indices available for reuse
}

// NewManager builds a buffer pool of numFrames frames, each pageSize bytes.
func NewManager(disk Disk, numFrames, pageSize int) *Manager {
	m := &Manager{
		disk:     disk,
		pageSize: pageSize,
		frames:   make([]*Frame, numFrames),
		cache:    make(map[page.Index]*Frame),
	}
	for i := range m.frames {
		m.frames[i] = newFrame(i, pageSize)
		m.freeList = append(m.freeList, i)
	}
	return m
}

// GetPage returns the frame caching idx, pinning it for the caller. If the
// page is not already cached, it evicts a victim frame via swap-out,
// flushing it if dirty, then reads idx from disk (§4.4).
func (m *Manager) GetPage(idx page.Index) (*Frame, error) {
	m.mu.Lock()
	if f, ok := m.cache[idx]; ok {
		m.mu.Unlock()
		f.pin()
		return f, nil
	}

	victimIdx, err := m.popFreeFrame()
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	victim := m.frames[victimIdx]
	oldPage := victim.Page
	delete(m.cache, oldPage)
	m.mu.Unlock()

	wasDirty, err := victim.swapOut()
	if err != nil {
		return nil, err
	}
	if wasDirty && oldPage.IsValid() {
		if err := m.disk.WritePageAt(oldPage, victim.Block); err != nil {
			return nil, err
		}
	}

	victim.Block = page.NewBlock(m.pageSize)
	if err := m.disk.ReadPageAt(idx, victim.Block); err != nil {
		return nil, err
	}
	victim.Page = idx
	victim.ctrl.mu.Lock()
	victim.ctrl.valid = true
	victim.ctrl.mu.Unlock()
	victim.pin()

	m.mu.Lock()
	m.cache[idx] = victim
	m.mu.Unlock()

	return victim, nil
}

func (m *Manager) popFreeFrame() (int, error) {
	if len(m.freeList) == 0 {
		// Every frame caches a page: take any cached frame as the victim
		// (map iteration order makes the pick arbitrary).
		for _, f := range m.cache {
			return f.Index, nil
		}
		return 0, errs.New(errs.StorageErr, "buffer pool exhausted: no free frames")
	}
	// Pop the tail of the free list; once a frame is free it is
	// indistinguishable from any other.
	n := len(m.freeList) - 1
	idx := m.freeList[n]
	m.freeList = m.freeList[:n]
	return idx, nil
}

// Release returns a frame to the free list once nothing references its
// page anymore (called by the caller that knows the page is being dropped,
// e.g. table truncation).
func (m *Manager) Release(f *Frame) {
	m.mu.Lock()
	delete(m.cache, f.Page)
	m.freeList = append(m.freeList, f.Index)
	m.mu.Unlock()
}

// FlushDirty writes f's contents to disk and clears its dirty bit, without
// evicting it. Used by checkpointing.
func (m *Manager) FlushDirty(f *Frame) error {
	f.ctrl.mu.Lock()
	dirty := f.ctrl.isDirty
	f.ctrl.mu.Unlock()
	if !dirty {
		return nil
	}
	if err := m.disk.WritePageAt(f.Page, f.Block); err != nil {
		return err
	}
	f.ctrl.mu.Lock()
	f.ctrl.isDirty = false
	f.ctrl.mu.Unlock()
	return nil
}
