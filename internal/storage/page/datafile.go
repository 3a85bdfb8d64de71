package page

import (
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"

	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/typesys"
)

// WALAppender is the seam DataFile uses to log extent allocation before
// mutating in-memory state (§4.3: "every extent allocation first emits a
// WAL record ... then updates in-memory state"). The concrete WAL type
// (C7) implements this.
type WALAppender interface {
	AppendSync(payload []byte) error
}

// DataFile is one open file hosting a sequence of extents (§3).
type DataFile struct {
	FileID   uint64
	PageSize int

	mu      sync.Mutex
	file    *os.File
	lock    *flock.Flock
	extents map[uint64]*Extent // extentID -> extent
	free    map[uint64]bool    // extentID -> has free pages
	nextExt uint64
	nPages  uint64
}

// OpenDataFile opens or creates a numbered data file (§6: "numbered
// <file_id> binary data files"). An advisory flock (grounded on the
// erigon-lib dependency set's github.com/gofrs/flock) guards against two
// processes opening the same file_id concurrently.
func OpenDataFile(dir string, fileID uint64, pageSize int) (*DataFile, error) {
	path := fmt.Sprintf("%s/%d.dat", dir, fileID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.IOErr, "open data file", err)
	}
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.IOErr, "lock data file", err)
	}
	if !locked {
		f.Close()
		return nil, errs.New(errs.IOErr, "data file is locked by another process")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.IOErr, "stat data file", err)
	}

	df := &DataFile{
		FileID:   fileID,
		PageSize: pageSize,
		file:     f,
		lock:     fl,
		extents:  make(map[uint64]*Extent),
		free:     make(map[uint64]bool),
		nPages:   uint64(info.Size()) / uint64(pageSize),
	}
	return df, nil
}

func (df *DataFile) Close() error {
	df.mu.Lock()
	defer df.mu.Unlock()
	df.lock.Unlock()
	return df.file.Close()
}

// ReadPage reads page pageID into dst (dst.Size must equal df.PageSize).
func (df *DataFile) ReadPage(pageID uint64, dst *Block) error {
	df.mu.Lock()
	defer df.mu.Unlock()
	off := int64(pageID) * int64(df.PageSize)
	if _, err := df.file.ReadAt(dst.Data, off); err != nil {
		return errs.Wrap(errs.IOErr, "read page", err)
	}
	return dst.Verify()
}

// WritePage writes src to pageID; src must already be sealed (checksum
// computed) by the caller.
func (df *DataFile) WritePage(pageID uint64, src *Block) error {
	df.mu.Lock()
	defer df.mu.Unlock()
	off := int64(pageID) * int64(df.PageSize)
	if _, err := df.file.WriteAt(src.Data, off); err != nil {
		return errs.Wrap(errs.IOErr, "write page", err)
	}
	return nil
}

// ReadPageAt reads the page addressed by idx, which must belong to this
// file (idx.FileID == df.FileID). It adapts ReadPage to the page.Index
// addressing scheme used by the buffer manager (C6).
func (df *DataFile) ReadPageAt(idx Index, dst *Block) error {
	if idx.FileID != df.FileID {
		return errs.New(errs.StorageErr, "page index does not belong to this data file")
	}
	return df.ReadPage(idx.PageID, dst)
}

// WritePageAt is the Index-addressed counterpart of WritePage.
func (df *DataFile) WritePageAt(idx Index, src *Block) error {
	if idx.FileID != df.FileID {
		return errs.New(errs.StorageErr, "page index does not belong to this data file")
	}
	return df.WritePage(idx.PageID, src)
}

// Sync fsyncs the underlying file.
func (df *DataFile) Sync() error {
	df.mu.Lock()
	defer df.mu.Unlock()
	if err := df.file.Sync(); err != nil {
		return errs.Wrap(errs.IOErr, "fsync data file", err)
	}
	return nil
}

// AllocateExtent returns an extent with free pages: a non-full extent from
// the file's free set if there is one, otherwise a new extent of pageCount
// pages made by extending the file. A new extent's initialized header page
// is logged to wal before in-memory state is updated (§4.3).
func (df *DataFile) AllocateExtent(tablespaceID uint64, pageCount uint64, wal WALAppender) (*Extent, error) {
	df.mu.Lock()

	// (a) scan free-extent set for reuse.
	for extID, hasFree := range df.free {
		if hasFree && !df.extents[extID].IsFull() {
			ext := df.extents[extID]
			df.mu.Unlock()
			return ext, nil
		}
	}

	// (b) extend the file otherwise.
	extentID := df.nextExt
	df.nextExt++
	startPage := df.nPages
	df.nPages += pageCount
	df.mu.Unlock()

	ext := NewExtent(df.FileID, tablespaceID, extentID, startPage, pageCount)

	header := NewBlock(df.PageSize)
	header.SetPageID(startPage)
	encodeExtentHeader(header.Payload(), ext)
	header.Seal()

	if wal != nil {
		if err := wal.AppendSync(header.Data); err != nil {
			return nil, err
		}
	}

	if err := df.WritePage(startPage, header); err != nil {
		return nil, err
	}

	df.mu.Lock()
	df.extents[extentID] = ext
	df.free[extentID] = true
	df.mu.Unlock()

	return ext, nil
}

// encodeExtentHeader writes [extent_id u64][start_page u64][page_count
// u64][bitmap...] into payload (§4.3).
func encodeExtentHeader(payload []byte, e *Extent) {
	typesys.NetOrder.PutUint64(payload[0:8], e.ExtentID)
	typesys.NetOrder.PutUint64(payload[8:16], e.StartPage)
	typesys.NetOrder.PutUint64(payload[16:24], e.PageCount)
	copy(payload[24:], e.Bitmap)
}
