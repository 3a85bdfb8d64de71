package page

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mududb/mududb/internal/kernel/errs"
)

// pagesPerExtent is the fixed extent size used by every tablespace.
const pagesPerExtent = 128

// TableSpace is the extent list owned by one table (§3), persisted as JSON
// keyed by table_id (§6), mirroring the teacher's meta.json persistence
// idiom in internal/storage/manager.
type TableSpace struct {
	TableID uint64 `json:"table_id"`

	mu      sync.Mutex
	Extents []Index `json:"extents"` // one entry per extent's header page

	path string
	df   *DataFile
}

// NewTableSpace creates an empty tablespace for tableID, backed by df.
func NewTableSpace(tableID uint64, path string, df *DataFile) *TableSpace {
	return &TableSpace{TableID: tableID, path: path, df: df}
}

// LoadTableSpace reads a previously persisted tablespace file.
func LoadTableSpace(path string, df *DataFile) (*TableSpace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.IOErr, "read tablespace", err)
	}
	var ts TableSpace
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, errs.Wrap(errs.DecodeErr, "parse tablespace json", err)
	}
	ts.path = path
	ts.df = df
	return &ts, nil
}

// Save persists the tablespace as pretty-printed JSON, matching the
// teacher's json.MarshalIndent(meta, "", "  ") convention.
func (ts *TableSpace) Save() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	data, err := json.MarshalIndent(ts, "", "  ")
	if err != nil {
		return errs.Wrap(errs.EncodeErr, "marshal tablespace", err)
	}
	if err := os.WriteFile(ts.path, data, 0644); err != nil {
		return errs.Wrap(errs.IOErr, "write tablespace", err)
	}
	return nil
}

// AllocatePage allocates a page from the last extent; if full, obtains a
// new extent from df, appends it, and retries once (§4.3).
func (ts *TableSpace) AllocatePage(wal WALAppender) (uint64, error) {
	ts.mu.Lock()
	var lastExtentID uint64
	haveExtent := len(ts.Extents) > 0
	if haveExtent {
		lastExtentID = ts.extentIDAt(len(ts.Extents) - 1)
	}
	ts.mu.Unlock()

	if haveExtent {
		ts.df.mu.Lock()
		ext, ok := ts.df.extents[lastExtentID]
		ts.df.mu.Unlock()
		if ok && !ext.IsFull() {
			return ext.AllocatePage()
		}
	}

	ext, err := ts.df.AllocateExtent(ts.TableID, pagesPerExtent, wal)
	if err != nil {
		return 0, err
	}
	ts.mu.Lock()
	ts.Extents = append(ts.Extents, Index{FileID: ts.df.FileID, PageID: ext.StartPage})
	ts.mu.Unlock()

	return ext.AllocatePage()
}

func (ts *TableSpace) extentIDAt(i int) uint64 {
	// The extent's header page is its StartPage; AllocateExtent assigns
	// extent IDs sequentially from 0, and the header page of extent N is
	// recorded at Extents[N], so the extent ID equals its position for a
	// tablespace that never reuses foreign extents.
	return uint64(i)
}

// Pages returns every PageIndex this tablespace owns, across all extents,
// for use by a table-scan or recovery pass.
func (ts *TableSpace) Pages() []Index {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	var out []Index
	for _, startIdx := range ts.Extents {
		ext := ts.df.extents[ts.extentIDForIndex(startIdx)]
		if ext == nil {
			continue
		}
		for i := uint64(0); i < ext.PageCount; i++ {
			out = append(out, Index{FileID: ext.FileID, PageID: ext.StartPage + i})
		}
	}
	return out
}

func (ts *TableSpace) extentIDForIndex(idx Index) uint64 {
	for id, ext := range ts.df.extents {
		if ext.StartPage == idx.PageID {
			return id
		}
	}
	return 0
}

func tablespacePath(dbDir string, tableID uint64) string {
	return fmt.Sprintf("%s/ts_%d.json", dbDir, tableID)
}
