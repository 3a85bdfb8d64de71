package walog

import (
	"sort"
	"sync/atomic"

	"github.com/mududb/mududb/internal/xid"
)

// DefaultChannels is the channel count used when none is configured.
const DefaultChannels = 4

// WAL is the write-ahead log: a fixed set of independent channels behind a
// single shared LSN space, a durable-LSN syncer, and a background fsync
// pipeline (§4.5).
type WAL struct {
	channels  []*channel
	allocator *xid.Allocator
	sync      *syncer
	next      uint64 // round-robin channel selector, atomic

	flushReq chan struct{}
	done     chan struct{}
}

// Open creates or reopens a WAL rooted at dir with the given channel count,
// starting LSN allocation from startLSN (the value recovered from the last
// checkpoint, or 1 for a fresh database).
func Open(dir string, numChannels int, startLSN xid.LSN) (*WAL, error) {
	if numChannels <= 0 {
		numChannels = DefaultChannels
	}
	w := &WAL{
		allocator: xid.NewAllocator(startLSN),
		sync:      newSyncer(),
		flushReq:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for i := 0; i < numChannels; i++ {
		c, err := openChannel(dir, i)
		if err != nil {
			return nil, err
		}
		w.channels = append(w.channels, c)
	}
	go w.fsyncPipeline()
	return w, nil
}

// Close stops the fsync pipeline and closes every channel.
func (w *WAL) Close() error {
	close(w.done)
	var firstErr error
	for _, c := range w.channels {
		if err := c.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *WAL) pickChannel() *channel {
	i := atomic.AddUint64(&w.next, 1)
	return w.channels[int(i)%len(w.channels)]
}

// Append assigns a new LSN to payload, writes it to one of the channels,
// and returns without waiting for durability (§4.5: group-commit friendly
// path for non-commit records).
func (w *WAL) Append(payload []byte) (xid.LSN, error) {
	lsn := w.allocator.Next()
	c := w.pickChannel()
	if err := c.append(uint64(lsn), payload); err != nil {
		return 0, err
	}
	w.requestFlush()
	return lsn, nil
}

// AppendSync appends payload and blocks until it is durable, i.e. until the
// fsync pipeline has confirmed the assigned LSN. This implements
// page.WALAppender for the paged-storage layer's "log before state update"
// guarantee, and backs txn.Database's per-mutation log records. The
// session commit path (txn.Session.CommitTx) writes no WAL record.
func (w *WAL) AppendSync(payload []byte) error {
	lsn, err := w.Append(payload)
	if err != nil {
		return err
	}
	w.sync.waitFor(lsn)
	return nil
}

func (w *WAL) requestFlush() {
	select {
	case w.flushReq <- struct{}{}:
	default:
	}
}

// fsyncPipeline is the background task that batches fsync calls: it wakes
// on every flush request, syncs all channels, and advances the durable LSN
// to the allocator's last-issued value. Because writers always request a
// flush after appending, every outstanding append is covered by the next
// sync pass (§4.5).
func (w *WAL) fsyncPipeline() {
	for {
		select {
		case <-w.done:
			return
		case <-w.flushReq:
			lastIssued := w.allocator.Peek() - 1
			for _, c := range w.channels {
				c.sync()
			}
			w.sync.advance(lastIssued)
		}
	}
}

// Durable returns the highest LSN currently known to be fsynced.
func (w *WAL) Durable() xid.LSN { return w.sync.Durable() }

// Recover replays every channel and returns all records merged in LSN
// order, for use by the crash-recovery pass (§4.5, §7). If records were
// found, the LSN allocator is moved past the highest recovered LSN and the
// syncer marks that LSN durable.
func (w *WAL) Recover() ([]Record, error) {
	var all []Record
	for _, c := range w.channels {
		if err := c.replay(func(r Record) error {
			all = append(all, r)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LSN < all[j].LSN })
	if len(all) > 0 {
		last := xid.LSN(all[len(all)-1].LSN)
		if w.allocator.Peek() <= last {
			w.allocator.Reset(last + 1)
		}
		w.sync.advance(last)
	}
	return all, nil
}
