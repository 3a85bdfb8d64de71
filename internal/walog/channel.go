package walog

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mududb/mududb/internal/kernel/errs"
)

// channel is one of the WAL's N independent append-only files (§4.5:
// "independent channels" to spread fsync contention across files).
type channel struct {
	mu   sync.Mutex
	file *os.File
	path string
}

func openChannel(dir string, index int) (*channel, error) {
	path := fmt.Sprintf("%s/wal_%02d.log", dir, index)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.IOErr, "open WAL channel", err)
	}
	return &channel{file: f, path: path}, nil
}

// append writes one framed record at the end of the channel file; replay
// reads records back sequentially.
func (c *channel) append(lsn uint64, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := encodeRecord(lsn, payload)
	if _, err := c.file.Write(buf); err != nil {
		return errs.Wrap(errs.IOErr, "append WAL record", err)
	}
	return nil
}

func (c *channel) sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.file.Sync(); err != nil {
		return errs.Wrap(errs.IOErr, "fsync WAL channel", err)
	}
	return nil
}

func (c *channel) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file.Close()
}

// replay reads every record from the start of the channel's file in
// sequence, calling fn for each. It stops cleanly at EOF or at the first
// record whose checksum fails to verify, treating a trailing torn write as
// the end of the durable log rather than a fatal error.
func (c *channel) replay(fn func(Record) error) error {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.IOErr, "open WAL channel for replay", err)
	}
	defer f.Close()

	header := make([]byte, recordHeaderSize)
	for {
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return errs.Wrap(errs.IOErr, "read WAL record header", err)
		}
		length, lsn, crc, err := decodeRecordHeader(header)
		if err != nil {
			return nil // truncated/corrupt header at the tail: stop replay here.
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(f, payload); err != nil {
			return nil // torn trailing write: stop replay here.
		}
		if verifyPayload(payload, crc) != nil {
			return nil
		}
		if err := fn(Record{LSN: lsn, Payload: payload}); err != nil {
			return err
		}
	}
}
