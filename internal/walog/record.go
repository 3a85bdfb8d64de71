// Package walog implements MuduDB's write-ahead log (C7): a fixed set of
// independent channels, a monotonic LSN allocator, a durable-LSN syncer, and
// the recovery replay pass. The on-disk record framing is grounded on and
// kept byte-compatible in spirit with the teacher's internal/wal package
// (fixed header + CRC32 + length-prefixed payload), generalized to carry an
// opaque payload rather than a fixed union of DML record types, since every
// caller in this kernel (page allocation, tuple mutation, transaction
// boundary) already serializes its own payload before logging.
package walog

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/mududb/mududb/internal/kernel/errs"
)

// byteOrder is kept little-endian, matching the teacher's WAL file format;
// this is an internal on-disk format, not a wire format, so it is not bound
// by the network-byte-order requirement that governs tuple/type encoding.
var byteOrder = binary.LittleEndian

// recordHeaderSize is [length u32][lsn u64][crc32 u32] = 16 bytes.
const recordHeaderSize = 16

// maxRecordSize guards against corrupted length fields during recovery,
// mirroring the teacher's MaxRecordSize safety check.
const maxRecordSize = 16 * 1024 * 1024

// encodeRecord serializes one log record: header + payload, CRC32 computed
// over the payload alone.
func encodeRecord(lsn uint64, payload []byte) []byte {
	buf := make([]byte, recordHeaderSize+len(payload))
	byteOrder.PutUint32(buf[0:4], uint32(len(payload)))
	byteOrder.PutUint64(buf[4:12], lsn)
	byteOrder.PutUint32(buf[12:16], crc32.ChecksumIEEE(payload))
	copy(buf[recordHeaderSize:], payload)
	return buf
}

// decodeRecordHeader parses the fixed header at the front of buf.
func decodeRecordHeader(buf []byte) (length int, lsn uint64, crc uint32, err error) {
	if len(buf) < recordHeaderSize {
		return 0, 0, 0, errs.New(errs.DecodeErr, "truncated WAL record header")
	}
	l := byteOrder.Uint32(buf[0:4])
	if l > maxRecordSize {
		return 0, 0, 0, errs.New(errs.StorageErr, "WAL record length exceeds maximum (possible corruption)")
	}
	lsn = byteOrder.Uint64(buf[4:12])
	crc = byteOrder.Uint32(buf[12:16])
	return int(l), lsn, crc, nil
}

// verifyPayload confirms payload matches the CRC32 recorded in its header.
func verifyPayload(payload []byte, want uint32) error {
	if crc32.ChecksumIEEE(payload) != want {
		return errs.New(errs.StorageErr, "WAL record checksum mismatch")
	}
	return nil
}

// Record is one decoded log entry, returned during recovery.
type Record struct {
	LSN     uint64
	Payload []byte
}
