// Package typesys implements MuduDB's closed type universe and its per-type
// function tables (C1, C2).
package typesys

import (
	"encoding/binary"
	"hash/crc32"
)

// NetOrder is the network byte order used for every wire and tuple encoding
// in the kernel (§6: "Byte order is network (big-endian)").
var NetOrder = binary.BigEndian

// Checksum computes the block checksum used for page trailers and WAL
// payloads: a plain CRC32 (IEEE polynomial), matching the teacher's
// wal/writer.go use of crc32.ChecksumIEEE for record payloads.
func Checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}
