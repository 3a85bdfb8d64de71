package typesys

// A minimal MessagePack encoder/decoder covering the subset MuduDB's type
// system needs (ints, floats, str8/16/32, bin8/16/32, fixarray/array16/32).
// No third-party MessagePack library appears anywhere in the retrieved
// pack, so this hand-rolled subset is the grounded choice here (see
// DESIGN.md) rather than pulling in an unrelated ecosystem dependency.

const (
	mpPosFixintMax = 0x7f
	mpNegFixintMin = -32

	mpInt8  = 0xd0
	mpInt16 = 0xd1
	mpInt32 = 0xd2
	mpInt64 = 0xd3

	mpFloat32Marker = 0xca
	mpFloat64Marker = 0xcb

	mpStr8  = 0xd9
	mpStr16 = 0xda
	mpStr32 = 0xdb

	mpBin8  = 0xc4
	mpBin16 = 0xc5
	mpBin32 = 0xc6

	mpArray16 = 0xdc
	mpArray32 = 0xdd

	mpFixArrayMask = 0x90
)

func mpEncodeInt(n int64) []byte {
	switch {
	case n >= 0 && n <= mpPosFixintMax:
		return []byte{byte(n)}
	case n < 0 && n >= mpNegFixintMin:
		return []byte{byte(int8(n))}
	case n >= -128 && n <= 127:
		return []byte{mpInt8, byte(int8(n))}
	case n >= -32768 && n <= 32767:
		b := make([]byte, 3)
		b[0] = mpInt16
		NetOrder.PutUint16(b[1:], uint16(int16(n)))
		return b
	case n >= -(1<<31) && n <= (1<<31)-1:
		b := make([]byte, 5)
		b[0] = mpInt32
		NetOrder.PutUint32(b[1:], uint32(int32(n)))
		return b
	default:
		b := make([]byte, 9)
		b[0] = mpInt64
		NetOrder.PutUint64(b[1:], uint64(n))
		return b
	}
}

func mpDecodeInt(data []byte) (int64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrLengthError("msgpack int")
	}
	b0 := data[0]
	switch {
	case b0 <= mpPosFixintMax:
		return int64(b0), 1, nil
	case int8(b0) >= mpNegFixintMin && b0 >= 0xe0:
		return int64(int8(b0)), 1, nil
	case b0 == mpInt8:
		if len(data) < 2 {
			return 0, 0, ErrLengthError("msgpack int8")
		}
		return int64(int8(data[1])), 2, nil
	case b0 == mpInt16:
		if len(data) < 3 {
			return 0, 0, ErrLengthError("msgpack int16")
		}
		return int64(int16(NetOrder.Uint16(data[1:3]))), 3, nil
	case b0 == mpInt32:
		if len(data) < 5 {
			return 0, 0, ErrLengthError("msgpack int32")
		}
		return int64(int32(NetOrder.Uint32(data[1:5]))), 5, nil
	case b0 == mpInt64:
		if len(data) < 9 {
			return 0, 0, ErrLengthError("msgpack int64")
		}
		return int64(NetOrder.Uint64(data[1:9])), 9, nil
	default:
		return 0, 0, ErrTypeConvert("not a msgpack int")
	}
}

func mpEncodeBytes(marker8, marker16, marker32 byte, b []byte) []byte {
	n := len(b)
	switch {
	case n <= 0xff:
		out := make([]byte, 2+n)
		out[0] = marker8
		out[1] = byte(n)
		copy(out[2:], b)
		return out
	case n <= 0xffff:
		out := make([]byte, 3+n)
		out[0] = marker16
		NetOrder.PutUint16(out[1:3], uint16(n))
		copy(out[3:], b)
		return out
	default:
		out := make([]byte, 5+n)
		out[0] = marker32
		NetOrder.PutUint32(out[1:5], uint32(n))
		copy(out[5:], b)
		return out
	}
}

func mpDecodeBytes(marker8, marker16, marker32 byte, data []byte) ([]byte, int, error) {
	if len(data) == 0 {
		return nil, 0, ErrLengthError("msgpack bytes")
	}
	switch data[0] {
	case marker8:
		if len(data) < 2 {
			return nil, 0, ErrLengthError("msgpack bytes8")
		}
		n := int(data[1])
		if len(data) < 2+n {
			return nil, 0, ErrLengthError("msgpack bytes8 payload")
		}
		return data[2 : 2+n], 2 + n, nil
	case marker16:
		if len(data) < 3 {
			return nil, 0, ErrLengthError("msgpack bytes16")
		}
		n := int(NetOrder.Uint16(data[1:3]))
		if len(data) < 3+n {
			return nil, 0, ErrLengthError("msgpack bytes16 payload")
		}
		return data[3 : 3+n], 3 + n, nil
	case marker32:
		if len(data) < 5 {
			return nil, 0, ErrLengthError("msgpack bytes32")
		}
		n := int(NetOrder.Uint32(data[1:5]))
		if len(data) < 5+n {
			return nil, 0, ErrLengthError("msgpack bytes32 payload")
		}
		return data[5 : 5+n], 5 + n, nil
	default:
		return nil, 0, ErrTypeConvert("not msgpack bytes")
	}
}

func mpEncodeArrayHeader(n int) []byte {
	switch {
	case n <= 15:
		return []byte{byte(mpFixArrayMask | n)}
	case n <= 0xffff:
		b := make([]byte, 3)
		b[0] = mpArray16
		NetOrder.PutUint16(b[1:], uint16(n))
		return b
	default:
		b := make([]byte, 5)
		b[0] = mpArray32
		NetOrder.PutUint32(b[1:], uint32(n))
		return b
	}
}

func mpDecodeArrayHeader(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrLengthError("msgpack array header")
	}
	b0 := data[0]
	switch {
	case b0&0xf0 == mpFixArrayMask:
		return int(b0 & 0x0f), 1, nil
	case b0 == mpArray16:
		if len(data) < 3 {
			return 0, 0, ErrLengthError("msgpack array16 header")
		}
		return int(NetOrder.Uint16(data[1:3])), 3, nil
	case b0 == mpArray32:
		if len(data) < 5 {
			return 0, 0, ErrLengthError("msgpack array32 header")
		}
		return int(NetOrder.Uint32(data[1:5])), 5, nil
	default:
		return 0, 0, ErrTypeConvert("not a msgpack array")
	}
}
