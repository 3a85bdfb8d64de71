package typesys

import (
	"encoding/json"
	"math/rand"
)

func init() {
	register(String, stringTable{})
	register(Binary, binaryTable{})
}

// --- string ---

type stringTable struct{}

func (stringTable) Input(t *DatType, text string) (DatValue, error) {
	if t.MaxLen() > 0 && len(text) > t.MaxLen() {
		return DatValue{}, ErrTypeConvert("string exceeds max length")
	}
	return NewStringValue(t, text), nil
}
func (stringTable) Output(v DatValue) string { return v.Str() }
func (stringTable) ToJSON(v DatValue) ([]byte, error) { return json.Marshal(v.Str()) }
func (stringTable) FromJSON(t *DatType, data []byte) (DatValue, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return DatValue{}, ErrTypeConvert("invalid string json")
	}
	return NewStringValue(t, s), nil
}
func (stringTable) ToMsgPack(v DatValue) ([]byte, error) {
	return mpEncodeBytes(mpStr8, mpStr16, mpStr32, []byte(v.Str())), nil
}
func (stringTable) FromMsgPack(t *DatType, data []byte) (DatValue, int, error) {
	b, used, err := mpDecodeBytes(mpStr8, mpStr16, mpStr32, data)
	if err != nil {
		return DatValue{}, 0, err
	}
	return NewStringValue(t, string(b)), used, nil
}

// Send: length-prefixed u32 + UTF-8 bytes (§4.1).
func (stringTable) Send(v DatValue) []byte {
	b := []byte(v.Str())
	out := make([]byte, 4+len(b))
	NetOrder.PutUint32(out, uint32(len(b)))
	copy(out[4:], b)
	return out
}
func (stringTable) SendTo(v DatValue, buf []byte) (int, error) {
	b := []byte(v.Str())
	need := 4 + len(b)
	if len(buf) < need {
		return 0, ErrLowBufSpace(need)
	}
	NetOrder.PutUint32(buf, uint32(len(b)))
	copy(buf[4:], b)
	return need, nil
}
func (stringTable) Recv(t *DatType, data []byte) (DatValue, int, error) {
	if len(data) < 4 {
		return DatValue{}, 0, ErrLengthError("string recv header")
	}
	n := int(NetOrder.Uint32(data[:4]))
	if len(data) < 4+n {
		return DatValue{}, 0, ErrLengthError("string recv payload")
	}
	return NewStringValue(t, string(data[4:4+n])), 4 + n, nil
}
func (stringTable) Default(t *DatType) DatValue { return NewStringValue(t, "") }
func (stringTable) TypeLen(t *DatType) (int, bool) { return 0, false }
func (stringTable) DataLen(v DatValue) int         { return 4 + len(v.Str()) }
func (stringTable) Order(a, b DatValue) int {
	switch {
	case a.Str() < b.Str():
		return -1
	case a.Str() > b.Str():
		return 1
	default:
		return 0
	}
}
func (stringTable) Equal(a, b DatValue) bool { return a.Str() == b.Str() }
func (t stringTable) Hash(v DatValue, seed uint64) uint64 {
	return hashBytes(seed, []byte(v.Str()))
}
func (stringTable) Fuzz(t *DatType, r *rand.Rand) DatValue {
	n := r.Intn(16)
	if t.MaxLen() > 0 && n > t.MaxLen() {
		n = t.MaxLen()
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + r.Intn(26))
	}
	return NewStringValue(t, string(b))
}

// --- binary ---

type binaryTable struct{}

func (binaryTable) Input(t *DatType, text string) (DatValue, error) {
	return NewBinary([]byte(text)), nil
}
func (binaryTable) Output(v DatValue) string { return string(v.Bin()) }
func (binaryTable) ToJSON(v DatValue) ([]byte, error) { return json.Marshal(v.Bin()) }
func (binaryTable) FromJSON(t *DatType, data []byte) (DatValue, error) {
	var b []byte
	if err := json.Unmarshal(data, &b); err != nil {
		return DatValue{}, ErrTypeConvert("invalid binary json")
	}
	return NewBinary(b), nil
}
func (binaryTable) ToMsgPack(v DatValue) ([]byte, error) {
	return mpEncodeBytes(mpBin8, mpBin16, mpBin32, v.Bin()), nil
}
func (binaryTable) FromMsgPack(t *DatType, data []byte) (DatValue, int, error) {
	b, used, err := mpDecodeBytes(mpBin8, mpBin16, mpBin32, data)
	if err != nil {
		return DatValue{}, 0, err
	}
	return NewBinary(b), used, nil
}
func (binaryTable) Send(v DatValue) []byte {
	b := v.Bin()
	out := make([]byte, 4+len(b))
	NetOrder.PutUint32(out, uint32(len(b)))
	copy(out[4:], b)
	return out
}
func (binaryTable) SendTo(v DatValue, buf []byte) (int, error) {
	b := v.Bin()
	need := 4 + len(b)
	if len(buf) < need {
		return 0, ErrLowBufSpace(need)
	}
	NetOrder.PutUint32(buf, uint32(len(b)))
	copy(buf[4:], b)
	return need, nil
}
func (binaryTable) Recv(t *DatType, data []byte) (DatValue, int, error) {
	if len(data) < 4 {
		return DatValue{}, 0, ErrLengthError("binary recv header")
	}
	n := int(NetOrder.Uint32(data[:4]))
	if len(data) < 4+n {
		return DatValue{}, 0, ErrLengthError("binary recv payload")
	}
	cp := make([]byte, n)
	copy(cp, data[4:4+n])
	return NewBinary(cp), 4 + n, nil
}
func (binaryTable) Default(t *DatType) DatValue    { return NewBinary(nil) }
func (binaryTable) TypeLen(t *DatType) (int, bool) { return 0, false }
func (binaryTable) DataLen(v DatValue) int         { return 4 + len(v.Bin()) }
func (binaryTable) Order(a, b DatValue) int {
	ab, bb := a.Bin(), b.Bin()
	for i := 0; i < len(ab) && i < len(bb); i++ {
		if ab[i] != bb[i] {
			if ab[i] < bb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ab) < len(bb):
		return -1
	case len(ab) > len(bb):
		return 1
	default:
		return 0
	}
}
func (binaryTable) Equal(a, b DatValue) bool { return binaryTable{}.Order(a, b) == 0 }
func (t binaryTable) Hash(v DatValue, seed uint64) uint64 {
	return hashBytes(seed, v.Bin())
}
func (binaryTable) Fuzz(t *DatType, r *rand.Rand) DatValue {
	n := r.Intn(16)
	b := make([]byte, n)
	r.Read(b)
	return NewBinary(b)
}
