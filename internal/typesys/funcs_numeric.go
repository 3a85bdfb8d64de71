package typesys

import (
	"encoding/json"
	"math"
	"math/rand"
	"strconv"
)

func init() {
	register(I32, i32Table{})
	register(I64, i64Table{})
	register(F32, f32Table{})
	register(F64, f64Table{})
}

// --- i32 ---

type i32Table struct{}

func (i32Table) Input(t *DatType, text string) (DatValue, error) {
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return DatValue{}, ErrTypeConvert("invalid i32 literal " + text)
	}
	return NewI32(int32(n)), nil
}
func (i32Table) Output(v DatValue) string { return strconv.FormatInt(int64(v.I32()), 10) }
func (t i32Table) ToJSON(v DatValue) ([]byte, error) { return json.Marshal(v.I32()) }
func (t i32Table) FromJSON(dt *DatType, data []byte) (DatValue, error) {
	var n int32
	if err := json.Unmarshal(data, &n); err != nil {
		return DatValue{}, ErrTypeConvert("invalid i32 json")
	}
	return NewI32(n), nil
}
func (t i32Table) ToMsgPack(v DatValue) ([]byte, error) { return mpEncodeInt(int64(v.I32())), nil }
func (t i32Table) FromMsgPack(dt *DatType, data []byte) (DatValue, int, error) {
	n, used, err := mpDecodeInt(data)
	if err != nil {
		return DatValue{}, 0, err
	}
	return NewI32(int32(n)), used, nil
}
func (i32Table) Send(v DatValue) []byte {
	b := make([]byte, 4)
	NetOrder.PutUint32(b, uint32(v.I32()))
	return b
}
func (i32Table) SendTo(v DatValue, buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, ErrLowBufSpace(4)
	}
	NetOrder.PutUint32(buf, uint32(v.I32()))
	return 4, nil
}
func (i32Table) Recv(t *DatType, data []byte) (DatValue, int, error) {
	if len(data) < 4 {
		return DatValue{}, 0, ErrLengthError("i32 recv")
	}
	return NewI32(int32(NetOrder.Uint32(data[:4]))), 4, nil
}
func (i32Table) Default(t *DatType) DatValue         { return NewI32(0) }
func (i32Table) TypeLen(t *DatType) (int, bool)      { return 4, true }
func (i32Table) DataLen(v DatValue) int              { return 4 }
func (i32Table) Order(a, b DatValue) int {
	switch {
	case a.I32() < b.I32():
		return -1
	case a.I32() > b.I32():
		return 1
	default:
		return 0
	}
}
func (i32Table) Equal(a, b DatValue) bool          { return a.I32() == b.I32() }
func (t i32Table) Hash(v DatValue, seed uint64) uint64 { return hashBytes(seed, t.Send(v)) }
func (i32Table) Fuzz(t *DatType, r *rand.Rand) DatValue {
	return NewI32(int32(r.Uint32()))
}

// --- i64 ---

type i64Table struct{}

func (i64Table) Input(t *DatType, text string) (DatValue, error) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return DatValue{}, ErrTypeConvert("invalid i64 literal " + text)
	}
	return NewI64(n), nil
}
func (i64Table) Output(v DatValue) string { return strconv.FormatInt(v.I64(), 10) }
func (t i64Table) ToJSON(v DatValue) ([]byte, error) { return json.Marshal(v.I64()) }
func (t i64Table) FromJSON(dt *DatType, data []byte) (DatValue, error) {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return DatValue{}, ErrTypeConvert("invalid i64 json")
	}
	return NewI64(n), nil
}
func (t i64Table) ToMsgPack(v DatValue) ([]byte, error) { return mpEncodeInt(v.I64()), nil }
func (t i64Table) FromMsgPack(dt *DatType, data []byte) (DatValue, int, error) {
	n, used, err := mpDecodeInt(data)
	if err != nil {
		return DatValue{}, 0, err
	}
	return NewI64(n), used, nil
}
func (i64Table) Send(v DatValue) []byte {
	b := make([]byte, 8)
	NetOrder.PutUint64(b, uint64(v.I64()))
	return b
}
func (i64Table) SendTo(v DatValue, buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrLowBufSpace(8)
	}
	NetOrder.PutUint64(buf, uint64(v.I64()))
	return 8, nil
}
func (i64Table) Recv(t *DatType, data []byte) (DatValue, int, error) {
	if len(data) < 8 {
		return DatValue{}, 0, ErrLengthError("i64 recv")
	}
	return NewI64(int64(NetOrder.Uint64(data[:8]))), 8, nil
}
func (i64Table) Default(t *DatType) DatValue    { return NewI64(0) }
func (i64Table) TypeLen(t *DatType) (int, bool) { return 8, true }
func (i64Table) DataLen(v DatValue) int         { return 8 }
func (i64Table) Order(a, b DatValue) int {
	switch {
	case a.I64() < b.I64():
		return -1
	case a.I64() > b.I64():
		return 1
	default:
		return 0
	}
}
func (i64Table) Equal(a, b DatValue) bool              { return a.I64() == b.I64() }
func (t i64Table) Hash(v DatValue, seed uint64) uint64 { return hashBytes(seed, t.Send(v)) }
func (i64Table) Fuzz(t *DatType, r *rand.Rand) DatValue {
	return NewI64(int64(r.Uint64()))
}

// --- f32 ---

type f32Table struct{}

func (f32Table) Input(t *DatType, text string) (DatValue, error) {
	n, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return DatValue{}, ErrTypeConvert("invalid f32 literal " + text)
	}
	return NewF32(float32(n)), nil
}
func (f32Table) Output(v DatValue) string {
	return strconv.FormatFloat(float64(v.F32()), 'g', -1, 32)
}
func (t f32Table) ToJSON(v DatValue) ([]byte, error) { return json.Marshal(v.F32()) }
func (t f32Table) FromJSON(dt *DatType, data []byte) (DatValue, error) {
	var n float32
	if err := json.Unmarshal(data, &n); err != nil {
		return DatValue{}, ErrTypeConvert("invalid f32 json")
	}
	return NewF32(n), nil
}
func (t f32Table) ToMsgPack(v DatValue) ([]byte, error) {
	b := make([]byte, 5)
	b[0] = mpFloat32Marker
	NetOrder.PutUint32(b[1:], math.Float32bits(v.F32()))
	return b, nil
}
func (t f32Table) FromMsgPack(dt *DatType, data []byte) (DatValue, int, error) {
	if len(data) < 5 || data[0] != mpFloat32Marker {
		return DatValue{}, 0, ErrLengthError("f32 msgpack")
	}
	return NewF32(math.Float32frombits(NetOrder.Uint32(data[1:5]))), 5, nil
}
func (f32Table) Send(v DatValue) []byte {
	b := make([]byte, 4)
	NetOrder.PutUint32(b, math.Float32bits(v.F32()))
	return b
}
func (f32Table) SendTo(v DatValue, buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, ErrLowBufSpace(4)
	}
	NetOrder.PutUint32(buf, math.Float32bits(v.F32()))
	return 4, nil
}
func (f32Table) Recv(t *DatType, data []byte) (DatValue, int, error) {
	if len(data) < 4 {
		return DatValue{}, 0, ErrLengthError("f32 recv")
	}
	return NewF32(math.Float32frombits(NetOrder.Uint32(data[:4]))), 4, nil
}
func (f32Table) Default(t *DatType) DatValue    { return NewF32(0) }
func (f32Table) TypeLen(t *DatType) (int, bool) { return 4, true }
func (f32Table) DataLen(v DatValue) int         { return 4 }
func (f32Table) Order(a, b DatValue) int {
	switch {
	case a.F32() < b.F32():
		return -1
	case a.F32() > b.F32():
		return 1
	default:
		return 0
	}
}
func (f32Table) Equal(a, b DatValue) bool              { return a.F32() == b.F32() }
func (t f32Table) Hash(v DatValue, seed uint64) uint64 { return hashBytes(seed, t.Send(v)) }
func (f32Table) Fuzz(t *DatType, r *rand.Rand) DatValue {
	return NewF32(r.Float32())
}

// --- f64 ---

type f64Table struct{}

func (f64Table) Input(t *DatType, text string) (DatValue, error) {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return DatValue{}, ErrTypeConvert("invalid f64 literal " + text)
	}
	return NewF64(n), nil
}
func (f64Table) Output(v DatValue) string {
	return strconv.FormatFloat(v.F64(), 'g', -1, 64)
}
func (t f64Table) ToJSON(v DatValue) ([]byte, error) { return json.Marshal(v.F64()) }
func (t f64Table) FromJSON(dt *DatType, data []byte) (DatValue, error) {
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return DatValue{}, ErrTypeConvert("invalid f64 json")
	}
	return NewF64(n), nil
}
func (t f64Table) ToMsgPack(v DatValue) ([]byte, error) {
	b := make([]byte, 9)
	b[0] = mpFloat64Marker
	NetOrder.PutUint64(b[1:], math.Float64bits(v.F64()))
	return b, nil
}
func (t f64Table) FromMsgPack(dt *DatType, data []byte) (DatValue, int, error) {
	if len(data) < 9 || data[0] != mpFloat64Marker {
		return DatValue{}, 0, ErrLengthError("f64 msgpack")
	}
	return NewF64(math.Float64frombits(NetOrder.Uint64(data[1:9]))), 9, nil
}
func (f64Table) Send(v DatValue) []byte {
	b := make([]byte, 8)
	NetOrder.PutUint64(b, math.Float64bits(v.F64()))
	return b
}
func (f64Table) SendTo(v DatValue, buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrLowBufSpace(8)
	}
	NetOrder.PutUint64(buf, math.Float64bits(v.F64()))
	return 8, nil
}
func (f64Table) Recv(t *DatType, data []byte) (DatValue, int, error) {
	if len(data) < 8 {
		return DatValue{}, 0, ErrLengthError("f64 recv")
	}
	return NewF64(math.Float64frombits(NetOrder.Uint64(data[:8]))), 8, nil
}
func (f64Table) Default(t *DatType) DatValue    { return NewF64(0) }
func (f64Table) TypeLen(t *DatType) (int, bool) { return 8, true }
func (f64Table) DataLen(v DatValue) int         { return 8 }
func (f64Table) Order(a, b DatValue) int {
	switch {
	case a.F64() < b.F64():
		return -1
	case a.F64() > b.F64():
		return 1
	default:
		return 0
	}
}
func (f64Table) Equal(a, b DatValue) bool              { return a.F64() == b.F64() }
func (t f64Table) Hash(v DatValue, seed uint64) uint64 { return hashBytes(seed, t.Send(v)) }
func (f64Table) Fuzz(t *DatType, r *rand.Rand) DatValue {
	return NewF64(r.Float64())
}
