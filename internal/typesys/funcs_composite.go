package typesys

import (
	"encoding/json"
	"math/rand"
)

func init() {
	register(Array, arrayTable{})
	register(Record, recordTable{})
}

// --- array<T> ---

type arrayTable struct{}

func (arrayTable) Input(t *DatType, text string) (DatValue, error) {
	return DatValue{}, ErrTypeConvert("array has no textual literal form")
}
func (arrayTable) Output(v DatValue) string {
	b, _ := arrayTable{}.ToJSON(v)
	return string(b)
}
func (arrayTable) ToJSON(v DatValue) ([]byte, error) {
	elemFt := TableFor(v.Type.Elem().Id())
	parts := make([]json.RawMessage, len(v.Arr()))
	for i, e := range v.Arr() {
		b, err := elemFt.ToJSON(e)
		if err != nil {
			return nil, err
		}
		parts[i] = b
	}
	return json.Marshal(parts)
}
func (arrayTable) FromJSON(t *DatType, data []byte) (DatValue, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return DatValue{}, ErrTypeConvert("invalid array json")
	}
	elemFt := TableFor(t.Elem().Id())
	out := make([]DatValue, len(raws))
	for i, r := range raws {
		v, err := elemFt.FromJSON(t.Elem(), r)
		if err != nil {
			return DatValue{}, err
		}
		out[i] = v
	}
	return NewArrayValue(t, out), nil
}
func (arrayTable) ToMsgPack(v DatValue) ([]byte, error) {
	elemFt := TableFor(v.Type.Elem().Id())
	out := mpEncodeArrayHeader(len(v.Arr()))
	for _, e := range v.Arr() {
		b, err := elemFt.ToMsgPack(e)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}
func (arrayTable) FromMsgPack(t *DatType, data []byte) (DatValue, int, error) {
	n, used, err := mpDecodeArrayHeader(data)
	if err != nil {
		return DatValue{}, 0, err
	}
	elemFt := TableFor(t.Elem().Id())
	out := make([]DatValue, n)
	off := used
	for i := 0; i < n; i++ {
		v, u, err := elemFt.FromMsgPack(t.Elem(), data[off:])
		if err != nil {
			return DatValue{}, 0, err
		}
		out[i] = v
		off += u
	}
	return NewArrayValue(t, out), off, nil
}

// Send: u32 count followed by T::send repeated (§4.1).
func (arrayTable) Send(v DatValue) []byte {
	elemFt := TableFor(v.Type.Elem().Id())
	out := make([]byte, 4)
	NetOrder.PutUint32(out, uint32(len(v.Arr())))
	for _, e := range v.Arr() {
		out = append(out, elemFt.Send(e)...)
	}
	return out
}
func (at arrayTable) SendTo(v DatValue, buf []byte) (int, error) {
	b := at.Send(v)
	if len(buf) < len(b) {
		return 0, ErrLowBufSpace(len(b))
	}
	copy(buf, b)
	return len(b), nil
}
func (arrayTable) Recv(t *DatType, data []byte) (DatValue, int, error) {
	if len(data) < 4 {
		return DatValue{}, 0, ErrLengthError("array recv header")
	}
	n := int(NetOrder.Uint32(data[:4]))
	elemFt := TableFor(t.Elem().Id())
	off := 4
	out := make([]DatValue, n)
	for i := 0; i < n; i++ {
		v, used, err := elemFt.Recv(t.Elem(), data[off:])
		if err != nil {
			return DatValue{}, 0, err
		}
		out[i] = v
		off += used
	}
	return NewArrayValue(t, out), off, nil
}
func (arrayTable) Default(t *DatType) DatValue    { return NewArrayValue(t, nil) }
func (arrayTable) TypeLen(t *DatType) (int, bool) { return 0, false }
func (at arrayTable) DataLen(v DatValue) int      { return len(at.Send(v)) }
func (arrayTable) Order(a, b DatValue) int {
	elemFt := TableFor(a.Type.Elem().Id())
	aa, bb := a.Arr(), b.Arr()
	for i := 0; i < len(aa) && i < len(bb); i++ {
		if c := elemFt.Order(aa[i], bb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(aa) < len(bb):
		return -1
	case len(aa) > len(bb):
		return 1
	default:
		return 0
	}
}
func (at arrayTable) Equal(a, b DatValue) bool { return at.Order(a, b) == 0 }
func (arrayTable) Hash(v DatValue, seed uint64) uint64 {
	elemFt := TableFor(v.Type.Elem().Id())
	h := seed
	for _, e := range v.Arr() {
		h = elemFt.Hash(e, h)
	}
	return h
}
func (at arrayTable) Fuzz(t *DatType, r *rand.Rand) DatValue {
	elemFt := TableFor(t.Elem().Id())
	n := r.Intn(4)
	out := make([]DatValue, n)
	for i := range out {
		out[i] = elemFt.Fuzz(t.Elem(), r)
	}
	return NewArrayValue(t, out)
}

// --- record<name,fields> ---

type recordTable struct{}

func (recordTable) Input(t *DatType, text string) (DatValue, error) {
	return DatValue{}, ErrTypeConvert("record has no textual literal form")
}
func (recordTable) Output(v DatValue) string {
	b, _ := recordTable{}.ToJSON(v)
	return string(b)
}
func (recordTable) ToJSON(v DatValue) ([]byte, error) {
	m := make(map[string]json.RawMessage, len(v.Rec()))
	for i, f := range v.Type.Fields() {
		ft := TableFor(f.Type.Id())
		b, err := ft.ToJSON(v.Rec()[i])
		if err != nil {
			return nil, err
		}
		m[f.Name] = b
	}
	return json.Marshal(m)
}
func (recordTable) FromJSON(t *DatType, data []byte) (DatValue, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return DatValue{}, ErrTypeConvert("invalid record json")
	}
	out := make([]DatValue, len(t.Fields()))
	for i, f := range t.Fields() {
		raw, ok := m[f.Name]
		if !ok {
			return DatValue{}, ErrTypeConvert("missing record field " + f.Name)
		}
		ft := TableFor(f.Type.Id())
		v, err := ft.FromJSON(f.Type, raw)
		if err != nil {
			return DatValue{}, err
		}
		out[i] = v
	}
	return NewRecordValue(t, out), nil
}
func (recordTable) ToMsgPack(v DatValue) ([]byte, error) {
	var out []byte
	for i, f := range v.Type.Fields() {
		ft := TableFor(f.Type.Id())
		b, err := ft.ToMsgPack(v.Rec()[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}
func (recordTable) FromMsgPack(t *DatType, data []byte) (DatValue, int, error) {
	out := make([]DatValue, len(t.Fields()))
	off := 0
	for i, f := range t.Fields() {
		ft := TableFor(f.Type.Id())
		v, used, err := ft.FromMsgPack(f.Type, data[off:])
		if err != nil {
			return DatValue{}, 0, err
		}
		out[i] = v
		off += used
	}
	return NewRecordValue(t, out), off, nil
}

// Send: fields encoded positionally in declared order using their own
// tables (§4.1).
func (recordTable) Send(v DatValue) []byte {
	var out []byte
	for i, f := range v.Type.Fields() {
		ft := TableFor(f.Type.Id())
		out = append(out, ft.Send(v.Rec()[i])...)
	}
	return out
}
func (rt recordTable) SendTo(v DatValue, buf []byte) (int, error) {
	b := rt.Send(v)
	if len(buf) < len(b) {
		return 0, ErrLowBufSpace(len(b))
	}
	copy(buf, b)
	return len(b), nil
}
func (recordTable) Recv(t *DatType, data []byte) (DatValue, int, error) {
	out := make([]DatValue, len(t.Fields()))
	off := 0
	for i, f := range t.Fields() {
		ft := TableFor(f.Type.Id())
		v, used, err := ft.Recv(f.Type, data[off:])
		if err != nil {
			return DatValue{}, 0, err
		}
		out[i] = v
		off += used
	}
	return NewRecordValue(t, out), off, nil
}
func (recordTable) Default(t *DatType) DatValue {
	out := make([]DatValue, len(t.Fields()))
	for i, f := range t.Fields() {
		out[i] = TableFor(f.Type.Id()).Default(f.Type)
	}
	return NewRecordValue(t, out)
}
func (recordTable) TypeLen(t *DatType) (int, bool) {
	total := 0
	for _, f := range t.Fields() {
		n, ok := TableFor(f.Type.Id()).TypeLen(f.Type)
		if !ok {
			return 0, false
		}
		total += n
	}
	return total, true
}
func (rt recordTable) DataLen(v DatValue) int { return len(rt.Send(v)) }
func (recordTable) Order(a, b DatValue) int {
	for i, f := range a.Type.Fields() {
		ft := TableFor(f.Type.Id())
		if c := ft.Order(a.Rec()[i], b.Rec()[i]); c != 0 {
			return c
		}
	}
	return 0
}
func (rt recordTable) Equal(a, b DatValue) bool { return rt.Order(a, b) == 0 }
func (recordTable) Hash(v DatValue, seed uint64) uint64 {
	h := seed
	for i, f := range v.Type.Fields() {
		h = TableFor(f.Type.Id()).Hash(v.Rec()[i], h)
	}
	return h
}
func (recordTable) Fuzz(t *DatType, r *rand.Rand) DatValue {
	out := make([]DatValue, len(t.Fields()))
	for i, f := range t.Fields() {
		out[i] = TableFor(f.Type.Id()).Fuzz(f.Type, r)
	}
	return NewRecordValue(t, out)
}
