package typesys

import "fmt"

// DatTypeId is the closed type universe (§3).
type DatTypeId uint8

const (
	I32 DatTypeId = iota
	I64
	F32
	F64
	String
	Binary
	Array
	Record
)

func (id DatTypeId) String() string {
	switch id {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case String:
		return "string"
	case Binary:
		return "binary"
	case Array:
		return "array"
	case Record:
		return "record"
	default:
		return "unknown"
	}
}

// RecordField is one (name, type) pair of a Record type, declared in order.
type RecordField struct {
	Name string
	Type *DatType
}

// DatType couples a DatTypeId with its parameter object. A DatType is deeply
// immutable once constructed (§3); build one with the New* constructors and
// never mutate it afterward.
type DatType struct {
	id DatTypeId

	// String: 0 means unbounded.
	maxLen int

	// Array: inner element type.
	elem *DatType

	// Record: name and ordered fields.
	recordName string
	fields     []RecordField
}

func NewScalar(id DatTypeId) *DatType { return &DatType{id: id} }

func NewStringType(maxLen int) *DatType { return &DatType{id: String, maxLen: maxLen} }

func NewArrayType(elem *DatType) *DatType { return &DatType{id: Array, elem: elem} }

func NewRecord(name string, fields []RecordField) *DatType {
	cp := make([]RecordField, len(fields))
	copy(cp, fields)
	return &DatType{id: Record, recordName: name, fields: cp}
}

func (t *DatType) Id() DatTypeId   { return t.id }
func (t *DatType) MaxLen() int     { return t.maxLen }
func (t *DatType) Elem() *DatType  { return t.elem }
func (t *DatType) RecordName() string       { return t.recordName }
func (t *DatType) Fields() []RecordField    { return t.fields }

// Equal reports structural equality, as required by §3's "equality is
// structural" invariant.
func (t *DatType) Equal(o *DatType) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.id != o.id {
		return false
	}
	switch t.id {
	case String:
		return t.maxLen == o.maxLen
	case Array:
		return t.elem.Equal(o.elem)
	case Record:
		if t.recordName != o.recordName || len(t.fields) != len(o.fields) {
			return false
		}
		for i := range t.fields {
			if t.fields[i].Name != o.fields[i].Name || !t.fields[i].Type.Equal(o.fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t *DatType) String() string {
	switch t.id {
	case String:
		if t.maxLen == 0 {
			return "string"
		}
		return fmt.Sprintf("string(%d)", t.maxLen)
	case Array:
		return fmt.Sprintf("array<%s>", t.elem)
	case Record:
		return fmt.Sprintf("record<%s>", t.recordName)
	default:
		return t.id.String()
	}
}

// DatValue is a tagged union over the type universe (§3).
type DatValue struct {
	Type *DatType

	i32 int32
	i64 int64
	f32 float32
	f64 float64
	str string
	bin []byte
	arr []DatValue
	rec []DatValue
}

func NewI32(v int32) DatValue { return DatValue{Type: NewScalar(I32), i32: v} }
func NewI64(v int64) DatValue { return DatValue{Type: NewScalar(I64), i64: v} }
func NewF32(v float32) DatValue { return DatValue{Type: NewScalar(F32), f32: v} }
func NewF64(v float64) DatValue { return DatValue{Type: NewScalar(F64), f64: v} }

func NewStringValue(t *DatType, v string) DatValue { return DatValue{Type: t, str: v} }
func NewBinary(v []byte) DatValue             { return DatValue{Type: NewScalar(Binary), bin: v} }
func NewArrayValue(t *DatType, v []DatValue) DatValue {
	return DatValue{Type: t, arr: v}
}
func NewRecordValue(t *DatType, v []DatValue) DatValue {
	return DatValue{Type: t, rec: v}
}

func (v DatValue) I32() int32        { return v.i32 }
func (v DatValue) I64() int64        { return v.i64 }
func (v DatValue) F32() float32      { return v.f32 }
func (v DatValue) F64() float64      { return v.f64 }
func (v DatValue) Str() string       { return v.str }
func (v DatValue) Bin() []byte       { return v.bin }
func (v DatValue) Arr() []DatValue   { return v.arr }
func (v DatValue) Rec() []DatValue   { return v.rec }
