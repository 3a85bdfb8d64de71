// Package tuple implements the binary tuple layout (C3) and the
// descriptor-bound TupleKey (C4).
package tuple

import (
	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/typesys"
)

// slotSize is the encoded size of one (offset,length) pair in the slot
// table: two network-order u32s (§3).
const slotSize = 8

// FieldDesc describes one field of a tuple, in the order the caller
// declared it (the "original" order a SchemaTable column lists).
type FieldDesc struct {
	Name string
	Type *typesys.DatType

	isFixed bool

	// For fixed fields: byte offset within the tuple's fixed region.
	fixedOffset int
	fixedLen    int

	// For variable fields: byte offset of this field's slot within the
	// tuple's slot table.
	slotTableOffset int

	// declOrder is this field's position among fields of the same
	// fixed/variable group; nextVarSlotOffset and Update use it to find the
	// variable fields declared after this one (§3: "ordered as declared
	// among the fixed/variable group").
	declOrder int
}

func (f FieldDesc) IsFixed() bool { return f.isFixed }

// TupleBinaryDesc is the compiled layout for one record shape: which fields
// are fixed vs. variable, and at what offsets (§3).
type TupleBinaryDesc struct {
	fields []FieldDesc // original declared order, as given to NewDesc

	fixedOrder []int // indices into fields, in fixed-group declaration order
	varOrder   []int // indices into fields, in variable-group declaration order

	fixedSize     int // total bytes occupied by the fixed region
	slotTableSize int // total bytes occupied by the slot table
}

// NewDesc compiles a TupleBinaryDesc from fields in their original declared
// order. Fields are partitioned into fixed and variable groups, each
// preserving relative declaration order (§3).
func NewDesc(fields []FieldDesc) *TupleBinaryDesc {
	d := &TupleBinaryDesc{fields: make([]FieldDesc, len(fields))}
	copy(d.fields, fields)

	offset := 0
	for i := range d.fields {
		f := &d.fields[i]
		n, fixed := typesys.TableFor(f.Type.Id()).TypeLen(f.Type)
		f.isFixed = fixed
		if fixed {
			f.declOrder = len(d.fixedOrder)
			f.fixedOffset = offset
			f.fixedLen = n
			offset += n
			d.fixedOrder = append(d.fixedOrder, i)
		}
	}
	d.fixedSize = offset

	slotOff := d.fixedSize
	for i := range d.fields {
		f := &d.fields[i]
		if f.isFixed {
			continue
		}
		f.declOrder = len(d.varOrder)
		f.slotTableOffset = slotOff
		slotOff += slotSize
		d.varOrder = append(d.varOrder, i)
	}
	d.slotTableSize = slotOff - d.fixedSize

	return d
}

// Fields returns the field descriptors in their original declared order.
func (d *TupleBinaryDesc) Fields() []FieldDesc { return d.fields }

// FixedSize is the total byte length of the fixed-field region.
func (d *TupleBinaryDesc) FixedSize() int { return d.fixedSize }

// MetaSize is fixed bytes plus the slot table (§3).
func (d *TupleBinaryDesc) MetaSize() int { return d.fixedSize + d.slotTableSize }

// MinTupleSize is the smallest a tuple of this shape can ever encode to:
// meta (fixed region + slot table) with every variable payload empty (§3).
func (d *TupleBinaryDesc) MinTupleSize() int { return d.MetaSize() }

func (d *TupleBinaryDesc) fieldSlotOffset(fieldIdx int) (int, error) {
	f := d.fields[fieldIdx]
	if f.isFixed {
		return 0, errs.New(errs.IndexOutOfRange, "field is fixed, has no slot")
	}
	return f.slotTableOffset, nil
}

// nextVarSlotOffset returns the slot-table offset of the variable
// field declared immediately after fieldIdx's field, or -1 if fieldIdx is
// the last variable field.
func (d *TupleBinaryDesc) nextVarSlotOffset(fieldIdx int) int {
	order := d.fields[fieldIdx].declOrder
	if order+1 >= len(d.varOrder) {
		return -1
	}
	return d.fields[d.varOrder[order+1]].slotTableOffset
}
