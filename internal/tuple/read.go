package tuple

import (
	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/typesys"
)

// Slot is a decoded (offset, length) pair locating a field's bytes within a
// tuple (§3 glossary).
type Slot struct {
	Offset int
	Length int
}

// ReadBytes returns the raw encoded bytes of field idx within t, without
// decoding them into a DatValue (§4.2 "Read").
func ReadBytes(d *TupleBinaryDesc, t Binary, idx int) ([]byte, error) {
	if idx < 0 || idx >= len(d.fields) {
		return nil, errs.New(errs.IndexOutOfRange, "field index out of range")
	}
	f := d.fields[idx]
	if f.isFixed {
		if f.fixedOffset+f.fixedLen > len(t) {
			return nil, errs.New(errs.IndexOutOfRange, "fixed field out of tuple bounds")
		}
		return t[f.fixedOffset : f.fixedOffset+f.fixedLen], nil
	}

	if f.slotTableOffset+slotSize > len(t) {
		return nil, errs.New(errs.IndexOutOfRange, "slot out of tuple bounds")
	}
	slot := decodeSlot(t, f.slotTableOffset)

	if next := d.nextVarSlotOffset(idx); next >= 0 {
		nextSlot := decodeSlot(t, next)
		if nextSlot.Offset < slot.Offset+slot.Length {
			return nil, errs.New(errs.TupleErr, "inconsistent slot ordering")
		}
	}

	if slot.Offset+slot.Length > len(t) {
		return nil, errs.New(errs.IndexOutOfRange, "variable payload out of tuple bounds")
	}
	return t[slot.Offset : slot.Offset+slot.Length], nil
}

// Read decodes field idx of t into a typed DatValue.
func Read(d *TupleBinaryDesc, t Binary, idx int) (typesys.DatValue, error) {
	b, err := ReadBytes(d, t, idx)
	if err != nil {
		return typesys.DatValue{}, err
	}
	f := d.fields[idx]
	v, _, err := typesys.TableFor(f.Type.Id()).Recv(f.Type, b)
	return v, err
}

// ReadAll decodes every field of t, in the descriptor's original declared
// order (used by the build(read-all(tb)) == tb round-trip property, §8.3).
func ReadAll(d *TupleBinaryDesc, t Binary) ([]typesys.DatValue, error) {
	out := make([]typesys.DatValue, len(d.fields))
	for i := range d.fields {
		v, err := Read(d, t, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeSlot(t Binary, at int) Slot {
	return Slot{
		Offset: int(typesys.NetOrder.Uint32(t[at : at+4])),
		Length: int(typesys.NetOrder.Uint32(t[at+4 : at+8])),
	}
}
