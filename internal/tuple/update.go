package tuple

import "github.com/mududb/mududb/internal/typesys"

// UpdateDelta is one edit against an existing tuple: overwrite length bytes
// at offset with bytes (§3).
type UpdateDelta struct {
	Offset int
	Length int
	Bytes  []byte
}

// Update computes the edits needed to change field idx of t to newValue,
// following the in-place-or-rewrite-tail policy of §3/§4.2.
func Update(d *TupleBinaryDesc, idx int, newValue typesys.DatValue, t Binary) ([]UpdateDelta, error) {
	f := d.fields[idx]
	ft := typesys.TableFor(f.Type.Id())

	if f.isFixed {
		bytes := ft.Send(newValue)
		return []UpdateDelta{{Offset: f.fixedOffset, Length: f.fixedLen, Bytes: bytes}}, nil
	}

	oldSlot := decodeSlot(t, f.slotTableOffset)
	capacityEnd := len(t)
	if next := d.nextVarSlotOffset(idx); next >= 0 {
		capacityEnd = decodeSlot(t, next).Offset
	}
	capacity := capacityEnd - oldSlot.Offset

	newPayload := ft.Send(newValue)

	if len(newPayload) <= capacity {
		slotPatch := make([]byte, slotSize)
		typesys.NetOrder.PutUint32(slotPatch[0:4], uint32(oldSlot.Offset))
		typesys.NetOrder.PutUint32(slotPatch[4:8], uint32(len(newPayload)))
		return []UpdateDelta{
			{Offset: f.slotTableOffset, Length: slotSize, Bytes: slotPatch},
			{Offset: oldSlot.Offset, Length: len(newPayload), Bytes: newPayload},
		}, nil
	}

	// Rewrite every variable field from idx onward, contiguously, starting
	// at idx's old payload offset.
	tailStart := d.fields[idx].declOrder
	tail := d.varOrder[tailStart:]

	var payload []byte
	var slotPatch []byte
	cursor := oldSlot.Offset
	for _, fi := range tail {
		var bytes []byte
		if fi == idx {
			bytes = newPayload
		} else {
			var err error
			bytes, err = ReadBytes(d, t, fi)
			if err != nil {
				return nil, err
			}
		}
		slot := make([]byte, slotSize)
		typesys.NetOrder.PutUint32(slot[0:4], uint32(cursor))
		typesys.NetOrder.PutUint32(slot[4:8], uint32(len(bytes)))
		slotPatch = append(slotPatch, slot...)
		payload = append(payload, bytes...)
		cursor += len(bytes)
	}

	return []UpdateDelta{
		{Offset: d.fields[idx].slotTableOffset, Length: len(slotPatch), Bytes: slotPatch},
		{Offset: oldSlot.Offset, Length: len(payload), Bytes: payload},
	}, nil
}

// Apply materializes deltas against t, growing the buffer as needed, and
// returns the resulting tuple. Deltas may extend past the current tuple
// length (the rewrite-tail case can grow the tuple).
func Apply(t Binary, deltas []UpdateDelta) Binary {
	size := len(t)
	for _, d := range deltas {
		if end := d.Offset + d.Length; end > size {
			size = end
		}
	}
	out := make(Binary, size)
	copy(out, t)
	for _, d := range deltas {
		copy(out[d.Offset:d.Offset+d.Length], d.Bytes)
	}
	return out
}
