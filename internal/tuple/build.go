package tuple

import (
	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/typesys"
)

// Binary is an encoded tuple: a byte sequence produced by a
// TupleBinaryDesc (§3).
type Binary []byte

// Build encodes values (one per field, in d's original declared order) into
// a Binary (§4.2 "Build"). It allocates the meta region up front, writes
// fixed fields at their static offsets, then appends variable payloads past
// the meta region, recording each one's (offset,length) into the slot
// table. Go's append already grows the underlying array geometrically, so
// the "double on overflow, trim to exact length" policy of §4.2 falls out
// of ordinary slice append followed by a final len-bound slice.
func Build(d *TupleBinaryDesc, values []typesys.DatValue) (Binary, error) {
	if len(values) != len(d.fields) {
		return nil, errs.New(errs.TupleErr, "value count does not match descriptor field count")
	}

	buf := make([]byte, d.MetaSize())

	for _, idx := range d.fixedOrder {
		f := d.fields[idx]
		ft := typesys.TableFor(f.Type.Id())
		n, err := ft.SendTo(values[idx], buf[f.fixedOffset:f.fixedOffset+f.fixedLen])
		if err != nil {
			return nil, err
		}
		if n != f.fixedLen {
			return nil, errs.New(errs.TupleErr, "fixed field encoded to unexpected length")
		}
	}

	for _, idx := range d.varOrder {
		f := d.fields[idx]
		ft := typesys.TableFor(f.Type.Id())
		payload := ft.Send(values[idx])
		payloadOffset := len(buf)
		buf = append(buf, payload...)

		slot := make([]byte, slotSize)
		typesys.NetOrder.PutUint32(slot[0:4], uint32(payloadOffset))
		typesys.NetOrder.PutUint32(slot[4:8], uint32(len(payload)))
		copy(buf[f.slotTableOffset:f.slotTableOffset+slotSize], slot)
	}

	return buf[:len(buf):len(buf)], nil
}
