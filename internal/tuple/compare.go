package tuple

import "github.com/mududb/mududb/internal/typesys"

// iterOrder is the field-iteration order §4.2 mandates for Compare/Equal/
// Hash: fixed fields first (declaration order), then variable fields
// (declaration order).
func (d *TupleBinaryDesc) iterOrder() []int {
	out := make([]int, 0, len(d.fields))
	out = append(out, d.fixedOrder...)
	out = append(out, d.varOrder...)
	return out
}

// Compare implements §4.2's total order: iterate fixed fields then
// variable fields, short-circuiting on the first non-equal field.
func Compare(d *TupleBinaryDesc, a, b Binary) (int, error) {
	for _, idx := range d.iterOrder() {
		f := d.fields[idx]
		av, err := Read(d, a, idx)
		if err != nil {
			return 0, err
		}
		bv, err := Read(d, b, idx)
		if err != nil {
			return 0, err
		}
		ft := typesys.TableFor(f.Type.Id())
		if c := ft.Order(av, bv); c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// Equal reports whether a and b decode to the same sequence of values.
func Equal(d *TupleBinaryDesc, a, b Binary) (bool, error) {
	c, err := Compare(d, a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// Hash folds every field's own Hash into seed, in the same iteration order
// as Compare, so Equal(a,b) == true implies Hash(a) == Hash(b) (§8.4).
func Hash(d *TupleBinaryDesc, t Binary, seed uint64) (uint64, error) {
	h := seed
	for _, idx := range d.iterOrder() {
		f := d.fields[idx]
		v, err := Read(d, t, idx)
		if err != nil {
			return 0, err
		}
		h = typesys.TableFor(f.Type.Id()).Hash(v, h)
	}
	return h, nil
}
