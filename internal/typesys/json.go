package typesys

import "encoding/json"

// typeWire is the self-describing JSON form of a DatType, letting a
// DatValue's JSON encoding carry enough type information to decode itself
// without an external descriptor (used by the WASM host-call ABI, which
// ships ad-hoc bind parameters with no pre-agreed schema).
type typeWire struct {
	ID         DatTypeId    `json:"id"`
	MaxLen     int          `json:"max_len,omitempty"`
	Elem       *typeWire    `json:"elem,omitempty"`
	RecordName string       `json:"record_name,omitempty"`
	Fields     []fieldWire  `json:"fields,omitempty"`
}

type fieldWire struct {
	Name string   `json:"name"`
	Type typeWire `json:"type"`
}

func toTypeWire(t *DatType) typeWire {
	w := typeWire{ID: t.Id(), MaxLen: t.MaxLen(), RecordName: t.RecordName()}
	if t.Elem() != nil {
		e := toTypeWire(t.Elem())
		w.Elem = &e
	}
	for _, f := range t.Fields() {
		w.Fields = append(w.Fields, fieldWire{Name: f.Name, Type: toTypeWire(f.Type)})
	}
	return w
}

func (w typeWire) toDatType() *DatType {
	switch w.ID {
	case String:
		return NewStringType(w.MaxLen)
	case Array:
		return NewArrayType(w.Elem.toDatType())
	case Record:
		fields := make([]RecordField, len(w.Fields))
		for i, f := range w.Fields {
			fields[i] = RecordField{Name: f.Name, Type: f.Type.toDatType()}
		}
		return NewRecord(w.RecordName, fields)
	default:
		return NewScalar(w.ID)
	}
}

// MarshalJSON renders a DatType self-describing, the same typeWire shape
// DatValue's envelope embeds, so a bare *DatType can be serialized on its
// own wherever a type is described without an accompanying value (e.g. a
// procedure package's param/return descriptors, §6).
func (t *DatType) MarshalJSON() ([]byte, error) {
	return json.Marshal(toTypeWire(t))
}

// UnmarshalJSON reverses MarshalJSON.
func (t *DatType) UnmarshalJSON(data []byte) error {
	var w typeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = *w.toDatType()
	return nil
}

// datValueWire is the JSON envelope for one DatValue: its type plus the
// scalar/composite payload, recursively for Array and Record.
type datValueWire struct {
	Type typeWire        `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON renders v self-describing, recursing through Array/Record
// elements and delegating scalar payload encoding to the value's own
// FuncTable.ToJSON (§4.1).
func (v DatValue) MarshalJSON() ([]byte, error) {
	var data json.RawMessage
	var err error
	switch v.Type.Id() {
	case Array:
		data, err = json.Marshal(v.arr)
	case Record:
		data, err = json.Marshal(v.rec)
	default:
		data, err = TableFor(v.Type.Id()).ToJSON(v)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(datValueWire{Type: toTypeWire(v.Type), Data: data})
}

// UnmarshalJSON reverses MarshalJSON.
func (v *DatValue) UnmarshalJSON(data []byte) error {
	var w datValueWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t := w.Type.toDatType()

	switch t.Id() {
	case Array:
		var elems []DatValue
		if err := json.Unmarshal(w.Data, &elems); err != nil {
			return err
		}
		*v = NewArrayValue(t, elems)
	case Record:
		var elems []DatValue
		if err := json.Unmarshal(w.Data, &elems); err != nil {
			return err
		}
		*v = NewRecordValue(t, elems)
	default:
		dv, err := TableFor(t.Id()).FromJSON(t, w.Data)
		if err != nil {
			return err
		}
		*v = dv
	}
	return nil
}
