// Package resultset implements MuduDB's result-set and entity adapters
// (C14): the row/field representation returned by query execution, and the
// naming convention used to expose internal types/fields to stored
// procedures (grounded on original_source/mudu/src/database/entity_utils.rs's
// object_<typename>/field_<typename> convention).
package resultset

import "github.com/mududb/mududb/internal/typesys"

// TupleFieldDesc describes one column of a result set: its name and type.
type TupleFieldDesc struct {
	Name string
	Type *typesys.DatType
}

// DatumDesc is the column-list form of a result set's shape.
type DatumDesc struct {
	Fields []TupleFieldDesc
}

// IndexOf returns the position of name in the descriptor, or -1.
func (d DatumDesc) IndexOf(name string) int {
	for i, f := range d.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// TupleField is one decoded column value within a TupleValue row.
type TupleField struct {
	Desc  TupleFieldDesc
	Value typesys.DatValue
}

// TupleValue is one row of a result set, positionally aligned with a
// DatumDesc.
type TupleValue struct {
	Desc   *DatumDesc
	Fields []typesys.DatValue
}

// Get returns the value of the named column.
func (t TupleValue) Get(name string) (typesys.DatValue, bool) {
	i := t.Desc.IndexOf(name)
	if i < 0 {
		return typesys.DatValue{}, false
	}
	return t.Fields[i], true
}

// ResultSet is an ordered collection of rows sharing one shape.
type ResultSet struct {
	Desc *DatumDesc
	Rows []TupleValue
}

// ObjectName returns the entity-adapter name a Go type is exposed under to
// stored procedures: "object_<typename>" for composite/record types.
func ObjectName(typeName string) string {
	return "object_" + typeName
}

// FieldName returns the entity-adapter name a single field is exposed
// under: "field_<typename>".
func FieldName(typeName string) string {
	return "field_" + typeName
}
