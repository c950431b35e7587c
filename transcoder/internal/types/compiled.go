package types

import (
	"reflect"
)

type CompiledType struct {
	GoType   reflect.Type
	ElemType reflect.Type
	KeyType  reflect.Type
	index    map[string]int
	Fields   []Field
	Kind     Kind
}

// Field describes one exported struct field as it appears on the wire.
type Field struct {
	Type      reflect.Type
	Name      string
	WireName  string
	Index     []int
	OmitEmpty bool
}

// SetFields installs fields and rebuilds the wire name index.
func (ct *CompiledType) SetFields(fields []Field) {
	ct.Fields = fields
	ct.index = make(map[string]int, len(fields))
	for i, f := range fields {
		ct.index[f.WireName] = i
	}
}

// FieldByWire returns the field carried under a wire name.
func (ct *CompiledType) FieldByWire(name string) (*Field, bool) {
	i, ok := ct.index[name]
	if !ok {
		return nil, false
	}
	return &ct.Fields[i], true
}

func (ct *CompiledType) IsRecord() bool {
	return ct.Kind.IsRecord()
}
