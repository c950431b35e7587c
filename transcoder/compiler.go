package transcoder

import (
	"reflect"
	"strings"
	"sync"

	"github.com/wippyai/refgraph/errors"
	"github.com/wippyai/refgraph/transcoder/internal/types"
)

// Compiler caches the wire view of Go compound types.
type Compiler struct {
	cache sync.Map // reflect.Type -> *CompiledType
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile returns the compiled form of a struct, map, slice or array type.
// Pointer types compile as their element type.
func (c *Compiler) Compile(goType reflect.Type) (*CompiledType, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("Go type cannot be nil").
			Build()
	}
	for goType.Kind() == reflect.Pointer {
		goType = goType.Elem()
	}

	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}

	ct, err := c.compile(goType)
	if err != nil {
		return nil, err
	}

	actual, _ := c.cache.LoadOrStore(goType, ct)
	return actual.(*CompiledType), nil
}

func (c *Compiler) compile(goType reflect.Type) (*CompiledType, error) {
	kind := types.KindOf(goType.Kind())
	ct := &CompiledType{GoType: goType, Kind: kind}

	switch kind {
	case types.KindStruct:
		ct.SetFields(structFields(goType, nil, nil))
	case types.KindMap:
		if !validMapKey(goType.Key()) {
			return nil, errors.New(errors.PhaseEncode, errors.KindUnserializable).
				GoType(goType.String()).
				Detail("map keys must be strings, integers or encoding.TextMarshaler").
				Build()
		}
		ct.KeyType = goType.Key()
		ct.ElemType = goType.Elem()
	case types.KindSlice, types.KindArray:
		ct.ElemType = goType.Elem()
	default:
		return nil, errors.TypeMismatch(errors.PhaseEncode, nil, goType.String(), "struct, map, slice or array")
	}
	return ct, nil
}

// structFields lists exported fields in declaration order, followed by the
// fields promoted from untagged embedded structs. The first field to claim a
// wire name keeps it.
func structFields(t reflect.Type, index []int, seen map[string]struct{}) []CompiledField {
	if seen == nil {
		seen = make(map[string]struct{})
	}

	var fields []CompiledField
	var embedded []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, omitEmpty, skip := parseTag(sf)
		if skip {
			continue
		}

		if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct {
			embedded = append(embedded, sf)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		fields = append(fields, CompiledField{
			Type:      sf.Type,
			Name:      sf.Name,
			WireName:  name,
			Index:     appendIndex(index, sf.Index[0]),
			OmitEmpty: omitEmpty,
		})
	}

	for _, sf := range embedded {
		fields = append(fields, structFields(sf.Type, appendIndex(index, sf.Index[0]), seen)...)
	}
	return fields
}

func appendIndex(index []int, i int) []int {
	out := make([]int, len(index), len(index)+1)
	copy(out, index)
	return append(out, i)
}

func parseTag(sf reflect.StructField) (name string, omitEmpty, skip bool) {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == "omitempty" || opt == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func validMapKey(t reflect.Type) bool {
	if t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

// isEmptyValue mirrors encoding/json's omitempty test.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}
