// Package atom encodes leaf values that plain JSON cannot carry.
//
// Callables are rejected, fragments, times, patterns, non-finite floats and
// Marshaler values become builder cells, Undefined becomes the -1
// back-reference, and every other primitive passes through as an atom cell.
// Structs, maps, slices and arrays are compounds and are left to the caller.
package atom

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"time"

	"github.com/wippyai/refgraph/errors"
	"github.com/wippyai/refgraph/resolver"
	"github.com/wippyai/refgraph/table"
)

// Undefined is the missing value: absent, as opposed to nil.
type Undefined struct{}

// Marshaler is implemented by values that encode as a builder cell.
// The name must resolve to a constructor when decoding.
type Marshaler interface {
	MarshalAtom() (name string, args []any, err error)
}

// Unmarshaler is implemented by registered types rebuilt from builder args.
type Unmarshaler = resolver.Unmarshaler

// Boxed is implemented by constructor results that stand for a bare value.
// Decoding replaces them with UnboxAtom's result.
type Boxed interface {
	UnboxAtom() any
}

var (
	undefinedType  = reflect.TypeOf((*Undefined)(nil)).Elem()
	timeType       = reflect.TypeOf((*time.Time)(nil)).Elem()
	regexpType     = reflect.TypeOf((**regexp.Regexp)(nil)).Elem()
	numberType     = reflect.TypeOf((*json.Number)(nil)).Elem()
	fragmentType   = reflect.TypeOf((*Fragment)(nil)).Elem()
	marshalerType  = reflect.TypeOf((*Marshaler)(nil)).Elem()
	fragmentSuffix = "Fragment"
)

// Codec encodes atoms and decodes builder cells.
type Codec struct {
	Resolver  resolver.Resolver
	Fragments FragmentParser
	Prefix    string
	UseNumber bool
}

// FragmentName returns the reserved builder name for fragments under prefix.
func FragmentName(prefix string) string {
	if prefix == "" {
		prefix = table.DefaultPrefix
	}
	return prefix + fragmentSuffix
}

// Encode classifies v. It returns the cell and true for atoms, or false for
// compound values the caller must traverse.
func (c *Codec) Encode(v reflect.Value) (table.Cell, bool, error) {
	for {
		if !v.IsValid() {
			return table.Atom{}, true, nil
		}

		switch v.Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
			return nil, true, errors.Unserializable(nil, v.Type().String())
		case reflect.Interface:
			if v.IsNil() {
				return table.Atom{}, true, nil
			}
			v = v.Elem()
			continue
		}

		if cell, ok, err := c.encodeSpecial(v); ok || err != nil {
			return cell, true, err
		}

		if v.Kind() != reflect.Pointer {
			break
		}
		if v.IsNil() {
			return table.Atom{}, true, nil
		}
		if elem := v.Type().Elem(); !isSpecial(elem) {
			switch elem.Kind() {
			case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
				return nil, false, nil
			}
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Bool:
		return table.Atom{Value: v.Bool()}, true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return table.Atom{Value: v.Int()}, true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return table.Atom{Value: v.Uint()}, true, nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return table.Builder{Type: resolver.NameNumber, Args: []any{formatNonFinite(f)}}, true, nil
		}
		if v.Kind() == reflect.Float32 {
			return table.Atom{Value: float32(f)}, true, nil
		}
		return table.Atom{Value: f}, true, nil
	case reflect.String:
		if v.Type() == numberType {
			return table.Atom{Value: json.Number(v.String())}, true, nil
		}
		return table.Atom{Value: v.String()}, true, nil
	case reflect.Slice:
		if v.IsNil() {
			return table.Atom{}, true, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return table.Atom{Value: base64.StdEncoding.EncodeToString(v.Bytes())}, true, nil
		}
		return nil, false, nil
	case reflect.Map:
		if v.IsNil() {
			return table.Atom{}, true, nil
		}
		return nil, false, nil
	default:
		return nil, false, nil
	}
}

// encodeSpecial handles the types with a dedicated encoding.
func (c *Codec) encodeSpecial(v reflect.Value) (table.Cell, bool, error) {
	t := v.Type()
	switch {
	case t == undefinedType:
		return table.Ref{Index: table.UndefinedIndex}, true, nil
	case t.Implements(fragmentType):
		if t.Kind() == reflect.Pointer && v.IsNil() {
			return table.Atom{}, true, nil
		}
		text, err := v.Interface().(Fragment).RenderFragment()
		if err != nil {
			return nil, true, errors.New(errors.PhaseEncode, errors.KindUnserializable).
				GoType(t.String()).
				Cause(err).
				Detail("fragment could not be rendered").
				Build()
		}
		return table.Builder{Type: FragmentName(c.Prefix), Args: []any{text}}, true, nil
	case t == timeType:
		return dateBuilder(v.Interface().(time.Time)), true, nil
	case t == regexpType:
		if v.IsNil() {
			return table.Atom{}, true, nil
		}
		source, flags := resolver.SplitPattern(v.Interface().(*regexp.Regexp))
		return table.Builder{Type: resolver.NameRegExp, Args: []any{source, flags}}, true, nil
	case t.Implements(marshalerType):
		if t.Kind() == reflect.Pointer && v.IsNil() {
			return table.Atom{}, true, nil
		}
		name, args, err := v.Interface().(Marshaler).MarshalAtom()
		if err != nil || name == "" {
			return nil, true, errors.New(errors.PhaseEncode, errors.KindUnserializable).
				GoType(t.String()).
				Cause(err).
				Detail("MarshalAtom must return a builder name").
				Build()
		}
		return table.Builder{Type: name, Args: args}, true, nil
	}
	return nil, false, nil
}

func isSpecial(t reflect.Type) bool {
	return t == undefinedType || t == timeType ||
		t.Implements(fragmentType) || t.Implements(marshalerType)
}

func dateBuilder(t time.Time) table.Builder {
	return table.Builder{Type: resolver.NameDate, Args: []any{t.Format(time.RFC3339Nano)}}
}

func formatNonFinite(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f > 0:
		return "Infinity"
	default:
		return "-Infinity"
	}
}

// Decode rebuilds the value a builder cell stands for.
func (c *Codec) Decode(b table.Builder) (any, error) {
	args := b.Args
	if !c.UseNumber {
		args = normalizeArgs(args)
	}

	if b.Type == FragmentName(c.Prefix) {
		parser := c.Fragments
		if parser == nil {
			parser = RawParser
		}
		text, ok := firstString(args)
		if !ok || len(args) != 1 {
			return nil, errors.UnknownEncoding(errors.PhaseDecode, nil, b.Args,
				"fragment builder takes one string argument")
		}
		v, err := parser.ParseFragment(text)
		if err != nil {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
				TypeName(b.Type).
				Cause(err).
				Detail("fragment could not be parsed").
				Build()
		}
		return v, nil
	}

	r := c.Resolver
	if r == nil {
		r = resolver.Default()
	}
	ctor, err := r.ConstructorFor(b.Type)
	if err != nil {
		return nil, errors.UnknownConstructor(errors.PhaseDecode, nil, b.Type)
	}
	v, err := ctor(args...)
	if err != nil {
		return nil, err
	}
	if boxed, ok := v.(Boxed); ok {
		return boxed.UnboxAtom(), nil
	}
	return v, nil
}

func firstString(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok
}

// normalizeArgs replaces json.Number with float64, recursively.
func normalizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = normalize(a)
	}
	return out
}

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x
		}
		return f
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	default:
		return v
	}
}
