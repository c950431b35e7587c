package transcoder

import (
	"encoding"
	"reflect"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/refgraph/atom"
	"github.com/wippyai/refgraph/errors"
	"github.com/wippyai/refgraph/table"
)

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Encoder linearizes a live graph into a reference table.
// An Encoder is safe for concurrent use; all traversal state is per call.
type Encoder struct {
	compiler *Compiler
	atoms    *atom.Codec
	codec    table.Codec
	cfg      Config
}

func NewEncoder(cfg Config) *Encoder {
	return NewEncoderWithCompiler(cfg, NewCompiler())
}

func NewEncoderWithCompiler(cfg Config, c *Compiler) *Encoder {
	cfg = cfg.withDefaults()
	return &Encoder{
		compiler: c,
		atoms:    cfg.atomCodec(),
		codec:    table.NewCodec(cfg.Prefix),
		cfg:      cfg,
	}
}

// Encode walks v once. An atom root yields a document without a table;
// a compound root yields a table whose entry 0 is the root.
func (e *Encoder) Encode(v any, filter Filter) (*table.Document, error) {
	st := getEncodeState(filter)
	defer putEncodeState(st, e.cfg.Cleanup)

	cell, err := e.encodeValue(st, reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}

	if st.table.Len() == 0 {
		return &table.Document{Root: cell}, nil
	}

	doc := &table.Document{Table: st.table}
	st.table = nil

	e.cfg.log().Debug("encoded graph",
		zap.Int("entries", doc.Table.Len()),
		zap.Stringer("root_kind", doc.Table.Root().Kind),
		zap.String("root_type", doc.Table.Root().Type))
	return doc, nil
}

func (e *Encoder) encodeValue(st *encodeState, v reflect.Value) (table.Cell, error) {
	v = indirect(v)

	cell, isAtom, err := e.atoms.Encode(v)
	if err != nil {
		return nil, errors.WithPath(err, st.path)
	}
	if isAtom {
		return cell, nil
	}

	// Pointers to maps and slices share the identity of what they point at.
	if v.Kind() == reflect.Pointer {
		switch v.Type().Elem().Kind() {
		case reflect.Map, reflect.Slice:
			v = v.Elem()
			if v.IsNil() {
				return table.Atom{}, nil
			}
		}
	}

	id, hasID := identityOf(v)
	if hasID {
		if pos, ok := st.seen[id]; ok {
			return table.Ref{Index: pos}, nil
		}
	}

	pos := st.table.Reserve()
	if hasID {
		st.seen[id] = pos
	}

	target := v
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
	}

	ct, err := e.compiler.Compile(target.Type())
	if err != nil {
		return nil, errors.WithPath(err, st.path)
	}

	var entry *table.Entry
	switch ct.Kind {
	case KindStruct:
		entry, err = e.encodeStruct(st, ct, target)
	case KindMap:
		entry, err = e.encodeMap(st, target)
	default:
		entry, err = e.encodeSequence(st, target)
	}
	if err != nil {
		return nil, err
	}

	if ct.IsRecord() && e.cfg.ReviveTypes {
		name, err := e.typeTag(st, target.Type())
		if err != nil {
			return nil, err
		}
		entry.Type = name
	}

	st.table.Set(pos, entry)
	return table.Ref{Index: pos}, nil
}

// indirect strips interfaces and pointer chains down to the last pointer.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return v
			}
			v = v.Elem()
		case reflect.Pointer:
			if v.IsNil() {
				return v
			}
			switch v.Type().Elem().Kind() {
			case reflect.Pointer, reflect.Interface:
				v = v.Elem()
			default:
				return v
			}
		default:
			return v
		}
	}
	return v
}

// identityOf returns the sharing key of v. Struct and array values and empty
// slices have none.
func identityOf(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		return identity{typ: v.Type(), ptr: v.UnsafePointer()}, true
	case reflect.Slice:
		if v.Len() == 0 {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.UnsafePointer(), len: v.Len()}, true
	default:
		return identity{}, false
	}
}

func (e *Encoder) encodeStruct(st *encodeState, ct *CompiledType, v reflect.Value) (*table.Entry, error) {
	entry := table.NewRecord(len(ct.Fields))
	for i := range ct.Fields {
		f := &ct.Fields[i]
		fv := v.FieldByIndex(f.Index)
		if f.OmitEmpty && isEmptyValue(fv) {
			continue
		}
		if err := e.encodeField(st, entry, f.WireName, fv); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

func (e *Encoder) encodeMap(st *encodeState, v reflect.Value) (*table.Entry, error) {
	type kv struct {
		key string
		val reflect.Value
	}

	pairs := make([]kv, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := mapKeyString(iter.Key())
		if err != nil {
			return nil, errors.WithPath(err, st.path)
		}
		pairs = append(pairs, kv{key: key, val: iter.Value()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	entry := table.NewRecord(len(pairs))
	for _, p := range pairs {
		if err := e.encodeField(st, entry, p.key, p.val); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

func (e *Encoder) encodeField(st *encodeState, entry *table.Entry, key string, fv reflect.Value) error {
	if e.codec.IsReserved(key) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Path(append(st.path, key)...).
			Detail("key uses the reserved prefix %q", e.codec.Prefix()).
			Build()
	}

	if st.filter != nil {
		var val any
		if fv.IsValid() && fv.CanInterface() {
			val = fv.Interface()
		}
		out, keep := st.filter.Filter(key, val)
		if !keep {
			return nil
		}
		fv = reflect.ValueOf(out)
	}

	st.path = append(st.path, key)
	cell, err := e.encodeValue(st, fv)
	st.path = st.path[:len(st.path)-1]
	if err != nil {
		return err
	}
	entry.Add(key, cell)
	return nil
}

func (e *Encoder) encodeSequence(st *encodeState, v reflect.Value) (*table.Entry, error) {
	n := v.Len()
	entry := table.NewSequence(n)
	for i := 0; i < n; i++ {
		st.path = append(st.path, "["+strconv.Itoa(i)+"]")
		cell, err := e.encodeValue(st, v.Index(i))
		st.path = st.path[:len(st.path)-1]
		if err != nil {
			return nil, err
		}
		entry.Append(cell)
	}
	return entry, nil
}

// typeTag names t and checks that the name resolves back to t.
func (e *Encoder) typeTag(st *encodeState, t reflect.Type) (string, error) {
	name, err := e.cfg.Resolver.NameFor(t)
	if err != nil {
		return "", errors.WithPath(err, st.path)
	}
	if name == "" {
		return "", nil
	}

	bound, err := e.cfg.Resolver.TypeFor(name)
	if err != nil {
		return "", errors.WithPath(err, st.path)
	}
	if bound != t {
		return "", errors.ConstructorMismatch(st.path, t.String(), name, bound.String())
	}
	return name, nil
}

func mapKeyString(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if k.Type().Implements(textMarshalerType) {
		b, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", errors.Wrap(errors.PhaseEncode, errors.KindUnserializable, err, "map key MarshalText failed")
		}
		return string(b), nil
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", errors.New(errors.PhaseEncode, errors.KindUnserializable).
		GoType(k.Type().String()).
		Detail("unsupported map key type").
		Build()
}
