package transcoder

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/refgraph/atom"
	"github.com/wippyai/refgraph/errors"
	"github.com/wippyai/refgraph/table"
)

type fillStatus uint8

const (
	statusPending fillStatus = iota
	statusFilling
	statusDone
)

// Decoder rebuilds a live graph from a reference table.
// A Decoder is safe for concurrent use; all reconstruction state is per call.
type Decoder struct {
	compiler *Compiler
	atoms    *atom.Codec
	cfg      Config
}

func NewDecoder(cfg Config) *Decoder {
	return NewDecoderWithCompiler(cfg, NewCompiler())
}

func NewDecoderWithCompiler(cfg Config, c *Compiler) *Decoder {
	cfg = cfg.withDefaults()
	return &Decoder{
		compiler: c,
		atoms:    cfg.atomCodec(),
		cfg:      cfg,
	}
}

// Decode returns the value at position 0, or the root cell's value when the
// document carries no table.
func (d *Decoder) Decode(doc *table.Document) (any, error) {
	if doc == nil {
		return nil, errors.InvalidInput(errors.PhaseDecode, "document is nil")
	}

	st := getDecodeState(doc.Table)
	defer putDecodeState(st, d.cfg.Cleanup)

	root, err := d.decode(st, doc)
	if err != nil {
		return nil, err
	}
	if !doc.IsTable() {
		return d.atomValue(root, nil)
	}
	return root, d.normalize(st)
}

func (d *Decoder) decode(st *decodeState, doc *table.Document) (any, error) {
	if !doc.IsTable() {
		return d.decodeRoot(doc.Root)
	}
	if doc.Table.Len() == 0 {
		return nil, errors.UnknownEncoding(errors.PhaseDecode, nil, nil, "table has no root entry")
	}

	revived, err := d.allocate(st)
	if err != nil {
		return nil, err
	}
	for i := range st.values {
		if err := d.fill(st, i); err != nil {
			return nil, err
		}
	}

	d.cfg.log().Debug("decoded table",
		zap.Int("entries", len(st.values)),
		zap.Int("revived", revived),
		zap.Stringer("root_type", st.values[0].Type()))
	return st.values[0].Interface(), nil
}

func (d *Decoder) decodeRoot(cell table.Cell) (any, error) {
	switch c := cell.(type) {
	case table.Atom:
		return c.Value, nil
	case table.Ref:
		if c.IsUndefined() {
			return atom.Undefined{}, nil
		}
		return nil, errors.UnknownEncoding(errors.PhaseDecode, nil, c.Index,
			"stand-alone back-reference must be the Undefined sentinel")
	case table.Builder:
		return d.atoms.Decode(c)
	default:
		return nil, errors.UnknownEncoding(errors.PhaseDecode, nil, cell, "cell matches no recognized shape")
	}
}

// allocate creates the live value of every entry: the registered type for
// tagged records when reviving, map[string]any for other records, []any for
// sequences. It returns the number of revived entries.
func (d *Decoder) allocate(st *decodeState) (int, error) {
	revived := 0
	for i, e := range st.table.Entries() {
		path := []string{"[" + strconv.Itoa(i) + "]"}
		if e == nil {
			return 0, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
				Path(path...).
				Detail("position reserved but never filled").
				Build()
		}

		if e.Kind == table.KindSequence {
			st.values[i] = reflect.ValueOf(make([]any, len(e.Items)))
			continue
		}

		if !d.cfg.ReviveTypes || e.Type == "" {
			st.values[i] = reflect.ValueOf(make(map[string]any, len(e.Fields)))
			continue
		}

		t, err := d.cfg.Resolver.TypeFor(e.Type)
		if err != nil {
			return 0, errors.UnknownConstructor(errors.PhaseDecode, path, e.Type)
		}
		switch t.Kind() {
		case reflect.Struct:
			st.values[i] = reflect.New(t)
		case reflect.Map:
			if _, err := d.compiler.Compile(t); err != nil {
				return 0, errors.WithPath(err, path)
			}
			st.values[i] = reflect.MakeMapWithSize(t, len(e.Fields))
		default:
			return 0, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
				Path(path...).
				GoType(t.String()).
				TypeName(e.Type).
				Detail("type tag must name a struct or map type").
				Build()
		}
		revived++
	}
	return revived, nil
}

// fill resolves the cells of entry i. Referenced entries are filled first so
// that value copies into typed slots see complete data; an entry already being
// filled is part of a cycle and is used as it stands.
func (d *Decoder) fill(st *decodeState, i int) error {
	if st.status[i] != statusPending {
		return nil
	}
	st.status[i] = statusFilling

	e := st.table.Entries()[i]
	live := st.values[i]
	path := []string{"[" + strconv.Itoa(i) + "]"}

	switch {
	case e.Kind == table.KindSequence:
		items := live.Interface().([]any)
		for j, cell := range e.Items {
			v, err := d.resolveCell(st, cell, append(path, "["+strconv.Itoa(j)+"]"))
			if err != nil {
				return err
			}
			items[j] = v
		}

	case live.Kind() == reflect.Pointer:
		ct, err := d.compiler.Compile(live.Type())
		if err != nil {
			return errors.WithPath(err, path)
		}
		for _, f := range e.Fields {
			v, err := d.resolveCell(st, f.Cell, append(path, f.Key))
			if err != nil {
				return err
			}
			if err := d.setField(st, live.Elem(), ct, f.Key, v, append(path, f.Key)); err != nil {
				return err
			}
		}

	case live.Type() == untypedRecordType:
		m := live.Interface().(map[string]any)
		for _, f := range e.Fields {
			v, err := d.resolveCell(st, f.Cell, append(path, f.Key))
			if err != nil {
				return err
			}
			m[f.Key] = v
		}

	default:
		for _, f := range e.Fields {
			v, err := d.resolveCell(st, f.Cell, append(path, f.Key))
			if err != nil {
				return err
			}
			if err := d.setMapIndex(st, live, f.Key, v, append(path, f.Key)); err != nil {
				return err
			}
		}
	}

	st.status[i] = statusDone
	return nil
}

func (d *Decoder) resolveCell(st *decodeState, cell table.Cell, path []string) (any, error) {
	switch c := cell.(type) {
	case table.Atom:
		return c.Value, nil
	case table.Ref:
		if c.IsUndefined() {
			return atom.Undefined{}, nil
		}
		if c.Index < 0 || c.Index >= len(st.values) {
			return nil, errors.UnknownEncoding(errors.PhaseDecode, path, c.Index, "back-reference outside the table")
		}
		if err := d.fill(st, c.Index); err != nil {
			return nil, err
		}
		return st.values[c.Index].Interface(), nil
	case table.Builder:
		v, err := d.atoms.Decode(c)
		if err != nil {
			return nil, errors.WithPath(err, path)
		}
		return v, nil
	default:
		return nil, errors.UnknownEncoding(errors.PhaseDecode, path, cell, "cell matches no recognized shape")
	}
}

// normalize turns the numbers left in untyped records and sequences into
// float64 unless UseNumber is set. Typed slots have already parsed the exact
// digits by the time it runs.
func (d *Decoder) normalize(st *decodeState) error {
	if d.cfg.UseNumber {
		return nil
	}
	for i, live := range st.values {
		if !live.IsValid() {
			continue
		}
		switch x := live.Interface().(type) {
		case []any:
			for j, v := range x {
				if _, ok := v.(json.Number); !ok {
					continue
				}
				f, err := d.atomValue(v, []string{"[" + strconv.Itoa(i) + "]", "[" + strconv.Itoa(j) + "]"})
				if err != nil {
					return err
				}
				x[j] = f
			}
		case map[string]any:
			if live.Type() != untypedRecordType {
				continue
			}
			for k, v := range x {
				if _, ok := v.(json.Number); !ok {
					continue
				}
				f, err := d.atomValue(v, []string{"[" + strconv.Itoa(i) + "]", k})
				if err != nil {
					return err
				}
				x[k] = f
			}
		}
	}
	return nil
}

func (d *Decoder) atomValue(v any, path []string) (any, error) {
	n, ok := v.(json.Number)
	if !ok || d.cfg.UseNumber {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, errors.Overflow(errors.PhaseDecode, path, n, "float64")
	}
	return f, nil
}

// setField assigns v to the struct field carried under key. Unknown keys are skipped.
func (d *Decoder) setField(st *decodeState, sv reflect.Value, ct *CompiledType, key string, v any, path []string) error {
	f, ok := ct.FieldByWire(key)
	if !ok {
		d.cfg.log().Debug("skipping unknown field",
			zap.String("type", ct.GoType.String()),
			zap.String("key", key))
		return nil
	}
	return d.assign(st, sv.FieldByIndex(f.Index), v, path)
}

func (d *Decoder) setMapIndex(st *decodeState, m reflect.Value, key string, v any, path []string) error {
	t := m.Type()
	k := reflect.New(t.Key()).Elem()
	if err := assignKey(k, key, path); err != nil {
		return err
	}
	elem := reflect.New(t.Elem()).Elem()
	if err := d.assign(st, elem, v, path); err != nil {
		return err
	}
	m.SetMapIndex(k, elem)
	return nil
}

// sortedKeys returns the keys of m in order, for deterministic conversion.
func sortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
