package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/refgraph/errors"
)

// DefaultPrefix namespaces every reserved key when no prefix is configured.
const DefaultPrefix = "$"

// Reserved key suffixes, appended to the prefix.
const (
	tagSuffix  = "+"
	refSuffix  = "="
	typeSuffix = "@"
	argsSuffix = "_"
)

// Codec reads and writes documents as JSON text.
type Codec struct {
	prefix string
}

// NewCodec creates a codec for prefix; an empty prefix selects DefaultPrefix.
func NewCodec(prefix string) Codec {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Codec{prefix: prefix}
}

// Prefix returns the reserved key namespace.
func (c Codec) Prefix() string { return c.prefix }

// TagKey is the record key carrying a type tag.
func (c Codec) TagKey() string { return c.prefix + tagSuffix }

// RefKey is the sole key of a back-reference cell.
func (c Codec) RefKey() string { return c.prefix + refSuffix }

// TypeKey is the builder key carrying the constructor name.
func (c Codec) TypeKey() string { return c.prefix + typeSuffix }

// ArgsKey is the builder key carrying the argument list.
func (c Codec) ArgsKey() string { return c.prefix + argsSuffix }

// IsReserved reports whether key lies in the reserved namespace.
func (c Codec) IsReserved(key string) bool {
	return strings.HasPrefix(key, c.prefix)
}

// Marshal writes doc as JSON. A non-empty indent pretty-prints with that indent.
func (c Codec) Marshal(doc *Document, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if doc.IsTable() {
		buf.WriteByte('[')
		for i, e := range doc.Table.Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if e == nil {
				return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
					Path(indexKey(i)).
					Detail("position reserved but never filled").
					Build()
			}
			if err := c.writeEntry(&buf, e); err != nil {
				return nil, err
			}
		}
		buf.WriteByte(']')
	} else if err := c.writeCell(&buf, doc.Root); err != nil {
		return nil, err
	}

	if indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidInput, err, "indent output")
	}
	return out.Bytes(), nil
}

func (c Codec) writeEntry(buf *bytes.Buffer, e *Entry) error {
	if e.Kind == KindSequence {
		buf.WriteByte('[')
		for i, item := range e.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := c.writeCell(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	buf.WriteByte('{')
	first := true
	if e.Type != "" {
		writeKey(buf, c.TagKey())
		writeString(buf, e.Type)
		first = false
	}
	for _, f := range e.Fields {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeKey(buf, f.Key)
		if err := c.writeCell(buf, f.Cell); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (c Codec) writeCell(buf *bytes.Buffer, cell Cell) error {
	switch v := cell.(type) {
	case Atom:
		data, err := json.Marshal(v.Value)
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindUnserializable).
				Value(v.Value).
				Cause(err).
				Detail("atom is not representable as JSON").
				Build()
		}
		buf.Write(data)
	case Ref:
		buf.WriteByte('{')
		writeKey(buf, c.RefKey())
		buf.WriteString(strconv.Itoa(v.Index))
		buf.WriteByte('}')
	case Builder:
		buf.WriteByte('{')
		writeKey(buf, c.TypeKey())
		writeString(buf, v.Type)
		buf.WriteByte(',')
		writeKey(buf, c.ArgsKey())
		args := v.Args
		if args == nil {
			args = []any{}
		}
		data, err := json.Marshal(args)
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindUnserializable).
				TypeName(v.Type).
				Cause(err).
				Detail("builder arguments are not representable as JSON").
				Build()
		}
		buf.Write(data)
		buf.WriteByte('}')
	default:
		return errors.New(errors.PhaseEncode, errors.KindUnknownEncoding).
			Detail("unknown cell type %T", cell).
			Build()
	}
	return nil
}

func writeKey(buf *bytes.Buffer, key string) {
	writeString(buf, key)
	buf.WriteByte(':')
}

func writeString(buf *bytes.Buffer, s string) {
	// json.Marshal of a string cannot fail.
	data, _ := json.Marshal(s)
	buf.Write(data)
}

// Unmarshal parses text into a document.
//
// A top-level array is a table; a top-level object must be a builder or the
// Undefined back-reference; anything else is a plain atom.
func (c Codec) Unmarshal(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	raw, err := readValue(dec)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindUnknownEncoding, err, "malformed text")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.PhaseParse, errors.KindUnknownEncoding).
			Detail("trailing data after document").
			Build()
	}

	switch v := raw.(type) {
	case []any:
		t, err := c.parseTable(v)
		if err != nil {
			return nil, err
		}
		return &Document{Table: t}, nil
	case *object:
		cell, err := c.parseCell(v, nil)
		if err != nil {
			return nil, err
		}
		if r, ok := cell.(Ref); ok && !r.IsUndefined() {
			return nil, errors.UnknownEncoding(errors.PhaseParse, nil, r.Index,
				"stand-alone back-reference must be the Undefined sentinel")
		}
		return &Document{Root: cell}, nil
	default:
		return &Document{Root: Atom{Value: v}}, nil
	}
}

func (c Codec) parseTable(raw []any) (*Table, error) {
	if len(raw) == 0 {
		return nil, errors.UnknownEncoding(errors.PhaseParse, nil, nil, "table has no root entry")
	}

	t := &Table{entries: make([]*Entry, 0, len(raw))}
	for i, item := range raw {
		path := []string{indexKey(i)}
		e, err := c.parseEntry(item, path)
		if err != nil {
			return nil, err
		}
		t.Append(e)
	}

	for i, e := range t.entries {
		var bad *errors.Error
		e.Each(func(key string, cell Cell) bool {
			if r, ok := cell.(Ref); ok && r.Index >= len(t.entries) {
				bad = errors.UnknownEncoding(errors.PhaseParse, []string{indexKey(i), key}, r.Index,
					"back-reference past the end of the table")
				return false
			}
			return true
		})
		if bad != nil {
			return nil, bad
		}
	}
	return t, nil
}

func (c Codec) parseEntry(raw any, path []string) (*Entry, error) {
	switch v := raw.(type) {
	case *object:
		e := NewRecord(len(v.keys))
		for _, k := range v.keys {
			if k == c.TagKey() {
				name, ok := v.values[k].(string)
				if !ok || name == "" {
					return nil, errors.UnknownEncoding(errors.PhaseParse, append(path, k), v.values[k],
						"type tag must be a non-empty string")
				}
				e.Type = name
				continue
			}
			if c.IsReserved(k) {
				return nil, errors.UnknownEncoding(errors.PhaseParse, append(path, k), nil,
					"unknown reserved key in record entry")
			}
			cell, err := c.parseCell(v.values[k], append(path, k))
			if err != nil {
				return nil, err
			}
			e.Add(k, cell)
		}
		return e, nil

	case []any:
		e := NewSequence(len(v))
		for i, item := range v {
			cell, err := c.parseCell(item, append(path, indexKey(i)))
			if err != nil {
				return nil, err
			}
			e.Append(cell)
		}
		return e, nil

	default:
		return nil, errors.UnknownEncoding(errors.PhaseParse, path, raw,
			"table entry must be an object or an array")
	}
}

func (c Codec) parseCell(raw any, path []string) (Cell, error) {
	switch v := raw.(type) {
	case nil, bool, string, json.Number:
		return Atom{Value: v}, nil

	case *object:
		if idx, ok := v.values[c.RefKey()]; ok {
			if len(v.keys) != 1 {
				return nil, errors.UnknownEncoding(errors.PhaseParse, path, nil,
					"back-reference carries extra keys")
			}
			n, ok := idx.(json.Number)
			if !ok {
				return nil, errors.UnknownEncoding(errors.PhaseParse, path, idx, "back-reference index is not a number")
			}
			i, err := strconv.Atoi(n.String())
			if err != nil || i < UndefinedIndex {
				return nil, errors.UnknownEncoding(errors.PhaseParse, path, n, "back-reference index is not a position")
			}
			return Ref{Index: i}, nil
		}

		if name, ok := v.values[c.TypeKey()]; ok {
			typeName, ok := name.(string)
			if !ok || typeName == "" {
				return nil, errors.UnknownEncoding(errors.PhaseParse, path, name, "builder type must be a non-empty string")
			}
			b := Builder{Type: typeName}
			for _, k := range v.keys {
				arg := v.values[k]
				switch k {
				case c.TypeKey():
				case c.ArgsKey():
					args, ok := arg.([]any)
					if !ok {
						return nil, errors.UnknownEncoding(errors.PhaseParse, path, arg, "builder arguments must be an array")
					}
					b.Args = args
				default:
					return nil, errors.UnknownEncoding(errors.PhaseParse, append(path, k), nil,
						"builder carries extra keys")
				}
			}
			return b, nil
		}

		return nil, errors.UnknownEncoding(errors.PhaseParse, path, nil,
			"object cell is neither a back-reference nor a builder")

	default:
		return nil, errors.UnknownEncoding(errors.PhaseParse, path, nil,
			"nested array cell; compound values must be back-references")
	}
}

// object is a parsed JSON object that remembers its key order.
type object struct {
	values map[string]any
	keys   []string
}

// readValue reads one JSON value token by token. Objects come back as
// *object, arrays as []any, numbers as json.Number. A repeated key keeps its
// first position and its last value.
func readValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '[':
		items := []any{}
		for dec.More() {
			v, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return items, nil

	case '{':
		obj := &object{values: make(map[string]any)}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T", kt)
			}
			v, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.values[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.values[key] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}
