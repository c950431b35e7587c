package table

// UndefinedIndex is the back-reference index that stands for the Undefined atom.
const UndefinedIndex = -1

// Cell is one encoded property value or sequence item.
type Cell interface {
	isCell()
}

// Atom is a plain JSON value passed through unchanged.
// Numbers read back from text are json.Number.
type Atom struct {
	Value any
}

// Ref points at a table position, or at UndefinedIndex.
type Ref struct {
	Index int
}

// Builder asks the decoder to call the constructor registered under Type with Args.
type Builder struct {
	Type string
	Args []any
}

func (Atom) isCell()    {}
func (Ref) isCell()     {}
func (Builder) isCell() {}

// IsUndefined reports whether r is the Undefined sentinel.
func (r Ref) IsUndefined() bool {
	return r.Index == UndefinedIndex
}

// EntryKind distinguishes keyed records from sequences.
type EntryKind uint8

const (
	KindRecord EntryKind = iota
	KindSequence
)

func (k EntryKind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Field is one keyed cell of a record entry.
type Field struct {
	Cell Cell
	Key  string
}

// Entry is the encoded form of one compound value.
type Entry struct {
	Type   string // type tag, empty when untyped
	Fields []Field
	Items  []Cell
	Kind   EntryKind
}

// NewRecord creates a record entry with room for n fields.
func NewRecord(n int) *Entry {
	return &Entry{Kind: KindRecord, Fields: make([]Field, 0, n)}
}

// NewSequence creates a sequence entry with room for n items.
func NewSequence(n int) *Entry {
	return &Entry{Kind: KindSequence, Items: make([]Cell, 0, n)}
}

// Add appends a keyed cell to a record entry.
func (e *Entry) Add(key string, c Cell) {
	e.Fields = append(e.Fields, Field{Key: key, Cell: c})
}

// Append appends an item to a sequence entry.
func (e *Entry) Append(c Cell) {
	e.Items = append(e.Items, c)
}

// Len returns the number of fields or items.
func (e *Entry) Len() int {
	if e.Kind == KindSequence {
		return len(e.Items)
	}
	return len(e.Fields)
}

// Lookup returns the cell stored under key in a record entry.
func (e *Entry) Lookup(key string) (Cell, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Cell, true
		}
	}
	return nil, false
}

// Each calls fn for every cell with its key, or its "[i]" index for sequences.
func (e *Entry) Each(fn func(key string, c Cell) bool) {
	if e.Kind == KindSequence {
		for i, c := range e.Items {
			if !fn(indexKey(i), c) {
				return
			}
		}
		return
	}
	for _, f := range e.Fields {
		if !fn(f.Key, f.Cell) {
			return
		}
	}
}

// Refs returns the positions this entry references, in cell order, without Undefined.
func (e *Entry) Refs() []int {
	var out []int
	e.Each(func(_ string, c Cell) bool {
		if r, ok := c.(Ref); ok && !r.IsUndefined() {
			out = append(out, r.Index)
		}
		return true
	})
	return out
}

// Document is a decoded or to-be-encoded text: either a table, or a single
// root cell when the root value is an atom.
type Document struct {
	Table *Table
	Root  Cell
}

// IsTable reports whether the document carries a table.
func (d *Document) IsTable() bool {
	return d.Table != nil
}
