package table

import "strconv"

// Table is the ordered sequence of entries; position = identity.
type Table struct {
	entries []*Entry
}

// New creates an empty table.
func New() *Table {
	return &Table{entries: make([]*Entry, 0, 8)}
}

// Reserve claims the next position. The entry stays nil until Set.
func (t *Table) Reserve() int {
	t.entries = append(t.entries, nil)
	return len(t.entries) - 1
}

// Set stores e at a reserved position.
func (t *Table) Set(pos int, e *Entry) {
	t.entries[pos] = e
}

// Append adds e at the next position and returns it.
func (t *Table) Append(e *Entry) int {
	t.entries = append(t.entries, e)
	return len(t.entries) - 1
}

// Get returns the entry at pos. Reserved but unfilled positions return (nil, true).
func (t *Table) Get(pos int) (*Entry, bool) {
	if pos < 0 || pos >= len(t.entries) {
		return nil, false
	}
	return t.entries[pos], true
}

// Root returns entry 0.
func (t *Table) Root() *Entry {
	if len(t.entries) == 0 {
		return nil
	}
	return t.entries[0]
}

// Len returns the number of positions, filled or reserved.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns the backing slice. Callers must not retain it past Reset.
func (t *Table) Entries() []*Entry {
	return t.entries
}

// Reset empties the table, keeping capacity.
func (t *Table) Reset() {
	clear(t.entries)
	t.entries = t.entries[:0]
}

// Referrers returns the positions whose entries reference pos.
func (t *Table) Referrers(pos int) []int {
	var out []int
	for i, e := range t.entries {
		if e == nil {
			continue
		}
		for _, r := range e.Refs() {
			if r == pos {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func indexKey(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
