package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/refgraph/errors"
)

func sampleTable() *Table {
	t := New()
	root := t.Reserve()
	owner := t.Reserve()

	dog := NewRecord(3)
	dog.Type = "Dog"
	dog.Add("name", Atom{Value: "rex"})
	dog.Add("owner", Ref{Index: owner})
	dog.Add("born", Builder{Type: "Date", Args: []any{"2020-01-02T00:00:00Z"}})
	t.Set(root, dog)

	pets := NewSequence(2)
	pets.Append(Ref{Index: root})
	pets.Append(Ref{Index: UndefinedIndex})
	t.Set(owner, pets)
	return t
}

func TestCodec_MarshalTable(t *testing.T) {
	c := NewCodec("")
	data, err := c.Marshal(&Document{Table: sampleTable()}, "")
	require.NoError(t, err)

	want := `[{"$+":"Dog","name":"rex","owner":{"$=":1},"born":{"$@":"Date","$_":["2020-01-02T00:00:00Z"]}},[{"$=":0},{"$=":-1}]]`
	assert.Equal(t, want, string(data))
}

func TestCodec_MarshalAtomRoot(t *testing.T) {
	c := NewCodec("")
	tests := []struct {
		name string
		root Cell
		want string
	}{
		{"number", Atom{Value: 42}, `42`},
		{"string", Atom{Value: "hi"}, `"hi"`},
		{"null", Atom{Value: nil}, `null`},
		{"undefined", Ref{Index: UndefinedIndex}, `{"$=":-1}`},
		{"builder", Builder{Type: "Number", Args: []any{"NaN"}}, `{"$@":"Number","$_":["NaN"]}`},
		{"builder no args", Builder{Type: "Thing"}, `{"$@":"Thing","$_":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := c.Marshal(&Document{Root: tt.root}, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestCodec_CustomPrefix(t *testing.T) {
	c := NewCodec("~")
	data, err := c.Marshal(&Document{Table: sampleTable()}, "")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"~+":"Dog"`)
	assert.Contains(t, string(data), `{"~=":1}`)

	doc, err := c.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "Dog", doc.Table.Root().Type)

	_, err = NewCodec("").Unmarshal(data)
	require.Error(t, err, "text written with another prefix must not parse as cells")
}

func TestCodec_Indent(t *testing.T) {
	c := NewCodec("")
	data, err := c.Marshal(&Document{Table: sampleTable()}, "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {")
	assert.True(t, json.Valid(data))
}

func TestCodec_UnfilledPosition(t *testing.T) {
	tbl := New()
	tbl.Reserve()
	_, err := NewCodec("").Marshal(&Document{Table: tbl}, "")
	require.Error(t, err)
}

func TestCodec_RoundTrip(t *testing.T) {
	c := NewCodec("")
	data, err := c.Marshal(&Document{Table: sampleTable()}, "")
	require.NoError(t, err)

	doc, err := c.Unmarshal(data)
	require.NoError(t, err)
	require.True(t, doc.IsTable())
	require.Equal(t, 2, doc.Table.Len())

	root := doc.Table.Root()
	assert.Equal(t, KindRecord, root.Kind)
	assert.Equal(t, "Dog", root.Type)

	name, ok := root.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, Atom{Value: "rex"}, name)

	owner, ok := root.Lookup("owner")
	require.True(t, ok)
	assert.Equal(t, Ref{Index: 1}, owner)

	born, ok := root.Lookup("born")
	require.True(t, ok)
	assert.Equal(t, Builder{Type: "Date", Args: []any{"2020-01-02T00:00:00Z"}}, born)

	seq, _ := doc.Table.Get(1)
	assert.Equal(t, KindSequence, seq.Kind)
	assert.Equal(t, []Cell{Ref{Index: 0}, Ref{Index: UndefinedIndex}}, seq.Items)
}

func TestCodec_UnmarshalKeepsKeyOrder(t *testing.T) {
	c := NewCodec("")
	doc, err := c.Unmarshal([]byte(`[{"zeta":1,"$+":"Dog","alpha":2,"mid":{"$_":["x"],"$@":"String"},"zeta":3}]`))
	require.NoError(t, err)

	root := doc.Table.Root()
	assert.Equal(t, "Dog", root.Type)
	var keys []string
	root.Each(func(key string, _ Cell) bool {
		keys = append(keys, key)
		return true
	})
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)

	zeta, _ := root.Lookup("zeta")
	assert.Equal(t, Atom{Value: json.Number("3")}, zeta, "a repeated key keeps its last value")
	mid, _ := root.Lookup("mid")
	assert.Equal(t, Builder{Type: "String", Args: []any{"x"}}, mid)

	out, err := c.Marshal(doc, "")
	require.NoError(t, err)
	assert.Equal(t, `[{"$+":"Dog","zeta":3,"alpha":2,"mid":{"$@":"String","$_":["x"]}}]`, string(out))
}

func TestCodec_UnmarshalAtoms(t *testing.T) {
	c := NewCodec("")
	tests := []struct {
		text string
		want Cell
	}{
		{`42`, Atom{Value: json.Number("42")}},
		{`"x"`, Atom{Value: "x"}},
		{`true`, Atom{Value: true}},
		{`null`, Atom{Value: nil}},
		{`{"$=":-1}`, Ref{Index: UndefinedIndex}},
		{`{"$@":"Number","$_":["Infinity"]}`, Builder{Type: "Number", Args: []any{"Infinity"}}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			doc, err := c.Unmarshal([]byte(tt.text))
			require.NoError(t, err)
			assert.False(t, doc.IsTable())
			assert.Equal(t, tt.want, doc.Root)
		})
	}
}

func TestCodec_UnmarshalErrors(t *testing.T) {
	c := NewCodec("")
	tests := []struct {
		name string
		text string
	}{
		{"malformed", `[{"a":`},
		{"trailing data", `1 2`},
		{"empty table", `[]`},
		{"atom entry", `[1]`},
		{"plain object root", `{"a":1}`},
		{"positive ref root", `{"$=":0}`},
		{"nested object", `[{"a":{"b":1}}]`},
		{"nested array", `[{"a":[1]}]`},
		{"ref extra keys", `[{"a":{"$=":0,"x":1}}]`},
		{"ref not number", `[{"a":{"$=":"0"}}]`},
		{"ref fraction", `[{"a":{"$=":0.5}}]`},
		{"ref below sentinel", `[{"a":{"$=":-2}}]`},
		{"ref past end", `[{"a":{"$=":1}}]`},
		{"builder bad type", `[{"a":{"$@":3}}]`},
		{"builder bad args", `[{"a":{"$@":"Date","$_":"x"}}]`},
		{"builder extra keys", `[{"a":{"$@":"Date","$_":[],"y":1}}]`},
		{"bad tag", `[{"$+":1}]`},
		{"unknown reserved key", `[{"$?":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Unmarshal([]byte(tt.text))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrUnknownEncoding)
		})
	}
}

func TestEntry_Refs(t *testing.T) {
	tbl := sampleTable()
	root := tbl.Root()
	assert.Equal(t, []int{1}, root.Refs())

	seq, _ := tbl.Get(1)
	assert.Equal(t, []int{0}, seq.Refs())

	assert.Equal(t, []int{1}, tbl.Referrers(0))
	assert.Equal(t, []int{0}, tbl.Referrers(1))
}

func TestTable_ReserveSetReset(t *testing.T) {
	tbl := New()
	a := tbl.Reserve()
	b := tbl.Reserve()
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)

	e, ok := tbl.Get(b)
	assert.True(t, ok)
	assert.Nil(t, e)

	tbl.Set(b, NewSequence(0))
	e, ok = tbl.Get(b)
	require.True(t, ok)
	assert.Equal(t, KindSequence, e.Kind)

	_, ok = tbl.Get(5)
	assert.False(t, ok)

	tbl.Reset()
	assert.Equal(t, 0, tbl.Len())
	assert.Nil(t, tbl.Root())
}
