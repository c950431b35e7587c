package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/refgraph/table"
)

const loopDoc = `[{"$+":"Node","name":"a","next":{"$=":1}},{"name":"b","next":{"$=":0},"when":{"$@":"Date","$_":["2024-01-02T00:00:00Z"]}},[{"$=":1},{"$=":1},{"$=":-1}]]`

func parse(t *testing.T, text string) *table.Document {
	t.Helper()
	doc, err := table.NewCodec("$").Unmarshal([]byte(text))
	require.NoError(t, err)
	return doc
}

func TestAnalyze(t *testing.T) {
	st := analyze(parse(t, loopDoc))

	assert.Equal(t, 3, st.Entries)
	assert.Equal(t, 2, st.Records)
	assert.Equal(t, 1, st.Sequences)
	assert.Equal(t, map[string]int{"Node": 1}, st.Types)
	assert.Equal(t, 1, st.Builders)
	assert.Equal(t, 1, st.Undefined)
	assert.Equal(t, []int{1}, st.Shared)
	assert.Equal(t, []int{0, 1}, st.Cyclic)

	var out bytes.Buffer
	writeReport(&out, st)
	assert.Contains(t, out.String(), "ok: 3 entries (2 records, 1 sequences)")
	assert.Contains(t, out.String(), "type Node: 1")
	assert.Contains(t, out.String(), "cyclic: #0 #1")
}

func TestAnalyze_AtomRoot(t *testing.T) {
	st := analyze(parse(t, `{"$@":"Number","$_":["NaN"]}`))
	assert.Equal(t, 0, st.Entries)
	assert.Equal(t, 1, st.Builders)
	assert.Empty(t, st.Cyclic)
}

func TestPalette_Document(t *testing.T) {
	out := newPalette(false).document(parse(t, loopDoc))

	assert.Contains(t, out, "#0 record Node (2)  <- #1")
	assert.Contains(t, out, "  next: -> #1\n")
	assert.Contains(t, out, `  when: Date("2024-01-02T00:00:00Z")`)
	assert.Contains(t, out, "  [2]: undefined\n")
	assert.Contains(t, out, "#1 record (3)  <- #0 #2")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseModel_Navigation(t *testing.T) {
	m := newBrowseModel("loop.json", parse(t, loopDoc), newPalette(false))
	require.Len(t, m.rows, 2)

	m.Update(key("enter"))
	assert.Equal(t, 0, m.pos)
	assert.Equal(t, "not a back-reference", m.message)

	m.Update(key("j"))
	m.Update(key("enter"))
	assert.Equal(t, 1, m.pos)
	assert.Equal(t, []int{0}, m.history)

	m.Update(key("j"))
	m.Update(key("enter"))
	assert.Equal(t, 0, m.pos, "cycle leads back to the root")

	m.Update(key("backspace"))
	m.Update(key("backspace"))
	assert.Equal(t, 0, m.pos)
	assert.Empty(t, m.history)
	assert.Contains(t, m.View(), "#0 record Node")
}

func TestBrowseModel_Jump(t *testing.T) {
	m := newBrowseModel("loop.json", parse(t, loopDoc), newPalette(false))

	m.Update(key("g"))
	assert.Equal(t, stateJump, m.state)
	m.jump.SetValue("2")
	m.Update(key("enter"))
	assert.Equal(t, stateBrowse, m.state)
	assert.Equal(t, 2, m.pos)
	assert.Len(t, m.rows, 3)

	m.Update(key("g"))
	m.jump.SetValue("9")
	m.Update(key("enter"))
	assert.Equal(t, 2, m.pos)
	assert.Equal(t, "no entry #9", m.message)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefix: \"~\"\nrevive_types: true\n"), 0o644))

	v, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "~", v.GetString(cfgKeyPrefix))
	assert.True(t, v.GetBool(cfgKeyReviveTypes))
	assert.False(t, v.GetBool(cfgKeyCleanup))

	t.Setenv("REFVIEW_DATA_DIR", dir)
	v, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, dbFileName), dbPath(v))
}
