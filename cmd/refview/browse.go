package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wippyai/refgraph/table"
)

var browseCmd = &cobra.Command{
	Use:   "browse <file>",
	Short: "Walk a document interactively, following back-references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := readDocument(args[0])
		if err != nil {
			return err
		}
		p := tea.NewProgram(newBrowseModel(args[0], doc, newPalette(true)), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

type browseState int

const (
	stateBrowse browseState = iota
	stateJump
)

type row struct {
	cell table.Cell
	key  string
}

type browseModel struct {
	doc      *table.Document
	pal      palette
	filename string
	message  string
	history  []int
	rows     []row
	jump     textinput.Model
	pos      int
	selected int
	state    browseState
}

func newBrowseModel(filename string, doc *table.Document, pal palette) *browseModel {
	ti := textinput.New()
	ti.Prompt = "go to #"
	ti.Placeholder = "position"
	ti.CharLimit = 10
	ti.Width = 12

	m := &browseModel{
		doc:      doc,
		pal:      pal,
		filename: filename,
		jump:     ti,
	}
	m.load(0)
	return m
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

// load makes pos the current entry.
func (m *browseModel) load(pos int) {
	m.pos = pos
	m.selected = 0
	m.rows = m.rows[:0]
	if !m.doc.IsTable() {
		return
	}
	e, ok := m.doc.Table.Get(pos)
	if !ok {
		return
	}
	e.Each(func(key string, c table.Cell) bool {
		m.rows = append(m.rows, row{key: key, cell: c})
		return true
	})
}

func (m *browseModel) follow() {
	if m.selected >= len(m.rows) {
		return
	}
	r, ok := m.rows[m.selected].cell.(table.Ref)
	if !ok || r.IsUndefined() {
		m.message = "not a back-reference"
		return
	}
	m.goTo(r.Index)
}

func (m *browseModel) goTo(pos int) {
	if !m.doc.IsTable() || pos < 0 || pos >= m.doc.Table.Len() {
		m.message = fmt.Sprintf("no entry #%d", pos)
		return
	}
	m.history = append(m.history, m.pos)
	m.message = ""
	m.load(pos)
}

func (m *browseModel) back() {
	if len(m.history) == 0 {
		return
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.message = ""
	m.load(prev)
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateJump {
		switch key.String() {
		case "enter":
			n, err := strconv.Atoi(strings.TrimSpace(m.jump.Value()))
			m.state = stateBrowse
			m.jump.Blur()
			m.jump.SetValue("")
			if err != nil {
				m.message = "position must be a number"
				return m, nil
			}
			m.goTo(n)
			return m, nil
		case "esc":
			m.state = stateBrowse
			m.jump.Blur()
			m.jump.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.jump, cmd = m.jump.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.rows)-1 {
			m.selected++
		}
	case "enter", "right", "l":
		m.follow()
	case "backspace", "left", "h", "esc":
		m.back()
	case "r":
		m.goTo(0)
	case ":", "g":
		m.state = stateJump
		m.message = ""
		return m, m.jump.Focus()
	}
	return m, nil
}

func (m *browseModel) View() string {
	p := m.pal
	var b strings.Builder

	b.WriteString(p.title.Render("refview"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	if !m.doc.IsTable() {
		b.WriteString("root atom: ")
		b.WriteString(p.cell(m.doc.Root))
		b.WriteString("\n\n")
		b.WriteString(p.help.Render("q quit"))
		return b.String()
	}

	e, _ := m.doc.Table.Get(m.pos)
	b.WriteString(p.heading(m.pos, e))
	if refs := m.doc.Table.Referrers(m.pos); len(refs) > 0 {
		b.WriteString(p.help.Render("  <- " + joinPositions(refs)))
	}
	b.WriteString("\n")
	if len(m.history) > 0 {
		b.WriteString(p.help.Render("path: " + joinPositions(m.history) + " > #" + strconv.Itoa(m.pos)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, r := range m.rows {
		line := r.key + ": " + p.cell(r.cell)
		if i == m.selected {
			b.WriteString(p.selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if len(m.rows) == 0 {
		b.WriteString(p.help.Render("  (empty)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(p.err.Render(m.message))
		b.WriteString("\n")
	}
	if m.state == stateJump {
		b.WriteString(m.jump.View())
		b.WriteString("\n")
	}
	b.WriteString(p.help.Render("↑/↓ select • enter follow • ← back • g go to • r root • q quit"))
	return b.String()
}
