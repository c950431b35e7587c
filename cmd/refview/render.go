package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/refgraph/table"
)

type palette struct {
	title    lipgloss.Style
	index    lipgloss.Style
	tag      lipgloss.Style
	key      lipgloss.Style
	ref      lipgloss.Style
	builder  lipgloss.Style
	atom     lipgloss.Style
	selected lipgloss.Style
	err      lipgloss.Style
	help     lipgloss.Style
}

func newPalette(styled bool) palette {
	if !styled {
		plain := lipgloss.NewStyle()
		return palette{plain, plain, plain, plain, plain, plain, plain, plain, plain, plain}
	}
	return palette{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		index:   lipgloss.NewStyle().Bold(true),
		tag:     lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		ref:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
		builder: lipgloss.NewStyle().Foreground(lipgloss.Color("#BD93F9")),
		atom:    lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90")),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")),
		err:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		help: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func (p palette) cell(c table.Cell) string {
	switch v := c.(type) {
	case table.Ref:
		if v.IsUndefined() {
			return p.ref.Render("undefined")
		}
		return p.ref.Render("-> #" + strconv.Itoa(v.Index))
	case table.Builder:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = jsonText(a)
		}
		return p.builder.Render(v.Type + "(" + strings.Join(args, ", ") + ")")
	case table.Atom:
		return p.atom.Render(jsonText(v.Value))
	default:
		return p.err.Render(fmt.Sprintf("<%T>", c))
	}
}

func (p palette) heading(pos int, e *table.Entry) string {
	var b strings.Builder
	b.WriteString(p.index.Render("#" + strconv.Itoa(pos)))
	b.WriteString(" ")
	b.WriteString(e.Kind.String())
	if e.Type != "" {
		b.WriteString(" ")
		b.WriteString(p.tag.Render(e.Type))
	}
	fmt.Fprintf(&b, " (%d)", e.Len())
	return b.String()
}

func (p palette) entry(pos int, e *table.Entry, referrers []int) string {
	var b strings.Builder
	b.WriteString(p.heading(pos, e))
	if len(referrers) > 0 {
		b.WriteString(p.help.Render("  <- " + joinPositions(referrers)))
	}
	b.WriteString("\n")
	e.Each(func(key string, c table.Cell) bool {
		b.WriteString("  ")
		b.WriteString(p.key.Render(key))
		b.WriteString(": ")
		b.WriteString(p.cell(c))
		b.WriteString("\n")
		return true
	})
	return b.String()
}

// document renders every entry of doc, or its root atom.
func (p palette) document(doc *table.Document) string {
	if !doc.IsTable() {
		return p.index.Render("root") + " " + p.cell(doc.Root) + "\n"
	}
	var b strings.Builder
	for i, e := range doc.Table.Entries() {
		b.WriteString(p.entry(i, e, doc.Table.Referrers(i)))
	}
	return b.String()
}

func joinPositions(ps []int) string {
	parts := make([]string, len(ps))
	for i, n := range ps {
		parts[i] = "#" + strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

func jsonText(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
