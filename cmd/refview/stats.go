package main

import (
	"github.com/wippyai/refgraph/table"
)

// docStats summarizes the shape of a document.
type docStats struct {
	Types     map[string]int
	Shared    []int // positions referenced from more than one place
	Cyclic    []int // positions that reach themselves
	Entries   int
	Records   int
	Sequences int
	Builders  int
	Undefined int
}

func analyze(doc *table.Document) docStats {
	st := docStats{Types: make(map[string]int)}
	if !doc.IsTable() {
		countCell(&st, doc.Root)
		return st
	}

	t := doc.Table
	st.Entries = t.Len()
	inbound := make([]int, t.Len())
	for _, e := range t.Entries() {
		if e.Kind == table.KindSequence {
			st.Sequences++
		} else {
			st.Records++
		}
		if e.Type != "" {
			st.Types[e.Type]++
		}
		e.Each(func(_ string, c table.Cell) bool {
			countCell(&st, c)
			if r, ok := c.(table.Ref); ok && !r.IsUndefined() && r.Index < len(inbound) {
				inbound[r.Index]++
			}
			return true
		})
	}

	for i, n := range inbound {
		if n > 1 {
			st.Shared = append(st.Shared, i)
		}
	}
	st.Cyclic = cyclicPositions(t)
	return st
}

func countCell(st *docStats, c table.Cell) {
	switch v := c.(type) {
	case table.Builder:
		st.Builders++
	case table.Ref:
		if v.IsUndefined() {
			st.Undefined++
		}
	}
}

// cyclicPositions returns the positions that lie on a reference cycle.
func cyclicPositions(t *table.Table) []int {
	n := t.Len()
	edges := make([][]int, n)
	for i, e := range t.Entries() {
		for _, r := range e.Refs() {
			if r >= 0 && r < n {
				edges[i] = append(edges[i], r)
			}
		}
	}

	var out []int
	for start := 0; start < n; start++ {
		seen := make([]bool, n)
		stack := append([]int(nil), edges[start]...)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if cur == start {
				out = append(out, start)
				break
			}
			if seen[cur] {
				continue
			}
			seen[cur] = true
			stack = append(stack, edges[cur]...)
		}
	}
	return out
}
