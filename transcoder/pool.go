package transcoder

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/wippyai/refgraph/table"
)

const (
	// Pool limits to prevent memory bloat
	poolMaxEntries = 4096 // max identities or positions kept by a pooled state
	poolInitCap    = 16
)

// identity keys a compound value that can be shared within a graph.
type identity struct {
	typ reflect.Type
	ptr unsafe.Pointer
	len int
}

// encodeState is the per-call tagger context.
type encodeState struct {
	table  *table.Table
	seen   map[identity]int
	filter Filter
	path   []string
}

// decodeState is the per-call rehydrator context.
type decodeState struct {
	table  *table.Table
	values []reflect.Value
	status []fillStatus
	memo   map[convKey]reflect.Value
}

var encodeStatePool = sync.Pool{
	New: func() any {
		return &encodeState{
			seen: make(map[identity]int, poolInitCap),
			path: make([]string, 0, poolInitCap),
		}
	},
}

var decodeStatePool = sync.Pool{
	New: func() any {
		return &decodeState{
			memo: make(map[convKey]reflect.Value),
		}
	},
}

func getEncodeState(filter Filter) *encodeState {
	st := encodeStatePool.Get().(*encodeState)
	st.table = table.New()
	st.filter = filter
	return st
}

// putEncodeState releases st. With cleanup the state is emptied and dropped;
// otherwise it is emptied and pooled for reuse.
func putEncodeState(st *encodeState, cleanup bool) {
	oversized := len(st.seen) > poolMaxEntries
	clear(st.seen)
	clear(st.path)
	st.path = st.path[:0]
	st.table = nil
	st.filter = nil
	if cleanup || oversized {
		st.seen = nil
		st.path = nil
		return // reject
	}
	encodeStatePool.Put(st)
}

func getDecodeState(t *table.Table) *decodeState {
	st := decodeStatePool.Get().(*decodeState)
	st.table = t
	n := 0
	if t != nil {
		n = t.Len()
	}
	if cap(st.values) < n {
		st.values = make([]reflect.Value, n)
		st.status = make([]fillStatus, n)
	} else {
		st.values = st.values[:n]
		st.status = st.status[:n]
	}
	return st
}

func putDecodeState(st *decodeState, cleanup bool) {
	oversized := cap(st.values) > poolMaxEntries || len(st.memo) > poolMaxEntries
	clear(st.values)
	clear(st.status)
	clear(st.memo)
	st.values = st.values[:0]
	st.status = st.status[:0]
	st.table = nil
	if cleanup || oversized {
		st.values = nil
		st.status = nil
		st.memo = nil
		return // reject
	}
	decodeStatePool.Put(st)
}
