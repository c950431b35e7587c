// Package transcoder converts between live Go graphs and reference tables.
//
// The Encoder walks a graph once and assigns every distinct compound value a
// position in a table.Table; repeated and cyclic references become
// back-reference cells. The Decoder rebuilds the graph in two passes over a
// table: it first allocates a live value for every position (restoring
// registered types from their tags), then resolves every cell, so shared and
// cyclic references land on the same instance.
//
//	┌──────────────────────────────────────────────────────────┐
//	│ Go graph ←→ [Encoder / Decoder] ←→ table.Table ←→ JSON   │
//	└──────────────────────────────────────────────────────────┘
//
// # Identity
//
// Sharing is tracked per call in a side map, never on the values themselves:
//
//	Go value                 identity
//	──────────────────────────────────────────────
//	*T (T struct or array)   pointer address and type
//	map                      map header pointer
//	*map, *slice             identity of the map or slice
//	non-empty slice          data pointer, length and type
//	struct / array value     none: a new position per occurrence
//
// # Decoded Shapes
//
//	entry                     Decode result
//	──────────────────────────────────────────────
//	record with type tag      *T for the registered struct T, or map type
//	record without tag        map[string]any
//	sequence                  []any
//	number                    float64 (json.Number with UseNumber)
//
// DecodeInto converts those shapes into a typed target: records into structs
// and typed maps, sequences into slices and arrays, numbers into any numeric
// kind with overflow checks. Shared sources convert once per target type.
//
// # Key Types
//
//	Encoder   - Graph to table (tagger)
//	Decoder   - Table to graph (rehydrator)
//	Compiler  - Caches struct field tables (json tag names, omitempty)
//	Filter    - Per-field replacer: FilterFunc or Keys allow-list
//	Config    - Prefix, resolver, revive/cleanup/use-number switches
//
// # Concurrency
//
// Encoder, Decoder and Compiler are safe for concurrent use. Per-call state is
// taken from a sync.Pool and released on every exit path; with Config.Cleanup
// it is discarded instead of pooled.
package transcoder
