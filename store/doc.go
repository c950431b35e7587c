// Package store persists encoded graphs as named snapshots in SQLite.
//
// A snapshot is the encoded text of one graph together with its name, the
// reserved key prefix it was written with, its table size and creation time.
// Snapshot ids are UUIDv7, so ids sort by creation time.
//
//	st, err := store.Open(ctx, "graphs.db", refgraph.WithScope(models))
//	id, err := st.Put(ctx, "household", rex)
//	v, err := st.Get(ctx, id) // *Dog, with shared owners intact
//
// A Store is safe for concurrent use.
package store
