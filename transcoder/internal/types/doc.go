// Package types defines the compiled type structures used by the transcoder.
//
// CompiledType holds the wire view of a Go compound type: record field names,
// field indices and omitempty flags for structs, and element types for maps,
// slices and arrays. Compiling once per type keeps reflection tag parsing
// out of the traversal hot path.
//
// # Key Types
//
//   - CompiledType: Cached type metadata with field table
//   - Kind: Compound discriminator (struct, map, slice, array)
//
// This package is internal to the transcoder.
package types
