// Package resolver maps behavioral type names to Go types and constructors.
//
// The encoder asks a Resolver for the name of each record's Go type and writes
// it as a type tag; the decoder asks for the Go type behind a tag and for the
// constructor behind a builder name.
//
// # Scopes
//
// A Scope is a hierarchical, concurrency-safe registry:
//
//	scope := resolver.NewScope()
//	resolver.Register[Dog](scope, "Dog")
//	scope.RegisterConstructor("Money", func(args ...any) (any, error) { ... })
//
//	geo := scope.Child("geo")
//	resolver.Register[Point](geo, "Point")    // full name "geo.Point" only via path lookup
//
// DefaultScope is the well-known process-wide scope. Registering a second,
// different type under a name rebinds the name; encoding a value of the first
// type afterwards fails with a constructor mismatch.
//
// # Resolvers
//
//	resolver.Default()        // backed by DefaultScope
//	resolver.New(scope)       // backed by a caller-owned scope
//
// Constructor lookup order: the resolver's scope, registered types
// implementing Unmarshaler, the builtins (Date, RegExp, Number, String,
// Boolean), then, only with WithPathLookup(true), a dotted-path walk through
// DefaultScope's children ("geo.Point"). Path lookup is a compatibility mode
// for documents written with unregistered builder names; leave it off unless
// such documents must be read.
//
// # Naming Rules
//
//	registered type           registered name
//	unregistered named struct bare Go type name (then rejected as unknown)
//	anonymous struct          error: anonymous type
//	unregistered map, slice,
//	array, interface          "" (untyped)
package resolver
