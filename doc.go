// Package refgraph serializes arbitrary, possibly cyclic, Go object graphs to
// JSON and rebuilds them with shared references and behavioral types intact.
//
// Two fields that pointed at the same object before encoding point at the
// same rebuilt object after decoding, and objects of registered types come
// back as instances of those types with their methods.
//
// # Architecture Overview
//
//	refgraph/            Serializer, options, package-level Marshal/Unmarshal
//	├── table/           Reference table, cells, and the JSON wire codec
//	├── transcoder/      Identity tagger (Encoder) and rehydrator (Decoder)
//	├── atom/            Special atoms: Undefined, Date, RegExp, Number, fragments
//	├── resolver/        Scopes mapping names to Go types and constructors
//	├── store/           SQLite snapshot store for encoded graphs
//	├── errors/          Structured error types with graph paths
//	└── cmd/refview/     CLI to inspect, browse, check and store documents
//
// # Quick Start
//
//	type Dog struct {
//	    Name  string  `json:"name"`
//	    Owner *Person `json:"owner"`
//	}
//
//	refgraph.Register[Dog]("Dog")
//
//	data, err := refgraph.Marshal(rex)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := refgraph.Unmarshal(data)
//	dog := v.(*Dog) // rex.Owner.Dogs[0] == rex still holds
//
// # Wire Format
//
// A graph is written as a JSON array; entry 0 is the root and every other
// compound value has one entry. Reserved keys carry a prefix, "$" by default:
//
//	{"$=": 3}                         back-reference to entry 3
//	{"$@": "Date", "$_": [...]}       atom rebuilt by a named constructor
//	{"$+": "Dog", ...}                record tagged with its type name
//
// A root that is itself an atom is written alone. User keys must not start
// with the prefix.
//
// # Type Restoration
//
// Names resolve through a resolver.Scope. Registration is explicit: with type
// revival on, encoding a named struct that is not registered fails with
// errors.ErrUnknownConstructor, and an anonymous struct fails with
// errors.ErrAnonymousType. WithReviveTypes(false) writes untagged records.
//
// # Thread Safety
//
// Serializer is safe for concurrent use. Traversal state is per call, kept in
// a side table, and never written onto caller values.
package refgraph
