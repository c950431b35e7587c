// Package table provides the reference table: the flat, ordered form of an
// object graph that refgraph writes to and reads from text.
//
// # Positions
//
// Every distinct compound value met while walking a graph gets one table
// position, assigned in first-visit order. The root is always position 0.
// A position is the value's identity inside one document:
//
//	table := table.New()
//	pos := table.Reserve()          // claim before filling children
//	table.Set(pos, entry)           // fill once children are encoded
//	entry, ok := table.Get(pos)
//
// # Cells
//
// Entry fields and sequence items hold cells, never nested compounds:
//
//	Atom{Value}          plain JSON value: null, bool, number, string
//	Ref{Index}           back-reference to a position; -1 is the Undefined atom
//	Builder{Type, Args}  value rebuilt by calling a named constructor with Args
//
// # Wire Format
//
// The Codec writes a document as JSON with every reserved key under a prefix
// (default "$"):
//
//	[                                        table, entry 0 is the root
//	  {"$+": "Dog", "name": "rex",           record entry with a type tag
//	   "owner": {"$=": 1},                   back-reference
//	   "born": {"$@": "Date", "$_": ["2020-01-02T00:00:00Z"]}},  builder
//	  {"name": "ann", "dogs": {"$=": 2}},
//	  [{"$=": 0}]                            sequence entry
//	]
//
// A root that is itself an atom is written alone, without a table:
//
//	42
//	{"$@": "Number", "$_": ["NaN"]}
//	{"$=": -1}
//
// # Thread Safety
//
// Table is NOT thread-safe; it is owned by one encode or decode call.
// Codec is a value type and safe for concurrent use.
package table
