// Package errors provides structured error types for the refgraph library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: graph path, Go type, registered type name,
// and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindUnserializable).
//		Path("owner", "[2]", "onBark").
//		GoType("func()").
//		Detail("functions cannot be serialized").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unserializable(path, "func()")
//	err := errors.UnknownConstructor(errors.PhaseDecode, path, "Dog")
//
// All errors implement the standard error interface and support errors.Is/As.
// errors.Is matches on Kind, and also on Phase when the target sets one, so the
// exported sentinels match a condition regardless of where it was raised:
//
//	if errors.Is(err, errors.ErrConstructorMismatch) { ... }
package errors
