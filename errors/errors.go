package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode  Phase = "encode"  // graph to table
	PhaseDecode  Phase = "decode"  // table to graph
	PhaseResolve Phase = "resolve" // name/type registry lookups
	PhaseParse   Phase = "parse"   // flat text to table
	PhaseStore   Phase = "store"   // snapshot persistence
)

// Kind categorizes the error
type Kind string

const (
	KindUnserializable      Kind = "unserializable_value"
	KindAnonymousType       Kind = "anonymous_type"
	KindConstructorMismatch Kind = "constructor_mismatch"
	KindUnknownConstructor  Kind = "unknown_constructor"
	KindUnknownEncoding     Kind = "unknown_encoding"
	KindTypeMismatch        Kind = "type_mismatch"
	KindOverflow            Kind = "overflow"
	KindInvalidInput        Kind = "invalid_input"
	KindNotFound            Kind = "not_found"
)

// Sentinels for errors.Is. They carry no Phase and so match a Kind raised in any phase.
var (
	ErrUnserializableValue = &Error{Kind: KindUnserializable}
	ErrAnonymousType       = &Error{Kind: KindAnonymousType}
	ErrConstructorMismatch = &Error{Kind: KindConstructorMismatch}
	ErrUnknownConstructor  = &Error{Kind: KindUnknownConstructor}
	ErrUnknownEncoding     = &Error{Kind: KindUnknownEncoding}
	ErrNotFound            = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout refgraph
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	TypeName string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(FormatPath(e.Path))
	}

	if e.GoType != "" || e.TypeName != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.TypeName != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", type name ")
			b.WriteString(e.TypeName)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("type name ")
			b.WriteString(e.TypeName)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.TypeName != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Kinds must be equal; phases must be equal only when target has one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Phase == "" || e.Phase == t.Phase
}

// FormatPath joins a graph path, attaching index segments ("[3]") to their parent.
func FormatPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the graph path. The slice is copied.
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = append([]string(nil), path...)
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// TypeName sets the registered type name
func (b *Builder) TypeName(name string) *Builder {
	b.err.TypeName = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Unserializable creates an error for a callable or otherwise unencodable value
func Unserializable(path []string, goType string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindUnserializable,
		Path:   append([]string(nil), path...),
		GoType: goType,
		Detail: "value cannot be serialized",
	}
}

// AnonymousType creates an error for a type the resolver cannot name
func AnonymousType(path []string, goType string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindAnonymousType,
		Path:   append([]string(nil), path...),
		GoType: goType,
		Detail: "anonymous type cannot be named",
	}
}

// ConstructorMismatch creates an error for a name bound to a different type
func ConstructorMismatch(path []string, goType, name, boundType string) *Error {
	return &Error{
		Phase:    PhaseEncode,
		Kind:     KindConstructorMismatch,
		Path:     append([]string(nil), path...),
		GoType:   goType,
		TypeName: name,
		Detail:   fmt.Sprintf("name is bound to %s", boundType),
	}
}

// UnknownConstructor creates an error for a type name that cannot be resolved
func UnknownConstructor(phase Phase, path []string, name string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnknownConstructor,
		Path:     append([]string(nil), path...),
		TypeName: name,
		Detail:   "no type or constructor registered under this name",
	}
}

// UnknownEncoding creates an error for a cell that matches no recognized shape
func UnknownEncoding(phase Phase, path []string, value any, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownEncoding,
		Path:   append([]string(nil), path...),
		Value:  value,
		Detail: detail,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   append([]string(nil), path...),
		GoType: goType,
		Detail: fmt.Sprintf("cannot assign to %s", want),
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   append([]string(nil), path...),
		GoType: target,
		Detail: fmt.Sprintf("value %v overflows %s", value, target),
		Value:  value,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// WithPath returns err with path filled in when err is an *Error without one.
func WithPath(err error, path []string) error {
	var e *Error
	if !As(err, &e) || len(e.Path) > 0 {
		return err
	}
	cp := *e
	cp.Path = append([]string(nil), path...)
	return &cp
}
