package resolver

import (
	"reflect"

	"github.com/wippyai/refgraph/errors"
)

// Resolver maps Go types to names and names back to types and constructors.
type Resolver interface {
	// NameFor returns the name recorded in a type tag, or "" for untyped values.
	NameFor(t reflect.Type) (string, error)
	// TypeFor returns the Go type restored for a type tag.
	TypeFor(name string) (reflect.Type, error)
	// ConstructorFor returns the constructor invoked for a builder cell.
	ConstructorFor(name string) (Constructor, error)
}

// Unmarshaler is implemented by registered types that rebuild themselves from
// builder arguments. The method is called on a pointer to a fresh zero value.
type Unmarshaler interface {
	UnmarshalAtom(args []any) error
}

var unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()

// ScopeResolver resolves names against a Scope.
type ScopeResolver struct {
	scope      *Scope
	pathLookup bool
}

// Option configures a ScopeResolver.
type Option func(*ScopeResolver)

// WithPathLookup enables resolving unregistered builder names as dotted paths
// through DefaultScope's children.
func WithPathLookup(enabled bool) Option {
	return func(r *ScopeResolver) {
		r.pathLookup = enabled
	}
}

// New creates a resolver over scope. A nil scope selects DefaultScope.
func New(scope *Scope, opts ...Option) *ScopeResolver {
	if scope == nil {
		scope = DefaultScope
	}
	r := &ScopeResolver{scope: scope}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default creates a resolver over DefaultScope.
func Default(opts ...Option) *ScopeResolver {
	return New(DefaultScope, opts...)
}

// Scope returns the backing scope.
func (r *ScopeResolver) Scope() *Scope {
	return r.scope
}

// NameFor implements Resolver.
func (r *ScopeResolver) NameFor(t reflect.Type) (string, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name, ok := r.scope.NameOf(t); ok {
		return name, nil
	}
	if t.Kind() != reflect.Struct {
		return "", nil
	}
	if t.Name() == "" {
		return "", errors.New(errors.PhaseResolve, errors.KindAnonymousType).
			GoType(t.String()).
			Detail("anonymous struct types cannot be named").
			Build()
	}
	return t.Name(), nil
}

// TypeFor implements Resolver.
func (r *ScopeResolver) TypeFor(name string) (reflect.Type, error) {
	if t, ok := r.scope.Type(name); ok {
		return t, nil
	}
	return nil, errors.UnknownConstructor(errors.PhaseResolve, nil, name)
}

// ConstructorFor implements Resolver.
func (r *ScopeResolver) ConstructorFor(name string) (Constructor, error) {
	if c, ok := scopeConstructor(r.scope, name); ok {
		return c, nil
	}
	if c, ok := builtins[name]; ok {
		return c, nil
	}
	if r.pathLookup {
		if s, leaf, ok := DefaultScope.lookupPath(name); ok {
			if c, ok := scopeConstructor(s, leaf); ok {
				return c, nil
			}
		}
	}
	return nil, errors.UnknownConstructor(errors.PhaseResolve, nil, name)
}

func scopeConstructor(s *Scope, name string) (Constructor, bool) {
	if c, ok := s.Constructor(name); ok {
		return c, true
	}
	t, ok := s.Type(name)
	if !ok || !reflect.PointerTo(t).Implements(unmarshalerType) {
		return nil, false
	}
	return unmarshalConstructor(name, t), true
}

func unmarshalConstructor(name string, t reflect.Type) Constructor {
	return func(args ...any) (any, error) {
		ptr := reflect.New(t)
		if err := ptr.Interface().(Unmarshaler).UnmarshalAtom(args); err != nil {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
				GoType(t.String()).
				TypeName(name).
				Cause(err).
				Detail("constructor rejected arguments").
				Build()
		}
		return ptr.Interface(), nil
	}
}
