package resolver

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Constructor rebuilds a value from builder arguments.
type Constructor func(args ...any) (any, error)

// Scope is a hierarchical registry of named types and constructors.
type Scope struct {
	types    map[string]reflect.Type
	names    map[reflect.Type]string
	ctors    map[string]Constructor
	children map[string]*Scope
	parent   *Scope
	name     string
	mu       sync.RWMutex
}

// DefaultScope is the process-wide scope used by Default.
var DefaultScope = NewScope()

// NewScope creates an empty root scope.
func NewScope() *Scope {
	return &Scope{
		types:    make(map[string]reflect.Type),
		names:    make(map[reflect.Type]string),
		ctors:    make(map[string]Constructor),
		children: make(map[string]*Scope),
	}
}

// Name returns the scope name; empty for a root scope.
func (s *Scope) Name() string {
	return s.name
}

// FullPath returns the dotted path from the root, like "geo.shapes".
func (s *Scope) FullPath() string {
	if s.parent == nil {
		return s.name
	}
	parentPath := s.parent.FullPath()
	if parentPath == "" {
		return s.name
	}
	return parentPath + "." + s.name
}

// Child returns or creates the child scope with the given name.
func (s *Scope) Child(name string) *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	if child, ok := s.children[name]; ok {
		return child
	}

	child := NewScope()
	child.name = name
	child.parent = s
	s.children[name] = child
	return child
}

// Register binds name to T. Pointer types are registered by their element type.
func Register[T any](s *Scope, name string) {
	s.RegisterType(name, reflect.TypeOf((*T)(nil)).Elem())
}

// RegisterType binds name to t, replacing any earlier binding of name.
func (s *Scope) RegisterType(name string, t reflect.Type) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[name] = t
	s.names[t] = name
}

// RegisterConstructor binds name to a builder constructor.
func (s *Scope) RegisterConstructor(name string, c Constructor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctors[name] = c
}

// Type returns the type bound to name.
func (s *Scope) Type(name string) (reflect.Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[name]
	return t, ok
}

// NameOf returns the name t was registered under.
func (s *Scope) NameOf(t reflect.Type) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[t]
	return name, ok
}

// Constructor returns the constructor bound to name.
func (s *Scope) Constructor(name string) (Constructor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.ctors[name]
	return c, ok
}

// Names returns all type and constructor names in this scope, sorted.
func (s *Scope) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.types)+len(s.ctors))
	for n := range s.types {
		seen[n] = struct{}{}
	}
	for n := range s.ctors {
		seen[n] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// lookupPath walks a dotted path such as "geo.shapes.Point" and returns the
// scope holding the leaf together with the leaf name.
func (s *Scope) lookupPath(path string) (*Scope, string, bool) {
	segments := strings.Split(path, ".")
	current := s
	for _, seg := range segments[:len(segments)-1] {
		if seg == "" {
			return nil, "", false
		}
		current.mu.RLock()
		child, ok := current.children[seg]
		current.mu.RUnlock()
		if !ok {
			return nil, "", false
		}
		current = child
	}
	leaf := segments[len(segments)-1]
	if leaf == "" {
		return nil, "", false
	}
	return current, leaf, true
}
