package resolver

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/wippyai/refgraph/errors"
)

type dog struct {
	Name string
}

type cat struct {
	Name string
}

type money struct {
	Currency string
	Cents    int64
}

func (m *money) UnmarshalAtom(args []any) error {
	if len(args) != 2 {
		return fmt.Errorf("want 2 args, got %d", len(args))
	}
	m.Currency, _ = args[0].(string)
	cents, _ := args[1].(float64)
	m.Cents = int64(cents)
	return nil
}

type labels map[string]string

func TestScope_RegisterAndLookup(t *testing.T) {
	s := NewScope()
	Register[dog](s, "Dog")
	Register[*cat](s, "Cat")

	if got, ok := s.Type("Dog"); !ok || got != reflect.TypeOf((*dog)(nil)).Elem() {
		t.Errorf("Type(Dog) = %v, %v", got, ok)
	}
	if got, ok := s.Type("Cat"); !ok || got != reflect.TypeOf((*cat)(nil)).Elem() {
		t.Errorf("pointer registration should bind the element type, got %v", got)
	}
	if name, ok := s.NameOf(reflect.TypeOf((*dog)(nil)).Elem()); !ok || name != "Dog" {
		t.Errorf("NameOf(dog) = %q, %v", name, ok)
	}

	s.RegisterConstructor("Money", func(args ...any) (any, error) { return nil, nil })
	want := []string{"Cat", "Dog", "Money"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestScope_Child(t *testing.T) {
	root := NewScope()
	geo := root.Child("geo")
	shapes := geo.Child("shapes")

	if root.Child("geo") != geo {
		t.Error("Child should return the existing scope")
	}
	if got := shapes.FullPath(); got != "geo.shapes" {
		t.Errorf("FullPath() = %q", got)
	}
	if root.FullPath() != "" {
		t.Errorf("root FullPath() = %q", root.FullPath())
	}

	s, leaf, ok := root.lookupPath("geo.shapes.Point")
	if !ok || s != shapes || leaf != "Point" {
		t.Errorf("lookupPath = %v, %q, %v", s, leaf, ok)
	}

	for _, bad := range []string{"geo..Point", "geo.", "missing.Point"} {
		if _, _, ok := root.lookupPath(bad); ok {
			t.Errorf("lookupPath(%q) should fail", bad)
		}
	}
}

func TestScopeResolver_NameFor(t *testing.T) {
	s := NewScope()
	Register[dog](s, "Dog")
	Register[labels](s, "Labels")
	r := New(s)

	tests := []struct {
		name    string
		typ     reflect.Type
		want    string
		wantErr error
	}{
		{"registered", reflect.TypeOf((*dog)(nil)).Elem(), "Dog", nil},
		{"pointer to registered", reflect.TypeOf((**dog)(nil)).Elem(), "Dog", nil},
		{"registered map", reflect.TypeOf((*labels)(nil)).Elem(), "Labels", nil},
		{"unregistered named struct", reflect.TypeOf((*cat)(nil)).Elem(), "cat", nil},
		{"plain map", reflect.TypeOf((*map[string]any)(nil)).Elem(), "", nil},
		{"slice", reflect.TypeOf((*[]int)(nil)).Elem(), "", nil},
		{"interface", reflect.TypeOf((*any)(nil)).Elem(), "", nil},
		{"anonymous struct", reflect.TypeOf((*struct{ A int })(nil)).Elem(), "", errors.ErrAnonymousType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.NameFor(tt.typ)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NameFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScopeResolver_TypeFor(t *testing.T) {
	s := NewScope()
	Register[dog](s, "Dog")
	r := New(s)

	got, err := r.TypeFor("Dog")
	if err != nil || got != reflect.TypeOf((*dog)(nil)).Elem() {
		t.Errorf("TypeFor(Dog) = %v, %v", got, err)
	}

	_, err = r.TypeFor("cat")
	if !errors.Is(err, errors.ErrUnknownConstructor) {
		t.Errorf("err = %v, want unknown constructor", err)
	}
}

func TestScopeResolver_Rebind(t *testing.T) {
	s := NewScope()
	Register[dog](s, "Pet")
	Register[cat](s, "Pet")
	r := New(s)

	name, err := r.NameFor(reflect.TypeOf((*dog)(nil)).Elem())
	if err != nil || name != "Pet" {
		t.Fatalf("NameFor(dog) = %q, %v", name, err)
	}
	bound, _ := r.TypeFor(name)
	if bound == reflect.TypeOf((*dog)(nil)).Elem() {
		t.Error("rebinding should move the name to the second type")
	}
}

func TestScopeResolver_ConstructorFor(t *testing.T) {
	s := NewScope()
	Register[money](s, "Money")
	s.RegisterConstructor("Date", func(args ...any) (any, error) { return "shadowed", nil })
	r := New(s)

	t.Run("scope constructor shadows builtin", func(t *testing.T) {
		c, err := r.ConstructorFor("Date")
		if err != nil {
			t.Fatal(err)
		}
		v, _ := c()
		if v != "shadowed" {
			t.Errorf("got %v", v)
		}
	})

	t.Run("unmarshaler type", func(t *testing.T) {
		c, err := r.ConstructorFor("Money")
		if err != nil {
			t.Fatal(err)
		}
		v, err := c("EUR", float64(250))
		if err != nil {
			t.Fatal(err)
		}
		m, ok := v.(*money)
		if !ok || m.Currency != "EUR" || m.Cents != 250 {
			t.Errorf("got %#v", v)
		}

		_, err = c("EUR")
		if err == nil {
			t.Error("expected argument error")
		}
	})

	t.Run("builtin", func(t *testing.T) {
		c, err := r.ConstructorFor("Number")
		if err != nil {
			t.Fatal(err)
		}
		v, _ := c("Infinity")
		if f, ok := v.(float64); !ok || !math.IsInf(f, 1) {
			t.Errorf("got %v", v)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := r.ConstructorFor("Nope")
		if !errors.Is(err, errors.ErrUnknownConstructor) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestScopeResolver_PathLookup(t *testing.T) {
	geo := DefaultScope.Child("pathlookuptest")
	geo.RegisterConstructor("Point", func(args ...any) (any, error) {
		return fmt.Sprint(args...), nil
	})

	off := New(NewScope())
	if _, err := off.ConstructorFor("pathlookuptest.Point"); !errors.Is(err, errors.ErrUnknownConstructor) {
		t.Errorf("path lookup must be opt-in, err = %v", err)
	}

	on := New(NewScope(), WithPathLookup(true))
	c, err := on.ConstructorFor("pathlookuptest.Point")
	if err != nil {
		t.Fatal(err)
	}
	v, _ := c(1, 2)
	if v != "1 2" {
		t.Errorf("got %v", v)
	}

	if _, err := on.TypeFor("pathlookuptest.Point"); err == nil {
		t.Error("TypeFor must not use path lookup")
	}
}

func TestBuiltins(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		ctor  string
		args  []any
		check func(t *testing.T, v any)
	}{
		{"date string", NameDate, []any{"2024-03-01T12:30:00Z"}, func(t *testing.T, v any) {
			if !v.(time.Time).Equal(ts) {
				t.Errorf("got %v", v)
			}
		}},
		{"date millis", NameDate, []any{float64(ts.UnixMilli())}, func(t *testing.T, v any) {
			if !v.(time.Time).Equal(ts) {
				t.Errorf("got %v", v)
			}
		}},
		{"number NaN", NameNumber, []any{"NaN"}, func(t *testing.T, v any) {
			if !math.IsNaN(v.(float64)) {
				t.Errorf("got %v", v)
			}
		}},
		{"number -Infinity", NameNumber, []any{"-Infinity"}, func(t *testing.T, v any) {
			if !math.IsInf(v.(float64), -1) {
				t.Errorf("got %v", v)
			}
		}},
		{"number text", NameNumber, []any{"2.5"}, func(t *testing.T, v any) {
			if v.(float64) != 2.5 {
				t.Errorf("got %v", v)
			}
		}},
		{"string", NameString, []any{float64(3)}, func(t *testing.T, v any) {
			if v != "3" {
				t.Errorf("got %v", v)
			}
		}},
		{"boolean", NameBoolean, []any{""}, func(t *testing.T, v any) {
			if v != false {
				t.Errorf("got %v", v)
			}
		}},
		{"regexp", NameRegExp, []any{"ab+", "gi"}, func(t *testing.T, v any) {
			p := v.(*Pattern)
			if p.Source != "ab+" || p.Flags != "gi" {
				t.Errorf("got %q %q", p.Source, p.Flags)
			}
			if !p.MatchString("ABBB") {
				t.Error("case-insensitive flag not applied")
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := builtins[tt.ctor](tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, v)
		})
	}
}

func TestSplitPattern(t *testing.T) {
	tests := []struct {
		pattern string
		source  string
		flags   string
	}{
		{"ab+", "ab+", ""},
		{"(?i)ab+", "ab+", "i"},
		{"(?ms)^a.b$", "^a.b$", "ms"},
		{"(?:ab)+", "(?:ab)+", ""},
		{"(?i:ab)c", "(?i:ab)c", ""},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			src, flags := SplitPattern(regexp.MustCompile(tt.pattern))
			if src != tt.source || flags != tt.flags {
				t.Errorf("SplitPattern = %q, %q; want %q, %q", src, flags, tt.source, tt.flags)
			}
		})
	}
}

func TestCompilePattern(t *testing.T) {
	re, err := CompilePattern("ab+", "gii")
	if err != nil {
		t.Fatal(err)
	}
	if re.String() != "(?i)ab+" {
		t.Errorf("String() = %q", re.String())
	}
	if !re.MatchString("xABBy") {
		t.Error("case-insensitive flag not applied")
	}

	if _, err := CompilePattern("(", ""); err == nil {
		t.Error("expected compile error")
	}
}

func TestPattern_MarshalAtom(t *testing.T) {
	p, err := NewPattern("^a.b$", "gsy")
	if err != nil {
		t.Fatal(err)
	}
	if !p.MatchString("a\nb") {
		t.Error("dot-all flag not applied")
	}
	name, args, err := p.MarshalAtom()
	if err != nil {
		t.Fatal(err)
	}
	if name != NameRegExp || len(args) != 2 || args[0] != "^a.b$" || args[1] != "gsy" {
		t.Errorf("MarshalAtom = %q %v", name, args)
	}

	if _, err := NewPattern("(", "g"); err == nil {
		t.Error("expected compile error")
	}
}
