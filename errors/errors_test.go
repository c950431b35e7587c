package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseEncode,
				Kind:     KindConstructorMismatch,
				Path:     []string{"owner", "pets", "[2]"},
				GoType:   "main.Cat",
				TypeName: "Dog",
				Detail:   "name is bound to main.Dog",
			},
			contains: []string{"[encode]", "constructor_mismatch", "owner.pets[2]", "main.Cat", "Dog", "bound to"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindUnknownEncoding,
			},
			contains: []string{"[decode]", "unknown_encoding"},
		},
		{
			name: "type name only",
			err: &Error{
				Phase:    PhaseResolve,
				Kind:     KindUnknownConstructor,
				TypeName: "Point",
				Detail:   "not registered",
			},
			contains: []string{"[resolve]", "type name Point", " - not registered"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseParse,
				Kind:   KindUnknownEncoding,
				Detail: "malformed text",
				Cause:  errors.New("unexpected EOF"),
			},
			contains: []string{"[parse]", "unknown_encoding", "malformed text", "caused by", "unexpected EOF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseStore,
		Kind:  KindInvalidInput,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindUnserializable,
		Path:  []string{"handler"},
	}

	if !err.Is(&Error{Phase: PhaseEncode, Kind: KindUnserializable}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseDecode, Kind: KindUnserializable}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseEncode, Kind: KindUnknownEncoding}) {
		t.Error("Is should not match different kind")
	}

	if !errors.Is(err, ErrUnserializableValue) {
		t.Error("errors.Is should match phase-less sentinel")
	}

	if errors.Is(err, ErrAnonymousType) {
		t.Error("errors.Is should not match other sentinel")
	}
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a.b"},
		{[]string{"a", "[0]", "b"}, "a[0].b"},
		{[]string{"[1]", "[2]"}, "[1][2]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatPath(tt.path); got != tt.want {
				t.Errorf("FormatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	path := []string{"user", "name"}
	err := New(PhaseDecode, KindTypeMismatch).
		Path(path...).
		GoType("string").
		TypeName("User").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "int").
		Build()

	path[0] = "mutated"

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "user" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [user name]", err.Path)
	}
	if err.GoType != "string" {
		t.Errorf("GoType = %v, want 'string'", err.GoType)
	}
	if err.TypeName != "User" {
		t.Errorf("TypeName = %v, want 'User'", err.TypeName)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected string, got int" {
		t.Errorf("Detail = %v, want 'expected string, got int'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Unserializable", func(t *testing.T) {
		err := Unserializable([]string{"cb"}, "func()")
		if err.Kind != KindUnserializable || err.Phase != PhaseEncode {
			t.Errorf("Kind=%v Phase=%v", err.Kind, err.Phase)
		}
		if err.GoType != "func()" {
			t.Errorf("GoType = %v, want 'func()'", err.GoType)
		}
	})

	t.Run("AnonymousType", func(t *testing.T) {
		err := AnonymousType(nil, "struct { A int }")
		if err.Kind != KindAnonymousType {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAnonymousType)
		}
	})

	t.Run("ConstructorMismatch", func(t *testing.T) {
		err := ConstructorMismatch([]string{"pet"}, "a.Dog", "Dog", "b.Dog")
		if err.Kind != KindConstructorMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindConstructorMismatch)
		}
		if !strings.Contains(err.Detail, "b.Dog") {
			t.Errorf("Detail = %v, should name the bound type", err.Detail)
		}
	})

	t.Run("UnknownConstructor", func(t *testing.T) {
		err := UnknownConstructor(PhaseDecode, nil, "Ghost")
		if err.Kind != KindUnknownConstructor || err.TypeName != "Ghost" {
			t.Errorf("Kind=%v TypeName=%v", err.Kind, err.TypeName)
		}
	})

	t.Run("UnknownEncoding", func(t *testing.T) {
		err := UnknownEncoding(PhaseParse, []string{"[0]", "x"}, 7, "bad cell")
		if err.Kind != KindUnknownEncoding {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnknownEncoding)
		}
		if err.Value != 7 {
			t.Errorf("Value = %v, want 7", err.Value)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseDecode, []string{"val"}, 300, "uint8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseStore, "snapshot", "abc")
		if !errors.Is(err, ErrNotFound) {
			t.Error("NotFound should match ErrNotFound")
		}
	})
}

func TestWithPath(t *testing.T) {
	t.Run("fills empty path", func(t *testing.T) {
		orig := AnonymousType(nil, "struct { A int }")
		got := WithPath(orig, []string{"owner", "[1]"})

		var e *Error
		if !As(got, &e) {
			t.Fatal("expected *Error")
		}
		if FormatPath(e.Path) != "owner[1]" {
			t.Errorf("path = %q", FormatPath(e.Path))
		}
		if len(orig.Path) != 0 {
			t.Error("original error must not be modified")
		}
	})

	t.Run("keeps existing path", func(t *testing.T) {
		orig := Unserializable([]string{"a"}, "func()")
		got := WithPath(orig, []string{"b"})
		if got != error(orig) {
			t.Error("error with a path should be returned unchanged")
		}
	})

	t.Run("foreign error", func(t *testing.T) {
		orig := fmt.Errorf("plain")
		if WithPath(orig, []string{"x"}) != orig {
			t.Error("foreign errors should pass through")
		}
	})
}
