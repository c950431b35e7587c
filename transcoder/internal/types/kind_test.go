package types //nolint:revive // package name is used by internal consumers

import (
	"reflect"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		want string
		kind Kind
	}{
		{"invalid", KindInvalid},
		{"struct", KindStruct},
		{"map", KindMap},
		{"slice", KindSlice},
		{"array", KindArray},
		{"unknown", Kind(255)},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		in       reflect.Kind
		want     Kind
		record   bool
		sequence bool
	}{
		{reflect.Struct, KindStruct, true, false},
		{reflect.Map, KindMap, true, false},
		{reflect.Slice, KindSlice, false, true},
		{reflect.Array, KindArray, false, true},
		{reflect.Int, KindInvalid, false, false},
		{reflect.Pointer, KindInvalid, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.in.String(), func(t *testing.T) {
			got := KindOf(tc.in)
			if got != tc.want {
				t.Errorf("KindOf(%v) = %v, want %v", tc.in, got, tc.want)
			}
			if got.IsRecord() != tc.record {
				t.Errorf("IsRecord() = %v", got.IsRecord())
			}
			if got.IsSequence() != tc.sequence {
				t.Errorf("IsSequence() = %v", got.IsSequence())
			}
		})
	}
}
