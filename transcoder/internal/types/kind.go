package types

import "reflect"

type Kind uint8

const (
	KindInvalid Kind = iota
	KindStruct
	KindMap
	KindSlice
	KindArray
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindStruct:  "struct",
	KindMap:     "map",
	KindSlice:   "slice",
	KindArray:   "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsRecord reports whether values of this kind encode as keyed records.
func (k Kind) IsRecord() bool {
	return k == KindStruct || k == KindMap
}

// IsSequence reports whether values of this kind encode as sequences.
func (k Kind) IsSequence() bool {
	return k == KindSlice || k == KindArray
}

// KindOf classifies a reflect kind; scalars and pointers are KindInvalid.
func KindOf(k reflect.Kind) Kind {
	switch k {
	case reflect.Struct:
		return KindStruct
	case reflect.Map:
		return KindMap
	case reflect.Slice:
		return KindSlice
	case reflect.Array:
		return KindArray
	default:
		return KindInvalid
	}
}
