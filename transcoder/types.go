package transcoder

import (
	"github.com/wippyai/refgraph/transcoder/internal/types"
)

type TypeKind = types.Kind

const (
	KindStruct = types.KindStruct
	KindMap    = types.KindMap
	KindSlice  = types.KindSlice
	KindArray  = types.KindArray
)

type CompiledType = types.CompiledType
type CompiledField = types.Field
