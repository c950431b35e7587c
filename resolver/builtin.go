package resolver

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wippyai/refgraph/errors"
)

// Builtin constructor names.
const (
	NameDate    = "Date"
	NameRegExp  = "RegExp"
	NameNumber  = "Number"
	NameString  = "String"
	NameBoolean = "Boolean"
)

var builtins = map[string]Constructor{
	NameDate:    newDate,
	NameRegExp:  newRegExp,
	NameNumber:  newNumber,
	NameString:  newString,
	NameBoolean: newBoolean,
}

// goFlags are the flags regexp understands inside a (?flags) group.
const goFlags = "imsU"

// SplitPattern separates a leading flag group from re's source.
// "(?i)ab+" yields ("ab+", "i").
func SplitPattern(re *regexp.Regexp) (source, flags string) {
	src := re.String()
	if !strings.HasPrefix(src, "(?") {
		return src, ""
	}
	end := strings.IndexByte(src, ')')
	if end < 0 {
		return src, ""
	}
	group := src[2:end]
	if group == "" || strings.Trim(group, goFlags) != "" {
		return src, ""
	}
	return src[end+1:], group
}

// Pattern is a decoded RegExp builder. It matches like the embedded
// expression and encodes back with Source and Flags as they were written,
// including flags regexp has no use for, such as "g" or "y".
type Pattern struct {
	*regexp.Regexp
	Source string
	Flags  string
}

// NewPattern compiles source with flags and keeps both.
func NewPattern(source, flags string) (*Pattern, error) {
	re, err := CompilePattern(source, flags)
	if err != nil {
		return nil, err
	}
	return &Pattern{Regexp: re, Source: source, Flags: flags}, nil
}

func (p Pattern) MarshalAtom() (string, []any, error) {
	return NameRegExp, []any{p.Source, p.Flags}, nil
}

// CompilePattern compiles source with flags. Flags regexp does not know,
// such as "g", do not affect the compiled expression.
func CompilePattern(source, flags string) (*regexp.Regexp, error) {
	var group strings.Builder
	for _, f := range flags {
		if strings.ContainsRune(goFlags, f) && !strings.ContainsRune(group.String(), f) {
			group.WriteRune(f)
		}
	}
	if group.Len() > 0 {
		source = "(?" + group.String() + ")" + source
	}
	return regexp.Compile(source)
}

func newDate(args ...any) (any, error) {
	if len(args) == 0 {
		return time.Time{}, nil
	}
	switch v := args[0].(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, builtinError(NameDate, err)
		}
		return t, nil
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			return nil, builtinError(NameDate, err)
		}
		return time.UnixMilli(ms).UTC(), nil
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	default:
		return nil, builtinError(NameDate, fmt.Errorf("unsupported argument %T", v))
	}
}

func newRegExp(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, builtinError(NameRegExp, fmt.Errorf("missing source"))
	}
	source, ok := args[0].(string)
	if !ok {
		return nil, builtinError(NameRegExp, fmt.Errorf("source is %T, not string", args[0]))
	}
	var flags string
	if len(args) > 1 {
		flags, _ = args[1].(string)
	}
	p, err := NewPattern(source, flags)
	if err != nil {
		return nil, builtinError(NameRegExp, err)
	}
	return p, nil
}

func newNumber(args ...any) (any, error) {
	if len(args) == 0 {
		return float64(0), nil
	}
	switch v := args[0].(type) {
	case string:
		switch v {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN(), nil
		}
		return f, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, builtinError(NameNumber, err)
		}
		return f, nil
	case float64:
		return v, nil
	case bool:
		if v {
			return float64(1), nil
		}
		return float64(0), nil
	case nil:
		return float64(0), nil
	default:
		return nil, builtinError(NameNumber, fmt.Errorf("unsupported argument %T", v))
	}
}

func newString(args ...any) (any, error) {
	if len(args) == 0 {
		return "", nil
	}
	if s, ok := args[0].(string); ok {
		return s, nil
	}
	return fmt.Sprint(args[0]), nil
}

func newBoolean(args ...any) (any, error) {
	if len(args) == 0 {
		return false, nil
	}
	switch v := args[0].(type) {
	case bool:
		return v, nil
	case string:
		return v != "", nil
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0 && !math.IsNaN(f), nil
	case float64:
		return v != 0 && !math.IsNaN(v), nil
	case nil:
		return false, nil
	default:
		return true, nil
	}
}

func builtinError(name string, cause error) error {
	return errors.New(errors.PhaseDecode, errors.KindInvalidInput).
		TypeName(name).
		Cause(cause).
		Detail("invalid builder arguments").
		Build()
}
