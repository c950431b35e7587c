package transcoder

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"unsafe"

	"github.com/wippyai/refgraph/atom"
	"github.com/wippyai/refgraph/errors"
	"github.com/wippyai/refgraph/resolver"
	"github.com/wippyai/refgraph/table"
)

var (
	untypedRecordType = reflect.TypeOf((*map[string]any)(nil)).Elem()
	undefinedType     = reflect.TypeOf((*atom.Undefined)(nil)).Elem()
	numberType        = reflect.TypeOf((*json.Number)(nil)).Elem()
	regexpType        = reflect.TypeOf((**regexp.Regexp)(nil)).Elem()
)

// convKey identifies one conversion of a shared source into a target type.
type convKey struct {
	typ reflect.Type
	ptr unsafe.Pointer
	len int
}

// DecodeInto decodes doc and assigns the root into result, which must be a
// non-nil pointer. Untyped records convert into structs and typed maps,
// sequences into typed slices and arrays, numbers into any numeric kind.
func (d *Decoder) DecodeInto(doc *table.Document, result any) error {
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Pointer {
		return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Detail("result must be a pointer, got %T", result).
			Build()
	}
	if rv.IsNil() {
		return errors.InvalidInput(errors.PhaseDecode, "result pointer is nil")
	}
	if doc == nil {
		return errors.InvalidInput(errors.PhaseDecode, "document is nil")
	}

	st := getDecodeState(doc.Table)
	defer putDecodeState(st, d.cfg.Cleanup)

	root, err := d.decode(st, doc)
	if err != nil {
		return err
	}
	if err := d.assign(st, rv.Elem(), root, nil); err != nil {
		return err
	}
	return d.normalize(st)
}

// assign stores src into dst, converting between the decoded representation
// and dst's type. Shared maps, slices and pointers convert once per target
// type, so identity and cycles survive conversion.
func (d *Decoder) assign(st *decodeState, dst reflect.Value, src any, path []string) error {
	switch src.(type) {
	case nil:
		dst.SetZero()
		return nil
	case atom.Undefined:
		if undefinedType.AssignableTo(dst.Type()) {
			dst.Set(reflect.ValueOf(src))
		} else {
			dst.SetZero()
		}
		return nil
	}

	if n, ok := src.(json.Number); ok && !d.cfg.UseNumber && !keepsNumber(dst.Type()) {
		f, err := d.atomValue(n, path)
		if err != nil {
			return err
		}
		src = f
	}

	sv := reflect.ValueOf(src)
	dt := dst.Type()
	if p, ok := src.(*resolver.Pattern); ok && dt == regexpType {
		dst.Set(reflect.ValueOf(p.Regexp))
		return nil
	}
	if sv.Type().AssignableTo(dt) {
		dst.Set(sv)
		return nil
	}

	switch dt.Kind() {
	case reflect.Pointer:
		key, shared := convKeyOf(sv, dt)
		if shared {
			if out, ok := st.memo[key]; ok {
				dst.Set(out)
				return nil
			}
		}
		p := reflect.New(dt.Elem())
		if shared {
			st.memo[key] = p
		}
		if err := d.assign(st, p.Elem(), src, path); err != nil {
			return err
		}
		dst.Set(p)
		return nil

	case reflect.Struct:
		if sv.Kind() == reflect.Pointer && sv.Type().Elem() == dt {
			if sv.IsNil() {
				dst.SetZero()
			} else {
				dst.Set(sv.Elem())
			}
			return nil
		}
		if sv.Kind() != reflect.Map || sv.Type().Key().Kind() != reflect.String {
			break
		}
		ct, err := d.compiler.Compile(dt)
		if err != nil {
			return errors.WithPath(err, path)
		}
		for _, k := range sortedKeys(sv) {
			key := k.String()
			if err := d.setField(st, dst, ct, key, sv.MapIndex(k).Interface(), append(path, key)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		if sv.Kind() != reflect.Map || sv.Type().Key().Kind() != reflect.String {
			break
		}
		key, shared := convKeyOf(sv, dt)
		if shared {
			if out, ok := st.memo[key]; ok {
				dst.Set(out)
				return nil
			}
		}
		out := reflect.MakeMapWithSize(dt, sv.Len())
		if shared {
			st.memo[key] = out
		}
		for _, k := range sortedKeys(sv) {
			name := k.String()
			if err := d.setMapIndex(st, out, name, sv.MapIndex(k).Interface(), append(path, name)); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case reflect.Slice:
		if s, ok := src.(string); ok && dt.Elem().Kind() == reflect.Uint8 {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
					Path(path...).
					GoType(dt.String()).
					Cause(err).
					Detail("bytes must be base64 text").
					Build()
			}
			dst.Set(reflect.ValueOf(b).Convert(dt))
			return nil
		}
		if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
			break
		}
		key, shared := convKeyOf(sv, dt)
		if shared {
			if out, ok := st.memo[key]; ok {
				dst.Set(out)
				return nil
			}
		}
		out := reflect.MakeSlice(dt, sv.Len(), sv.Len())
		if shared {
			st.memo[key] = out
		}
		for i := 0; i < sv.Len(); i++ {
			if err := d.assign(st, out.Index(i), sv.Index(i).Interface(), append(path, "["+strconv.Itoa(i)+"]")); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
			break
		}
		dst.SetZero()
		n := min(sv.Len(), dt.Len())
		for i := 0; i < n; i++ {
			if err := d.assign(st, dst.Index(i), sv.Index(i).Interface(), append(path, "["+strconv.Itoa(i)+"]")); err != nil {
				return err
			}
		}
		return nil

	case reflect.Bool:
		if sv.Kind() == reflect.Bool {
			dst.SetBool(sv.Bool())
			return nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return assignInt(dst, src, path)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return assignUint(dst, src, path)

	case reflect.Float32, reflect.Float64:
		return assignFloat(dst, src, path)

	case reflect.String:
		if sv.Kind() == reflect.String {
			dst.SetString(sv.String())
			return nil
		}
	}

	if sv.Kind() == dt.Kind() && sv.Type().ConvertibleTo(dt) {
		dst.Set(sv.Convert(dt))
		return nil
	}
	return errors.TypeMismatch(errors.PhaseDecode, path, sv.Type().String(), dt.String())
}

// keepsNumber reports whether t parses json.Number digits itself.
func keepsNumber(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == numberType {
		return true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func convKeyOf(sv reflect.Value, dt reflect.Type) (convKey, bool) {
	switch sv.Kind() {
	case reflect.Map, reflect.Pointer:
		if sv.IsNil() {
			return convKey{}, false
		}
		return convKey{typ: dt, ptr: sv.UnsafePointer()}, true
	case reflect.Slice:
		if sv.Len() == 0 {
			return convKey{}, false
		}
		return convKey{typ: dt, ptr: sv.UnsafePointer(), len: sv.Len()}, true
	default:
		return convKey{}, false
	}
}

// numeric reduces src to an int64, uint64 or float64 value.
func numeric(src any, unsigned bool) (reflect.Value, bool) {
	if n, ok := src.(json.Number); ok {
		s := n.String()
		if unsigned {
			if u, err := strconv.ParseUint(s, 10, 64); err == nil {
				return reflect.ValueOf(u), true
			}
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return reflect.ValueOf(i), true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !math.IsInf(f, 0) {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(f), true
	}
	sv := reflect.ValueOf(src)
	if sv.CanInt() || sv.CanUint() || sv.CanFloat() {
		return sv, true
	}
	return reflect.Value{}, false
}

func assignInt(dst reflect.Value, src any, path []string) error {
	sv, ok := numeric(src, false)
	if !ok {
		return errors.TypeMismatch(errors.PhaseDecode, path, reflect.TypeOf(src).String(), dst.Type().String())
	}

	var n int64
	switch {
	case sv.CanInt():
		n = sv.Int()
	case sv.CanUint():
		u := sv.Uint()
		if u > math.MaxInt64 {
			return errors.Overflow(errors.PhaseDecode, path, u, dst.Type().String())
		}
		n = int64(u)
	default:
		f := sv.Float()
		if f != math.Trunc(f) {
			return errors.TypeMismatch(errors.PhaseDecode, path, "non-integral number", dst.Type().String())
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return errors.Overflow(errors.PhaseDecode, path, f, dst.Type().String())
		}
		n = int64(f)
	}

	if dst.OverflowInt(n) {
		return errors.Overflow(errors.PhaseDecode, path, n, dst.Type().String())
	}
	dst.SetInt(n)
	return nil
}

func assignUint(dst reflect.Value, src any, path []string) error {
	sv, ok := numeric(src, true)
	if !ok {
		return errors.TypeMismatch(errors.PhaseDecode, path, reflect.TypeOf(src).String(), dst.Type().String())
	}

	var u uint64
	switch {
	case sv.CanUint():
		u = sv.Uint()
	case sv.CanInt():
		i := sv.Int()
		if i < 0 {
			return errors.Overflow(errors.PhaseDecode, path, i, dst.Type().String())
		}
		u = uint64(i)
	default:
		f := sv.Float()
		if f != math.Trunc(f) {
			return errors.TypeMismatch(errors.PhaseDecode, path, "non-integral number", dst.Type().String())
		}
		if f < 0 || f >= math.MaxUint64 {
			return errors.Overflow(errors.PhaseDecode, path, f, dst.Type().String())
		}
		u = uint64(f)
	}

	if dst.OverflowUint(u) {
		return errors.Overflow(errors.PhaseDecode, path, u, dst.Type().String())
	}
	dst.SetUint(u)
	return nil
}

func assignFloat(dst reflect.Value, src any, path []string) error {
	sv, ok := numeric(src, false)
	if !ok {
		return errors.TypeMismatch(errors.PhaseDecode, path, reflect.TypeOf(src).String(), dst.Type().String())
	}

	var f float64
	switch {
	case sv.CanFloat():
		f = sv.Float()
	case sv.CanInt():
		f = float64(sv.Int())
	default:
		f = float64(sv.Uint())
	}

	if _, exact := src.(json.Number); exact && math.IsInf(f, 0) {
		return errors.Overflow(errors.PhaseDecode, path, src, dst.Type().String())
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && dst.OverflowFloat(f) {
		return errors.Overflow(errors.PhaseDecode, path, f, dst.Type().String())
	}
	dst.SetFloat(f)
	return nil
}

// assignKey parses a record key into a typed map key.
func assignKey(k reflect.Value, key string, path []string) error {
	if u, ok := k.Addr().Interface().(encoding.TextUnmarshaler); ok {
		if err := u.UnmarshalText([]byte(key)); err != nil {
			return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
				Path(path...).
				GoType(k.Type().String()).
				Cause(err).
				Detail("map key UnmarshalText failed").
				Build()
		}
		return nil
	}

	switch k.Kind() {
	case reflect.String:
		k.SetString(key)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(key, 10, k.Type().Bits())
		if err == nil {
			k.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(key, 10, k.Type().Bits())
		if err == nil {
			k.SetUint(n)
			return nil
		}
	}
	return errors.TypeMismatch(errors.PhaseDecode, path, "string key "+strconv.Quote(key), k.Type().String())
}
