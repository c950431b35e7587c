package transcoder

// Filter decides which record fields are encoded. It sees each field's key
// and value in field order and returns the value to encode, or false to omit
// the field. Reserved keys never reach a filter.
type Filter interface {
	Filter(key string, value any) (any, bool)
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(key string, value any) (any, bool)

// Filter implements Filter.
func (f FilterFunc) Filter(key string, value any) (any, bool) {
	return f(key, value)
}

// Keys is an allow-list filter: fields whose key is absent are omitted.
type Keys map[string]struct{}

// NewKeys builds an allow-list from key names.
func NewKeys(keys ...string) Keys {
	k := make(Keys, len(keys))
	for _, key := range keys {
		k[key] = struct{}{}
	}
	return k
}

// Filter implements Filter.
func (k Keys) Filter(key string, value any) (any, bool) {
	_, ok := k[key]
	return value, ok
}
