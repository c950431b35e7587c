package refgraph

import (
	"go.uber.org/zap"

	"github.com/wippyai/refgraph/atom"
	"github.com/wippyai/refgraph/resolver"
	"github.com/wippyai/refgraph/transcoder"
)

// Option configures a Serializer.
type Option func(*options)

type options struct {
	cfg        transcoder.Config
	resolver   resolver.Resolver
	scope      *resolver.Scope
	pathLookup bool
}

func defaultOptions() options {
	return options{cfg: transcoder.DefaultConfig()}
}

// WithPrefix sets the reserved key prefix. Encoder and decoder must agree on it.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.cfg.Prefix = prefix }
}

// WithCleanup drops per-call state after every call instead of pooling it.
func WithCleanup(enabled bool) Option {
	return func(o *options) { o.cfg.Cleanup = enabled }
}

// WithReviveTypes toggles type tags. When off, records are written without a
// tag and decode as map[string]any.
func WithReviveTypes(enabled bool) Option {
	return func(o *options) { o.cfg.ReviveTypes = enabled }
}

// WithResolver replaces the name resolver. WithScope and WithPathLookup are
// ignored once a resolver is set.
func WithResolver(r resolver.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithScope resolves names against s instead of resolver.DefaultScope.
func WithScope(s *resolver.Scope) Option {
	return func(o *options) { o.scope = s }
}

// WithPathLookup lets constructor names address nested scopes ("models.Dog").
func WithPathLookup(enabled bool) Option {
	return func(o *options) { o.pathLookup = enabled }
}

// WithFragments sets the parser for fragment atoms.
func WithFragments(p atom.FragmentParser) Option {
	return func(o *options) { o.cfg.Fragments = p }
}

// WithUseNumber decodes numbers as json.Number instead of float64.
func WithUseNumber(enabled bool) Option {
	return func(o *options) { o.cfg.UseNumber = enabled }
}

// WithLogger sets the logger for this serializer's debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.cfg.Logger = l }
}

// EncodeOption configures a single Encode call.
type EncodeOption func(*encodeOptions)

type encodeOptions struct {
	filter transcoder.Filter
	indent string
}

// WithFilter passes every record field through f.
func WithFilter(f Filter) EncodeOption {
	return func(o *encodeOptions) { o.filter = f }
}

// WithKeys keeps only record fields whose key is listed.
func WithKeys(keys ...string) EncodeOption {
	return func(o *encodeOptions) { o.filter = transcoder.NewKeys(keys...) }
}

// WithIndent pretty-prints the output, one entry per line.
func WithIndent(indent string) EncodeOption {
	return func(o *encodeOptions) { o.indent = indent }
}
