package refgraph

import (
	"github.com/wippyai/refgraph/atom"
	"github.com/wippyai/refgraph/resolver"
	"github.com/wippyai/refgraph/table"
	"github.com/wippyai/refgraph/transcoder"
)

// Undefined is the missing-value atom. It survives a round trip and is
// distinct from nil.
var Undefined = atom.Undefined{}

type (
	Filter     = transcoder.Filter
	FilterFunc = transcoder.FilterFunc
)

// Serializer turns object graphs into text and back.
// A Serializer is safe for concurrent use.
type Serializer struct {
	cfg     transcoder.Config
	codec   table.Codec
	encoder *transcoder.Encoder
	decoder *transcoder.Decoder
}

func New(opts ...Option) *Serializer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	cfg.Resolver = o.resolver
	if cfg.Resolver == nil {
		cfg.Resolver = resolver.New(o.scope, resolver.WithPathLookup(o.pathLookup))
	}
	if cfg.Prefix == "" {
		cfg.Prefix = table.DefaultPrefix
	}

	c := transcoder.NewCompiler()
	return &Serializer{
		cfg:     cfg,
		codec:   table.NewCodec(cfg.Prefix),
		encoder: transcoder.NewEncoderWithCompiler(cfg, c),
		decoder: transcoder.NewDecoderWithCompiler(cfg, c),
	}
}

// Config returns the resolved settings.
func (s *Serializer) Config() transcoder.Config {
	return s.cfg
}

// Codec returns the text codec for this serializer's prefix.
func (s *Serializer) Codec() table.Codec {
	return s.codec
}

// Encode serializes v into text.
func (s *Serializer) Encode(v any, opts ...EncodeOption) ([]byte, error) {
	var eo encodeOptions
	for _, opt := range opts {
		opt(&eo)
	}

	doc, err := s.encoder.Encode(v, eo.filter)
	if err != nil {
		return nil, err
	}
	return s.codec.Marshal(doc, eo.indent)
}

// EncodeDocument serializes v into a document without writing text.
func (s *Serializer) EncodeDocument(v any, opts ...EncodeOption) (*table.Document, error) {
	var eo encodeOptions
	for _, opt := range opts {
		opt(&eo)
	}
	return s.encoder.Encode(v, eo.filter)
}

// Decode rebuilds a graph from text produced by Encode with the same prefix.
func (s *Serializer) Decode(data []byte) (any, error) {
	doc, err := s.codec.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return s.decoder.Decode(doc)
}

// DecodeInto rebuilds a graph from text and stores the root into target,
// which must be a non-nil pointer.
func (s *Serializer) DecodeInto(data []byte, target any) error {
	doc, err := s.codec.Unmarshal(data)
	if err != nil {
		return err
	}
	return s.decoder.DecodeInto(doc, target)
}

// DecodeDocument rebuilds a graph from a parsed document.
func (s *Serializer) DecodeDocument(doc *table.Document) (any, error) {
	return s.decoder.Decode(doc)
}

var std = New()

// Marshal serializes v with the default settings.
func Marshal(v any, opts ...EncodeOption) ([]byte, error) {
	return std.Encode(v, opts...)
}

// Unmarshal decodes text with the default settings.
func Unmarshal(data []byte) (any, error) {
	return std.Decode(data)
}

// UnmarshalInto decodes text with the default settings into target.
func UnmarshalInto(data []byte, target any) error {
	return std.DecodeInto(data, target)
}

// Register binds name to T in resolver.DefaultScope.
func Register[T any](name string) {
	resolver.Register[T](resolver.DefaultScope, name)
}
