package transcoder

import (
	"go.uber.org/zap"

	"github.com/wippyai/refgraph/atom"
	"github.com/wippyai/refgraph/resolver"
	"github.com/wippyai/refgraph/table"
)

// Config holds the settings shared by Encoder and Decoder.
// Encoder and decoder must agree on Prefix.
type Config struct {
	Resolver    resolver.Resolver
	Fragments   atom.FragmentParser
	Prefix      string
	ReviveTypes bool
	Cleanup     bool
	UseNumber   bool

	// Logger overrides the package logger for this configuration.
	Logger *zap.Logger
}

// DefaultConfig returns the default settings: "$" prefix, type revival on,
// DefaultScope resolver.
func DefaultConfig() Config {
	return Config{
		Resolver:    resolver.Default(),
		Prefix:      table.DefaultPrefix,
		ReviveTypes: true,
	}
}

func (c Config) withDefaults() Config {
	if c.Resolver == nil {
		c.Resolver = resolver.Default()
	}
	if c.Prefix == "" {
		c.Prefix = table.DefaultPrefix
	}
	if c.Fragments == nil {
		c.Fragments = atom.RawParser
	}
	return c
}

func (c Config) log() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}

func (c Config) atomCodec() *atom.Codec {
	return &atom.Codec{
		Resolver:  c.Resolver,
		Fragments: c.Fragments,
		Prefix:    c.Prefix,
		UseNumber: c.UseNumber,
	}
}
