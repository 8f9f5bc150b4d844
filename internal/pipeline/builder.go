package pipeline

import (
	"firestige.xyz/bpsniff/internal/config"
	"firestige.xyz/bpsniff/internal/mobs"
)

// Builder provides a fluent interface for building pipelines.
type Builder struct {
	config Config
}

// NewBuilder creates a builder seeded with the default configuration.
func NewBuilder() *Builder {
	def := config.Default()
	return &Builder{
		config: Config{
			Stream:  def.Stream,
			Decoder: def.Decoder,
		},
	}
}

// WithStream sets the reassembly timers and frame bound.
func (b *Builder) WithStream(cfg config.StreamConfig) *Builder {
	b.config.Stream = cfg
	return b
}

// WithDecoder sets the frame decoder and registry options.
func (b *Builder) WithDecoder(cfg config.DecoderConfig) *Builder {
	b.config.Decoder = cfg
	return b
}

// WithCatalog sets the monster catalog.
func (b *Builder) WithCatalog(c mobs.Catalog) *Builder {
	b.config.Catalog = c
	return b
}

// WithOutput sets where events are published.
func (b *Builder) WithOutput(out Publisher) *Builder {
	b.config.Output = out
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	return New(b.config)
}
