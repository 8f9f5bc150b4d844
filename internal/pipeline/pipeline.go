// Package pipeline turns captured TCP segments into queued events. It runs
// entirely on the capture goroutine: tracker, frame decoder and extractor
// state are never shared.
package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"firestige.xyz/bpsniff/internal/capture"
	"firestige.xyz/bpsniff/internal/config"
	"firestige.xyz/bpsniff/internal/core"
	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/extract"
	"firestige.xyz/bpsniff/internal/log"
	"firestige.xyz/bpsniff/internal/mobs"
	"firestige.xyz/bpsniff/internal/protocol"
	"firestige.xyz/bpsniff/internal/stream"
)

// Publisher receives the events of each segment. It must not block.
type Publisher interface {
	Push(evs ...event.Event)
}

// Config contains pipeline configuration.
type Config struct {
	Stream  config.StreamConfig
	Decoder config.DecoderConfig
	Catalog mobs.Catalog // nil selects the built-in table
	Output  Publisher
}

// Pipeline is the capture.Handler that owns all per-stream state.
type Pipeline struct {
	tracker   *stream.Tracker
	extractor *extract.Extractor
	decoder   *protocol.Decoder
	out       Publisher

	clearOnServerChange bool

	stats *Stats
	log   *logrus.Entry
}

var _ capture.Handler = (*Pipeline)(nil)

// New creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Output == nil {
		return nil, fmt.Errorf("pipeline: nil output")
	}
	x, err := extract.New(extract.Options{
		Catalog:      cfg.Catalog,
		RegistrySize: cfg.Decoder.RegistrySize,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	dec, err := protocol.NewDecoder(x, protocol.Options{
		MaxDepth:        cfg.Decoder.MaxDepth,
		ZstdMaxMemoryMB: cfg.Decoder.ZstdMaxMemoryMB,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return &Pipeline{
		tracker: stream.NewTracker(stream.Options{
			GapTimeout:   cfg.Stream.GapTimeout,
			IdleTimeout:  cfg.Stream.IdleTimeout,
			MaxFrameSize: cfg.Stream.MaxFrameSize,
		}),
		extractor:           x,
		decoder:             dec,
		out:                 cfg.Output,
		clearOnServerChange: cfg.Decoder.ClearRegistryOnServerChange,
		stats:               &Stats{},
		log:                 log.WithComponent("pipeline"),
	}, nil
}

// HandleSegment runs one segment through detection, reassembly and decoding.
func (p *Pipeline) HandleSegment(seg core.Segment) {
	p.stats.Segments.Add(1)

	res := p.tracker.Handle(seg)
	if res.ServerChange != nil {
		p.stats.ServerChanges.Add(1)
		if p.clearOnServerChange {
			p.decoder.Reset()
		}
		p.publish([]event.Event{event.ServerChange{ServerEndpoint: res.ServerChange.String()}})
	}

	for _, frame := range res.Frames {
		p.stats.Frames.Add(1)
		p.publish(p.decoder.Decode(frame))
	}
}

func (p *Pipeline) publish(evs []event.Event) {
	if len(evs) == 0 {
		return
	}
	p.stats.Events.Add(uint64(len(evs)))
	p.out.Push(evs...)
}

// Reset drops the conversation, the reassembly buffer and the entity
// registry. The capture loop calls it after a device switch.
func (p *Pipeline) Reset() {
	p.log.Info("resetting stream state")
	p.stats.Resets.Add(1)
	p.tracker.Reset()
	p.decoder.Reset()
}

// Close releases decoder resources.
func (p *Pipeline) Close() {
	p.decoder.Close()
}

// Conversation returns the current game conversation, if any.
func (p *Pipeline) Conversation() (stream.Conversation, bool) {
	return p.tracker.Current()
}

// LocalPlayerUUID returns the UUID of the local player, or zero if unknown.
func (p *Pipeline) LocalPlayerUUID() int64 {
	return p.extractor.LocalPlayerUUID()
}

// Registry returns the entity registry. Its Snapshot is safe to call from
// other goroutines.
func (p *Pipeline) Registry() *extract.UUIDRegistry {
	return p.extractor.Registry()
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() StatsSnapshot {
	return p.stats.snapshot()
}
