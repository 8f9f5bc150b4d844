// Package extract turns decoded Notify payloads into events.
package extract

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/log"
	"firestige.xyz/bpsniff/internal/metrics"
	"firestige.xyz/bpsniff/internal/mobs"
	"firestige.xyz/bpsniff/internal/protocol"
	"firestige.xyz/bpsniff/internal/protocol/pb"
)

// Options configures an Extractor.
type Options struct {
	Catalog      mobs.Catalog
	RegistrySize int
}

// Extractor holds the state shared by the per-method extractors: the entity
// registry, the monster catalog and the local player's UUID. It implements
// protocol.Handler and, like the decoder, belongs to the capture loop.
type Extractor struct {
	registry *UUIDRegistry
	catalog  mobs.Catalog
	local    int64
	log      *logrus.Entry
}

var _ protocol.Handler = (*Extractor)(nil)

// New creates an extractor. A nil catalog selects the built-in table.
func New(opts Options) (*Extractor, error) {
	reg, err := NewUUIDRegistry(opts.RegistrySize)
	if err != nil {
		return nil, err
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = mobs.Static()
	}
	return &Extractor{
		registry: reg,
		catalog:  catalog,
		log:      log.WithComponent("extract"),
	}, nil
}

// Registry exposes the entity registry.
func (x *Extractor) Registry() *UUIDRegistry { return x.registry }

// LocalPlayerUUID returns the UUID last seen in a to-me delta, or zero.
func (x *Extractor) LocalPlayerUUID() int64 { return x.local }

// Reset forgets the registry and the local player.
func (x *Extractor) Reset() {
	x.registry.Clear()
	x.local = 0
}

// Handle decodes payload as the message of method and extracts its events.
func (x *Extractor) Handle(method protocol.Method, payload []byte) ([]event.Event, error) {
	var (
		events []event.Event
		err    error
	)
	switch method {
	case protocol.MethodSyncNearDeltaInfo:
		var msg pb.SyncNearDeltaInfo
		if err = msg.Unmarshal(payload); err == nil {
			events = x.nearDelta(&msg)
		}
	case protocol.MethodSyncToMeDeltaInfo:
		var msg pb.SyncToMeDeltaInfo
		if err = msg.Unmarshal(payload); err == nil {
			events = x.toMeDelta(&msg)
		}
	case protocol.MethodSyncNearEntities:
		var msg pb.SyncNearEntities
		if err = msg.Unmarshal(payload); err == nil {
			events = x.nearEntities(&msg)
		}
	case protocol.MethodSyncContainerData:
		var msg pb.SyncContainerData
		if err = msg.Unmarshal(payload); err == nil {
			events = x.containerData(&msg)
		}
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	for _, ev := range events {
		metrics.EventsTotal.WithLabelValues(string(ev.Kind())).Inc()
	}
	return events, nil
}

func position(v pb.Vector3) event.Position {
	return event.Position{X: v.X, Y: v.Y, Z: v.Z}
}

func optionalHP(v uint64, ok bool) *uint64 {
	if !ok {
		return nil
	}
	return &v
}
