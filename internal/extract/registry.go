package extract

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"firestige.xyz/bpsniff/internal/metrics"
)

// DefaultRegistrySize bounds the number of remembered entity UUIDs.
const DefaultRegistrySize = 65536

// UUIDRegistry maps ephemeral entity UUIDs to monster base ids. Entries are
// evicted least-recently-used once the registry is full.
type UUIDRegistry struct {
	cache *lru.Cache[int64, uint32]
}

// NewUUIDRegistry creates a registry holding at most size entries.
func NewUUIDRegistry(size int) (*UUIDRegistry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	c, err := lru.New[int64, uint32](size)
	if err != nil {
		return nil, fmt.Errorf("create uuid registry: %w", err)
	}
	return &UUIDRegistry{cache: c}, nil
}

// Set records or refreshes the base id of uuid.
func (r *UUIDRegistry) Set(uuid int64, baseID uint32) {
	r.cache.Add(uuid, baseID)
	metrics.RegistryEntries.Set(float64(r.cache.Len()))
}

// Get returns the base id recorded for uuid.
func (r *UUIDRegistry) Get(uuid int64) (uint32, bool) {
	return r.cache.Get(uuid)
}

// Len returns the number of entries.
func (r *UUIDRegistry) Len() int { return r.cache.Len() }

// Snapshot copies the registry for readers outside the decode loop.
func (r *UUIDRegistry) Snapshot() map[int64]uint32 {
	out := make(map[int64]uint32, r.cache.Len())
	for _, k := range r.cache.Keys() {
		if v, ok := r.cache.Peek(k); ok {
			out[k] = v
		}
	}
	return out
}

// Clear removes all entries.
func (r *UUIDRegistry) Clear() {
	r.cache.Purge()
	metrics.RegistryEntries.Set(0)
}
