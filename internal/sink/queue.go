// Package sink hands decoded events from the capture goroutine to their consumers.
package sink

import (
	"sync"
	"sync/atomic"

	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/metrics"
)

// DefaultCapacity is the queue size used when none is configured.
const DefaultCapacity = 65536

// Queue is a bounded ring of events. Push never blocks: when the ring is
// full the oldest event is overwritten and counted as dropped.
type Queue struct {
	mu   sync.Mutex
	buf  []event.Event
	head int
	size int

	ready   chan struct{}
	dropped atomic.Uint64
}

// NewQueue creates a queue holding at most capacity events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		buf:   make([]event.Event, capacity),
		ready: make(chan struct{}, 1),
	}
}

// Push appends events in order, evicting the oldest ones on overflow.
func (q *Queue) Push(evs ...event.Event) {
	if len(evs) == 0 {
		return
	}

	q.mu.Lock()
	var dropped uint64
	for _, ev := range evs {
		if q.size == len(q.buf) {
			q.buf[q.head] = nil
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			dropped++
		}
		q.buf[(q.head+q.size)%len(q.buf)] = ev
		q.size++
	}
	q.mu.Unlock()

	if dropped > 0 {
		q.dropped.Add(dropped)
		metrics.EventsDroppedTotal.Add(float64(dropped))
	}
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything queued, oldest first. It returns nil
// when the queue is empty and never waits.
func (q *Queue) Drain() []event.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return nil
	}
	out := make([]event.Event, q.size)
	for i := range out {
		idx := (q.head + i) % len(q.buf)
		out[i] = q.buf[idx]
		q.buf[idx] = nil
	}
	q.head, q.size = 0, 0
	return out
}

// Ready is signalled after a Push. A consumer waits on it, then calls Drain.
func (q *Queue) Ready() <-chan struct{} { return q.ready }

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return len(q.buf) }

// Dropped returns the number of events evicted since creation.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
