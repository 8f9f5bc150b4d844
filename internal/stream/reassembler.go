// Package stream finds the game conversation among captured TCP segments and
// reassembles it into length-prefixed application frames.
package stream

import (
	"bytes"
	"encoding/binary"
	"time"

	"firestige.xyz/bpsniff/internal/metrics"
)

const (
	// DefaultMaxFrameSize bounds a plausible frame length prefix.
	DefaultMaxFrameSize uint32 = 0x0fffff
	// DefaultGapTimeout is how long a sequence gap may persist before resync.
	DefaultGapTimeout = 2 * time.Second
	// DefaultIdleTimeout is how long the conversation may be silent before
	// detection runs again.
	DefaultIdleTimeout = 10 * time.Second

	// maxCacheBytes caps out-of-order data held for a single gap.
	maxCacheBytes = 32 << 20

	frameLenSize = 4
)

// SeqCmp compares two TCP sequence numbers in 32-bit wraparound arithmetic.
// The result is positive when a is ahead of b, zero when equal and negative
// when a is behind b.
func SeqCmp(a, b uint32) int32 {
	return int32(a - b)
}

// Reassembler orders the segments of one conversation and slices the
// contiguous byte stream into frames. It is not safe for concurrent use.
type Reassembler struct {
	gapTimeout time.Duration
	maxFrame   uint32

	next       uint32
	hasNext    bool
	cache      map[uint32][]byte
	cacheBytes int
	buf        bytes.Buffer

	lastWrite time.Time
	lastAny   time.Time
	gapSince  time.Time
}

// NewReassembler creates a reassembler. Zero arguments select the defaults.
func NewReassembler(gapTimeout time.Duration, maxFrame uint32) *Reassembler {
	if gapTimeout <= 0 {
		gapTimeout = DefaultGapTimeout
	}
	if maxFrame <= frameLenSize {
		maxFrame = DefaultMaxFrameSize
	}
	return &Reassembler{
		gapTimeout: gapTimeout,
		maxFrame:   maxFrame,
		cache:      make(map[uint32][]byte),
	}
}

// Reset discards all state, including the expected sequence number.
func (r *Reassembler) Reset() {
	r.hasNext = false
	r.next = 0
	r.clearData()
	r.lastWrite = time.Time{}
	r.lastAny = time.Time{}
	r.gapSince = time.Time{}
}

// Rebase discards buffered data and expects seq next.
func (r *Reassembler) Rebase(seq uint32, now time.Time) {
	r.clearData()
	r.next = seq
	r.hasNext = true
	r.gapSince = time.Time{}
	r.lastWrite = now
	r.lastAny = now
}

func (r *Reassembler) clearData() {
	clear(r.cache)
	r.cacheBytes = 0
	r.buf.Reset()
}

// NextSeq returns the expected sequence number, if known.
func (r *Reassembler) NextSeq() (uint32, bool) { return r.next, r.hasNext }

// LastActivity returns the time of the most recent segment.
func (r *Reassembler) LastActivity() time.Time { return r.lastAny }

// Buffered returns the contiguous bytes not yet consumed as frames.
func (r *Reassembler) Buffered() []byte { return r.buf.Bytes() }

// Cached returns the number of out-of-order segments held.
func (r *Reassembler) Cached() int { return len(r.cache) }

// Push feeds one segment received at now and returns the frames completed by it.
func (r *Reassembler) Push(seq uint32, payload []byte, now time.Time) [][]byte {
	r.lastAny = now

	if !r.hasNext && len(payload) > frameLenSize && binary.BigEndian.Uint32(payload) < r.maxFrame {
		r.next = seq
		r.hasNext = true
	}

	if r.hasNext {
		switch cmp := SeqCmp(seq, r.next); {
		case cmp > 0:
			if r.gapSince.IsZero() {
				r.gapSince = now
			} else if now.Sub(r.gapSince) > r.gapTimeout {
				metrics.ReassemblyResetsTotal.WithLabelValues("gap").Inc()
				r.Rebase(seq, now)
			}
		case cmp == 0:
			r.gapSince = time.Time{}
		}
	}

	if !r.hasNext || SeqCmp(seq, r.next) >= 0 {
		r.store(seq, payload)
	}

	for r.hasNext {
		data, ok := r.cache[r.next]
		if !ok {
			break
		}
		delete(r.cache, r.next)
		r.cacheBytes -= len(data)
		r.buf.Write(data)
		r.next += uint32(len(data))
		r.lastWrite = now
	}

	return r.extract()
}

func (r *Reassembler) store(seq uint32, payload []byte) {
	if old, ok := r.cache[seq]; ok {
		r.cacheBytes -= len(old)
	}
	if r.cacheBytes+len(payload) > maxCacheBytes {
		// Nothing is draining the cache; start over and let the gap timer resync.
		clear(r.cache)
		r.cacheBytes = 0
	}
	r.cache[seq] = bytes.Clone(payload)
	r.cacheBytes += len(payload)
}

// extract slices complete frames off the front of the buffer. A length prefix
// that cannot be a frame costs one byte, so a misaligned stream realigns.
func (r *Reassembler) extract() [][]byte {
	var frames [][]byte
	for r.buf.Len() >= frameLenSize {
		size := binary.BigEndian.Uint32(r.buf.Bytes())
		if size <= frameLenSize || size > r.maxFrame {
			r.buf.Next(1)
			continue
		}
		if uint32(r.buf.Len()) < size {
			break
		}
		frames = append(frames, bytes.Clone(r.buf.Next(int(size))))
	}
	return frames
}
