package stream

import (
	"time"

	"github.com/sirupsen/logrus"

	"firestige.xyz/bpsniff/internal/core"
	"firestige.xyz/bpsniff/internal/log"
	"firestige.xyz/bpsniff/internal/metrics"
)

// Conversation is a TCP 4-tuple. It matches segments in either direction.
type Conversation struct {
	Src core.Endpoint
	Dst core.Endpoint
}

// Matches reports whether a segment from src to dst belongs to c.
func (c Conversation) Matches(src, dst core.Endpoint) bool {
	return (c.Src == src && c.Dst == dst) || (c.Src == dst && c.Dst == src)
}

// String renders the conversation as "src -> dst" in detection order.
func (c Conversation) String() string {
	return c.Src.String() + " -> " + c.Dst.String()
}

// Result is what one segment produced.
type Result struct {
	// ServerChange is set when the segment made a new conversation current.
	ServerChange *Conversation
	// Frames are complete application frames in stream order.
	Frames [][]byte
}

// Tracker keeps the current game conversation and its reassembly state.
// It is owned by the capture loop and is not safe for concurrent use.
type Tracker struct {
	reasm       *Reassembler
	idleTimeout time.Duration
	current     *Conversation
	log         *logrus.Entry
}

// Options tunes a Tracker. Zero values select the defaults.
type Options struct {
	GapTimeout   time.Duration
	IdleTimeout  time.Duration
	MaxFrameSize uint32
}

// NewTracker creates a tracker with no current conversation.
func NewTracker(opts Options) *Tracker {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &Tracker{
		reasm:       NewReassembler(opts.GapTimeout, opts.MaxFrameSize),
		idleTimeout: opts.IdleTimeout,
		log:         log.WithComponent("stream"),
	}
}

// Current returns the current conversation, if any.
func (t *Tracker) Current() (Conversation, bool) {
	if t.current == nil {
		return Conversation{}, false
	}
	return *t.current, true
}

// Reset forgets the current conversation.
func (t *Tracker) Reset() {
	t.current = nil
	t.reasm.Reset()
}

// Handle processes one segment.
func (t *Tracker) Handle(seg core.Segment) Result {
	now := seg.Timestamp

	if t.current != nil && t.current.Matches(seg.Src, seg.Dst) {
		if t.idle(now) {
			t.reconnect()
			// Re-validate without the prefilter: the endpoints already earned trust.
			if Detect(seg.Payload) {
				return t.adopt(seg)
			}
			metrics.SegmentsTotal.WithLabelValues("discarded").Inc()
			return Result{}
		}
		metrics.SegmentsTotal.WithLabelValues("matched").Inc()
		return Result{Frames: t.reasm.Push(seg.Seq, seg.Payload, now)}
	}

	if t.current != nil {
		if !t.idle(now) {
			metrics.SegmentsTotal.WithLabelValues("unmatched").Inc()
			return Result{}
		}
		t.reconnect()
	}

	if Prefilter(seg.Payload, seg.Src.Port, seg.Dst.Port) && Detect(seg.Payload) {
		return t.adopt(seg)
	}
	metrics.SegmentsTotal.WithLabelValues("unmatched").Inc()
	return Result{}
}

func (t *Tracker) idle(now time.Time) bool {
	last := t.reasm.LastActivity()
	return !last.IsZero() && now.Sub(last) > t.idleTimeout
}

func (t *Tracker) reconnect() {
	t.log.WithField("conversation", t.current.String()).Info("conversation idle, reconnecting")
	metrics.ReassemblyResetsTotal.WithLabelValues("idle").Inc()
	t.Reset()
}

// adopt makes the segment's conversation current. The detecting segment itself
// is consumed: the stream resumes right after it.
func (t *Tracker) adopt(seg core.Segment) Result {
	conv := Conversation{Src: seg.Src, Dst: seg.Dst}
	t.current = &conv
	t.reasm.Reset()
	t.reasm.Rebase(seg.Seq+uint32(len(seg.Payload)), seg.Timestamp)

	metrics.SegmentsTotal.WithLabelValues("detected").Inc()
	metrics.ServerChangesTotal.Inc()
	t.log.WithField("conversation", conv.String()).Info("game server detected")
	return Result{ServerChange: &conv}
}
