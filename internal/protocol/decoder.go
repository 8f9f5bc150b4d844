package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"firestige.xyz/bpsniff/internal/core"
	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/log"
	"firestige.xyz/bpsniff/internal/metrics"
)

// Handler turns one Notify payload into events.
type Handler interface {
	Handle(method Method, payload []byte) ([]event.Event, error)
	// Reset drops state tied to the previous capture session.
	Reset()
}

// Options tunes a Decoder. Zero values select the defaults.
type Options struct {
	MaxDepth        int
	ZstdMaxMemoryMB int
}

// Decoder decodes application frames. It is owned by the capture loop and is
// not safe for concurrent use.
type Decoder struct {
	handler  Handler
	maxDepth int
	zstd     *zstd.Decoder
	log      *logrus.Entry
}

// NewDecoder creates a decoder that dispatches Notify payloads to h.
func NewDecoder(h Handler, opts Options) (*Decoder, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	zopts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if opts.ZstdMaxMemoryMB > 0 {
		zopts = append(zopts, zstd.WithDecoderMaxMemory(uint64(opts.ZstdMaxMemoryMB)<<20))
	}
	zd, err := zstd.NewReader(nil, zopts...)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Decoder{
		handler:  h,
		maxDepth: opts.MaxDepth,
		zstd:     zd,
		log:      log.WithComponent("protocol"),
	}, nil
}

// Close releases the zstd decoder.
func (d *Decoder) Close() {
	d.zstd.Close()
}

// Reset clears handler state such as the entity registry.
func (d *Decoder) Reset() {
	d.handler.Reset()
}

// ParseHeader reads the length prefix and packet type of frame.
func ParseHeader(frame []byte) (Header, error) {
	if len(frame) < headerLen {
		return Header{}, fmt.Errorf("%w: %d bytes", core.ErrFrameTooShort, len(frame))
	}
	pt := binary.BigEndian.Uint16(frame[4:6])
	return Header{
		Length:     binary.BigEndian.Uint32(frame[0:4]),
		Type:       ParseMessageType(pt & messageTypeMask),
		Compressed: pt&compressedFlag != 0,
	}, nil
}

// Decode processes one complete frame. Malformed input drops the offending
// frame and never fails the caller.
func (d *Decoder) Decode(frame []byte) []event.Event {
	var out []event.Event
	d.decode(frame, 0, &out)
	return out
}

func (d *Decoder) decode(frame []byte, depth int, out *[]event.Event) {
	hdr, err := ParseHeader(frame)
	if err != nil {
		metrics.FramesDroppedTotal.WithLabelValues("short").Inc()
		return
	}
	metrics.FramesTotal.WithLabelValues(hdr.Type.String()).Inc()

	switch hdr.Type {
	case MessageNotify:
		d.notify(frame, hdr.Compressed, out)
	case MessageFrameDown:
		d.frameDown(frame, hdr.Compressed, depth, out)
	case MessageReturn:
		// Nothing is extracted from call results yet.
	}
}

func (d *Decoder) notify(frame []byte, compressed bool, out *[]event.Event) {
	if len(frame) < notifyHeaderLen {
		metrics.FramesDroppedTotal.WithLabelValues("short").Inc()
		return
	}
	if binary.BigEndian.Uint64(frame[6:14]) != ServiceID {
		return
	}
	method := Method(binary.BigEndian.Uint32(frame[18:22]))
	if !dispatched(method) {
		return
	}
	payload := frame[notifyHeaderLen:]
	if len(payload) == 0 {
		return
	}
	if compressed {
		var err error
		if payload, err = d.decompress(payload); err != nil {
			d.log.WithError(err).WithField("method", method.String()).Debug("drop notify")
			return
		}
	}

	events, err := d.handler.Handle(method, payload)
	if err != nil {
		metrics.FramesDroppedTotal.WithLabelValues("payload").Inc()
		d.log.WithError(err).WithField("method", method.String()).Debug("malformed notify payload")
	}
	*out = append(*out, events...)
}

func (d *Decoder) frameDown(frame []byte, compressed bool, depth int, out *[]event.Event) {
	if len(frame) < frameDownOffset {
		metrics.FramesDroppedTotal.WithLabelValues("short").Inc()
		return
	}
	nested := frame[frameDownOffset:]
	if compressed {
		var err error
		if nested, err = d.decompress(nested); err != nil {
			d.log.WithError(err).Debug("drop frame down")
			return
		}
	}

	for pos := 0; len(nested)-pos >= 4; {
		size := int(binary.BigEndian.Uint32(nested[pos:]))
		if size < minNestedLen || size > len(nested)-pos {
			break
		}
		if depth < d.maxDepth {
			d.decode(nested[pos:pos+size], depth+1, out)
		} else {
			metrics.FramesDroppedTotal.WithLabelValues("depth").Inc()
		}
		pos += size
	}
}

func (d *Decoder) decompress(src []byte) ([]byte, error) {
	b, err := d.zstd.DecodeAll(src, nil)
	if err != nil {
		metrics.FramesDroppedTotal.WithLabelValues("decompress").Inc()
		return nil, fmt.Errorf("%w: %v", core.ErrDecompress, err)
	}
	return b, nil
}

// dispatched lists the methods that carry extractable state.
func dispatched(m Method) bool {
	switch m {
	case MethodSyncNearEntities, MethodSyncContainerData, MethodSyncNearDeltaInfo, MethodSyncToMeDeltaInfo:
		return true
	}
	return false
}
