package protocol

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var encoder = sync.OnceValue(func() *zstd.Encoder {
	// A nil writer with default options cannot fail.
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	return enc
})

// FrameBuilder assembles outbound-shaped frames. It is used to synthesise
// traffic for replay fixtures and tests.
type FrameBuilder struct {
	buf        bytes.Buffer
	typ        MessageType
	compressed bool
}

// NewFrameBuilder starts a frame of type t.
func NewFrameBuilder(t MessageType) *FrameBuilder {
	return &FrameBuilder{typ: t}
}

// Compressed marks the frame body as zstd-compressed.
func (b *FrameBuilder) Compressed(on bool) *FrameBuilder {
	b.compressed = on
	return b
}

// WriteBytes appends raw bytes to the body.
func (b *FrameBuilder) WriteBytes(data []byte) *FrameBuilder {
	b.buf.Write(data)
	return b
}

// WriteUint32 appends a big-endian uint32 to the body.
func (b *FrameBuilder) WriteUint32(v uint32) *FrameBuilder {
	b.buf.Write(binary.BigEndian.AppendUint32(nil, v))
	return b
}

// WriteUint64 appends a big-endian uint64 to the body.
func (b *FrameBuilder) WriteUint64(v uint64) *FrameBuilder {
	b.buf.Write(binary.BigEndian.AppendUint64(nil, v))
	return b
}

// build compresses the body from offset compressFrom on, leaving the
// envelope fields before it readable.
func (b *FrameBuilder) build(compressFrom int) []byte {
	body := b.buf.Bytes()
	if b.compressed {
		head := body[:compressFrom]
		body = append(bytes.Clone(head), encoder().EncodeAll(body[compressFrom:], nil)...)
	}
	pt := uint16(b.typ) & messageTypeMask
	if b.compressed {
		pt |= compressedFlag
	}
	out := make([]byte, headerLen, headerLen+len(body))
	binary.BigEndian.PutUint32(out, uint32(headerLen+len(body)))
	binary.BigEndian.PutUint16(out[4:], pt)
	return append(out, body...)
}

// Build returns the frame with its length prefix and packet type.
func (b *FrameBuilder) Build() []byte {
	switch b.typ {
	case MessageNotify:
		return b.build(notifyHeaderLen - headerLen)
	case MessageFrameDown:
		return b.build(frameDownOffset - headerLen)
	default:
		return b.build(0)
	}
}

// NotifyFrame builds a Notify frame for the game service.
func NotifyFrame(method Method, payload []byte, compressed bool) []byte {
	return NewFrameBuilder(MessageNotify).
		Compressed(compressed).
		WriteUint64(ServiceID).
		WriteUint32(0).
		WriteUint32(uint32(method)).
		WriteBytes(payload).
		Build()
}

// FrameDownFrame wraps nested frames in a FrameDown frame.
func FrameDownFrame(compressed bool, nested ...[]byte) []byte {
	b := NewFrameBuilder(MessageFrameDown).Compressed(compressed).WriteUint32(0)
	for _, n := range nested {
		b.WriteBytes(n)
	}
	return b.Build()
}
