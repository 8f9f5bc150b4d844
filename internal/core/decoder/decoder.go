// Package decoder turns captured link-layer frames into IPv4/TCP segments.
package decoder

import (
	"fmt"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/bpsniff/internal/core"
)

// Decoder decodes raw frames with a preallocated gopacket.DecodingLayerParser.
// A Decoder is not safe for concurrent use; the capture loop owns one.
type Decoder struct {
	parser *gopacket.DecodingLayerParser

	eth     layers.Ethernet
	dot1q   layers.Dot1Q
	sll     layers.LinuxSLL
	loop    layers.Loopback
	ip4     layers.IPv4
	tcp     layers.TCP
	payload gopacket.Payload

	decoded []gopacket.LayerType
}

// New creates a decoder for frames of the given link type.
func New(linkType layers.LinkType) *Decoder {
	d := &Decoder{decoded: make([]gopacket.LayerType, 0, 8)}
	d.parser = gopacket.NewDecodingLayerParser(
		firstLayer(linkType),
		&d.eth,
		&d.dot1q,
		&d.sll,
		&d.loop,
		&d.ip4,
		&d.tcp,
		&d.payload,
	)
	d.parser.IgnoreUnsupported = true
	return d
}

func firstLayer(linkType layers.LinkType) gopacket.LayerType {
	switch linkType {
	case layers.LinkTypeLinuxSLL:
		return layers.LayerTypeLinuxSLL
	case layers.LinkTypeNull, layers.LinkTypeLoop:
		return layers.LayerTypeLoopback
	case layers.LinkTypeRaw:
		return layers.LayerTypeIPv4
	default:
		return layers.LayerTypeEthernet
	}
}

// Decode extracts the IPv4/TCP segment of raw. Frames that are not IPv4/TCP,
// fragmented, or carry no TCP payload are rejected with a core sentinel error.
func (d *Decoder) Decode(raw core.RawPacket) (core.Segment, error) {
	d.decoded = d.decoded[:0]
	if err := d.parser.DecodeLayers(raw.Data, &d.decoded); err != nil {
		return core.Segment{}, fmt.Errorf("%w: %v", core.ErrPacketTooShort, err)
	}

	var haveIP, haveTCP bool
	for _, lt := range d.decoded {
		switch lt {
		case layers.LayerTypeIPv4:
			haveIP = true
		case layers.LayerTypeTCP:
			haveTCP = true
		}
	}
	if !haveIP || !haveTCP {
		return core.Segment{}, core.ErrNotIPv4TCP
	}
	if d.ip4.Flags&layers.IPv4MoreFragments != 0 || d.ip4.FragOffset != 0 {
		return core.Segment{}, core.ErrNotIPv4TCP
	}
	if len(d.tcp.Payload) == 0 {
		return core.Segment{}, core.ErrEmptyPayload
	}

	src, _ := netip.AddrFromSlice(d.ip4.SrcIP)
	dst, _ := netip.AddrFromSlice(d.ip4.DstIP)
	return core.Segment{
		Timestamp: raw.Timestamp,
		Src:       core.Endpoint{Addr: src.Unmap(), Port: uint16(d.tcp.SrcPort)},
		Dst:       core.Endpoint{Addr: dst.Unmap(), Port: uint16(d.tcp.DstPort)},
		Seq:       d.tcp.Seq,
		Payload:   d.tcp.Payload,
	}, nil
}
