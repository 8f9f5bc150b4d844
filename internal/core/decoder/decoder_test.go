package decoder

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/bpsniff/internal/core"
)

// buildTCPFrame serialises an Ethernet/IPv4/TCP frame, optionally VLAN tagged.
func buildTCPFrame(t *testing.T, vlan bool, seq uint32, payload []byte) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		DstMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(192, 168, 1, 20),
	}
	tcp := &layers.TCP{SrcPort: 5003, DstPort: 51234, Seq: seq, ACK: true, PSH: true, Window: 1024}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	stack := []gopacket.SerializableLayer{eth}
	if vlan {
		eth.EthernetType = layers.EthernetTypeDot1Q
		stack = append(stack, &layers.Dot1Q{VLANIdentifier: 42, Type: layers.EthernetTypeIPv4})
	}
	stack = append(stack, ip, tcp, gopacket.Payload(payload))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, stack...))
	return buf.Bytes()
}

func TestDecodeTCPSegment(t *testing.T) {
	d := New(layers.LinkTypeEthernet)
	ts := time.Unix(1700000000, 0)

	seg, err := d.Decode(core.RawPacket{Data: buildTCPFrame(t, false, 1000, []byte("hello")), Timestamp: ts})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:5003", seg.Src.String())
	assert.Equal(t, "192.168.1.20:51234", seg.Dst.String())
	assert.Equal(t, uint32(1000), seg.Seq)
	assert.Equal(t, []byte("hello"), seg.Payload)
	assert.Equal(t, ts, seg.Timestamp)
}

func TestDecodeVLANTagged(t *testing.T) {
	d := New(layers.LinkTypeEthernet)

	seg, err := d.Decode(core.RawPacket{Data: buildTCPFrame(t, true, 7, []byte{1, 2, 3})})
	require.NoError(t, err)
	assert.Equal(t, uint32(7), seg.Seq)
	assert.Equal(t, []byte{1, 2, 3}, seg.Payload)
}

func TestDecodeEmptyPayload(t *testing.T) {
	d := New(layers.LinkTypeEthernet)

	_, err := d.Decode(core.RawPacket{Data: buildTCPFrame(t, false, 1, nil)})
	if !errors.Is(err, core.ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestDecodeUDPRejected(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{1, 2, 3, 4, 5, 6},
		DstMAC:       net.HardwareAddr{6, 5, 4, 3, 2, 1},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.IPv4(10, 0, 0, 1), DstIP: net.IPv4(10, 0, 0, 2)}
	udp := &layers.UDP{SrcPort: 53, DstPort: 5353}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
		eth, ip, udp, gopacket.Payload([]byte("dns"))))

	d := New(layers.LinkTypeEthernet)
	_, err := d.Decode(core.RawPacket{Data: buf.Bytes()})
	if !errors.Is(err, core.ErrNotIPv4TCP) {
		t.Fatalf("expected ErrNotIPv4TCP, got %v", err)
	}
}

func TestDecodeTruncatedFrame(t *testing.T) {
	d := New(layers.LinkTypeEthernet)

	frame := buildTCPFrame(t, false, 1, []byte("payload"))
	_, err := d.Decode(core.RawPacket{Data: frame[:20]})
	assert.Error(t, err)
}

func TestDecodeReusesParser(t *testing.T) {
	d := New(layers.LinkTypeEthernet)

	for i := uint32(0); i < 3; i++ {
		seg, err := d.Decode(core.RawPacket{Data: buildTCPFrame(t, i%2 == 1, i, []byte{byte(i + 1)})})
		require.NoError(t, err)
		assert.Equal(t, i, seg.Seq)
		assert.Equal(t, []byte{byte(i + 1)}, seg.Payload)
	}
}
