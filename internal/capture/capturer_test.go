package capture

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/bpsniff/internal/core"
	"firestige.xyz/bpsniff/internal/device"
)

func tcpFrame(t *testing.T, seq uint32, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{2, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{2, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolTCP,
		SrcIP: net.IPv4(10, 0, 0, 1), DstIP: net.IPv4(10, 0, 0, 2)}
	tcp := &layers.TCP{SrcPort: 5003, DstPort: 40000, Seq: seq, ACK: true, Window: 512}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
		eth, ip, tcp, gopacket.Payload(payload)))
	return buf.Bytes()
}

// fakeSource replays a script of results, then times out until closed.
type fakeSource struct {
	mu     sync.Mutex
	script []result
	closed bool
	tail   error
}

type result struct {
	data []byte
	err  error
}

func (s *fakeSource) ReadPacket() (core.RawPacket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.script) > 0 {
		r := s.script[0]
		s.script = s.script[1:]
		return core.RawPacket{Data: r.data, Timestamp: time.Unix(1700000000, 0)}, r.err
	}
	if s.tail != nil {
		return core.RawPacket{}, s.tail
	}
	time.Sleep(time.Millisecond)
	return core.RawPacket{}, core.ErrCaptureTimeout
}

func (s *fakeSource) LinkType() layers.LinkType { return layers.LinkTypeEthernet }

func (s *fakeSource) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

type recordingHandler struct {
	mu       sync.Mutex
	segments []core.Segment
	resets   int
}

func (h *recordingHandler) HandleSegment(seg core.Segment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	seg.Payload = append([]byte(nil), seg.Payload...)
	h.segments = append(h.segments, seg)
}

func (h *recordingHandler) Reset() {
	h.mu.Lock()
	h.resets++
	h.mu.Unlock()
}

func (h *recordingHandler) snapshot() ([]core.Segment, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]core.Segment(nil), h.segments...), h.resets
}

var devs = []device.Device{
	{Index: 0, Name: "eth0", DisplayName: "eth0"},
	{Index: 1, Name: "wlan0", DisplayName: "wlan0"},
}

func TestCapturer_DeliversSegmentsUntilEOF(t *testing.T) {
	src := &fakeSource{
		script: []result{
			{data: tcpFrame(t, 1, []byte("one"))},
			{data: tcpFrame(t, 4, nil)}, // no payload
			{err: core.ErrCaptureTimeout},
			{data: []byte{0xde, 0xad}}, // undecodable
			{data: tcpFrame(t, 4, []byte("two"))},
		},
		tail: io.EOF,
	}
	h := &recordingHandler{}
	c := New(devs, 0, func(device.Device) (Source, error) { return src, nil }, h, Options{})

	require.NoError(t, c.Run(context.Background()))
	<-c.Done()
	assert.NoError(t, c.Err())

	segs, _ := h.snapshot()
	require.Len(t, segs, 2)
	assert.Equal(t, []byte("one"), segs[0].Payload)
	assert.Equal(t, uint32(4), segs[1].Seq)
	assert.True(t, src.closed)
}

func TestCapturer_ConsecutiveReadErrorsAreFatal(t *testing.T) {
	src := &fakeSource{
		script: []result{
			{err: errors.New("transient")},
			{data: tcpFrame(t, 1, []byte("ok"))},
		},
		tail: errors.New("device gone"),
	}
	h := &recordingHandler{}
	c := New(devs, 0, func(device.Device) (Source, error) { return src, nil }, h, Options{MaxReadErrors: 3})

	err := c.Run(context.Background())
	require.ErrorIs(t, err, core.ErrCaptureStopped)
	<-c.Done()
	assert.ErrorIs(t, c.Err(), core.ErrCaptureStopped)

	segs, _ := h.snapshot()
	assert.Len(t, segs, 1, "a success resets the error run")
}

func TestCapturer_OpenFailureIsFatal(t *testing.T) {
	c := New(devs, 0, func(device.Device) (Source, error) { return nil, errors.New("permission denied") },
		&recordingHandler{}, Options{})
	assert.Error(t, c.Run(context.Background()))
	assert.Error(t, c.Err())
}

func TestCapturer_SwitchDevice(t *testing.T) {
	var (
		mu     sync.Mutex
		opened []string
	)
	open := func(d device.Device) (Source, error) {
		mu.Lock()
		opened = append(opened, d.Name)
		mu.Unlock()
		return &fakeSource{}, nil
	}
	h := &recordingHandler{}
	c := New(devs, 0, open, h, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	c.SwitchDevice(7) // out of range, ignored
	c.SwitchDevice(1)
	require.Eventually(t, func() bool { return c.Current() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
	assert.NoError(t, c.Err())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"eth0", "wlan0"}, opened)
	_, resets := h.snapshot()
	assert.Equal(t, 1, resets)
}

func TestSwitchDevice_LatestWins(t *testing.T) {
	c := New(devs, 0, nil, &recordingHandler{}, Options{})
	c.SwitchDevice(1)
	c.SwitchDevice(0)
	assert.Equal(t, 0, <-c.switchCh)
	select {
	case v := <-c.switchCh:
		t.Fatalf("unexpected queued switch %d", v)
	default:
	}
}

func TestOpenOffline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	for i, payload := range []string{"alpha", "beta"} {
		data := tcpFrame(t, uint32(100+i*5), []byte(payload))
		ci := gopacket.CaptureInfo{Timestamp: time.Unix(1700000000+int64(i), 0), CaptureLength: len(data), Length: len(data)}
		require.NoError(t, w.WritePacket(ci, data))
	}
	require.NoError(t, f.Close())

	open := func(device.Device) (Source, error) { return OpenOffline(path, "tcp") }
	h := &recordingHandler{}
	c := New([]device.Device{{Name: path, DisplayName: "trace.pcap"}}, 0, open, h, Options{})
	require.NoError(t, c.Run(context.Background()))

	segs, _ := h.snapshot()
	require.Len(t, segs, 2)
	assert.Equal(t, []byte("beta"), segs[1].Payload)
	assert.Equal(t, time.Unix(1700000001, 0).UTC(), segs[1].Timestamp.UTC())
}

func TestRingLayout(t *testing.T) {
	frame, block, n, err := ringLayout(8, 1024, 65535, 4096)
	require.NoError(t, err)
	assert.Zero(t, frame%4096)
	assert.GreaterOrEqual(t, frame, 65535)
	assert.Zero(t, block%frame)
	assert.GreaterOrEqual(t, block, 1024*1024)
	assert.GreaterOrEqual(t, n, 1)

	_, _, _, err = ringLayout(0, 1024, 65535, 4096)
	assert.Error(t, err)
}
