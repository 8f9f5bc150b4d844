// Package capture reads link-layer frames from an interface or a capture file
// and drives them through link decoding on a single owning goroutine.
package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"firestige.xyz/bpsniff/internal/config"
	"firestige.xyz/bpsniff/internal/core"
	"firestige.xyz/bpsniff/internal/device"
)

// Source yields frames from one capture handle. ReadPacket returns
// core.ErrCaptureTimeout when the poll timeout expires and io.EOF when an
// offline source is exhausted. Data may alias an internal buffer and is only
// valid until the next call.
type Source interface {
	ReadPacket() (core.RawPacket, error)
	LinkType() layers.LinkType
	Close()
}

// Opener opens a source on dev.
type Opener func(dev device.Device) (Source, error)

// NewOpener returns the opener for the configured backend.
func NewOpener(cfg config.CaptureConfig) (Opener, error) {
	switch cfg.Backend {
	case "", "pcap":
		return func(dev device.Device) (Source, error) { return OpenLive(dev.Name, cfg) }, nil
	case "afpacket":
		return func(dev device.Device) (Source, error) { return OpenAFPacket(dev.Name, cfg) }, nil
	default:
		return nil, fmt.Errorf("%w: capture backend %q", core.ErrConfigInvalid, cfg.Backend)
	}
}

// pcapSource wraps a libpcap handle, live or offline.
type pcapSource struct {
	handle *pcap.Handle
}

// OpenLive opens iface for live capture.
func OpenLive(iface string, cfg config.CaptureConfig) (Source, error) {
	inactive, err := pcap.NewInactiveHandle(iface)
	if err != nil {
		return nil, fmt.Errorf("create handle on %s: %w", iface, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(cfg.SnapLen); err != nil {
		return nil, fmt.Errorf("set snaplen: %w", err)
	}
	if err := inactive.SetPromisc(cfg.Promiscuous); err != nil {
		return nil, fmt.Errorf("set promisc: %w", err)
	}
	if err := inactive.SetTimeout(pollTimeout(cfg)); err != nil {
		return nil, fmt.Errorf("set timeout: %w", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("activate %s: %w", iface, err)
	}
	if cfg.BPFFilter != "" {
		if err := handle.SetBPFFilter(cfg.BPFFilter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("set bpf filter %q: %w", cfg.BPFFilter, err)
		}
	}
	return &pcapSource{handle: handle}, nil
}

// OpenOffline opens a pcap or pcapng file.
func OpenOffline(path string, filter string) (Source, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file %s: %w", path, err)
	}
	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("set bpf filter %q: %w", filter, err)
		}
	}
	return &pcapSource{handle: handle}, nil
}

func (s *pcapSource) ReadPacket() (core.RawPacket, error) {
	data, ci, err := s.handle.ZeroCopyReadPacketData()
	switch {
	case err == nil:
		return rawPacket(data, ci), nil
	case errors.Is(err, pcap.NextErrorTimeoutExpired):
		return core.RawPacket{}, core.ErrCaptureTimeout
	case errors.Is(err, io.EOF), errors.Is(err, pcap.NextErrorNoMorePackets):
		return core.RawPacket{}, io.EOF
	default:
		return core.RawPacket{}, err
	}
}

func (s *pcapSource) LinkType() layers.LinkType { return s.handle.LinkType() }

func (s *pcapSource) Close() { s.handle.Close() }

func rawPacket(data []byte, ci gopacket.CaptureInfo) core.RawPacket {
	return core.RawPacket{
		Data:       data,
		Timestamp:  ci.Timestamp,
		CaptureLen: uint32(ci.CaptureLength),
		OrigLen:    uint32(ci.Length),
	}
}

func pollTimeout(cfg config.CaptureConfig) time.Duration {
	if cfg.PollTimeout <= 0 {
		return 10 * time.Millisecond
	}
	return cfg.PollTimeout
}
