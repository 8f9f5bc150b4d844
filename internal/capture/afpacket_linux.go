//go:build linux

package capture

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/gopacket/afpacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"

	"firestige.xyz/bpsniff/internal/config"
	"firestige.xyz/bpsniff/internal/core"
)

type afpacketSource struct {
	handle *afpacket.TPacket
}

// OpenAFPacket opens iface with a TPACKET_V3 ring.
func OpenAFPacket(iface string, cfg config.CaptureConfig) (Source, error) {
	frameSize, blockSize, numBlocks, err := ringLayout(cfg.AFPacket.BufferSizeMB, cfg.AFPacket.BlockSizeKB, cfg.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, err
	}
	handle, err := afpacket.NewTPacket(
		afpacket.OptInterface(iface),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(pollTimeout(cfg)),
		afpacket.OptTPacketVersion(afpacket.TPacketVersion3),
		afpacket.SocketRaw,
	)
	if err != nil {
		return nil, fmt.Errorf("create TPacket on %s: %w", iface, err)
	}
	if cfg.BPFFilter != "" {
		if err := setBPF(handle, cfg.SnapLen, cfg.BPFFilter); err != nil {
			handle.Close()
			return nil, err
		}
	}
	return &afpacketSource{handle: handle}, nil
}

// setBPF compiles filter with libpcap and loads it into the socket.
func setBPF(handle *afpacket.TPacket, snapLen int, filter string) error {
	insns, err := pcap.CompileBPFFilter(layers.LinkTypeEthernet, snapLen, filter)
	if err != nil {
		return fmt.Errorf("compile bpf filter %q: %w", filter, err)
	}
	raw := make([]bpf.RawInstruction, len(insns))
	for i, in := range insns {
		raw[i] = bpf.RawInstruction{Op: in.Code, Jt: in.Jt, Jf: in.Jf, K: in.K}
	}
	if err := handle.SetBPF(raw); err != nil {
		return fmt.Errorf("set bpf filter: %w", err)
	}
	return nil
}

func (s *afpacketSource) ReadPacket() (core.RawPacket, error) {
	data, ci, err := s.handle.ZeroCopyReadPacketData()
	switch {
	case err == nil:
		return rawPacket(data, ci), nil
	case errors.Is(err, afpacket.ErrTimeout):
		return core.RawPacket{}, core.ErrCaptureTimeout
	default:
		return core.RawPacket{}, err
	}
}

func (s *afpacketSource) LinkType() layers.LinkType { return layers.LinkTypeEthernet }

func (s *afpacketSource) Close() { s.handle.Close() }
