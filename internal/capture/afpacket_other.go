//go:build !linux

package capture

import (
	"errors"

	"firestige.xyz/bpsniff/internal/config"
)

// OpenAFPacket is only available on Linux.
func OpenAFPacket(string, config.CaptureConfig) (Source, error) {
	return nil, errors.New("afpacket backend requires linux")
}
