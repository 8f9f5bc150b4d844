// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Callers wrap them with fmt.Errorf("...: %w", err).
var (
	// Link-layer decoding errors
	ErrPacketTooShort = errors.New("bpsniff: packet too short")
	ErrNotIPv4TCP     = errors.New("bpsniff: not an ipv4/tcp packet")
	ErrEmptyPayload   = errors.New("bpsniff: empty tcp payload")

	// Capture errors
	ErrCaptureTimeout = errors.New("bpsniff: capture read timeout")
	ErrCaptureStopped = errors.New("bpsniff: capture stopped")
	ErrDeviceNotFound = errors.New("bpsniff: device not found")
	ErrNoDevices      = errors.New("bpsniff: no capture devices available")

	// Frame decoding errors
	ErrFrameTooShort  = errors.New("bpsniff: frame too short")
	ErrBadFrameLength = errors.New("bpsniff: bad frame length")
	ErrDecompress     = errors.New("bpsniff: zstd decompression failed")

	// Configuration errors
	ErrConfigInvalid = errors.New("bpsniff: invalid configuration")
)
