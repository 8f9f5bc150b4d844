package stream

import (
	"bytes"
	"encoding/binary"
)

// loginSignature is the start of the login-return frame. Only bytes [0,10)
// and [14,20) are compared.
var loginSignature = []byte{
	0x00, 0x00, 0x00, 0x62, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01,
	0x00, 0x11, 0x45, 0x14, 0x00, 0x00, 0x00, 0x00, 0x0a, 0x4e,
	0x08, 0x01, 0x22, 0x24,
}

// serverSignature is the game service id as it appears inside a Notify sub-packet.
var serverSignature = []byte{0x00, 0x63, 0x33, 0x53, 0x42, 0x00}

const (
	loginFrameLen         = 0x62
	serverSignatureOffset = 5
	embeddedStart         = 10

	minCandidateLen = 10
	maxCandidateLen = 2000
	tlsPort         = 443
	tlsRecordLen    = 1400
)

// Prefilter is the cheap test a payload must pass before Detect runs.
func Prefilter(payload []byte, srcPort, dstPort uint16) bool {
	n := len(payload)
	if n < minCandidateLen || n >= maxCandidateLen || payload[4] != 0 {
		return false
	}
	return !((srcPort == tlsPort || dstPort == tlsPort) && n >= tlsRecordLen)
}

// Detect reports whether payload identifies the game server conversation.
func Detect(payload []byte) bool {
	return matchLogin(payload) || matchEmbedded(payload)
}

func matchLogin(payload []byte) bool {
	if len(payload) != loginFrameLen {
		return false
	}
	return bytes.Equal(payload[0:10], loginSignature[0:10]) &&
		bytes.Equal(payload[14:20], loginSignature[14:20])
}

// matchEmbedded walks the length-prefixed sub-packets after the first ten
// bytes and looks for the service id in each.
func matchEmbedded(payload []byte) bool {
	if len(payload) < embeddedStart || payload[4] != 0 {
		return false
	}
	data := payload[embeddedStart:]
	for pos := 0; len(data)-pos >= frameLenSize; {
		size := int(binary.BigEndian.Uint32(data[pos:]))
		if size < frameLenSize || size > len(data)-pos {
			return false
		}
		sub := data[pos+frameLenSize : pos+size]
		end := serverSignatureOffset + len(serverSignature)
		if len(sub) >= end && bytes.Equal(sub[serverSignatureOffset:end], serverSignature) {
			return true
		}
		pos += size
	}
	return false
}
