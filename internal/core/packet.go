package core

import "time"

// RawPacket is a link-layer frame handed over by a capture source.
type RawPacket struct {
	Data       []byte    // may alias the source's ring buffer
	Timestamp  time.Time // capture timestamp, also the clock for stream timers
	CaptureLen uint32
	OrigLen    uint32
}
