// Package core defines the value types shared between capture, stream reassembly and decoding.
package core

import (
	"net/netip"
	"strconv"
	"time"
)

// Endpoint is one side of a TCP conversation.
type Endpoint struct {
	Addr netip.Addr
	Port uint16
}

// String renders the endpoint as ip:port.
func (e Endpoint) String() string {
	return e.Addr.String() + ":" + strconv.Itoa(int(e.Port))
}

// IsValid reports whether the endpoint carries an address.
func (e Endpoint) IsValid() bool {
	return e.Addr.IsValid()
}

// Segment is a decoded IPv4/TCP packet with a non-empty payload.
type Segment struct {
	Timestamp time.Time
	Src       Endpoint
	Dst       Endpoint
	Seq       uint32
	Payload   []byte // references the capture buffer, copy before retaining
}
