// Package protocol decodes reassembled application frames and dispatches
// Notify payloads to the event extractors.
package protocol

import "fmt"

// ServiceID identifies the game service in Notify envelopes.
const ServiceID uint64 = 0x63335342

const (
	compressedFlag  = 0x8000
	messageTypeMask = 0x7FFF

	headerLen       = 6
	notifyHeaderLen = 22
	frameDownOffset = 10
	minNestedLen    = 6

	// DefaultMaxDepth bounds FrameDown nesting.
	DefaultMaxDepth = 10
)

// MessageType is the low 15 bits of a frame's packet type.
type MessageType uint16

const (
	MessageNone MessageType = iota
	MessageCall
	MessageNotify
	MessageReturn
	MessageEcho
	MessageFrameUp
	MessageFrameDown
)

// ParseMessageType maps unknown values to MessageNone.
func ParseMessageType(v uint16) MessageType {
	if t := MessageType(v); t <= MessageFrameDown {
		return t
	}
	return MessageNone
}

func (t MessageType) String() string {
	switch t {
	case MessageCall:
		return "call"
	case MessageNotify:
		return "notify"
	case MessageReturn:
		return "return"
	case MessageEcho:
		return "echo"
	case MessageFrameUp:
		return "frame_up"
	case MessageFrameDown:
		return "frame_down"
	default:
		return "none"
	}
}

// Method is the Notify method id.
type Method uint32

const (
	MethodSyncNearEntities   Method = 0x06
	MethodSyncContainerData  Method = 0x15
	MethodSyncContainerDirty Method = 0x16
	MethodSyncServerTime     Method = 0x2B
	MethodSyncNearDeltaInfo  Method = 0x2D
	MethodSyncToMeDeltaInfo  Method = 0x2E
)

var methodNames = map[Method]string{
	MethodSyncNearEntities:   "SyncNearEntities",
	MethodSyncContainerData:  "SyncContainerData",
	MethodSyncContainerDirty: "SyncContainerDirtyData",
	MethodSyncServerTime:     "SyncServerTime",
	MethodSyncNearDeltaInfo:  "SyncNearDeltaInfo",
	MethodSyncToMeDeltaInfo:  "SyncToMeDeltaInfo",
}

// Known reports whether m is a recognised method.
func (m Method) Known() bool {
	_, ok := methodNames[m]
	return ok
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(0x%X)", uint32(m))
}

// Header is the six-byte prefix of every frame.
type Header struct {
	Length     uint32
	Type       MessageType
	Compressed bool
}
