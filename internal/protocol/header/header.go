package header

import (
	"errors"
	"fmt"
)

// Field sizes of the fixed datagram header.
const (
	HandleSize      = 1
	TypeSize        = 1
	TransactionSize = 1
	Size            = HandleSize + TypeSize + TransactionSize
)

var ErrShortHeader = errors.New("header: short datagram header")

// Handle addresses one service or client endpoint on the link.
type Handle uint8

// Predefined handles and the start of the negotiated range.
const (
	HandleNone           Handle = 0x00
	HandleLoopback       Handle = 0x01
	HandleDiscovery      Handle = 0x0F
	NegotiatedRangeStart Handle = 0x10
)

// Class is the handle range a handle falls in.
type Class uint8

const (
	ClassNone Class = iota
	ClassPredefined
	ClassNegotiated
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassPredefined:
		return "predefined"
	case ClassNegotiated:
		return "negotiated"
	default:
		return "unknown"
	}
}

// Classify returns the range h belongs to. It does not check registration.
func Classify(h Handle) Class {
	switch {
	case h == HandleNone:
		return ClassNone
	case h < NegotiatedRangeStart:
		return ClassPredefined
	default:
		return ClassNegotiated
	}
}

// MessageType selects one of the four request/response sub-protocols.
type MessageType uint8

const (
	ClientRequest       MessageType = 0
	ServiceResponse     MessageType = 1
	ClientNotification  MessageType = 2
	ServiceNotification MessageType = 3
)

// Valid reports whether t is one of the four defined message types.
func (t MessageType) Valid() bool {
	return t <= ServiceNotification
}

func (t MessageType) String() string {
	switch t {
	case ClientRequest:
		return "client_request"
	case ServiceResponse:
		return "service_response"
	case ClientNotification:
		return "client_notification"
	case ServiceNotification:
		return "service_notification"
	default:
		return fmt.Sprintf("unknown(%#x)", uint8(t))
	}
}

// Header is the fixed prefix of every datagram.
type Header struct {
	Handle      Handle
	Type        MessageType
	Transaction uint8
}

// Peek reads whatever header fields are present in buf. Missing fields are
// left at zero, so callers must validate the length before trusting them.
func Peek(buf []byte) Header {
	var h Header
	if len(buf) > 0 {
		h.Handle = Handle(buf[0])
	}
	if len(buf) > 1 {
		h.Type = MessageType(buf[1])
	}
	if len(buf) > 2 {
		h.Transaction = buf[2]
	}
	return h
}

// Parse decodes a full header from buf.
func Parse(buf []byte) (Header, error) {
	if len(buf) < Size {
		return Header{}, fmt.Errorf("%w: got %d bytes, want %d", ErrShortHeader, len(buf), Size)
	}
	return Peek(buf), nil
}

func Encode(h Header) []byte {
	return AppendTo(make([]byte, 0, Size), h)
}

// AppendTo appends the wire form of h to dst.
func AppendTo(dst []byte, h Header) []byte {
	return append(dst, byte(h.Handle), byte(h.Type), h.Transaction)
}
