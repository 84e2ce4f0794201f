package app

// ErrorCode is reported back to the peer through the transport error channel.
type ErrorCode uint8

const (
	ErrorNone     ErrorCode = 0x00
	ErrorChecksum ErrorCode = 0x01
	ErrorOOM      ErrorCode = 0x02
	ErrorBusy     ErrorCode = 0x03
	ErrorHeader   ErrorCode = 0x04
	ErrorOrder    ErrorCode = 0x05
	ErrorAppLayer ErrorCode = 0x0F
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorNone:
		return "none"
	case ErrorChecksum:
		return "checksum"
	case ErrorOOM:
		return "oom"
	case ErrorBusy:
		return "busy"
	case ErrorHeader:
		return "header"
	case ErrorOrder:
		return "order"
	case ErrorAppLayer:
		return "app_layer"
	default:
		return "unknown"
	}
}

// Transport is the lower layer a Context is bound to.
//
// ProcessingDone is called exactly once per ProcessDatagram call; after it
// returns the transport may reuse buf. SendDatagram must not retain buf.
type Transport interface {
	ProcessingDone(buf []byte)
	EnqueueError(code ErrorCode)
	SendDatagram(buf []byte) error
}
