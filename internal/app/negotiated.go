package app

import "github.com/danmuck/hublink/internal/protocol/header"

type selectionKind uint8

const (
	selectFound selectionKind = iota
	selectUnsupported
	selectUnknownType
)

// dispatchSelection is the result of matching a message type against one
// negotiated service.
type dispatchSelection struct {
	kind selectionKind
	fn   DispatchFunc
}

func found(fn DispatchFunc) dispatchSelection {
	if fn == nil {
		return dispatchSelection{kind: selectUnsupported}
	}
	return dispatchSelection{kind: selectFound, fn: fn}
}

func selectDispatch(svc *Service, t header.MessageType) dispatchSelection {
	switch t {
	case header.ClientRequest:
		return found(svc.Request)
	case header.ClientNotification:
		return found(svc.Notification)
	case header.ServiceResponse, header.ServiceNotification:
		// Negotiated clients are not implemented.
		return dispatchSelection{kind: selectUnsupported}
	default:
		return dispatchSelection{kind: selectUnknownType}
	}
}

// routeNegotiated requires c.registry.Contains(h.Handle).
func (c *Context) routeNegotiated(h header.Header, buf []byte) Outcome {
	sel := selectDispatch(c.registry.serviceOfHandle(h.Handle), h.Type)
	switch sel.kind {
	case selectFound:
		sel.fn(c, buf)
		return OutcomeRouted
	case selectUnsupported:
		c.log.Error().
			Uint8("handle", uint8(h.Handle)).
			Uint8("type", uint8(h.Type)).
			Msg("negotiated handle does not support rx message type")
		return OutcomeDroppedUnsupported
	default:
		c.log.Error().
			Uint8("type", uint8(h.Type)).
			Uint8("handle", uint8(h.Handle)).
			Msg("cannot dispatch unknown message type")
		c.reportProtocolError()
		return OutcomeDroppedUnknownType
	}
}
