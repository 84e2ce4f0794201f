package app

import "github.com/danmuck/hublink/internal/protocol/header"

func (c *Context) routePredefined(h header.Header, buf []byte) Outcome {
	switch h.Type {
	case header.ClientRequest:
		return c.predefinedClientRequest(h, buf)
	case header.ClientNotification:
		c.log.Error().Uint8("handle", uint8(h.Handle)).
			Msg("predefined service handle does not support client notifications")
		return OutcomeDroppedUnsupported
	case header.ServiceResponse:
		return c.predefinedServiceResponse(h, buf)
	case header.ServiceNotification:
		c.log.Error().Uint8("handle", uint8(h.Handle)).
			Msg("predefined client handle does not support service notifications")
		return OutcomeDroppedUnsupported
	default:
		c.log.Error().
			Uint8("type", uint8(h.Type)).
			Uint8("handle", uint8(h.Handle)).
			Int("len", len(buf)).
			Uint8("txn", h.Transaction).
			Msg("received unknown message type for predefined handle")
		c.reportProtocolError()
		return OutcomeDroppedUnknownType
	}
}

func (c *Context) predefinedClientRequest(h header.Header, buf []byte) Outcome {
	switch h.Handle {
	case header.HandleLoopback:
		c.builtins.LoopbackRequest(c, buf)
	case header.HandleDiscovery:
		c.builtins.DiscoveryRequest(c, buf)
	default:
		c.log.Error().Uint8("handle", uint8(h.Handle)).
			Msg("client request received for an invalid predefined service handle")
		return OutcomeDroppedAddress
	}
	return OutcomeRouted
}

func (c *Context) predefinedServiceResponse(h header.Header, buf []byte) Outcome {
	switch h.Handle {
	case header.HandleLoopback:
		// No loopback client exists yet to consume responses.
		c.log.Debug().Uint8("txn", h.Transaction).Msg("loopback service response not supported")
		return OutcomeDroppedUnsupported
	case header.HandleDiscovery:
		c.builtins.DiscoveryResponse(c, buf)
		return OutcomeRouted
	default:
		c.log.Error().Uint8("handle", uint8(h.Handle)).
			Msg("service response received for an invalid predefined client handle")
		return OutcomeDroppedAddress
	}
}
