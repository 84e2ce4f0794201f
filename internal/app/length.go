package app

import (
	"math"

	"github.com/danmuck/hublink/internal/protocol/header"
)

// unsatisfiable is the minimum length of handles nothing can address.
const unsatisfiable = math.MaxInt

// minLength returns the shortest datagram acceptable for h.
func (c *Context) minLength(h header.Handle) int {
	if h < header.NegotiatedRangeStart {
		switch h {
		case header.HandleNone:
			return header.HandleSize
		case header.HandleLoopback:
			return header.HandleSize + header.TypeSize
		case header.HandleDiscovery:
			return header.Size
		default:
			c.log.Error().Uint8("handle", uint8(h)).Msg("invalid predefined handle")
			return unsatisfiable
		}
	}
	if !c.registry.Contains(h) {
		// Unregistered negotiated handles are reported as addressing errors
		// by the dispatch engine, which only needs the handle byte.
		return header.HandleSize
	}
	return c.registry.serviceOfHandle(h).MinLength
}

// datagramLenOK reports whether n bytes are enough to dispatch to h.
func (c *Context) datagramLenOK(h header.Handle, n int) bool {
	minLen := c.minLength(h)
	if n < minLen {
		ev := c.log.Warn().Uint8("handle", uint8(h)).Int("len", n)
		if minLen != unsatisfiable {
			ev = ev.Int("min_len", minLen)
		}
		ev.Msg("received datagram too short for handle")
		return false
	}
	return true
}
