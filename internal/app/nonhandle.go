package app

import "github.com/danmuck/hublink/internal/protocol/header"

func dispatchNonHandle(c *Context, buf []byte) {
	ev := c.log.Warn().Int("len", len(buf))
	if len(buf) > header.HandleSize {
		ev = ev.Uint8("first", buf[header.HandleSize])
	}
	ev.Msg("non-handle datagram ignored")
}
