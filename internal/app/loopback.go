package app

import "github.com/danmuck/hublink/internal/protocol/header"

// dispatchLoopbackRequest echoes the datagram back as a service response.
func dispatchLoopbackRequest(c *Context, buf []byte) {
	resp := make([]byte, len(buf))
	copy(resp, buf)
	resp[header.HandleSize] = byte(header.ServiceResponse)
	if err := c.transport.SendDatagram(resp); err != nil {
		c.log.Warn().Err(err).Int("len", len(resp)).Msg("loopback response send failed")
	}
}

// Ping sends a loopback client request carrying payload.
func (c *Context) Ping(txn uint8, payload []byte) error {
	buf := header.AppendTo(make([]byte, 0, header.Size+len(payload)), header.Header{
		Handle:      header.HandleLoopback,
		Type:        header.ClientRequest,
		Transaction: txn,
	})
	return c.transport.SendDatagram(append(buf, payload...))
}
