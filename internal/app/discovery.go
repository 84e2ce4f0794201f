package app

import (
	"errors"
	"fmt"

	"github.com/danmuck/hublink/internal/protocol/header"
	"github.com/danmuck/hublink/internal/protocol/tlv"
)

// Discovery payload field ids. A UUID field starts each descriptor.
const (
	discoveryFieldUUID    uint8 = 1
	discoveryFieldName    uint8 = 2
	discoveryFieldVersion uint8 = 3
)

var ErrMalformedDiscovery = errors.New("app: malformed discovery payload")

// EncodeDiscovery returns the discovery payload for services.
func EncodeDiscovery(services []ServiceInfo) ([]byte, error) {
	out := make([]byte, 0, len(services)*40)
	for _, svc := range services {
		var err error
		out, err = tlv.AppendFields(out, []tlv.Field{
			tlv.Bytes(discoveryFieldUUID, svc.UUID[:]),
			tlv.String(discoveryFieldName, svc.Name),
			tlv.U32(discoveryFieldVersion, svc.Version.Packed()),
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeDiscovery parses a discovery payload. Handles are assigned from the
// start of the negotiated range in announcement order.
func DecodeDiscovery(payload []byte) ([]ServiceInfo, error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDiscovery, err)
	}
	groups := tlv.Group(fields, discoveryFieldUUID)
	if len(groups) > MaxNegotiatedServices {
		return nil, fmt.Errorf("%w: %d services announced", ErrMalformedDiscovery, len(groups))
	}
	out := make([]ServiceInfo, 0, len(groups))
	for i, g := range groups {
		info := ServiceInfo{Handle: header.NegotiatedRangeStart + header.Handle(i)}
		if err := tlv.MustType(g[0], tlv.TypeBytes); err != nil || len(g[0].Value) != UUIDLen {
			return nil, fmt.Errorf("%w: descriptor %d has bad uuid", ErrMalformedDiscovery, i)
		}
		copy(info.UUID[:], g[0].Value)
		if f, ok := tlv.GetField(g, discoveryFieldName); ok {
			if err := tlv.MustType(f, tlv.TypeString); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedDiscovery, err)
			}
			info.Name = string(f.Value)
		}
		if f, ok := tlv.GetField(g, discoveryFieldVersion); ok {
			v, err := f.U32()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedDiscovery, err)
			}
			info.Version = UnpackVersion(v)
		}
		out = append(out, info)
	}
	return out, nil
}

// dispatchDiscoveryRequest answers with every registered service.
func dispatchDiscoveryRequest(c *Context, buf []byte) {
	h, err := header.Parse(buf)
	if err != nil {
		c.log.Warn().Err(err).Msg("discovery request dropped")
		return
	}
	payload, err := EncodeDiscovery(c.registry.Services())
	if err != nil {
		c.log.Error().Err(err).Msg("discovery response encode failed")
		return
	}
	resp := header.AppendTo(make([]byte, 0, header.Size+len(payload)), header.Header{
		Handle:      header.HandleDiscovery,
		Type:        header.ServiceResponse,
		Transaction: h.Transaction,
	})
	resp = append(resp, payload...)
	if err := c.transport.SendDatagram(resp); err != nil {
		c.log.Warn().Err(err).Uint8("txn", h.Transaction).Msg("discovery response send failed")
	}
}

// dispatchDiscoveryResponse records the services announced by the peer.
func dispatchDiscoveryResponse(c *Context, buf []byte) {
	h, err := header.Parse(buf)
	if err != nil {
		c.log.Warn().Err(err).Msg("discovery response dropped")
		return
	}
	services, err := DecodeDiscovery(buf[header.Size:])
	if err != nil {
		c.log.Warn().Err(err).Uint8("txn", h.Transaction).Msg("discovery response dropped")
		return
	}
	for _, svc := range services {
		c.log.Info().
			Uint8("handle", uint8(svc.Handle)).
			Str("service", svc.Name).
			Str("uuid", UUIDString(svc.UUID)).
			Str("version", svc.Version.String()).
			Msg("discovered service")
	}
	c.discovered = services
}

// RequestDiscovery asks the peer to announce its services.
func (c *Context) RequestDiscovery(txn uint8) error {
	return c.transport.SendDatagram(header.Encode(header.Header{
		Handle:      header.HandleDiscovery,
		Type:        header.ClientRequest,
		Transaction: txn,
	}))
}

// Discovered returns the services from the most recent discovery response.
func (c *Context) Discovered() []ServiceInfo {
	out := make([]ServiceInfo, len(c.discovered))
	copy(out, c.discovered)
	return out
}
