package services

import (
	"fmt"

	"github.com/danmuck/hublink/internal/app"
	"github.com/danmuck/hublink/internal/config"
	"github.com/danmuck/hublink/internal/protocol/header"
)

// Build converts a validated service entry into a registry descriptor.
func Build(sc config.ServiceConfig) (app.Service, error) {
	id, err := app.ParseUUID(sc.UUID)
	if err != nil {
		return app.Service{}, err
	}
	version, err := config.ParseVersion(sc.Version)
	if err != nil {
		return app.Service{}, err
	}
	svc := app.Service{
		Name:      sc.Name,
		UUID:      id,
		Version:   version,
		MinLength: sc.MinLength,
	}
	switch sc.Mode {
	case config.ModeEcho:
		svc.Request = Echo
	case config.ModeSink, "":
		svc.Request = Sink
	default:
		return app.Service{}, fmt.Errorf("services: %s: unknown mode %q", sc.Name, sc.Mode)
	}
	if sc.Notifications {
		svc.Notification = LogNotification
	}
	return svc, nil
}

// BuildAll builds every configured service in order.
func BuildAll(cfgs []config.ServiceConfig) ([]app.Service, error) {
	out := make([]app.Service, 0, len(cfgs))
	for _, sc := range cfgs {
		svc, err := Build(sc)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}

// Echo answers a request with a service response carrying the same payload.
// Requests without a transaction byte cannot be paired and are dropped.
func Echo(c *app.Context, buf []byte) {
	logger := c.Logger()
	h, err := header.Parse(buf)
	if err != nil {
		logger.Warn().Err(err).Msg("echo request dropped")
		return
	}
	h.Type = header.ServiceResponse
	resp := header.AppendTo(make([]byte, 0, len(buf)), h)
	resp = append(resp, buf[header.Size:]...)
	if err := c.Transport().SendDatagram(resp); err != nil {
		logger.Warn().Err(err).Uint8("handle", uint8(h.Handle)).Msg("echo response send failed")
	}
}

// Sink accepts a request without answering.
func Sink(c *app.Context, buf []byte) {
	h := header.Peek(buf)
	logger := c.Logger()
	logger.Debug().
		Uint8("handle", uint8(h.Handle)).
		Uint8("txn", h.Transaction).
		Int("len", len(buf)).
		Msg("request sunk")
}

func LogNotification(c *app.Context, buf []byte) {
	h := header.Peek(buf)
	logger := c.Logger()
	logger.Info().
		Uint8("handle", uint8(h.Handle)).
		Int("len", len(buf)).
		Msg("client notification")
}
