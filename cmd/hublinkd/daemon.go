package main

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/danmuck/hublink/internal/app"
	"github.com/danmuck/hublink/internal/config"
	"github.com/danmuck/hublink/internal/link"
	"github.com/danmuck/hublink/internal/protocol/frame"
	"github.com/danmuck/hublink/internal/protocol/header"
	"github.com/rs/zerolog"
)

// session serialises dispatch with status reads of one app context.
type session struct {
	mu  sync.Mutex
	ctx *app.Context
}

func (s *session) ProcessDatagram(buf []byte) app.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.ProcessDatagram(buf)
}

func (s *session) discovered() []app.ServiceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.Discovered()
}

type daemon struct {
	cfg        config.Config
	services   []app.Service
	registered []app.ServiceInfo
	log        zerolog.Logger

	active atomic.Pointer[session]
	txn    atomic.Uint32
}

func newDaemon(cfg config.Config, svcs []app.Service, logger zerolog.Logger) *daemon {
	registered := make([]app.ServiceInfo, 0, len(svcs))
	for i, svc := range svcs {
		registered = append(registered, app.ServiceInfo{
			Handle:  header.NegotiatedRangeStart + header.Handle(i),
			Name:    svc.Name,
			UUID:    svc.UUID,
			Version: svc.Version,
		})
	}
	return &daemon{
		cfg:        cfg,
		services:   svcs,
		registered: registered,
		log:        logger.With().Str("component", "daemon").Logger(),
	}
}

func (d *daemon) Connected() bool {
	return d.active.Load() != nil
}

func (d *daemon) Registered() []app.ServiceInfo {
	out := make([]app.ServiceInfo, len(d.registered))
	copy(out, d.registered)
	return out
}

func (d *daemon) Discovered() []app.ServiceInfo {
	s := d.active.Load()
	if s == nil {
		return []app.ServiceInfo{}
	}
	return s.discovered()
}

// Run accepts one link peer at a time until ctx is cancelled.
func (d *daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.cfg.LinkAddr)
	if err != nil {
		return err
	}
	d.log.Info().Str("addr", ln.Addr().String()).Msg("link listener started")
	return d.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. ln is closed on
// return.
func (d *daemon) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		d.serveConn(ctx, conn)
	}
}

func (d *daemon) serveConn(ctx context.Context, conn net.Conn) {
	peer := conn.RemoteAddr().String()
	logger := d.log.With().Str("peer", peer).Logger()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	cfg := link.DefaultConfig()
	cfg.Limits = frame.Limits{MaxPayloadBytes: d.cfg.MaxDatagram}
	cfg.Logger = logger
	l := link.New(conn, cfg)
	defer l.Close()

	appCtx, err := app.Init(l,
		app.WithMaxServices(d.cfg.MaxServices),
		app.WithServices(d.services...),
		app.WithLogger(logger),
	)
	if err != nil {
		logger.Error().Err(err).Msg("app init failed")
		return
	}
	defer appCtx.Deinit()

	s := &session{ctx: appCtx}
	d.active.Store(s)
	defer d.active.CompareAndSwap(s, nil)
	logger.Info().Msg("link peer connected")

	if err := appCtx.RequestDiscovery(uint8(d.txn.Add(1))); err != nil {
		logger.Warn().Err(err).Msg("discovery request failed")
	}

	err = l.Serve(connCtx, s)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, net.ErrClosed):
		logger.Info().Interface("stats", l.Stats()).Msg("link peer disconnected")
	default:
		logger.Warn().Err(err).Interface("stats", l.Stats()).Msg("link peer dropped")
	}
}
