package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/hublink/internal/app"
	"github.com/danmuck/hublink/internal/link"
	"github.com/danmuck/hublink/internal/protocol/header"
	"github.com/rs/zerolog"
)

const (
	pingTxn      uint8 = 0x01
	discoveryTxn uint8 = 0x02
)

var errTimeout = errors.New("hublinkctl: timed out waiting for response")

type inspectResult struct {
	RTT      time.Duration
	Services []app.ServiceInfo
}

// watcher notes service responses before handing datagrams to the context.
type watcher struct {
	ctx       *app.Context
	responses chan header.Header
}

func (w *watcher) ProcessDatagram(buf []byte) app.Outcome {
	h := header.Peek(buf)
	out := w.ctx.ProcessDatagram(buf)
	if len(buf) >= header.Size && h.Type == header.ServiceResponse {
		select {
		case w.responses <- h:
		default:
		}
	}
	return out
}

// inspect pings the peer's loopback service and runs discovery over rw.
func inspect(ctx context.Context, rw io.ReadWriter, timeout time.Duration, logger zerolog.Logger) (inspectResult, error) {
	l := link.New(rw, link.DefaultConfig())
	appCtx, err := app.Init(l, app.WithLogger(logger))
	if err != nil {
		return inspectResult{}, err
	}
	defer appCtx.Deinit()

	w := &watcher{ctx: appCtx, responses: make(chan header.Header, 8)}
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = l.Serve(serveCtx, w)
	}()

	var res inspectResult
	start := time.Now()
	if err := appCtx.Ping(pingTxn, []byte("hublinkctl")); err != nil {
		return res, fmt.Errorf("ping: %w", err)
	}
	if err := w.await(ctx, header.HandleLoopback, pingTxn, timeout); err != nil {
		return res, fmt.Errorf("ping: %w", err)
	}
	res.RTT = time.Since(start)

	if err := appCtx.RequestDiscovery(discoveryTxn); err != nil {
		return res, fmt.Errorf("discovery: %w", err)
	}
	if err := w.await(ctx, header.HandleDiscovery, discoveryTxn, timeout); err != nil {
		return res, fmt.Errorf("discovery: %w", err)
	}
	res.Services = appCtx.Discovered()
	return res, nil
}

func (w *watcher) await(ctx context.Context, handle header.Handle, txn uint8, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case h := <-w.responses:
			if h.Handle == handle && h.Transaction == txn {
				return nil
			}
		case <-timer.C:
			return errTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
