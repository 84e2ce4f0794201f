package main

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/danmuck/hublink/internal/app"
	"github.com/danmuck/hublink/internal/config"
	"github.com/danmuck/hublink/internal/link"
	"github.com/danmuck/hublink/internal/protocol/header"
	"github.com/danmuck/hublink/internal/services"
	"github.com/danmuck/hublink/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

// peer is the host side of a link session under test.
type peer struct {
	ctx       *app.Context
	link      *link.Link
	responses chan []byte
}

func (p *peer) ProcessDatagram(buf []byte) app.Outcome {
	var resp []byte
	if h := header.Peek(buf); len(buf) >= header.Size && h.Type == header.ServiceResponse {
		resp = append([]byte(nil), buf...)
	}
	out := p.ctx.ProcessDatagram(buf)
	if resp != nil {
		p.responses <- resp
	}
	return out
}

func (p *peer) await(t *testing.T, handle header.Handle, txn uint8) []byte {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case resp := <-p.responses:
			h := header.Peek(resp)
			if h.Handle == handle && h.Transaction == txn {
				return resp
			}
		case <-deadline:
			t.Fatalf("no response on handle %#02x txn %d", uint8(handle), txn)
		}
	}
}

func startDaemon(t *testing.T, cfg config.Config) (*daemon, string) {
	t.Helper()
	svcs, err := services.BuildAll(cfg.Services)
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	d := newDaemon(cfg, svcs, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return d, ln.Addr().String()
}

func dialPeer(t *testing.T, addr string, svcs ...app.Service) *peer {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	l := link.New(conn, link.DefaultConfig())
	appCtx, err := app.Init(l, app.WithServices(svcs...), app.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("init peer: %v", err)
	}
	p := &peer{ctx: appCtx, link: l, responses: make(chan []byte, 16)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Serve(ctx, p)
	}()
	t.Cleanup(func() {
		cancel()
		_ = conn.Close()
		<-done
		appCtx.Deinit()
	})
	return p
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Services = []config.ServiceConfig{
		{Name: "echo", UUID: "8a1d3c5e-0b7f-4e2a-9c64-1f0e2d3c4b5a", Version: "1.0.0", MinLength: 3, Mode: config.ModeEcho},
		{Name: "sensor.sink", UUID: "3f2b6c1d-9e8a-4f70-b5d4-c2a1e0f9d8c7", Version: "0.3.1", MinLength: 4, Mode: config.ModeSink},
	}
	return cfg
}

func TestDaemonAnnouncesConfiguredServices(t *testing.T) {
	testlog.Start(t)
	d, addr := startDaemon(t, testConfig())
	p := dialPeer(t, addr)

	if err := p.ctx.RequestDiscovery(7); err != nil {
		t.Fatalf("request discovery: %v", err)
	}
	p.await(t, header.HandleDiscovery, 7)

	got := p.ctx.Discovered()
	want := d.Registered()
	if len(got) != len(want) {
		t.Fatalf("discovered %d services, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Handle != want[i].Handle || got[i].Name != want[i].Name || got[i].UUID != want[i].UUID || got[i].Version != want[i].Version {
			t.Fatalf("service %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
	}
	if app.UUIDString(got[0].UUID) != "8a1d3c5e-0b7f-4e2a-9c64-1f0e2d3c4b5a" {
		t.Fatalf("unexpected uuid text: %s", app.UUIDString(got[0].UUID))
	}
}

func TestDaemonEchoServiceAnswersRequests(t *testing.T) {
	testlog.Start(t)
	_, addr := startDaemon(t, testConfig())
	p := dialPeer(t, addr)

	req := header.AppendTo(nil, header.Header{Handle: header.NegotiatedRangeStart, Type: header.ClientRequest, Transaction: 3})
	req = append(req, 0xCA, 0xFE)
	if err := p.link.SendDatagram(req); err != nil {
		t.Fatalf("send request: %v", err)
	}
	resp := p.await(t, header.NegotiatedRangeStart, 3)
	if header.Peek(resp).Type != header.ServiceResponse || !bytes.Equal(resp[header.Size:], []byte{0xCA, 0xFE}) {
		t.Fatalf("unexpected echo response: %x", resp)
	}
}

func TestDaemonTracksPeerDiscovery(t *testing.T) {
	testlog.Start(t)
	d, addr := startDaemon(t, testConfig())
	if d.Connected() {
		t.Fatalf("daemon should report no peer before dial")
	}
	hostSvc := app.Service{
		Name:      "gnss",
		UUID:      [16]byte{0x01, 0x02},
		Version:   app.Version{Major: 2},
		MinLength: 3,
		Request:   func(*app.Context, []byte) {},
	}
	dialPeer(t, addr, hostSvc)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if found := d.Discovered(); d.Connected() && len(found) == 1 {
			if found[0].Name != "gnss" || found[0].Handle != header.NegotiatedRangeStart {
				t.Fatalf("unexpected peer service: %+v", found[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("daemon never discovered peer services: connected=%v found=%+v", d.Connected(), d.Discovered())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
