package link

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/danmuck/hublink/internal/testutil/testlog"
)

func TestRetryDelayDoublesUpToMax(t *testing.T) {
	testlog.Start(t)
	cfg := DialConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
	want := map[int]time.Duration{
		1: 250 * time.Millisecond,
		2: 500 * time.Millisecond,
		3: time.Second,
		6: 5 * time.Second,
	}
	for attempt, d := range want {
		if got := RetryDelay(cfg, attempt, nil); got != d {
			t.Fatalf("attempt %d got=%v want=%v", attempt, got, d)
		}
	}
}

func TestRetryDelayJitterRange(t *testing.T) {
	testlog.Start(t)
	cfg := DialConfig{InitialDelay: 250 * time.Millisecond, Multiplier: 2.0, Jitter: true}
	rng := rand.New(rand.NewSource(7))
	got := RetryDelay(cfg, 2, rng)
	if got < 250*time.Millisecond || got > 750*time.Millisecond {
		t.Fatalf("jitter out of range: %v", got)
	}
}

func TestDialConnects(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			_ = c.Close()
		}
	}()

	conn, err := Dial(context.Background(), ln.Addr().String(), DefaultDialConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.Close()
}

func TestDialGivesUpAfterAttempts(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	cfg := DialConfig{Attempts: 2, Timeout: 200 * time.Millisecond, InitialDelay: time.Millisecond}
	if _, err := Dial(context.Background(), addr, cfg); err == nil {
		t.Fatalf("expected dial to a closed port to fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg.InitialDelay = time.Hour
	if _, err := Dial(ctx, addr, cfg); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
