package link

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"
)

// DialConfig controls how a host reaches a hub over TCP.
type DialConfig struct {
	Attempts     int
	Timeout      time.Duration
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

func DefaultDialConfig() DialConfig {
	return DialConfig{
		Attempts:     5,
		Timeout:      3 * time.Second,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryDelay returns the wait before attempt N (1-based).
func RetryDelay(cfg DialConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	mult := cfg.Multiplier
	if mult < 1.0 {
		mult = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay *= f
	}
	return time.Duration(delay)
}

// Dial connects to addr, retrying with backoff until cfg.Attempts is spent or
// ctx is cancelled.
func Dial(ctx context.Context, addr string, cfg DialConfig) (net.Conn, error) {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	d := net.Dialer{Timeout: cfg.Timeout}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(RetryDelay(cfg, attempt, rng))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("link: dial %s after %d attempts: %w", addr, attempts, lastErr)
}
