package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/danmuck/hublink/internal/app"
	"github.com/danmuck/hublink/internal/observability"
	"github.com/danmuck/hublink/internal/protocol/frame"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("link: closed")

// Receiver consumes one datagram per call and must signal ProcessingDone on
// the link before returning. *app.Context satisfies it.
type Receiver interface {
	ProcessDatagram(buf []byte) app.Outcome
}

// Config configures a Link.
type Config struct {
	Limits frame.Limits
	// PoolSize is the number of receive buffers kept for reuse.
	PoolSize int
	Logger   zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		Limits:   frame.DefaultLimits(),
		PoolSize: 4,
		Logger:   log.Logger,
	}
}

// Stats counts frames seen by a Link.
type Stats struct {
	RxDatagrams   uint64
	RxErrors      uint64
	RxBadChecksum uint64
	TxDatagrams   uint64
	TxErrors      uint64
	Released      uint64
}

// Link frames datagrams over rw and implements app.Transport.
type Link struct {
	rw     io.ReadWriter
	limits frame.Limits
	log    zerolog.Logger
	free   chan []byte

	wmu    sync.Mutex
	closed bool

	smu   sync.Mutex
	stats Stats

	// peerErrors receives error codes reported by the peer, if set.
	peerErrors func(app.ErrorCode)
}

func New(rw io.ReadWriter, cfg Config) *Link {
	if cfg.Limits.MaxPayloadBytes <= 0 {
		cfg.Limits = frame.DefaultLimits()
	}
	if cfg.PoolSize < 0 {
		cfg.PoolSize = 0
	}
	return &Link{
		rw:     rw,
		limits: cfg.Limits,
		log:    cfg.Logger.With().Str("component", "link").Logger(),
		free:   make(chan []byte, cfg.PoolSize),
	}
}

// OnPeerError registers fn to observe error reports sent by the peer.
func (l *Link) OnPeerError(fn func(app.ErrorCode)) {
	l.peerErrors = fn
}

func (l *Link) Stats() Stats {
	l.smu.Lock()
	defer l.smu.Unlock()
	return l.stats
}

func (l *Link) count(fn func(*Stats)) {
	l.smu.Lock()
	fn(&l.stats)
	l.smu.Unlock()
}

// SendDatagram frames buf and writes it. buf is not retained.
func (l *Link) SendDatagram(buf []byte) error {
	if err := l.write(frame.Frame{Kind: frame.KindDatagram, Payload: buf}); err != nil {
		return err
	}
	l.count(func(s *Stats) { s.TxDatagrams++ })
	return nil
}

// EnqueueError sends an error report frame. Write failures are logged since
// the caller has no way to act on them.
func (l *Link) EnqueueError(code app.ErrorCode) {
	if err := l.write(frame.Frame{Kind: frame.KindError, Code: uint8(code)}); err != nil {
		l.log.Warn().Err(err).Str("code", code.String()).Msg("error report send failed")
		return
	}
	l.count(func(s *Stats) { s.TxErrors++ })
}

// ProcessingDone returns buf to the receive pool.
func (l *Link) ProcessingDone(buf []byte) {
	l.count(func(s *Stats) { s.Released++ })
	if cap(buf) < l.limits.MaxPayloadBytes {
		return
	}
	select {
	case l.free <- buf[:cap(buf)]:
	default:
	}
}

func (l *Link) write(f frame.Frame) error {
	out, err := frame.AppendFrame(nil, f, l.limits)
	if err != nil {
		return err
	}
	l.wmu.Lock()
	defer l.wmu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, err := l.rw.Write(out); err != nil {
		return fmt.Errorf("link: write %s frame: %w", f.Kind, err)
	}
	observability.RecordLinkFrame("tx", f.Kind.String())
	return nil
}

func (l *Link) buffer() []byte {
	select {
	case buf := <-l.free:
		return buf
	default:
		return make([]byte, l.limits.MaxPayloadBytes)
	}
}

// Next reads frames until a datagram arrives. The returned buffer belongs to
// the link and must be handed back with ProcessingDone. Corrupt frames are
// answered with a checksum error report and skipped.
func (l *Link) Next() ([]byte, error) {
	for {
		buf := l.buffer()
		f, err := frame.ReadFrame(l.rw, l.limits, buf)
		switch {
		case errors.Is(err, frame.ErrChecksum):
			l.count(func(s *Stats) { s.RxBadChecksum++ })
			l.log.Warn().Int("len", len(f.Payload)).Msg("dropping frame with bad checksum")
			l.recycle(buf)
			l.EnqueueError(app.ErrorChecksum)
			continue
		case err != nil:
			l.recycle(buf)
			return nil, err
		}
		observability.RecordLinkFrame("rx", f.Kind.String())
		if f.Kind == frame.KindError {
			l.recycle(buf)
			l.count(func(s *Stats) { s.RxErrors++ })
			code := app.ErrorCode(f.Code)
			l.log.Warn().Str("code", code.String()).Msg("peer reported error")
			if l.peerErrors != nil {
				l.peerErrors(code)
			}
			continue
		}
		l.count(func(s *Stats) { s.RxDatagrams++ })
		return f.Payload, nil
	}
}

func (l *Link) recycle(buf []byte) {
	select {
	case l.free <- buf[:cap(buf)]:
	default:
	}
}

// Serve delivers every received datagram to rx until the stream ends, a read
// fails or ctx is cancelled. A clean end of stream returns nil.
func (l *Link) Serve(ctx context.Context, rx Receiver) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf, err := l.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrClosed) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		rx.ProcessDatagram(buf)
	}
}

// Close stops further writes. It does not close the underlying stream.
func (l *Link) Close() {
	l.wmu.Lock()
	l.closed = true
	l.wmu.Unlock()
}
