package app

import (
	"bytes"
	"testing"

	"github.com/danmuck/hublink/internal/protocol/header"
	"github.com/rs/zerolog"
)

type recorderTransport struct {
	done    int
	lastBuf []byte
	errors  []ErrorCode
	sent    [][]byte
	sendErr error
}

func (r *recorderTransport) ProcessingDone(buf []byte) {
	r.done++
	r.lastBuf = buf
}

func (r *recorderTransport) EnqueueError(code ErrorCode) {
	r.errors = append(r.errors, code)
}

func (r *recorderTransport) SendDatagram(buf []byte) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	r.sent = append(r.sent, cp)
	return nil
}

// callCounter counts dispatcher invocations per endpoint.
type callCounter struct {
	calls map[string]int
	lens  map[string][]int
}

func newCallCounter() *callCounter {
	return &callCounter{calls: make(map[string]int), lens: make(map[string][]int)}
}

func (cc *callCounter) fn(name string) DispatchFunc {
	return func(_ *Context, buf []byte) {
		cc.calls[name]++
		cc.lens[name] = append(cc.lens[name], len(buf))
	}
}

func (cc *callCounter) total() int {
	n := 0
	for _, v := range cc.calls {
		n += v
	}
	return n
}

func countingBuiltins(cc *callCounter) Builtins {
	return Builtins{
		NonHandle:         cc.fn("nonhandle"),
		LoopbackRequest:   cc.fn("loopback"),
		DiscoveryRequest:  cc.fn("discovery.request"),
		DiscoveryResponse: cc.fn("discovery.response"),
	}
}

type testEnv struct {
	ctx   *Context
	tr    *recorderTransport
	calls *callCounter
	logs  *bytes.Buffer
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{tr: &recorderTransport{}, calls: newCallCounter(), logs: &bytes.Buffer{}}
	all := append([]Option{
		WithBuiltins(countingBuiltins(env.calls)),
		WithLogger(zerolog.New(env.logs)),
	}, opts...)
	ctx, err := Init(env.tr, all...)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	env.ctx = ctx
	return env
}

func datagram(h header.Handle, mt header.MessageType, txn uint8, payload ...byte) []byte {
	return append(header.Encode(header.Header{Handle: h, Type: mt, Transaction: txn}), payload...)
}

func sensorService(cc *callCounter, name string, minLen int) Service {
	return Service{
		Name:         name,
		UUID:         [16]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, byte(minLen)},
		Version:      Version{Major: 1, Minor: 2, Patch: 3},
		MinLength:    minLen,
		Request:      cc.fn(name + ".request"),
		Notification: cc.fn(name + ".notification"),
	}
}
