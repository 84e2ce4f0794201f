package header

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseEncodeRoundTrip(t *testing.T) {
	in := Header{Handle: 0x12, Type: ClientNotification, Transaction: 7}
	b := Encode(in)
	if !bytes.Equal(b, []byte{0x12, 0x02, 0x07}) {
		t.Fatalf("unexpected encoding: %x", b)
	}
	out, err := Parse(append(b, 0xAA))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out != in {
		t.Fatalf("header mismatch: got=%+v want=%+v", out, in)
	}
}

func TestParseShortHeader(t *testing.T) {
	_, err := Parse([]byte{0x01, 0x00})
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestPeekPartialHeaderZeroFills(t *testing.T) {
	h := Peek([]byte{0x20})
	if h.Handle != 0x20 || h.Type != 0 || h.Transaction != 0 {
		t.Fatalf("unexpected peek result: %+v", h)
	}
	if got := Peek(nil); got != (Header{}) {
		t.Fatalf("expected zero header for empty buffer, got %+v", got)
	}
}

func TestClassify(t *testing.T) {
	cases := map[Handle]Class{
		HandleNone:               ClassNone,
		HandleLoopback:           ClassPredefined,
		0x05:                     ClassPredefined,
		HandleDiscovery:          ClassPredefined,
		NegotiatedRangeStart:     ClassNegotiated,
		NegotiatedRangeStart + 9: ClassNegotiated,
		0xFF:                     ClassNegotiated,
	}
	for h, want := range cases {
		if got := Classify(h); got != want {
			t.Fatalf("classify(%#x) got=%s want=%s", uint8(h), got, want)
		}
	}
}

func TestMessageTypeValid(t *testing.T) {
	for _, mt := range []MessageType{ClientRequest, ServiceResponse, ClientNotification, ServiceNotification} {
		if !mt.Valid() {
			t.Fatalf("expected %s to be valid", mt)
		}
	}
	if MessageType(4).Valid() || MessageType(0xFF).Valid() {
		t.Fatalf("expected out-of-range types to be invalid")
	}
	if got := MessageType(0x42).String(); got != "unknown(0x42)" {
		t.Fatalf("unexpected string: %q", got)
	}
}
