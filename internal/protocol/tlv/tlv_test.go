package tlv

import (
	"bytes"
	"errors"
	"testing"
)

func TestAppendDecodeFieldsRoundTripPreservesUnknown(t *testing.T) {
	in := []Field{
		String(2, "gnss"),
		{ID: 200, Type: TypeBytes, Value: []byte{0xAA, 0xBB}}, // unknown field id
	}
	b, err := AppendFields(nil, in)
	if err != nil {
		t.Fatalf("append fields: %v", err)
	}
	out, err := DecodeFields(b)
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(out))
	}
	if out[1].ID != 200 || out[1].Type != TypeBytes || !bytes.Equal(out[1].Value, []byte{0xAA, 0xBB}) {
		t.Fatalf("unknown field not preserved: %+v", out[1])
	}
}

func TestDecodeFieldsMalformedHeaderIsDeterministic(t *testing.T) {
	_, err := DecodeFields([]byte{1, 2, 3})
	if !errors.Is(err, ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}

func TestDecodeFieldsMalformedLengthIsDeterministic(t *testing.T) {
	// id=1, type=string, len=5, value only 2 bytes
	payload := []byte{1, TypeString, 5, 0, 'a', 'b'}
	_, err := DecodeFields(payload)
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestU32LittleEndian(t *testing.T) {
	f := U32(3, 0x01020304)
	if !bytes.Equal(f.Value, []byte{4, 3, 2, 1}) {
		t.Fatalf("unexpected u32 encoding: %x", f.Value)
	}
	v, err := f.U32()
	if err != nil || v != 0x01020304 {
		t.Fatalf("u32 decode got=%#x err=%v", v, err)
	}
	if _, err := String(3, "x").U32(); err == nil {
		t.Fatalf("expected type mismatch error")
	}
}

func TestGroupSplitsOnStartField(t *testing.T) {
	fields := []Field{
		String(2, "orphan"),
		Bytes(1, []byte{1}),
		String(2, "a"),
		Bytes(1, []byte{2}),
		String(2, "b"),
		U32(3, 1),
	}
	groups := Group(fields, 1)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0]) != 2 || len(groups[1]) != 3 {
		t.Fatalf("unexpected group sizes: %d %d", len(groups[0]), len(groups[1]))
	}
	name, ok := GetField(groups[1], 2)
	if !ok || string(name.Value) != "b" {
		t.Fatalf("unexpected second group name: %+v", name)
	}
}

func TestAppendFieldRejectsOversizedValue(t *testing.T) {
	_, err := AppendField(nil, Field{ID: 1, Type: TypeBytes, Value: make([]byte, MaxValueLen+1)})
	if !errors.Is(err, ErrValueTooLarge) {
		t.Fatalf("expected ErrValueTooLarge, got %v", err)
	}
}
