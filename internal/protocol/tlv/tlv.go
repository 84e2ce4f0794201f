package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is id(1) + type(1) + length(2).
const HeaderLen = 4

// MaxValueLen bounds a single value so it fits a small link datagram.
const MaxValueLen = 0xFFFF

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrValueTooLarge    = errors.New("tlv: value too large")
)

// Type IDs.
const (
	TypeU8     uint8 = 1
	TypeU16    uint8 = 2
	TypeU32    uint8 = 3
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
)

// Field is one decoded TLV field. Integers are little-endian on the link.
type Field struct {
	ID    uint8
	Type  uint8
	Value []byte
}

func String(id uint8, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

func Bytes(id uint8, v []byte) Field {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Field{ID: id, Type: TypeBytes, Value: buf}
}

func U32(id uint8, v uint32) Field {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return Field{ID: id, Type: TypeU32, Value: buf}
}

// AppendField appends the wire form of f to dst.
func AppendField(dst []byte, f Field) ([]byte, error) {
	if len(f.Value) > MaxValueLen {
		return dst, fmt.Errorf("%w: field %d has %d bytes", ErrValueTooLarge, f.ID, len(f.Value))
	}
	var head [HeaderLen]byte
	head[0] = f.ID
	head[1] = f.Type
	binary.LittleEndian.PutUint16(head[2:4], uint16(len(f.Value)))
	dst = append(dst, head[:]...)
	return append(dst, f.Value...), nil
}

// AppendFields appends every field in order.
func AppendFields(dst []byte, fields []Field) ([]byte, error) {
	var err error
	for _, f := range fields {
		dst, err = AppendField(dst, f)
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}

// DecodeFields parses a complete TLV payload. Values are copied out of payload.
func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0)
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := payload[i]
		typeID := payload[i+1]
		l := int(binary.LittleEndian.Uint16(payload[i+2 : i+4]))
		i += HeaderLen
		if len(payload)-i < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+l])
		i += l
		fields = append(fields, Field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}

// Group splits fields into records, each beginning at a field with startID.
// Fields that appear before the first startID are discarded.
func Group(fields []Field, startID uint8) [][]Field {
	out := make([][]Field, 0)
	for _, f := range fields {
		if f.ID == startID {
			out = append(out, []Field{f})
			continue
		}
		if len(out) == 0 {
			continue
		}
		out[len(out)-1] = append(out[len(out)-1], f)
	}
	return out
}

func GetField(fields []Field, id uint8) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

func MustType(f Field, expected uint8) error {
	if f.Type != expected {
		return fmt.Errorf("tlv: field %d type mismatch: got %d want %d", f.ID, f.Type, expected)
	}
	return nil
}

func (f Field) U32() (uint32, error) {
	if err := MustType(f, TypeU32); err != nil {
		return 0, err
	}
	if len(f.Value) != 4 {
		return 0, fmt.Errorf("tlv: invalid u32 length: %d", len(f.Value))
	}
	return binary.LittleEndian.Uint32(f.Value), nil
}
