package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	Magic          uint16 = 0x4842
	FixedHeaderLen        = 6
	TrailerLen            = 4
)

// Kind identifies what a frame carries.
type Kind uint8

const (
	KindDatagram Kind = 0x01
	KindError    Kind = 0x02
)

func (k Kind) String() string {
	switch k {
	case KindDatagram:
		return "datagram"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%#x)", uint8(k))
	}
}

var (
	ErrShortHeader     = errors.New("frame: short fixed header")
	ErrBadMagic        = errors.New("frame: bad magic")
	ErrUnknownKind     = errors.New("frame: unknown kind")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrChecksum        = errors.New("frame: checksum mismatch")
)

// Header is the fixed wire header: magic u16 | kind u8 | code u8 | length u16.
type Header struct {
	Magic  uint16
	Kind   Kind
	Code   uint8
	Length uint16
}

// Frame is one complete wire message. Code carries the error code of
// KindError frames and is zero otherwise.
type Frame struct {
	Kind    Kind
	Code    uint8
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 4096}
}

// ReadFrame reads one frame from r into dst when it is large enough,
// otherwise into a fresh buffer. On ErrChecksum the frame has been fully
// consumed and the stream is still aligned.
func ReadFrame(r io.Reader, limits Limits, dst []byte) (Frame, error) {
	var fixed [FixedHeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h := DecodeHeader(fixed)
	if h.Magic != Magic {
		return Frame{}, fmt.Errorf("%w: %#04x", ErrBadMagic, h.Magic)
	}
	if h.Kind != KindDatagram && h.Kind != KindError {
		return Frame{}, fmt.Errorf("%w: %s", ErrUnknownKind, h.Kind)
	}
	n := int(h.Length)
	if n > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	var payload []byte
	if cap(dst) >= n {
		payload = dst[:n]
	} else {
		payload = make([]byte, n)
	}
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, err
	}
	var trailer [TrailerLen]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return Frame{}, err
	}

	sum := crc32.NewIEEE()
	sum.Write(fixed[:])
	sum.Write(payload)
	if sum.Sum32() != binary.LittleEndian.Uint32(trailer[:]) {
		return Frame{Kind: h.Kind, Code: h.Code, Payload: payload}, ErrChecksum
	}
	return Frame{Kind: h.Kind, Code: h.Code, Payload: payload}, nil
}

// AppendFrame appends the wire form of f to dst.
func AppendFrame(dst []byte, f Frame, limits Limits) ([]byte, error) {
	if len(f.Payload) > limits.MaxPayloadBytes || len(f.Payload) > 0xFFFF {
		return dst, ErrPayloadTooLarge
	}
	hb := EncodeHeader(Header{Magic: Magic, Kind: f.Kind, Code: f.Code, Length: uint16(len(f.Payload))})
	start := len(dst)
	dst = append(dst, hb[:]...)
	dst = append(dst, f.Payload...)
	sum := crc32.ChecksumIEEE(dst[start:])
	return binary.LittleEndian.AppendUint32(dst, sum), nil
}

func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	buf, err := AppendFrame(make([]byte, 0, FixedHeaderLen+len(f.Payload)+TrailerLen), f, limits)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

func EncodeHeader(h Header) [FixedHeaderLen]byte {
	var buf [FixedHeaderLen]byte
	binary.LittleEndian.PutUint16(buf[0:2], h.Magic)
	buf[2] = byte(h.Kind)
	buf[3] = h.Code
	binary.LittleEndian.PutUint16(buf[4:6], h.Length)
	return buf
}

func DecodeHeader(b [FixedHeaderLen]byte) Header {
	return Header{
		Magic:  binary.LittleEndian.Uint16(b[0:2]),
		Kind:   Kind(b[2]),
		Code:   b[3],
		Length: binary.LittleEndian.Uint16(b[4:6]),
	}
}
