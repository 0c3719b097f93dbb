package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Protocol limits to prevent unbounded allocation by a hostile peer.
const (
	// DefaultMaxPayload limits the length of a single Simple, Error or Bulk payload (16MB).
	DefaultMaxPayload = 16 * 1024 * 1024

	// DefaultMaxElements limits the number of elements in one Array.
	DefaultMaxElements = 1024

	// DefaultMaxDepth limits Array nesting.
	DefaultMaxDepth = 8

	// DefaultMaxFrame limits the encoded size of one top-level frame (64MB).
	DefaultMaxFrame = 64 * 1024 * 1024

	headerLen = 1 + 4
)

var (
	// ErrIncomplete is returned when the buffer holds only a prefix of a frame.
	ErrIncomplete = errors.New("frame: incomplete")

	// ErrProtocol is returned when the buffer cannot start a valid frame.
	ErrProtocol = errors.New("frame: protocol error")

	// ErrLimitExceeded is returned when a declared length or count is over
	// the limit. Errors wrapping it also wrap ErrProtocol.
	ErrLimitExceeded = errors.New("frame: limit exceeded")

	// ErrTruncated reports a stream that ended in the middle of a frame.
	ErrTruncated = errors.New("frame: truncated input")
)

// Limits bounds what Decode accepts. Zero fields fall back to the defaults.
type Limits struct {
	MaxPayload  int
	MaxElements int
	MaxDepth    int
	// MaxFrame caps the total encoded size of one top-level frame,
	// headers included.
	MaxFrame int
}

// DefaultLimits returns the default decode limits.
func DefaultLimits() Limits {
	return Limits{
		MaxPayload:  DefaultMaxPayload,
		MaxElements: DefaultMaxElements,
		MaxDepth:    DefaultMaxDepth,
		MaxFrame:    DefaultMaxFrame,
	}
}

func (l Limits) normalize() Limits {
	if l.MaxPayload <= 0 {
		l.MaxPayload = DefaultMaxPayload
	}
	if l.MaxElements <= 0 {
		l.MaxElements = DefaultMaxElements
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxFrame <= 0 {
		l.MaxFrame = DefaultMaxFrame
	}
	return l
}

// Decode extracts one frame from the front of b using the default limits.
func Decode(b []byte) (Frame, int, error) {
	return DefaultLimits().Decode(b)
}

// Decode extracts one frame from the front of b.
//
// On success it returns the frame and the number of bytes it occupied.
// If b holds only a prefix of a frame it returns ErrIncomplete and 0.
// Errors wrapping ErrProtocol (limit violations included) mean no
// completion of b can form a valid frame.
func (l Limits) Decode(b []byte) (Frame, int, error) {
	return l.normalize().decode(b)
}

// decode expects normalized limits.
func (l Limits) decode(b []byte) (Frame, int, error) {
	n, err := l.scan(b, 0, l.MaxFrame)
	if err != nil {
		return Frame{}, 0, err
	}
	f, _ := build(b[:n])
	return f, n, nil
}

func limitError(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrProtocol, ErrLimitExceeded, fmt.Sprintf(format, args...))
}

// scan validates the frame at the front of b from its headers alone and
// returns its encoded length. It allocates nothing, so polling a buffer
// that grows one read at a time costs only the header walk. budget is
// what remains of MaxFrame for this frame.
func (l Limits) scan(b []byte, depth, budget int) (int, error) {
	if len(b) == 0 {
		return 0, ErrIncomplete
	}

	switch tag := b[0]; tag {
	case TagNull:
		return 1, nil

	case TagInteger:
		if len(b) < 1+8 {
			return 0, ErrIncomplete
		}
		return 1 + 8, nil

	case TagSimple, TagError, TagBulk:
		if len(b) < headerLen {
			return 0, ErrIncomplete
		}
		n := binary.BigEndian.Uint32(b[1:headerLen])
		if uint64(n) > uint64(l.MaxPayload) {
			return 0, limitError("%s length %d exceeds limit %d", tagName(tag), n, l.MaxPayload)
		}
		end := headerLen + int(n)
		if end > budget {
			return 0, limitError("frame size exceeds limit %d", l.MaxFrame)
		}
		if len(b) < end {
			return 0, ErrIncomplete
		}
		return end, nil

	case TagArray:
		if depth >= l.MaxDepth {
			return 0, limitError("array nesting exceeds depth %d", l.MaxDepth)
		}
		if len(b) < headerLen {
			return 0, ErrIncomplete
		}
		count := binary.BigEndian.Uint32(b[1:headerLen])
		if uint64(count) > uint64(l.MaxElements) {
			return 0, limitError("array length %d exceeds limit %d", count, l.MaxElements)
		}
		off := headerLen
		for i := uint32(0); i < count; i++ {
			n, err := l.scan(b[off:], depth+1, budget-off)
			if err != nil {
				return 0, err
			}
			off += n
		}
		return off, nil

	default:
		return 0, fmt.Errorf("%w: unknown type tag 0x%02x", ErrProtocol, tag)
	}
}

// build materializes a frame that scan has already accepted, copying
// payloads out of b.
func build(b []byte) (Frame, int) {
	switch tag := b[0]; tag {
	case TagNull:
		return Null(), 1
	case TagInteger:
		return Integer(int64(binary.BigEndian.Uint64(b[1:9]))), 1 + 8
	case TagSimple, TagError, TagBulk:
		end := headerLen + int(binary.BigEndian.Uint32(b[1:headerLen]))
		payload := b[headerLen:end]
		switch tag {
		case TagSimple:
			return Simple(string(payload)), end
		case TagError:
			return Error(string(payload)), end
		}
		data := make([]byte, len(payload))
		copy(data, payload)
		return Bulk(data), end
	default:
		count := binary.BigEndian.Uint32(b[1:headerLen])
		off := headerLen
		elems := make([]Frame, count)
		for i := range elems {
			var n int
			elems[i], n = build(b[off:])
			off += n
		}
		return Array(elems...), off
	}
}

// Encode returns the wire encoding of f.
func Encode(f Frame) []byte {
	return Append(make([]byte, 0, Size(f)), f)
}

// Append appends the wire encoding of f to dst and returns the extended slice.
//
// Payloads longer than math.MaxUint32 and frames of KindInvalid cannot be
// represented; Append panics on them since they can only come from a
// programming error.
func Append(dst []byte, f Frame) []byte {
	switch f.Kind {
	case KindSimple:
		return appendPayload(dst, TagSimple, []byte(f.Text))
	case KindError:
		return appendPayload(dst, TagError, []byte(f.Text))
	case KindBulk:
		return appendPayload(dst, TagBulk, f.Data)
	case KindNull:
		return append(dst, TagNull)
	case KindInteger:
		dst = append(dst, TagInteger)
		return binary.BigEndian.AppendUint64(dst, uint64(f.Int))
	case KindArray:
		dst = append(dst, TagArray)
		dst = binary.BigEndian.AppendUint32(dst, checkedLen(len(f.Elems)))
		for _, e := range f.Elems {
			dst = Append(dst, e)
		}
		return dst
	default:
		panic(fmt.Sprintf("frame: cannot encode %s frame", f.Kind))
	}
}

// Size returns the number of bytes Append writes for f.
func Size(f Frame) int {
	switch f.Kind {
	case KindSimple, KindError:
		return headerLen + len(f.Text)
	case KindBulk:
		return headerLen + len(f.Data)
	case KindNull:
		return 1
	case KindInteger:
		return 1 + 8
	case KindArray:
		n := headerLen
		for _, e := range f.Elems {
			n += Size(e)
		}
		return n
	default:
		return 0
	}
}

func appendPayload(dst []byte, tag byte, payload []byte) []byte {
	dst = append(dst, tag)
	dst = binary.BigEndian.AppendUint32(dst, checkedLen(len(payload)))
	return append(dst, payload...)
}

func checkedLen(n int) uint32 {
	if uint64(n) > math.MaxUint32 {
		panic(fmt.Sprintf("frame: length %d overflows u32 prefix", n))
	}
	return uint32(n)
}

func tagName(tag byte) string {
	switch tag {
	case TagSimple:
		return "simple"
	case TagError:
		return "error"
	case TagBulk:
		return "bulk"
	}
	return "frame"
}
