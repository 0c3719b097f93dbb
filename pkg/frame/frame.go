package frame

import (
	"bytes"
	"strconv"
	"strings"
)

// Wire tags.
const (
	TagSimple  byte = '+'
	TagError   byte = '-'
	TagBulk    byte = '$'
	TagNull    byte = '_'
	TagInteger byte = ':'
	TagArray   byte = '*'
)

// Kind identifies the variant held by a Frame.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindSimple
	KindError
	KindBulk
	KindNull
	KindInteger
	KindArray
)

// String returns the lower-case variant name.
func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindError:
		return "error"
	case KindBulk:
		return "bulk"
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Frame is one protocol message unit.
//
// Only the field matching Kind is meaningful: Text for Simple and Error,
// Data for Bulk, Int for Integer, Elems for Array.
type Frame struct {
	Kind  Kind
	Text  string
	Data  []byte
	Int   int64
	Elems []Frame
}

// Simple returns a Simple frame.
func Simple(s string) Frame { return Frame{Kind: KindSimple, Text: s} }

// Error returns an Error frame.
func Error(s string) Frame { return Frame{Kind: KindError, Text: s} }

// Bulk returns a Bulk frame. The slice is not copied.
func Bulk(b []byte) Frame { return Frame{Kind: KindBulk, Data: b} }

// BulkString returns a Bulk frame holding s.
func BulkString(s string) Frame { return Frame{Kind: KindBulk, Data: []byte(s)} }

// Null returns the Null frame.
func Null() Frame { return Frame{Kind: KindNull} }

// Integer returns an Integer frame.
func Integer(n int64) Frame { return Frame{Kind: KindInteger, Int: n} }

// Array returns an Array frame holding elems.
func Array(elems ...Frame) Frame { return Frame{Kind: KindArray, Elems: elems} }

// BulkArray returns an Array of Bulk frames, the request shape.
func BulkArray(parts ...[]byte) Frame {
	elems := make([]Frame, len(parts))
	for i, p := range parts {
		elems[i] = Bulk(p)
	}
	return Array(elems...)
}

// Request builds a command request: an Array of Bulk frames holding the
// command name followed by its arguments.
func Request(name string, args ...[]byte) Frame {
	elems := make([]Frame, 0, len(args)+1)
	elems = append(elems, BulkString(name))
	for _, a := range args {
		elems = append(elems, Bulk(a))
	}
	return Array(elems...)
}

// IsNull reports whether f is the Null frame.
func (f Frame) IsNull() bool { return f.Kind == KindNull }

// Equal reports whether f and o hold the same variant and value.
// A nil and an empty Bulk payload are equal.
func (f Frame) Equal(o Frame) bool {
	if f.Kind != o.Kind {
		return false
	}
	switch f.Kind {
	case KindSimple, KindError:
		return f.Text == o.Text
	case KindBulk:
		return bytes.Equal(f.Data, o.Data)
	case KindInteger:
		return f.Int == o.Int
	case KindArray:
		if len(f.Elems) != len(o.Elems) {
			return false
		}
		for i := range f.Elems {
			if !f.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders f in a compact human-readable notation such as "+OK",
// "$bar", "_" or "-ERR reason". It is meant for logs and the CLI, not the
// wire.
func (f Frame) String() string {
	switch f.Kind {
	case KindSimple:
		return "+" + f.Text
	case KindError:
		return "-" + f.Text
	case KindBulk:
		return "$" + string(f.Data)
	case KindNull:
		return "_"
	case KindInteger:
		return ":" + strconv.FormatInt(f.Int, 10)
	case KindArray:
		var sb strings.Builder
		sb.WriteString("*[")
		for i, e := range f.Elems {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return "<invalid>"
	}
}
