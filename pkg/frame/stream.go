package frame

import (
	"bufio"
	"io"
)

const minReadSize = 4096

// Decoder accumulates bytes from a stream and yields complete frames.
//
// A Decoder is owned by a single connection and is not safe for concurrent use.
type Decoder struct {
	limits Limits
	buf    []byte
	off    int
}

// NewDecoder returns a Decoder enforcing l.
func NewDecoder(l Limits) *Decoder {
	return &Decoder{limits: l.normalize()}
}

// Feed appends p to the pending bytes.
func (d *Decoder) Feed(p []byte) {
	d.compact()
	d.buf = append(d.buf, p...)
}

// Fill performs a single Read from r directly into the pending buffer.
func (d *Decoder) Fill(r io.Reader) (int, error) {
	d.compact()
	if cap(d.buf)-len(d.buf) < minReadSize {
		grown := make([]byte, len(d.buf), 2*cap(d.buf)+minReadSize)
		copy(grown, d.buf)
		d.buf = grown
	}
	n, err := r.Read(d.buf[len(d.buf):cap(d.buf)])
	d.buf = d.buf[:len(d.buf)+n]
	return n, err
}

// Next returns the next complete frame from the pending bytes.
//
// ErrIncomplete means more input is needed; pending bytes are kept. Any
// other error is a decode failure after which the stream cannot be
// resynchronized.
func (d *Decoder) Next() (Frame, error) {
	f, n, err := d.limits.decode(d.buf[d.off:])
	if err != nil {
		return Frame{}, err
	}
	d.off += n
	if d.off == len(d.buf) {
		d.buf = d.buf[:0]
		d.off = 0
	}
	return f, nil
}

// Buffered returns the number of pending bytes not yet decoded.
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.off
}

// Reset drops all pending bytes.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.off = 0
}

func (d *Decoder) compact() {
	if d.off == 0 {
		return
	}
	n := copy(d.buf, d.buf[d.off:])
	d.buf = d.buf[:n]
	d.off = 0
}

// Encoder writes frames to a buffered writer.
type Encoder struct {
	bw      *bufio.Writer
	scratch []byte
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Encoder{bw: bw}
}

// Encode buffers the encoding of f. Call Flush to send it.
func (e *Encoder) Encode(f Frame) error {
	e.scratch = Append(e.scratch[:0], f)
	_, err := e.bw.Write(e.scratch)
	return err
}

// Flush writes any buffered frames to the underlying writer.
func (e *Encoder) Flush() error {
	return e.bw.Flush()
}

// Buffered returns the number of encoded bytes not yet flushed.
func (e *Encoder) Buffered() int {
	return e.bw.Buffered()
}
