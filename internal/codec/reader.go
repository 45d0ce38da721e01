package codec

import (
	"encoding/binary"
	"math"
)

// Reader is a read cursor over a byte slice. Every read checks the
// remaining length before touching the buffer.
type Reader struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

// NewReader returns a Reader over buf using order for multi-byte fields.
func NewReader(order binary.ByteOrder, buf []byte) *Reader {
	return &Reader{buf: buf, order: order}
}

// Order returns the byte order of the reader.
func (r *Reader) Order() binary.ByteOrder { return r.order }

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, errTruncated(r.off, n, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Peek returns the next n bytes without consuming them.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, errTruncated(r.off, n, r.Remaining())
	}
	return r.buf[r.off : r.off+n], nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// Sub returns a reader bounded to the next n bytes and advances past them.
func (r *Reader) Sub(n int) (*Reader, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return &Reader{buf: b, order: r.order}, nil
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadInto fills dst from the buffer.
func (r *Reader) ReadInto(dst []byte) error {
	b, err := r.take(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// Uint reads an unsigned integer of width 1, 2, 4 or 8 bytes.
func (r *Reader) Uint(width int) (uint64, error) {
	switch width {
	case 1:
		v, err := r.Uint8()
		return uint64(v), err
	case 2:
		v, err := r.Uint16()
		return uint64(v), err
	case 4:
		v, err := r.Uint32()
		return uint64(v), err
	case 8:
		return r.Uint64()
	default:
		return 0, errWidth(width)
	}
}
