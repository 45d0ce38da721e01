package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer appends encoded fields to a byte slice. A Writer is owned by one
// goroutine for the life of one message.
type Writer struct {
	buf   []byte
	order binary.ByteOrder
}

// NewWriter returns a Writer using order with capacity hint sizeHint.
func NewWriter(order binary.ByteOrder, sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint), order: order}
}

// Order returns the byte order of the writer.
func (w *Writer) Order() binary.ByteOrder { return w.order }

// Bytes returns the encoded bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Reset empties the writer, keeping its capacity.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) PutUint16(v uint16) { w.buf = AppendUint16(w.order, w.buf, v) }

func (w *Writer) PutUint32(v uint32) { w.buf = AppendUint32(w.order, w.buf, v) }

func (w *Writer) PutUint64(v uint64) { w.buf = AppendUint64(w.order, w.buf, v) }

func (w *Writer) PutInt16(v int16) { w.PutUint16(uint16(v)) }

func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }

func (w *Writer) PutFloat32(v float32) { w.PutUint32(math.Float32bits(v)) }

func (w *Writer) PutFloat64(v float64) { w.PutUint64(math.Float64bits(v)) }

func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }

// PutUint writes v as an unsigned integer of width 1, 2, 4 or 8 bytes.
// Values that do not fit the width are rejected.
func (w *Writer) PutUint(width int, v uint64) error {
	switch width {
	case 1, 2, 4:
		if v>>(uint(width)*8) != 0 {
			return fmt.Errorf("%w: value %d does not fit %d byte(s)", ErrInvalidField, v, width)
		}
	case 8:
	default:
		return errWidth(width)
	}
	switch width {
	case 1:
		w.PutUint8(uint8(v))
	case 2:
		w.PutUint16(uint16(v))
	case 4:
		w.PutUint32(uint32(v))
	case 8:
		w.PutUint64(v)
	}
	return nil
}

// PatchUint16 overwrites a uint16 previously written at off.
func (w *Writer) PatchUint16(off int, v uint16) {
	PutUint16(w.order, w.buf[off:off+2], v)
}

// PatchUint32 overwrites a uint32 previously written at off.
func (w *Writer) PatchUint32(off int, v uint32) {
	PutUint32(w.order, w.buf[off:off+4], v)
}

func errWidth(width int) error {
	return fmt.Errorf("%w: unsupported integer width %d", ErrInvalidField, width)
}
