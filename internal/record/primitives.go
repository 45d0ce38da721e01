package record

import (
	"fmt"

	"github.com/tturner/simbridge/internal/codec"
	"github.com/tturner/simbridge/internal/enum"
)

type u8Elem struct{ p *uint8 }

func Uint8(p *uint8) Element { return u8Elem{p} }

func (e u8Elem) Encode(w *codec.Writer) error { w.PutUint8(*e.p); return nil }
func (e u8Elem) Decode(r *codec.Reader) (err error) {
	*e.p, err = r.Uint8()
	return err
}

type u16Elem struct{ p *uint16 }

func Uint16(p *uint16) Element { return u16Elem{p} }

func (e u16Elem) Encode(w *codec.Writer) error { w.PutUint16(*e.p); return nil }
func (e u16Elem) Decode(r *codec.Reader) (err error) {
	*e.p, err = r.Uint16()
	return err
}

type u32Elem struct{ p *uint32 }

func Uint32(p *uint32) Element { return u32Elem{p} }

func (e u32Elem) Encode(w *codec.Writer) error { w.PutUint32(*e.p); return nil }
func (e u32Elem) Decode(r *codec.Reader) (err error) {
	*e.p, err = r.Uint32()
	return err
}

type u64Elem struct{ p *uint64 }

func Uint64(p *uint64) Element { return u64Elem{p} }

func (e u64Elem) Encode(w *codec.Writer) error { w.PutUint64(*e.p); return nil }
func (e u64Elem) Decode(r *codec.Reader) (err error) {
	*e.p, err = r.Uint64()
	return err
}

type i16Elem struct{ p *int16 }

func Int16(p *int16) Element { return i16Elem{p} }

func (e i16Elem) Encode(w *codec.Writer) error { w.PutInt16(*e.p); return nil }
func (e i16Elem) Decode(r *codec.Reader) (err error) {
	*e.p, err = r.Int16()
	return err
}

type i32Elem struct{ p *int32 }

func Int32(p *int32) Element { return i32Elem{p} }

func (e i32Elem) Encode(w *codec.Writer) error { w.PutInt32(*e.p); return nil }
func (e i32Elem) Decode(r *codec.Reader) (err error) {
	*e.p, err = r.Int32()
	return err
}

type f32Elem struct{ p *float32 }

func Float32(p *float32) Element { return f32Elem{p} }

func (e f32Elem) Encode(w *codec.Writer) error { w.PutFloat32(*e.p); return nil }
func (e f32Elem) Decode(r *codec.Reader) (err error) {
	*e.p, err = r.Float32()
	return err
}

type f64Elem struct{ p *float64 }

func Float64(p *float64) Element { return f64Elem{p} }

func (e f64Elem) Encode(w *codec.Writer) error { w.PutFloat64(*e.p); return nil }
func (e f64Elem) Decode(r *codec.Reader) (err error) {
	*e.p, err = r.Float64()
	return err
}

// Bytes binds a fixed-length byte field; b is usually a slice of an array
// field so decoding writes through to the record.
func Bytes(b []byte) Element { return bytesElem{b} }

type bytesElem struct{ b []byte }

func (e bytesElem) Encode(w *codec.Writer) error { w.PutBytes(e.b); return nil }
func (e bytesElem) Decode(r *codec.Reader) error { return r.ReadInto(e.b) }

// Padding writes n zero bytes and skips n bytes on decode.
func Padding(n int) Element { return padElem(n) }

type padElem int

func (e padElem) Encode(w *codec.Writer) error {
	for i := 0; i < int(e); i++ {
		w.PutUint8(0)
	}
	return nil
}
func (e padElem) Decode(r *codec.Reader) error { return r.Skip(int(e)) }

// Ordinal is the set of integer kinds an enumerated field may be stored in.
type Ordinal interface {
	~uint8 | ~uint16 | ~uint32 | ~int
}

// Enum binds a value-enumeration field. The Go field holds the ordinal; the
// wire holds the constant's code in t.Width() bytes.
func Enum[T Ordinal](t *enum.Type, p *T) Element { return enumElem[T]{t: t, p: p} }

type enumElem[T Ordinal] struct {
	t *enum.Type
	p *T
}

func (e enumElem[T]) Encode(w *codec.Writer) error {
	c, err := e.t.FromOrdinal(int(*e.p))
	if err != nil {
		return fmt.Errorf("%w: %w", codec.ErrInvalidField, err)
	}
	return w.PutUint(e.t.Width(), c.Code)
}

func (e enumElem[T]) Decode(r *codec.Reader) error {
	code, err := r.Uint(e.t.Width())
	if err != nil {
		return err
	}
	c, err := e.t.ValueOf(code)
	if err != nil {
		return err
	}
	*e.p = T(c.Ordinal)
	return nil
}

// Flags binds a bit-set field. The Go field holds an enum.Set; the wire
// holds the packed bit field in t.Width() bytes.
func Flags(t *enum.Type, p *enum.Set) Element { return flagsElem{t: t, p: p} }

type flagsElem struct {
	t *enum.Type
	p *enum.Set
}

func (e flagsElem) Encode(w *codec.Writer) error {
	field, err := e.t.ToBitField(*e.p)
	if err != nil {
		return fmt.Errorf("%w: %w", codec.ErrInvalidField, err)
	}
	return w.PutUint(e.t.Width(), field)
}

func (e flagsElem) Decode(r *codec.Reader) error {
	field, err := r.Uint(e.t.Width())
	if err != nil {
		return err
	}
	s, err := e.t.FromBitField(field)
	if err != nil {
		return err
	}
	*e.p = s
	return nil
}
