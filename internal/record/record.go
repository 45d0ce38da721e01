// Package record encodes structured values whose wire layout is an ordered
// list of typed fields.
//
// A Fixed record describes its layout by returning Fields bound to its own
// storage; Encode and Decode walk that list in declaration order. Field
// order is wire order.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/tturner/simbridge/internal/codec"
)

// Element is one encodable field value.
type Element interface {
	Encode(w *codec.Writer) error
	Decode(r *codec.Reader) error
}

// Field names an Element inside a record.
type Field struct {
	Name string
	Elem Element
}

// F builds a Field.
func F(name string, elem Element) Field {
	return Field{Name: name, Elem: elem}
}

// Fixed is a record with a static field layout.
type Fixed interface {
	Fields() []Field
}

// Encode writes every field of f in order.
func Encode(w *codec.Writer, f Fixed) error {
	for _, field := range f.Fields() {
		if err := field.Elem.Encode(w); err != nil {
			return fmt.Errorf("%s: %w", field.Name, err)
		}
	}
	return nil
}

// Decode reads every field of f in order. It stops at the first field that
// cannot be read; fields after it keep their previous values.
func Decode(r *codec.Reader, f Fixed) error {
	for _, field := range f.Fields() {
		if err := field.Elem.Decode(r); err != nil {
			return fmt.Errorf("%s: %w", field.Name, err)
		}
	}
	return nil
}

// Marshal encodes f into a new byte slice.
func Marshal(order binary.ByteOrder, f Fixed) ([]byte, error) {
	w := codec.NewWriter(order, 64)
	if err := Encode(w, f); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes f from b and requires every byte to be consumed.
func Unmarshal(order binary.ByteOrder, b []byte, f Fixed) error {
	r := codec.NewReader(order, b)
	if err := Decode(r, f); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", codec.ErrInvalidField, r.Remaining())
	}
	return nil
}

// Equal reports whether a and b encode to the same bytes.
func Equal(a, b Fixed) bool {
	ab, err := Marshal(binary.BigEndian, a)
	if err != nil {
		return false
	}
	bb, err := Marshal(binary.BigEndian, b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Struct adapts a nested Fixed record to an Element.
func Struct(f Fixed) Element { return structElem{f} }

type structElem struct{ f Fixed }

func (s structElem) Encode(w *codec.Writer) error { return Encode(w, s.f) }
func (s structElem) Decode(r *codec.Reader) error { return Decode(r, s.f) }
