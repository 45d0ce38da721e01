package pdu

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tturner/simbridge/internal/codec"
	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/record"
)

// DefaultMaxSize bounds an encoded PDU, header included.
const DefaultMaxSize = 8192

var (
	ErrMalformedHeader = fmt.Errorf("%w: malformed PDU header", relayerr.ErrCodec)
	ErrUnknownPDUType  = fmt.Errorf("%w: unknown PDU type", relayerr.ErrCodec)
	ErrTruncatedBody   = fmt.Errorf("%w: truncated PDU body", relayerr.ErrCodec)
	ErrLengthMismatch  = fmt.Errorf("%w: PDU length mismatch", relayerr.ErrCodec)
	ErrInvalidBody     = fmt.Errorf("%w: invalid PDU body", relayerr.ErrCodec)
	ErrPDUTooLarge     = fmt.Errorf("%w: PDU exceeds maximum size", relayerr.ErrCodec)
)

var order = binary.BigEndian

// offset of the body length inside the header
const lengthOffset = 8

// Codec encodes and decodes PDUs against a body registry. The zero value
// uses DefaultRegistry and DefaultMaxSize.
type Codec struct {
	Registry *Registry
	MaxSize  int
}

func (c *Codec) registry() *Registry {
	if c == nil || c.Registry == nil {
		return DefaultRegistry()
	}
	return c.Registry
}

func (c *Codec) maxSize() int {
	if c == nil || c.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return c.MaxSize
}

// Encode serializes p. The body length is recomputed and written back into
// p.Header.Length.
func (c *Codec) Encode(p *PDU) ([]byte, error) {
	if p == nil || p.Body == nil {
		return nil, fmt.Errorf("%w: nil PDU body", codec.ErrInvalidField)
	}
	if p.Header.Type != p.Body.Type() {
		return nil, fmt.Errorf("%w: header type %s does not match body type %s",
			codec.ErrInvalidField, p.Header.Type, p.Body.Type())
	}
	w := codec.NewWriter(order, 256)
	h := p.Header
	h.Length = 0
	if err := record.Encode(w, &h); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if err := record.Encode(w, p.Body); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Header.Type, err)
	}
	if w.Len() > c.maxSize() || w.Len()-HeaderSize > 0xFFFF {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrPDUTooLarge, p.Header.Type, w.Len(), c.maxSize())
	}
	length := uint16(w.Len() - HeaderSize)
	w.PatchUint16(lengthOffset, length)
	p.Header.Length = length
	return w.Bytes(), nil
}

// Decode reads one PDU from the front of b. consumed is the number of bytes
// the caller should advance past, and is meaningful on error too: a PDU with
// an unknown type or a bad body is skipped by its declared length, while a
// header that cannot be trusted consumes the rest of b.
func (c *Codec) Decode(b []byte) (p *PDU, consumed int, err error) {
	if len(b) < HeaderSize {
		return nil, len(b), fmt.Errorf("%w: %d bytes, need %d", ErrMalformedHeader, len(b), HeaderSize)
	}
	length := int(order.Uint16(b[lengthOffset:]))
	end := HeaderSize + length
	if end > c.maxSize() {
		return nil, len(b), fmt.Errorf("%w: declared %d bytes, limit %d", ErrPDUTooLarge, end, c.maxSize())
	}
	if end > len(b) {
		return nil, len(b), fmt.Errorf("%w: declared %d body bytes, have %d", ErrTruncatedBody, length, len(b)-HeaderSize)
	}

	var h Header
	if err := record.Decode(codec.NewReader(order, b[:HeaderSize]), &h); err != nil {
		return nil, end, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	body, ok := c.registry().New(h.Type)
	if !ok {
		return nil, end, fmt.Errorf("%w: %s (%d body bytes skipped)", ErrUnknownPDUType, h.Type, length)
	}
	r := codec.NewReader(order, b[HeaderSize:end])
	if err := record.Decode(r, body); err != nil {
		if errors.Is(err, codec.ErrTruncatedBuffer) {
			return nil, end, fmt.Errorf("%w: %s declared %d body bytes: %w", ErrLengthMismatch, h.Type, length, err)
		}
		return nil, end, fmt.Errorf("%w: %s: %w", ErrInvalidBody, h.Type, err)
	}
	if r.Remaining() != 0 {
		return nil, end, fmt.Errorf("%w: %s declared %d body bytes, decoded %d",
			ErrLengthMismatch, h.Type, length, length-r.Remaining())
	}
	return &PDU{Header: h, Body: body}, end, nil
}

// DecodeAll decodes every PDU concatenated in b. PDUs that fail to decode
// are reported in errs and skipped; decoding resumes at the next PDU.
func (c *Codec) DecodeAll(b []byte) (pdus []*PDU, errs []error) {
	off := 0
	for off < len(b) {
		p, n, err := c.Decode(b[off:])
		if err != nil {
			errs = append(errs, fmt.Errorf("offset %d: %w", off, err))
		} else {
			pdus = append(pdus, p)
		}
		if n <= 0 {
			break
		}
		off += n
	}
	return pdus, errs
}

// Clone returns a deep copy of p made by encoding and decoding it.
func (c *Codec) Clone(p *PDU) (*PDU, error) {
	b, err := c.Encode(p)
	if err != nil {
		return nil, err
	}
	out, _, err := c.Decode(b)
	return out, err
}

var defaultCodec = &Codec{}

// Encode serializes p with the default registry.
func Encode(p *PDU) ([]byte, error) { return defaultCodec.Encode(p) }

// Decode reads one PDU with the default registry.
func Decode(b []byte) (*PDU, int, error) { return defaultCodec.Decode(b) }

// DecodeAll decodes concatenated PDUs with the default registry.
func DecodeAll(b []byte) ([]*PDU, []error) { return defaultCodec.DecodeAll(b) }
