// Package objmodel frames PDUs as object-model attribute updates.
//
// An update carries one attribute per top-level field of the PDU body,
// keyed by a handle equal to the field's position plus one. Values are the
// field encodings in little-endian order, so every record type that works
// with the PDU codec works here without extra declarations.
package objmodel

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tturner/simbridge/internal/codec"
	"github.com/tturner/simbridge/internal/enum"
	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/pdu"
	"github.com/tturner/simbridge/internal/record"
)

// HeaderSize is the fixed update header length.
const HeaderSize = 20

// Version is the framing version written by Encode.
const Version uint8 = 1

var (
	ErrBadMagic         = fmt.Errorf("%w: bad object-model magic", pdu.ErrMalformedHeader)
	ErrMissingAttribute = fmt.Errorf("%w: missing attribute", relayerr.ErrCodec)
	ErrAttributeSize    = fmt.Errorf("%w: attribute size mismatch", pdu.ErrLengthMismatch)
)

var magic = [2]byte{'O', 'M'}

var order = binary.LittleEndian

// offset of the body length inside the header
const lengthOffset = 16

// Message kinds.
const (
	KindObject = iota
	KindInteraction
)

var Kinds = enum.MustDefine("MessageKind", 1,
	enum.D("Object", KindObject),
	enum.D("Interaction", KindInteraction),
)

// KindOf returns the message kind for a PDU family. Warfare events are
// interactions; everything else updates a persistent object.
func KindOf(family uint8) int {
	if family == pdu.FamilyWarfare {
		return KindInteraction
	}
	return KindObject
}

// Header precedes the attribute list.
type Header struct {
	Magic         [2]byte
	Version       uint8
	Kind          int
	Class         uint16
	Exercise      uint8
	Family        uint8
	Status        enum.Set
	SourceVersion uint8
	Timestamp     uint32
	Attributes    uint16
	Length        uint32
}

func (h *Header) Fields() []record.Field {
	return []record.Field{
		record.F("magic", record.Bytes(h.Magic[:])),
		record.F("version", record.Uint8(&h.Version)),
		record.F("kind", record.Enum(Kinds, &h.Kind)),
		record.F("class", record.Uint16(&h.Class)),
		record.F("exercise", record.Uint8(&h.Exercise)),
		record.F("family", record.Enum(pdu.Families, &h.Family)),
		record.F("status", record.Flags(pdu.StatusFlags, &h.Status)),
		record.F("source_version", record.Uint8(&h.SourceVersion)),
		record.F("timestamp", record.Uint32(&h.Timestamp)),
		record.F("attributes", record.Uint16(&h.Attributes)),
		record.F("length", record.Uint32(&h.Length)),
	}
}

// Codec converts between PDUs and attribute updates. The zero value uses
// the default PDU registry and size limit.
type Codec struct {
	Registry *pdu.Registry
	MaxSize  int
}

func (c *Codec) registry() *pdu.Registry {
	if c == nil || c.Registry == nil {
		return pdu.DefaultRegistry()
	}
	return c.Registry
}

func (c *Codec) maxSize() int {
	if c == nil || c.MaxSize <= 0 {
		return pdu.DefaultMaxSize
	}
	return c.MaxSize
}

// Encode writes p as an attribute update.
func (c *Codec) Encode(p *pdu.PDU) ([]byte, error) {
	if p == nil || p.Body == nil {
		return nil, fmt.Errorf("%w: nil PDU body", codec.ErrInvalidField)
	}
	fields := p.Body.Fields()
	h := Header{
		Magic:         magic,
		Version:       Version,
		Kind:          KindOf(p.Header.Family),
		Class:         uint16(p.Header.Type),
		Exercise:      p.Header.Exercise,
		Family:        p.Header.Family,
		Status:        p.Header.Status,
		SourceVersion: p.Header.Version,
		Timestamp:     p.Header.Timestamp,
		Attributes:    uint16(len(fields)),
	}
	w := codec.NewWriter(order, 512)
	if err := record.Encode(w, &h); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, f := range fields {
		w.PutUint16(uint16(i + 1))
		sizeAt := w.Len()
		w.PutUint16(0)
		if err := f.Elem.Encode(w); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", p.Header.Type, f.Name, err)
		}
		size := w.Len() - sizeAt - 2
		if size > 0xFFFF {
			return nil, fmt.Errorf("%w: attribute %s is %d bytes", pdu.ErrPDUTooLarge, f.Name, size)
		}
		w.PatchUint16(sizeAt, uint16(size))
	}
	if w.Len() > c.maxSize() {
		return nil, fmt.Errorf("%w: %s update is %d bytes, limit %d", pdu.ErrPDUTooLarge, p.Header.Type, w.Len(), c.maxSize())
	}
	w.PatchUint32(lengthOffset, uint32(w.Len()-HeaderSize))
	return w.Bytes(), nil
}

// Decode reads one update from the front of b. consumed follows the same
// rules as pdu.Codec.Decode.
func (c *Codec) Decode(b []byte) (p *pdu.PDU, consumed int, err error) {
	if len(b) < HeaderSize {
		return nil, len(b), fmt.Errorf("%w: %d bytes, need %d", pdu.ErrMalformedHeader, len(b), HeaderSize)
	}
	if b[0] != magic[0] || b[1] != magic[1] {
		return nil, len(b), fmt.Errorf("%w: % x", ErrBadMagic, b[:2])
	}
	length := uint64(order.Uint32(b[lengthOffset:]))
	if uint64(HeaderSize)+length > uint64(c.maxSize()) {
		return nil, len(b), fmt.Errorf("%w: declared %d bytes, limit %d", pdu.ErrPDUTooLarge, uint64(HeaderSize)+length, c.maxSize())
	}
	end := HeaderSize + int(length)
	if end > len(b) {
		return nil, len(b), fmt.Errorf("%w: declared %d body bytes, have %d", pdu.ErrTruncatedBody, length, len(b)-HeaderSize)
	}

	var h Header
	if err := record.Decode(codec.NewReader(order, b[:HeaderSize]), &h); err != nil {
		return nil, end, fmt.Errorf("%w: %w", pdu.ErrMalformedHeader, err)
	}
	typ := pdu.Type(h.Class)
	if h.Class > 0xFF {
		return nil, end, fmt.Errorf("%w: class %d", pdu.ErrUnknownPDUType, h.Class)
	}
	body, ok := c.registry().New(typ)
	if !ok {
		return nil, end, fmt.Errorf("%w: %s (%d body bytes skipped)", pdu.ErrUnknownPDUType, typ, length)
	}
	if err := decodeAttributes(codec.NewReader(order, b[HeaderSize:end]), int(h.Attributes), body); err != nil {
		return nil, end, fmt.Errorf("%s: %w", typ, err)
	}
	return &pdu.PDU{
		Header: pdu.Header{
			Version:   h.SourceVersion,
			Exercise:  h.Exercise,
			Type:      typ,
			Family:    h.Family,
			Timestamp: h.Timestamp,
			Status:    h.Status,
		},
		Body: body,
	}, end, nil
}

func decodeAttributes(r *codec.Reader, count int, body pdu.Body) error {
	fields := body.Fields()
	seen := make([]bool, len(fields))
	for i := 0; i < count; i++ {
		handle, err := r.Uint16()
		if err != nil {
			return fmt.Errorf("%w: attribute %d: %w", pdu.ErrLengthMismatch, i, err)
		}
		size, err := r.Uint16()
		if err != nil {
			return fmt.Errorf("%w: attribute %d: %w", pdu.ErrLengthMismatch, i, err)
		}
		value, err := r.Sub(int(size))
		if err != nil {
			return fmt.Errorf("%w: attribute %d: %w", pdu.ErrLengthMismatch, i, err)
		}
		idx := int(handle) - 1
		if idx < 0 || idx >= len(fields) {
			continue
		}
		f := fields[idx]
		if err := f.Elem.Decode(value); err != nil {
			if errors.Is(err, codec.ErrTruncatedBuffer) {
				return fmt.Errorf("%w: %s: %w", ErrAttributeSize, f.Name, err)
			}
			return fmt.Errorf("%w: %s: %w", pdu.ErrInvalidBody, f.Name, err)
		}
		if value.Remaining() != 0 {
			return fmt.Errorf("%w: %s has %d unread bytes", ErrAttributeSize, f.Name, value.Remaining())
		}
		seen[idx] = true
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d bytes after last attribute", pdu.ErrLengthMismatch, r.Remaining())
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("%w: %s (handle %d)", ErrMissingAttribute, fields[i].Name, i+1)
		}
	}
	return nil
}

// DecodeAll decodes every update concatenated in b.
func (c *Codec) DecodeAll(b []byte) (pdus []*pdu.PDU, errs []error) {
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
