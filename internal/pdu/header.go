package pdu

import (
	"github.com/tturner/simbridge/internal/enum"
	"github.com/tturner/simbridge/internal/record"
)

// HeaderSize is the fixed encoded header length.
const HeaderSize = 12

// DefaultVersion is the protocol version stamped on new PDUs.
const DefaultVersion uint8 = 7

// Header precedes every PDU body. Length is the encoded body length and is
// recomputed on every encode.
type Header struct {
	Version   uint8
	Exercise  uint8
	Type      Type
	Family    uint8
	Timestamp uint32
	Length    uint16
	Status    enum.Set
}

func (h *Header) Fields() []record.Field {
	return []record.Field{
		record.F("version", record.Uint8(&h.Version)),
		record.F("exercise", record.Uint8(&h.Exercise)),
		record.F("type", record.Uint8((*uint8)(&h.Type))),
		record.F("family", record.Enum(Families, &h.Family)),
		record.F("timestamp", record.Uint32(&h.Timestamp)),
		record.F("length", record.Uint16(&h.Length)),
		record.F("status", record.Flags(StatusFlags, &h.Status)),
		record.F("padding", record.Padding(1)),
	}
}

// Body is the type-specific part of a PDU.
type Body interface {
	record.Fixed
	Type() Type
	Family() uint8
}

// PDU is one protocol data unit.
type PDU struct {
	Header Header
	Body   Body
}

// New wraps body in a PDU with a default header for exercise.
func New(exercise uint8, body Body) *PDU {
	return &PDU{
		Header: Header{
			Version:  DefaultVersion,
			Exercise: exercise,
			Type:     body.Type(),
			Family:   body.Family(),
		},
		Body: body,
	}
}

// Type returns the header type.
func (p *PDU) Type() Type { return p.Header.Type }
