package pdu

import (
	"strings"

	"github.com/tturner/simbridge/internal/record"
)

// EntityID identifies a simulated entity within an exercise.
type EntityID struct {
	Site        uint16
	Application uint16
	Entity      uint16
}

func (e *EntityID) Fields() []record.Field {
	return []record.Field{
		record.F("site", record.Uint16(&e.Site)),
		record.F("application", record.Uint16(&e.Application)),
		record.F("entity", record.Uint16(&e.Entity)),
	}
}

// EventID identifies a fire/detonation event pair.
type EventID struct {
	Site        uint16
	Application uint16
	Event       uint16
}

func (e *EventID) Fields() []record.Field {
	return []record.Field{
		record.F("site", record.Uint16(&e.Site)),
		record.F("application", record.Uint16(&e.Application)),
		record.F("event", record.Uint16(&e.Event)),
	}
}

// EntityType is the seven-part entity type enumeration.
type EntityType struct {
	Kind        uint8
	Domain      uint8
	Country     uint16
	Category    uint8
	Subcategory uint8
	Specific    uint8
	Extra       uint8
}

func (e *EntityType) Fields() []record.Field {
	return []record.Field{
		record.F("kind", record.Enum(EntityKinds, &e.Kind)),
		record.F("domain", record.Uint8(&e.Domain)),
		record.F("country", record.Uint16(&e.Country)),
		record.F("category", record.Uint8(&e.Category)),
		record.F("subcategory", record.Uint8(&e.Subcategory)),
		record.F("specific", record.Uint8(&e.Specific)),
		record.F("extra", record.Uint8(&e.Extra)),
	}
}

type Vector3 struct {
	X, Y, Z float32
}

func (v *Vector3) Fields() []record.Field {
	return []record.Field{
		record.F("x", record.Float32(&v.X)),
		record.F("y", record.Float32(&v.Y)),
		record.F("z", record.Float32(&v.Z)),
	}
}

// WorldCoordinates is a geocentric position in metres.
type WorldCoordinates struct {
	X, Y, Z float64
}

func (v *WorldCoordinates) Fields() []record.Field {
	return []record.Field{
		record.F("x", record.Float64(&v.X)),
		record.F("y", record.Float64(&v.Y)),
		record.F("z", record.Float64(&v.Z)),
	}
}

// Orientation holds Euler angles in radians.
type Orientation struct {
	Psi, Theta, Phi float32
}

func (o *Orientation) Fields() []record.Field {
	return []record.Field{
		record.F("psi", record.Float32(&o.Psi)),
		record.F("theta", record.Float32(&o.Theta)),
		record.F("phi", record.Float32(&o.Phi)),
	}
}

type DeadReckoning struct {
	Algorithm          uint8
	Parameters         [15]byte
	LinearAcceleration Vector3
	AngularVelocity    Vector3
}

func (d *DeadReckoning) Fields() []record.Field {
	return []record.Field{
		record.F("algorithm", record.Enum(DeadReckoningAlgorithms, &d.Algorithm)),
		record.F("parameters", record.Bytes(d.Parameters[:])),
		record.F("linear_acceleration", record.Struct(&d.LinearAcceleration)),
		record.F("angular_velocity", record.Struct(&d.AngularVelocity)),
	}
}

// Marking is the entity's display label.
type Marking struct {
	CharacterSet uint8
	Characters   [11]byte
}

func (m *Marking) Fields() []record.Field {
	return []record.Field{
		record.F("character_set", record.Enum(CharacterSets, &m.CharacterSet)),
		record.F("characters", record.Bytes(m.Characters[:])),
	}
}

// NewMarking returns an ASCII marking truncated to eleven characters.
func NewMarking(text string) Marking {
	m := Marking{CharacterSet: CharsetASCII}
	copy(m.Characters[:], text)
	return m
}

func (m Marking) String() string {
	return strings.TrimRight(string(m.Characters[:]), "\x00 ")
}

// MunitionDescriptor describes the munition of a fire or detonation.
type MunitionDescriptor struct {
	MunitionType EntityType
	Warhead      uint16
	Fuse         uint16
	Quantity     uint16
	Rate         uint16
}

func (m *MunitionDescriptor) Fields() []record.Field {
	return []record.Field{
		record.F("munition_type", record.Struct(&m.MunitionType)),
		record.F("warhead", record.Uint16(&m.Warhead)),
		record.F("fuse", record.Uint16(&m.Fuse)),
		record.F("quantity", record.Uint16(&m.Quantity)),
		record.F("rate", record.Uint16(&m.Rate)),
	}
}
