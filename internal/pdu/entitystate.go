package pdu

import (
	"github.com/tturner/simbridge/internal/enum"
	"github.com/tturner/simbridge/internal/record"
)

// EntityState reports the position and appearance of one entity.
type EntityState struct {
	EntityID        EntityID
	ForceID         uint8
	EntityType      EntityType
	AlternativeType EntityType
	LinearVelocity  Vector3
	Location        WorldCoordinates
	Orientation     Orientation
	Appearance      uint32
	DeadReckoning   DeadReckoning
	Marking         Marking
	Capabilities    enum.Set
}

func (*EntityState) Type() Type    { return TypeEntityState }
func (*EntityState) Family() uint8 { return FamilyEntityInformation }

func (e *EntityState) Fields() []record.Field {
	return []record.Field{
		record.F("entity_id", record.Struct(&e.EntityID)),
		record.F("force_id", record.Enum(Forces, &e.ForceID)),
		record.F("entity_type", record.Struct(&e.EntityType)),
		record.F("alternative_type", record.Struct(&e.AlternativeType)),
		record.F("linear_velocity", record.Struct(&e.LinearVelocity)),
		record.F("location", record.Struct(&e.Location)),
		record.F("orientation", record.Struct(&e.Orientation)),
		record.F("appearance", record.Uint32(&e.Appearance)),
		record.F("dead_reckoning", record.Struct(&e.DeadReckoning)),
		record.F("marking", record.Struct(&e.Marking)),
		record.F("capabilities", record.Flags(Capabilities, &e.Capabilities)),
	}
}
