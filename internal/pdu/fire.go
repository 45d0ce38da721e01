package pdu

import "github.com/tturner/simbridge/internal/record"

// Fire reports a weapon discharge.
type Fire struct {
	FiringEntity     EntityID
	TargetEntity     EntityID
	MunitionEntity   EntityID
	EventID          EventID
	FireMissionIndex uint32
	Location         WorldCoordinates
	Descriptor       MunitionDescriptor
	Velocity         Vector3
	Range            float32
}

func (*Fire) Type() Type    { return TypeFire }
func (*Fire) Family() uint8 { return FamilyWarfare }

func (f *Fire) Fields() []record.Field {
	return []record.Field{
		record.F("firing_entity", record.Struct(&f.FiringEntity)),
		record.F("target_entity", record.Struct(&f.TargetEntity)),
		record.F("munition_entity", record.Struct(&f.MunitionEntity)),
		record.F("event_id", record.Struct(&f.EventID)),
		record.F("fire_mission_index", record.Uint32(&f.FireMissionIndex)),
		record.F("location", record.Struct(&f.Location)),
		record.F("descriptor", record.Struct(&f.Descriptor)),
		record.F("velocity", record.Struct(&f.Velocity)),
		record.F("range", record.Float32(&f.Range)),
	}
}

// Detonation reports the impact or burst of a munition.
type Detonation struct {
	FiringEntity     EntityID
	TargetEntity     EntityID
	MunitionEntity   EntityID
	EventID          EventID
	Velocity         Vector3
	Location         WorldCoordinates
	Descriptor       MunitionDescriptor
	LocationInEntity Vector3
	Result           uint8
}

func (*Detonation) Type() Type    { return TypeDetonation }
func (*Detonation) Family() uint8 { return FamilyWarfare }

func (d *Detonation) Fields() []record.Field {
	return []record.Field{
		record.F("firing_entity", record.Struct(&d.FiringEntity)),
		record.F("target_entity", record.Struct(&d.TargetEntity)),
		record.F("munition_entity", record.Struct(&d.MunitionEntity)),
		record.F("event_id", record.Struct(&d.EventID)),
		record.F("velocity", record.Struct(&d.Velocity)),
		record.F("location", record.Struct(&d.Location)),
		record.F("descriptor", record.Struct(&d.Descriptor)),
		record.F("location_in_entity", record.Struct(&d.LocationInEntity)),
		record.F("result", record.Enum(DetonationResults, &d.Result)),
		record.F("padding", record.Padding(3)),
	}
}
