package pdu

import (
	"fmt"
	"time"

	"github.com/tturner/simbridge/internal/enum"
	relayerr "github.com/tturner/simbridge/internal/errors"
)

// Sample returns a populated PDU of type t for smoke tests and the
// emit-bytes command.
func Sample(t Type, exercise uint8, now time.Time) (*PDU, error) {
	var body Body
	switch t {
	case TypeEntityState:
		body = sampleEntityState()
	case TypeFire:
		body = sampleFire()
	case TypeDetonation:
		body = sampleDetonation()
	case TypeEnvironmentalProcess:
		body = sampleEnvironment()
	default:
		return nil, fmt.Errorf("%w: no sample for PDU type %s", relayerr.ErrConfiguration, t)
	}
	p := New(exercise, body)
	p.Header.Timestamp = Timestamp(now, true)
	p.Header.Status = enum.NewSet(StatusLive)
	return p, nil
}

var (
	sampleTank  = EntityType{Kind: KindPlatform, Domain: 1, Country: 225, Category: 1, Subcategory: 1, Specific: 3}
	sampleRound = EntityType{Kind: KindMunition, Domain: 2, Country: 225, Category: 2, Subcategory: 1}
)

func sampleEntityState() *EntityState {
	return &EntityState{
		EntityID:        EntityID{Site: 1, Application: 3101, Entity: 7},
		ForceID:         ForceFriendly,
		EntityType:      sampleTank,
		AlternativeType: sampleTank,
		LinearVelocity:  Vector3{X: 4.5, Y: -1.25},
		Location:        WorldCoordinates{X: -2707466.25, Y: -4353716.5, Z: 3781550.75},
		Orientation:     Orientation{Psi: 1.5707964, Theta: 0.05},
		Appearance:      0x00010000,
		DeadReckoning:   DeadReckoning{Algorithm: DRFPW},
		Marking:         NewMarking("ALPHA11"),
		Capabilities:    enum.NewSet(CapFuelSupply, CapRepair),
	}
}

func sampleMunition() MunitionDescriptor {
	return MunitionDescriptor{MunitionType: sampleRound, Warhead: 1000, Fuse: 1000, Quantity: 1, Rate: 0}
}

func sampleFire() *Fire {
	return &Fire{
		FiringEntity:     EntityID{Site: 1, Application: 3101, Entity: 7},
		TargetEntity:     EntityID{Site: 2, Application: 4001, Entity: 12},
		MunitionEntity:   EntityID{Site: 1, Application: 3101, Entity: 900},
		EventID:          EventID{Site: 1, Application: 3101, Event: 44},
		FireMissionIndex: 3,
		Location:         WorldCoordinates{X: -2707466.25, Y: -4353716.5, Z: 3781550.75},
		Descriptor:       sampleMunition(),
		Velocity:         Vector3{X: 850},
		Range:            2200,
	}
}

func sampleDetonation() *Detonation {
	return &Detonation{
		FiringEntity:     EntityID{Site: 1, Application: 3101, Entity: 7},
		TargetEntity:     EntityID{Site: 2, Application: 4001, Entity: 12},
		MunitionEntity:   EntityID{Site: 1, Application: 3101, Entity: 900},
		EventID:          EventID{Site: 1, Application: 3101, Event: 44},
		Velocity:         Vector3{X: 790, Z: -12},
		Location:         WorldCoordinates{X: -2705420, Y: -4354801, Z: 3780977},
		Descriptor:       sampleMunition(),
		LocationInEntity: Vector3{Z: 1.5},
		Result:           ResultEntityImpact,
	}
}

func sampleEnvironment() *EnvironmentalProcess {
	e := NewEnvironmentalProcess()
	e.ProcessID = EntityID{Site: 9, Application: 1, Entity: 1}
	e.EnvironmentType = EntityType{Kind: KindEnvironmental, Domain: 1}
	e.ModelType = 1
	e.Status = enum.NewSet(EnvStatusOn)
	e.SequenceNumber = 17
	e.Wind = WindCondition{Direction: 4.71, Speed: 12.5, Gust: 18}
	if err := e.Weather.Select(WeatherWind); err != nil {
		panic(err)
	}
	return e
}
