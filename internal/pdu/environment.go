package pdu

import (
	"github.com/tturner/simbridge/internal/enum"
	"github.com/tturner/simbridge/internal/record"
)

type WindCondition struct {
	Direction float32
	Speed     float32
	Gust      float32
}

func (w *WindCondition) Fields() []record.Field {
	return []record.Field{
		record.F("direction", record.Float32(&w.Direction)),
		record.F("speed", record.Float32(&w.Speed)),
		record.F("gust", record.Float32(&w.Gust)),
	}
}

type Precipitation struct {
	Kind uint8
	Rate float32
}

func (p *Precipitation) Fields() []record.Field {
	return []record.Field{
		record.F("kind", record.Enum(PrecipitationKinds, &p.Kind)),
		record.F("padding", record.Padding(3)),
		record.F("rate", record.Float32(&p.Rate)),
	}
}

type Visibility struct {
	Range   float32
	Ceiling float32
}

func (v *Visibility) Fields() []record.Field {
	return []record.Field{
		record.F("range", record.Float32(&v.Range)),
		record.F("ceiling", record.Float32(&v.Ceiling)),
	}
}

// EnvironmentalProcess carries one weather record for an environment
// model. Cloud records are declared but not carried by the relay.
type EnvironmentalProcess struct {
	ProcessID       EntityID
	EnvironmentType EntityType
	ModelType       uint8
	Status          enum.Set
	SequenceNumber  uint16
	Wind            WindCondition
	Precipitation   Precipitation
	Visibility      Visibility
	Weather         *record.Variant
}

// NewEnvironmentalProcess returns a process with every weather record
// registered and none selected.
func NewEnvironmentalProcess() *EnvironmentalProcess {
	e := &EnvironmentalProcess{}
	e.bindWeather()
	return e
}

func (e *EnvironmentalProcess) bindWeather() {
	e.Weather = record.MustVariant(WeatherRecords, WeatherNone).
		With(WeatherWind, &e.Wind).
		With(WeatherPrecipitation, &e.Precipitation).
		With(WeatherVisibility, &e.Visibility)
}

func (*EnvironmentalProcess) Type() Type    { return TypeEnvironmentalProcess }
func (*EnvironmentalProcess) Family() uint8 { return FamilySyntheticEnv }

func (e *EnvironmentalProcess) Fields() []record.Field {
	if e.Weather == nil {
		e.bindWeather()
	}
	return []record.Field{
		record.F("process_id", record.Struct(&e.ProcessID)),
		record.F("environment_type", record.Struct(&e.EnvironmentType)),
		record.F("model_type", record.Uint8(&e.ModelType)),
		record.F("status", record.Flags(EnvironmentStatus, &e.Status)),
		record.F("sequence_number", record.Uint16(&e.SequenceNumber)),
		record.F("weather", e.Weather),
	}
}
