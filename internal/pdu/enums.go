package pdu

import "github.com/tturner/simbridge/internal/enum"

// Type is the PDU type discriminant carried in every header.
type Type uint8

const (
	TypeOther                Type = 0
	TypeEntityState          Type = 1
	TypeFire                 Type = 2
	TypeDetonation           Type = 3
	TypeCollision            Type = 4
	TypeTransmitter          Type = 25
	TypeSignal               Type = 26
	TypeEnvironmentalProcess Type = 41
)

// String returns the declared name of t.
func (t Type) String() string { return Types.NameOf(int(t)) }

// Types names every PDU type the relay recognizes. Only types with a body
// in the registry can be decoded; the rest are skipped by length.
var Types = enum.MustDefine("PDUType", 1,
	enum.D("Other", int(TypeOther)),
	enum.D("EntityState", int(TypeEntityState)),
	enum.D("Fire", int(TypeFire)),
	enum.D("Detonation", int(TypeDetonation)),
	enum.D("Collision", int(TypeCollision)),
	enum.D("Transmitter", int(TypeTransmitter)),
	enum.D("Signal", int(TypeSignal)),
	enum.D("EnvironmentalProcess", int(TypeEnvironmentalProcess)),
)

// Protocol families as carried in the header.
const (
	FamilyOther               uint8 = 0
	FamilyEntityInformation   uint8 = 1
	FamilyWarfare             uint8 = 2
	FamilyRadioCommunications uint8 = 4
	FamilySyntheticEnv        uint8 = 9
)

var Families = enum.MustDefine("ProtocolFamily", 1,
	enum.D("Other", int(FamilyOther)),
	enum.D("EntityInformation", int(FamilyEntityInformation)),
	enum.D("Warfare", int(FamilyWarfare)),
	enum.D("RadioCommunications", int(FamilyRadioCommunications)),
	enum.D("SyntheticEnvironment", int(FamilySyntheticEnv)),
)

// Header status bits.
const (
	StatusTransferred = iota
	StatusLive
	StatusConstructive
	StatusCoupled
	StatusFireIndirect
	StatusDetonationNonMunition
)

var StatusFlags = enum.MustDefineFlags("PDUStatus", 1,
	enum.D("Transferred", StatusTransferred),
	enum.D("Live", StatusLive),
	enum.D("Constructive", StatusConstructive),
	enum.D("Coupled", StatusCoupled),
	enum.D("FireIndirect", StatusFireIndirect),
	enum.D("DetonationNonMunition", StatusDetonationNonMunition),
)

// Force identifiers.
const (
	ForceOther uint8 = iota
	ForceFriendly
	ForceOpposing
	ForceNeutral
)

var Forces = enum.MustDefine("ForceID", 1,
	enum.D("Other", int(ForceOther)),
	enum.D("Friendly", int(ForceFriendly)),
	enum.D("Opposing", int(ForceOpposing)),
	enum.D("Neutral", int(ForceNeutral)),
)

// Entity kinds.
const (
	KindOther uint8 = iota
	KindPlatform
	KindMunition
	KindLifeForm
	KindEnvironmental
	KindCulturalFeature
	KindSupply
	KindRadio
	KindExpendable
	KindSensor
)

var EntityKinds = enum.MustDefine("EntityKind", 1,
	enum.D("Other", int(KindOther)),
	enum.D("Platform", int(KindPlatform)),
	enum.D("Munition", int(KindMunition)),
	enum.D("LifeForm", int(KindLifeForm)),
	enum.D("Environmental", int(KindEnvironmental)),
	enum.D("CulturalFeature", int(KindCulturalFeature)),
	enum.D("Supply", int(KindSupply)),
	enum.D("Radio", int(KindRadio)),
	enum.D("Expendable", int(KindExpendable)),
	enum.D("Sensor", int(KindSensor)),
)

// Dead reckoning algorithms.
const (
	DROther uint8 = iota
	DRStatic
	DRFPW
	DRRPW
	DRRVW
	DRFVW
	DRFPB
	DRRPB
	DRRVB
	DRFVB
)

var DeadReckoningAlgorithms = enum.MustDefine("DeadReckoningAlgorithm", 1,
	enum.D("Other", int(DROther)),
	enum.D("Static", int(DRStatic)),
	enum.D("DRM_FPW", int(DRFPW)),
	enum.D("DRM_RPW", int(DRRPW)),
	enum.D("DRM_RVW", int(DRRVW)),
	enum.D("DRM_FVW", int(DRFVW)),
	enum.D("DRM_FPB", int(DRFPB)),
	enum.D("DRM_RPB", int(DRRPB)),
	enum.D("DRM_RVB", int(DRRVB)),
	enum.D("DRM_FVB", int(DRFVB)),
)

// Marking character sets.
const (
	CharsetUnused uint8 = iota
	CharsetASCII
)

var CharacterSets = enum.MustDefine("CharacterSet", 1,
	enum.D("Unused", int(CharsetUnused)),
	enum.D("ASCII", int(CharsetASCII)),
)

// Entity capability bits.
const (
	CapAmmunitionSupply = iota
	CapFuelSupply
	CapRecovery
	CapRepair
	CapADSBroadcast
	CapSlingLoadCarrier
	CapSlingLoadable
	CapIEDPresence
	CapTaskOrganizable
)

var Capabilities = enum.MustDefineFlags("EntityCapabilities", 4,
	enum.D("AmmunitionSupply", CapAmmunitionSupply),
	enum.D("FuelSupply", CapFuelSupply),
	enum.D("Recovery", CapRecovery),
	enum.D("Repair", CapRepair),
	enum.D("ADSBroadcast", CapADSBroadcast),
	enum.D("SlingLoadCarrier", CapSlingLoadCarrier),
	enum.D("SlingLoadable", CapSlingLoadable),
	enum.D("IEDPresence", CapIEDPresence),
	enum.D("TaskOrganizable", CapTaskOrganizable),
)

// Detonation results.
const (
	ResultOther uint8 = iota
	ResultEntityImpact
	ResultEntityProximate
	ResultGroundImpact
	ResultGroundProximate
	ResultDetonation
	ResultNone
)

var DetonationResults = enum.MustDefine("DetonationResult", 1,
	enum.D("Other", int(ResultOther)),
	enum.D("EntityImpact", int(ResultEntityImpact)),
	enum.D("EntityProximateDetonation", int(ResultEntityProximate)),
	enum.D("GroundImpact", int(ResultGroundImpact)),
	enum.D("GroundProximateDetonation", int(ResultGroundProximate)),
	enum.D("Detonation", int(ResultDetonation)),
	enum.D("None", int(ResultNone)),
)

// Environmental process status bits.
const (
	EnvStatusLast = iota
	EnvStatusOn
)

var EnvironmentStatus = enum.MustDefineFlags("EnvironmentStatus", 1,
	enum.D("Last", EnvStatusLast),
	enum.D("On", EnvStatusOn),
)

// Weather record discriminants. The wire codes follow the environment
// record type numbering, so they differ from the ordinals.
const (
	WeatherNone = iota
	WeatherWind
	WeatherPrecipitation
	WeatherVisibility
	WeatherCloud
)

var WeatherRecords = enum.MustDefine("WeatherRecordType", 4,
	enum.DC("None", WeatherNone, 0),
	enum.DC("Wind", WeatherWind, 0x0101),
	enum.DC("Precipitation", WeatherPrecipitation, 0x0102),
	enum.DC("Visibility", WeatherVisibility, 0x0103),
	enum.DC("Cloud", WeatherCloud, 0x0104),
)

// Precipitation kinds.
const (
	PrecipNone uint8 = iota
	PrecipRain
	PrecipSnow
	PrecipHail
	PrecipSleet
)

var PrecipitationKinds = enum.MustDefine("PrecipitationKind", 1,
	enum.D("None", int(PrecipNone)),
	enum.D("Rain", int(PrecipRain)),
	enum.D("Snow", int(PrecipSnow)),
	enum.D("Hail", int(PrecipHail)),
	enum.D("Sleet", int(PrecipSleet)),
)
