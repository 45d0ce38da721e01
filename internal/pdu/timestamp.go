package pdu

import "time"

const (
	timestampUnits    = 1 << 31
	timestampAbsolute = 1
)

// Timestamp encodes t as time past the hour in units of 3600/2^31 seconds,
// shifted left one bit. The low bit marks an absolute timestamp.
func Timestamp(t time.Time, absolute bool) uint32 {
	t = t.UTC()
	past := t.Sub(t.Truncate(time.Hour))
	units := uint32(float64(past) / float64(time.Hour) * timestampUnits)
	if units >= timestampUnits {
		units = timestampUnits - 1
	}
	v := units << 1
	if absolute {
		v |= timestampAbsolute
	}
	return v
}

// TimestampOffset decodes a header timestamp into time past the hour and
// whether it is absolute.
func TimestampOffset(ts uint32) (time.Duration, bool) {
	units := float64(ts >> 1)
	return time.Duration(units / timestampUnits * float64(time.Hour)), ts&timestampAbsolute != 0
}
