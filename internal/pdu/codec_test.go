package pdu

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/record"
)

var testTime = time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC)

func mustSample(t *testing.T, typ Type) *PDU {
	t.Helper()
	p, err := Sample(typ, 3, testTime)
	if err != nil {
		t.Fatalf("Sample(%s): %v", typ, err)
	}
	return p
}

func mustEncode(t *testing.T, p *PDU) []byte {
	t.Helper()
	b, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode(%s): %v", p.Type(), err)
	}
	return b
}

func TestRoundTripRegisteredBodies(t *testing.T) {
	for _, typ := range DefaultRegistry().Types() {
		t.Run(typ.String(), func(t *testing.T) {
			p := mustSample(t, typ)
			b := mustEncode(t, p)
			got, n, err := Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if n != len(b) {
				t.Fatalf("consumed %d, want %d", n, len(b))
			}
			if got.Header != p.Header {
				t.Fatalf("header = %+v, want %+v", got.Header, p.Header)
			}
			if !record.Equal(got.Body, p.Body) {
				t.Fatalf("body mismatch after round trip")
			}
		})
	}
}

func TestEncodeRecomputesLength(t *testing.T) {
	p := mustSample(t, TypeEntityState)
	p.Header.Length = 999
	b := mustEncode(t, p)
	declared := int(binary.BigEndian.Uint16(b[8:10]))
	if declared != len(b)-HeaderSize {
		t.Fatalf("declared length %d, actual body %d", declared, len(b)-HeaderSize)
	}
	if int(p.Header.Length) != declared {
		t.Fatalf("header length not written back: %d", p.Header.Length)
	}
}

func TestEncodeRejectsMismatchedHeader(t *testing.T) {
	p := mustSample(t, TypeFire)
	p.Header.Type = TypeDetonation
	if _, err := Encode(p); err == nil {
		t.Fatalf("expected error for header/body type mismatch")
	}
}

// rawPDU builds a header for typ with a body of n filler bytes.
func rawPDU(typ uint8, family uint8, n int) []byte {
	b := make([]byte, HeaderSize+n)
	b[0] = DefaultVersion
	b[1] = 3
	b[2] = typ
	b[3] = family
	binary.BigEndian.PutUint16(b[8:10], uint16(n))
	for i := HeaderSize; i < len(b); i++ {
		b[i] = 0xAB
	}
	return b
}

func TestDecodeAllSkipsUnknownTypes(t *testing.T) {
	var stream []byte
	stream = append(stream, mustEncode(t, mustSample(t, TypeEntityState))...)
	stream = append(stream, rawPDU(uint8(TypeCollision), FamilyEntityInformation, 5)...)
	stream = append(stream, rawPDU(200, FamilyOther, 17)...)
	stream = append(stream, mustEncode(t, mustSample(t, TypeFire))...)

	pdus, errs := DecodeAll(stream)
	if len(pdus) != 2 {
		t.Fatalf("decoded %d PDUs, want 2 (errs %v)", len(pdus), errs)
	}
	if pdus[0].Type() != TypeEntityState || pdus[1].Type() != TypeFire {
		t.Fatalf("decoded types %s, %s", pdus[0].Type(), pdus[1].Type())
	}
	if len(errs) != 2 {
		t.Fatalf("errors = %v, want 2", errs)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrUnknownPDUType) {
			t.Fatalf("error %v is not ErrUnknownPDUType", err)
		}
		if !errors.Is(err, relayerr.ErrCodec) {
			t.Fatalf("error %v is not a codec error", err)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	fire := mustEncode(t, mustSample(t, TypeFire))

	shorter := append([]byte(nil), fire[:len(fire)-4]...)
	binary.BigEndian.PutUint16(shorter[8:10], uint16(len(shorter)-HeaderSize))

	longer := append(append([]byte(nil), fire...), 0, 0, 0, 0)
	binary.BigEndian.PutUint16(longer[8:10], uint16(len(longer)-HeaderSize))

	badFamily := append([]byte(nil), fire...)
	badFamily[3] = 3

	badForce := mustEncode(t, mustSample(t, TypeEntityState))
	badForce[HeaderSize+6] = 9

	tests := []struct {
		name     string
		buf      []byte
		want     error
		consumed int
	}{
		{"short header", fire[:HeaderSize-1], ErrMalformedHeader, HeaderSize - 1},
		{"truncated body", fire[:len(fire)-1], ErrTruncatedBody, len(fire) - 1},
		{"body shorter than declared fields", shorter, ErrLengthMismatch, len(shorter)},
		{"trailing body bytes", longer, ErrLengthMismatch, len(longer)},
		{"undeclared family", badFamily, ErrMalformedHeader, len(fire)},
		{"unknown enumerated value", badForce, ErrInvalidBody, len(badForce)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, n, err := Decode(tt.buf)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if n != tt.consumed {
				t.Fatalf("consumed %d, want %d", n, tt.consumed)
			}
		})
	}
}

func TestDecodeAllResyncsAfterBadBody(t *testing.T) {
	fire := mustEncode(t, mustSample(t, TypeFire))
	longer := append(append([]byte(nil), fire...), 0, 0)
	binary.BigEndian.PutUint16(longer[8:10], uint16(len(longer)-HeaderSize))

	stream := append(longer, mustEncode(t, mustSample(t, TypeDetonation))...)
	pdus, errs := DecodeAll(stream)
	if len(pdus) != 1 || pdus[0].Type() != TypeDetonation {
		t.Fatalf("pdus = %v", pdus)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrLengthMismatch) {
		t.Fatalf("errs = %v", errs)
	}
}

func TestBoundedRejection(t *testing.T) {
	small := &Codec{MaxSize: 64}
	if _, err := small.Encode(mustSample(t, TypeEntityState)); !errors.Is(err, ErrPDUTooLarge) {
		t.Fatalf("Encode err = %v, want ErrPDUTooLarge", err)
	}

	// An oversized declaration aborts the rest of the buffer even when a
	// valid PDU follows, since the header cannot be trusted to resync.
	huge := rawPDU(uint8(TypeFire), FamilyWarfare, 0)
	binary.BigEndian.PutUint16(huge[8:10], 0xFFFF)
	stream := append(huge, mustEncode(t, mustSample(t, TypeFire))...)
	pdus, errs := DecodeAll(stream)
	if len(pdus) != 0 {
		t.Fatalf("decoded %d PDUs past an oversized header", len(pdus))
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrPDUTooLarge) {
		t.Fatalf("errs = %v", errs)
	}
}

func TestEnvironmentalWeatherVariants(t *testing.T) {
	t.Run("sentinel", func(t *testing.T) {
		p := mustSample(t, TypeEnvironmentalProcess)
		env := p.Body.(*EnvironmentalProcess)
		env.Weather.Clear()
		b := mustEncode(t, p)
		if got := len(b) - HeaderSize; got != 22 {
			t.Fatalf("body length %d, want 22", got)
		}
		out, _, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !out.Body.(*EnvironmentalProcess).Weather.IsEmpty() {
			t.Fatalf("expected empty weather")
		}
	})

	t.Run("precipitation", func(t *testing.T) {
		p := mustSample(t, TypeEnvironmentalProcess)
		env := p.Body.(*EnvironmentalProcess)
		env.Precipitation = Precipitation{Kind: PrecipSnow, Rate: 2.5}
		if err := env.Weather.Select(WeatherPrecipitation); err != nil {
			t.Fatalf("Select: %v", err)
		}
		out, _, err := Decode(mustEncode(t, p))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		got := out.Body.(*EnvironmentalProcess)
		if d, _ := got.Weather.Active(); d != WeatherPrecipitation {
			t.Fatalf("active = %s", WeatherRecords.NameOf(d))
		}
		if got.Precipitation != env.Precipitation {
			t.Fatalf("precipitation = %+v", got.Precipitation)
		}
	})

	t.Run("unregistered", func(t *testing.T) {
		p := mustSample(t, TypeEnvironmentalProcess)
		if err := p.Body.(*EnvironmentalProcess).Weather.Select(WeatherCloud); !errors.Is(err, record.ErrUnregisteredVariant) {
			t.Fatalf("Select(Cloud) err = %v", err)
		}
		b := mustEncode(t, p)
		binary.BigEndian.PutUint32(b[HeaderSize+18:], 0x0104)
		_, _, err := Decode(b)
		if !errors.Is(err, ErrInvalidBody) || !errors.Is(err, record.ErrUnregisteredVariant) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestCloneIsIndependent(t *testing.T) {
	p := mustSample(t, TypeEntityState)
	c, err := defaultCodec.Clone(p)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	c.Body.(*EntityState).Marking = NewMarking("BRAVO")
	if p.Body.(*EntityState).Marking.String() != "ALPHA11" {
		t.Fatalf("clone shares storage with original")
	}
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp(testTime, true)
	off, abs := TimestampOffset(ts)
	if !abs {
		t.Fatalf("absolute bit not set")
	}
	if diff := off - 30*time.Minute; diff < -2*time.Microsecond || diff > 2*time.Microsecond {
		t.Fatalf("offset = %v, want 30m", off)
	}
	if _, abs := TimestampOffset(Timestamp(testTime, false)); abs {
		t.Fatalf("relative timestamp marked absolute")
	}
}
