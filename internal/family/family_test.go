package family

import (
	"bytes"
	"errors"
	"testing"
	"time"

	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/pdu"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"dis", " DIS ", "ObjModel"} {
		if _, err := Lookup(name, Limits{}); err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
	}
	_, err := Lookup("hla", Limits{})
	if !errors.Is(err, ErrUnknownFamily) || !errors.Is(err, relayerr.ErrConfiguration) {
		t.Fatalf("Lookup(hla) err = %v", err)
	}
}

func TestCrossFamilyTranslation(t *testing.T) {
	dis, _ := Lookup(DIS, Limits{})
	om, _ := Lookup(ObjModel, Limits{})

	p, err := pdu.Sample(pdu.TypeEntityState, 1, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	want, err := dis.Encode(p)
	if err != nil {
		t.Fatalf("dis.Encode: %v", err)
	}
	pdus, errs := dis.DecodeAll(want)
	if len(errs) != 0 || len(pdus) != 1 {
		t.Fatalf("dis.DecodeAll: %v", errs)
	}
	wire, err := om.Encode(pdus[0])
	if err != nil {
		t.Fatalf("om.Encode: %v", err)
	}
	back, errs := om.DecodeAll(wire)
	if len(errs) != 0 || len(back) != 1 {
		t.Fatalf("om.DecodeAll: %v", errs)
	}
	got, err := dis.Encode(back[0])
	if err != nil {
		t.Fatalf("dis.Encode: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip through objmodel changed the PDU")
	}
}
