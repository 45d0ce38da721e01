package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/pdu"
)

func TestModeNoneFails(t *testing.T) {
	a, err := New(ModeNone)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.Observe("alpha", &pdu.PDU{})
	if err := a.Execute(context.Background()); !errors.Is(err, ErrModeNone) {
		t.Fatalf("Execute err = %v", err)
	}
	_, err = a.Results()
	if !errors.Is(err, ErrModeNone) {
		t.Fatalf("Results err = %v", err)
	}
	if !strings.Contains(err.Error(), "analyzer mode is None") {
		t.Fatalf("message = %q", err.Error())
	}
	if !errors.Is(err, relayerr.ErrConfiguration) {
		t.Fatalf("mode none should be a configuration error")
	}
}

func TestCensus(t *testing.T) {
	a, err := New(ModeCensus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Results(); !errors.Is(err, ErrNotExecuted) {
		t.Fatalf("Results before Execute err = %v", err)
	}
	now := time.Now()
	fire, _ := pdu.Sample(pdu.TypeFire, 1, now)
	es, _ := pdu.Sample(pdu.TypeEntityState, 1, now)
	a.Observe("bravo", fire)
	a.Observe("alpha", es)
	a.Observe("alpha", es)
	a.Observe("alpha", fire)

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rows, err := a.Results()
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	want := []Row{
		{"alpha", pdu.TypeEntityState, 2},
		{"alpha", pdu.TypeFire, 1},
		{"bravo", pdu.TypeFire, 1},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeNone, "None": ModeNone, " census ": ModeCensus} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("spectral"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("ParseMode(spectral) err = %v", err)
	}
	if _, err := New("spectral"); err == nil {
		t.Fatalf("New with unknown mode should fail")
	}
}
