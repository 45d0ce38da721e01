// Package analyzer observes forwarded PDUs.
//
// In mode none the analyzer observes nothing and every request for results
// fails with ErrModeNone.
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/pdu"
)

// Mode selects the analysis.
type Mode string

const (
	ModeNone   Mode = "none"
	ModeCensus Mode = "census"
)

var (
	ErrModeNone    = fmt.Errorf("%w: analyzer mode is None", relayerr.ErrConfiguration)
	ErrUnknownMode = fmt.Errorf("%w: unknown analyzer mode", relayerr.ErrConfiguration)
	ErrNotExecuted = fmt.Errorf("analyzer has not been executed")
)

// ParseMode maps a configuration string to a Mode. Empty means none.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeNone:
		return ModeNone, nil
	case ModeCensus:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (use none or census)", ErrUnknownMode, s)
}

// Row is one census line.
type Row struct {
	Site  string
	Type  pdu.Type
	Count int64
}

type key struct {
	site string
	typ  pdu.Type
}

// Analyzer counts forwarded PDUs per source site and type.
type Analyzer struct {
	mode Mode

	mu       sync.Mutex
	counts   map[key]int64
	results  []Row
	executed bool
}

// New returns an analyzer for mode.
func New(mode Mode) (*Analyzer, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if mode == "" {
		mode = ModeNone
	}
	return &Analyzer{mode: mode, counts: make(map[key]int64)}, nil
}

func (a *Analyzer) Mode() Mode { return a.mode }

// Observe records p as forwarded from site. It is a no-op in mode none.
func (a *Analyzer) Observe(site string, p *pdu.PDU) {
	if a == nil || a.mode == ModeNone || p == nil {
		return
	}
	a.mu.Lock()
	a.counts[key{site: site, typ: p.Header.Type}]++
	a.mu.Unlock()
}

// Execute snapshots the observations into results.
func (a *Analyzer) Execute(ctx context.Context) error {
	if a.mode == ModeNone {
		return ErrModeNone
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	rows := make([]Row, 0, len(a.counts))
	for k, n := range a.counts {
		rows = append(rows, Row{Site: k.site, Type: k.typ, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Site != rows[j].Site {
			return rows[i].Site < rows[j].Site
		}
		return rows[i].Type < rows[j].Type
	})
	a.results = rows
	a.executed = true
	return nil
}

// Results returns the rows of the last Execute.
func (a *Analyzer) Results() ([]Row, error) {
	if a.mode == ModeNone {
		return nil, ErrModeNone
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.executed {
		return nil, ErrNotExecuted
	}
	out := make([]Row, len(a.results))
	copy(out, a.results)
	return out, nil
}
