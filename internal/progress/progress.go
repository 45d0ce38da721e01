// Package progress prints a live status line while the relay runs.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tturner/simbridge/internal/metrics"
)

// StatusLine periodically rewrites one console line with relay totals.
type StatusLine struct {
	output      io.Writer
	enabled     bool
	description string
	startTime   time.Time
	lastUpdate  time.Time
	interval    time.Duration
	wrote       bool
}

// NewStatusLine creates a status line that redraws at most once per
// updateInterval. It writes to stderr so it does not mix with stdout.
func NewStatusLine(description string, updateInterval time.Duration) *StatusLine {
	now := time.Now()
	return &StatusLine{
		output:      os.Stderr,
		enabled:     updateInterval > 0,
		description: description,
		startTime:   now,
		lastUpdate:  now,
		interval:    updateInterval,
	}
}

// SetOutput redirects the status line.
func (s *StatusLine) SetOutput(w io.Writer) { s.output = w }

// Update redraws the line from sum unless the interval has not elapsed.
func (s *StatusLine) Update(sum *metrics.Summary) {
	if !s.enabled || sum == nil {
		return
	}

	now := time.Now()
	if now.Sub(s.lastUpdate) < s.interval {
		return
	}
	s.lastUpdate = now
	s.wrote = true

	t := sum.Totals
	output := fmt.Sprintf("\r%d PDUs in, %d forwarded", t.RxPDUs, t.TxPDUs)
	if s.description != "" {
		output = fmt.Sprintf("\r%s: %d PDUs in, %d forwarded", s.description, t.RxPDUs, t.TxPDUs)
	}
	if drops := t.CodecDrops + t.RoutingDrops; drops > 0 {
		output += fmt.Sprintf(" | %d dropped", drops)
	}
	if sum.Latency.Count > 0 {
		output += fmt.Sprintf(" | p99 %.2fms", sum.Latency.P99)
	}
	output += fmt.Sprintf(" | Elapsed: %s", formatDuration(now.Sub(s.startTime)))

	fmt.Fprint(s.output, output)
}

// Run redraws from snapshot every interval until ctx is done, then ends
// the line.
func (s *StatusLine) Run(ctx context.Context, snapshot func() *metrics.Summary) {
	if !s.enabled {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Finish()
			return
		case <-ticker.C:
			s.Update(snapshot())
		}
	}
}

// Finish ends the status line if anything was drawn.
func (s *StatusLine) Finish() {
	if !s.enabled || !s.wrote {
		return
	}
	fmt.Fprint(s.output, "\n")
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
