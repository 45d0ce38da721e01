package metrics

// Relay counters and forwarding latency

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	relayerr "github.com/tturner/simbridge/internal/errors"
)

// latency histogram range in microseconds
const (
	minLatencyUs = 1
	maxLatencyUs = int64(time.Minute / time.Microsecond)
	sigFigs      = 3
)

// SiteStats counts traffic through one site.
type SiteStats struct {
	Site              string `json:"site"`
	RxDatagrams       int64  `json:"rx_datagrams"`
	RxBytes           int64  `json:"rx_bytes"`
	RxPDUs            int64  `json:"rx_pdus"`
	TxPDUs            int64  `json:"tx_pdus"`
	TxBytes           int64  `json:"tx_bytes"`
	CodecDrops        int64  `json:"codec_drops"`
	RoutingDrops      int64  `json:"routing_drops"`
	TransportFailures int64  `json:"transport_failures"`
	LinkDowns         int64  `json:"link_downs"`
}

func (s *SiteStats) add(o *SiteStats) {
	s.RxDatagrams += o.RxDatagrams
	s.RxBytes += o.RxBytes
	s.RxPDUs += o.RxPDUs
	s.TxPDUs += o.TxPDUs
	s.TxBytes += o.TxBytes
	s.CodecDrops += o.CodecDrops
	s.RoutingDrops += o.RoutingDrops
	s.TransportFailures += o.TransportFailures
	s.LinkDowns += o.LinkDowns
}

// LatencyStats summarizes receive-to-send latency in milliseconds.
type LatencyStats struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min_ms"`
	Max   float64 `json:"max_ms"`
	Mean  float64 `json:"mean_ms"`
	P50   float64 `json:"p50_ms"`
	P90   float64 `json:"p90_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
}

// Summary is a point-in-time snapshot of a Sink.
type Summary struct {
	RunID     string           `json:"run_id"`
	Started   time.Time        `json:"started"`
	Duration  float64          `json:"duration_sec"`
	Totals    SiteStats        `json:"totals"`
	Sites     []SiteStats      `json:"sites"`
	ByType    map[string]int64 `json:"forwarded_by_type"`
	Latency   LatencyStats     `json:"latency"`
	Buckets   map[string]int   `json:"latency_buckets"`
	Unrouted  int64            `json:"unrouted_pdus"`
	Uncounted int64            `json:"unclassified_errors"`
}

// Sink collects relay counters. It is safe for concurrent use.
type Sink struct {
	mu        sync.Mutex
	runID     string
	started   time.Time
	sites     map[string]*SiteStats
	byType    map[string]int64
	buckets   map[string]int
	latency   *hdrhistogram.Histogram
	unrouted  int64
	uncounted int64
}

// NewSink creates a sink stamped with runID.
func NewSink(runID string) *Sink {
	return &Sink{
		runID:   runID,
		started: time.Now(),
		sites:   make(map[string]*SiteStats),
		byType:  make(map[string]int64),
		buckets: make(map[string]int),
		latency: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs),
	}
}

func (s *Sink) site(name string) *SiteStats {
	st, ok := s.sites[name]
	if !ok {
		st = &SiteStats{Site: name}
		s.sites[name] = st
	}
	return st
}

// RecordReceive counts one datagram read from site.
func (s *Sink) RecordReceive(site string, bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.site(site)
	st.RxDatagrams++
	st.RxBytes += int64(bytes)
}

// RecordDecoded counts n PDUs decoded from a datagram on site.
func (s *Sink) RecordDecoded(site string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.site(site).RxPDUs += int64(n)
}

// RecordUnrouted counts a PDU that had no eligible destination.
func (s *Sink) RecordUnrouted() {
	s.mu.Lock()
	s.unrouted++
	s.mu.Unlock()
}

// RecordForward counts one PDU delivered to dst and its latency since
// receipt.
func (s *Sink) RecordForward(dst, pduType string, bytes int, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.site(dst)
	st.TxPDUs++
	st.TxBytes += int64(bytes)
	s.byType[pduType]++

	us := latency.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	_ = s.latency.RecordValue(us)
	incrementBucket(s.buckets, float64(latency)/float64(time.Millisecond))
}

// RecordError classifies err by category and counts it against site.
func (s *Sink) RecordError(site string, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.site(site)
	switch relayerr.Category(err) {
	case "codec":
		st.CodecDrops++
	case "routing":
		st.RoutingDrops++
	case "transport":
		st.TransportFailures++
	default:
		s.uncounted++
	}
}

// RecordLinkDown counts a link-down transition on site.
func (s *Sink) RecordLinkDown(site string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.site(site).LinkDowns++
}

// Site returns a copy of the counters for one site.
func (s *Sink) Site(name string) SiteStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sites[name]; ok {
		return *st
	}
	return SiteStats{Site: name}
}

// Summary returns a deep copy of the current counters.
func (s *Sink) Summary() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := &Summary{
		RunID:     s.runID,
		Started:   s.started,
		Duration:  time.Since(s.started).Seconds(),
		Totals:    SiteStats{Site: "total"},
		ByType:    make(map[string]int64, len(s.byType)),
		Buckets:   make(map[string]int, len(s.buckets)),
		Unrouted:  s.unrouted,
		Uncounted: s.uncounted,
	}
	names := make([]string, 0, len(s.sites))
	for name := range s.sites {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := *s.sites[name]
		sum.Sites = append(sum.Sites, st)
		sum.Totals.add(&st)
	}
	for k, v := range s.byType {
		sum.ByType[k] = v
	}
	for k, v := range s.buckets {
		sum.Buckets[k] = v
	}

	if n := s.latency.TotalCount(); n > 0 {
		ms := func(us int64) float64 { return float64(us) / 1000 }
		sum.Latency = LatencyStats{
			Count: n,
			Min:   ms(s.latency.Min()),
			Max:   ms(s.latency.Max()),
			Mean:  s.latency.Mean() / 1000,
			P50:   ms(s.latency.ValueAtQuantile(50)),
			P90:   ms(s.latency.ValueAtQuantile(90)),
			P95:   ms(s.latency.ValueAtQuantile(95)),
			P99:   ms(s.latency.ValueAtQuantile(99)),
		}
	}
	return sum
}

func incrementBucket(buckets map[string]int, value float64) {
	switch {
	case value < 1:
		buckets["lt_1ms"]++
	case value < 5:
		buckets["1_5ms"]++
	case value < 10:
		buckets["5_10ms"]++
	case value < 50:
		buckets["10_50ms"]++
	case value < 100:
		buckets["50_100ms"]++
	case value < 500:
		buckets["100_500ms"]++
	default:
		buckets["gt_500ms"]++
	}
}
