package metrics

// Metrics output (CSV/JSON) and summary formatting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Writer handles writing relay summaries to files
type Writer struct {
	csvPath  string
	jsonPath string
}

// NewWriter creates a writer; empty paths disable that output.
func NewWriter(csvPath, jsonPath string) *Writer {
	return &Writer{csvPath: csvPath, jsonPath: jsonPath}
}

var csvHeader = []string{
	"site",
	"rx_datagrams",
	"rx_bytes",
	"rx_pdus",
	"tx_pdus",
	"tx_bytes",
	"codec_drops",
	"routing_drops",
	"transport_failures",
	"link_downs",
}

func csvRow(s SiteStats) []string {
	return []string{
		s.Site,
		strconv.FormatInt(s.RxDatagrams, 10),
		strconv.FormatInt(s.RxBytes, 10),
		strconv.FormatInt(s.RxPDUs, 10),
		strconv.FormatInt(s.TxPDUs, 10),
		strconv.FormatInt(s.TxBytes, 10),
		strconv.FormatInt(s.CodecDrops, 10),
		strconv.FormatInt(s.RoutingDrops, 10),
		strconv.FormatInt(s.TransportFailures, 10),
		strconv.FormatInt(s.LinkDowns, 10),
	}
}

// WriteSummary writes s to the configured files.
func (w *Writer) WriteSummary(s *Summary) error {
	if w.csvPath != "" {
		if err := writeCSV(w.csvPath, s); err != nil {
			return err
		}
	}
	if w.jsonPath != "" {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		if err := os.WriteFile(w.jsonPath, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write JSON summary: %w", err)
		}
	}
	return nil
}

func writeCSV(path string, s *Summary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, st := range s.Sites {
		if err := cw.Write(csvRow(st)); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}
	if err := cw.Write(csvRow(s.Totals)); err != nil {
		return fmt.Errorf("write CSV record: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return file.Close()
}

// FormatSummary formats a summary for human-readable output
func FormatSummary(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%.1fs)\n", s.RunID, s.Duration)
	fmt.Fprintf(&b, "Received: %d datagrams, %d PDUs\n", s.Totals.RxDatagrams, s.Totals.RxPDUs)
	fmt.Fprintf(&b, "Forwarded: %d PDUs\n", s.Totals.TxPDUs)
	if s.Totals.CodecDrops > 0 {
		fmt.Fprintf(&b, "Codec drops: %d\n", s.Totals.CodecDrops)
	}
	if s.Totals.RoutingDrops > 0 {
		fmt.Fprintf(&b, "Routing drops: %d\n", s.Totals.RoutingDrops)
	}
	if s.Totals.TransportFailures > 0 {
		fmt.Fprintf(&b, "Transport failures: %d\n", s.Totals.TransportFailures)
	}
	if s.Unrouted > 0 {
		fmt.Fprintf(&b, "Unrouted PDUs: %d\n", s.Unrouted)
	}

	if s.Latency.Count > 0 {
		b.WriteString("\nForwarding latency:\n")
		fmt.Fprintf(&b, "  Min: %.3f ms\n", s.Latency.Min)
		fmt.Fprintf(&b, "  Max: %.3f ms\n", s.Latency.Max)
		fmt.Fprintf(&b, "  Avg: %.3f ms\n", s.Latency.Mean)
		fmt.Fprintf(&b, "  P50: %.3f ms\n", s.Latency.P50)
		fmt.Fprintf(&b, "  P90: %.3f ms\n", s.Latency.P90)
		fmt.Fprintf(&b, "  P95: %.3f ms\n", s.Latency.P95)
		fmt.Fprintf(&b, "  P99: %.3f ms\n", s.Latency.P99)
		fmt.Fprintf(&b, "  Buckets: <1ms=%d 1-5ms=%d 5-10ms=%d 10-50ms=%d 50-100ms=%d 100-500ms=%d >500ms=%d\n",
			s.Buckets["lt_1ms"],
			s.Buckets["1_5ms"],
			s.Buckets["5_10ms"],
			s.Buckets["10_50ms"],
			s.Buckets["50_100ms"],
			s.Buckets["100_500ms"],
			s.Buckets["gt_500ms"],
		)
	}

	if len(s.Sites) > 0 {
		b.WriteString("\nPer-Site Statistics:\n")
		for _, st := range s.Sites {
			fmt.Fprintf(&b, "  %s: rx %d pdus, tx %d pdus, drops codec=%d routing=%d, transport failures=%d, link downs=%d\n",
				st.Site, st.RxPDUs, st.TxPDUs, st.CodecDrops, st.RoutingDrops, st.TransportFailures, st.LinkDowns)
		}
	}
	return b.String()
}
