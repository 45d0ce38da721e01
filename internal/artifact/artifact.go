// Package artifact handles structured output artifacts for relay runs.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tturner/simbridge/internal/metrics"
)

// SiteInfo records how a site was bound for the run.
type SiteInfo struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Family   string `json:"family"`
}

// RunMetadata contains metadata about a relay run.
type RunMetadata struct {
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`

	Relay      string     `json:"relay"`
	ConfigPath string     `json:"config_path,omitempty"`
	Sites      []SiteInfo `json:"sites"`

	Stats    RunStats `json:"stats"`
	ExitCode int      `json:"exit_code"`
	Error    string   `json:"error,omitempty"`

	// Artifact paths (relative to output directory)
	Artifacts ArtifactPaths `json:"artifacts"`
}

// RunStats contains the relay totals at the end of a run.
type RunStats struct {
	ReceivedPDUs      int64 `json:"received_pdus"`
	ForwardedPDUs     int64 `json:"forwarded_pdus"`
	CodecDrops        int64 `json:"codec_drops"`
	RoutingDrops      int64 `json:"routing_drops"`
	TransportFailures int64 `json:"transport_failures"`
	LinkDowns         int64 `json:"link_downs"`
	Unrouted          int64 `json:"unrouted_pdus"`
	// latency in milliseconds
	P50LatencyMs float64 `json:"p50_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`
}

// ArtifactPaths contains relative paths to generated artifacts.
type ArtifactPaths struct {
	RunJSON     string `json:"run_json"`
	SummaryJSON string `json:"summary_json,omitempty"`
	MetricsCSV  string `json:"metrics_csv,omitempty"`
	SummaryTxt  string `json:"summary_txt,omitempty"`
	PCAPFile    string `json:"pcap_file,omitempty"`
}

// OutputManager manages artifact output for a run.
type OutputManager struct {
	outputDir string
	runID     string
	metadata  *RunMetadata
}

// NewOutputManager creates the output directory for run runID.
func NewOutputManager(outputDir, runID string) (*OutputManager, error) {
	if runID == "" {
		runID = time.Now().Format("20060102-150405")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &OutputManager{
		outputDir: outputDir,
		runID:     runID,
		metadata: &RunMetadata{
			RunID:     runID,
			StartTime: time.Now(),
			Artifacts: ArtifactPaths{
				RunJSON: "run.json",
			},
		},
	}, nil
}

// OutputDir returns the output directory path.
func (m *OutputManager) OutputDir() string {
	return m.outputDir
}

// RunID returns the run identifier.
func (m *OutputManager) RunID() string {
	return m.runID
}

// SetRelay records the relay name, config file and site bindings.
func (m *OutputManager) SetRelay(name, configPath string, sites []SiteInfo) {
	m.metadata.Relay = name
	m.metadata.ConfigPath = configPath
	m.metadata.Sites = sites
}

// PCAPPath returns the full path for the capture file and records it.
func (m *OutputManager) PCAPPath() string {
	name := fmt.Sprintf("capture_%s.pcap", m.runID)
	m.metadata.Artifacts.PCAPFile = name
	return filepath.Join(m.outputDir, name)
}

// MetricsPath returns the full path for the per-site CSV and records it.
func (m *OutputManager) MetricsPath() string {
	name := fmt.Sprintf("metrics_%s.csv", m.runID)
	m.metadata.Artifacts.MetricsCSV = name
	return filepath.Join(m.outputDir, name)
}

// SummaryJSONPath returns the full path for the JSON summary and records it.
func (m *OutputManager) SummaryJSONPath() string {
	name := fmt.Sprintf("summary_%s.json", m.runID)
	m.metadata.Artifacts.SummaryJSON = name
	return filepath.Join(m.outputDir, name)
}

// SummaryPath returns the full path for the text summary.
func (m *OutputManager) SummaryPath() string {
	return filepath.Join(m.outputDir, fmt.Sprintf("summary_%s.txt", m.runID))
}

// RunJSONPath returns the full path for the run.json file.
func (m *OutputManager) RunJSONPath() string {
	return filepath.Join(m.outputDir, "run.json")
}

// Finalize completes the run and writes the text summary and run.json.
func (m *OutputManager) Finalize(summary *metrics.Summary, exitCode int, runErr error) error {
	m.metadata.EndTime = time.Now()
	m.metadata.Duration = m.metadata.EndTime.Sub(m.metadata.StartTime).String()
	m.metadata.ExitCode = exitCode

	if runErr != nil {
		m.metadata.Error = runErr.Error()
	}

	if summary != nil {
		m.metadata.Stats = RunStats{
			ReceivedPDUs:      summary.Totals.RxPDUs,
			ForwardedPDUs:     summary.Totals.TxPDUs,
			CodecDrops:        summary.Totals.CodecDrops,
			RoutingDrops:      summary.Totals.RoutingDrops,
			TransportFailures: summary.Totals.TransportFailures,
			LinkDowns:         summary.Totals.LinkDowns,
			Unrouted:          summary.Unrouted,
			P50LatencyMs:      summary.Latency.P50,
			P99LatencyMs:      summary.Latency.P99,
			MaxLatencyMs:      summary.Latency.Max,
		}
	}

	if err := m.writeSummary(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	m.metadata.Artifacts.SummaryTxt = filepath.Base(m.SummaryPath())

	if err := m.writeRunJSON(); err != nil {
		return fmt.Errorf("write run.json: %w", err)
	}

	return nil
}

// writeSummary writes a human-readable summary file.
func (m *OutputManager) writeSummary(summary *metrics.Summary) error {
	f, err := os.Create(m.SummaryPath())
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "simbridge Run Summary\n")
	fmt.Fprintf(f, "=====================\n\n")

	fmt.Fprintf(f, "Run ID:     %s\n", m.metadata.RunID)
	fmt.Fprintf(f, "Relay:      %s\n", m.metadata.Relay)
	fmt.Fprintf(f, "Start Time: %s\n", m.metadata.StartTime.Format(time.RFC3339))
	fmt.Fprintf(f, "End Time:   %s\n", m.metadata.EndTime.Format(time.RFC3339))
	fmt.Fprintf(f, "Duration:   %s\n\n", m.metadata.Duration)

	if len(m.metadata.Sites) > 0 {
		fmt.Fprintf(f, "Sites\n")
		fmt.Fprintf(f, "-----\n")
		for _, s := range m.metadata.Sites {
			fmt.Fprintf(f, "%-16s %-18s %s\n", s.Name, s.Provider, s.Family)
		}
		fmt.Fprintln(f)
	}

	if summary != nil {
		fmt.Fprint(f, metrics.FormatSummary(summary))
		fmt.Fprintln(f)
	}

	if m.metadata.Error != "" {
		fmt.Fprintf(f, "Error: %s\n\n", m.metadata.Error)
	}

	fmt.Fprintf(f, "Artifacts\n")
	fmt.Fprintf(f, "---------\n")
	if m.metadata.Artifacts.PCAPFile != "" {
		fmt.Fprintf(f, "PCAP:    %s\n", m.metadata.Artifacts.PCAPFile)
	}
	if m.metadata.Artifacts.MetricsCSV != "" {
		fmt.Fprintf(f, "Metrics: %s\n", m.metadata.Artifacts.MetricsCSV)
	}
	if m.metadata.Artifacts.SummaryJSON != "" {
		fmt.Fprintf(f, "Summary JSON: %s\n", m.metadata.Artifacts.SummaryJSON)
	}
	fmt.Fprintf(f, "Summary: %s\n", filepath.Base(m.SummaryPath()))
	fmt.Fprintf(f, "Run JSON: %s\n", m.metadata.Artifacts.RunJSON)

	return nil
}

// writeRunJSON writes the run metadata as JSON.
func (m *OutputManager) writeRunJSON() error {
	data, err := json.MarshalIndent(m.metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.RunJSONPath(), data, 0644)
}
