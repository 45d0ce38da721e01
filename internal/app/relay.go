package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/xid"

	"github.com/tturner/simbridge/internal/analyzer"
	"github.com/tturner/simbridge/internal/artifact"
	"github.com/tturner/simbridge/internal/capture"
	"github.com/tturner/simbridge/internal/config"
	"github.com/tturner/simbridge/internal/distributor"
	"github.com/tturner/simbridge/internal/logging"
	"github.com/tturner/simbridge/internal/metrics"
	"github.com/tturner/simbridge/internal/progress"
)

// RelayOptions carries the relay command flags. Non-empty fields override
// the config file.
type RelayOptions struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	LogEvery    int
	PcapFile    string
	SummaryFile string
	CSVFile     string
	// OutputDir collects run.json, the summaries, the CSV and the capture
	// of one run. Explicit file flags still win.
	OutputDir string
	// StatusInterval redraws a status line on stderr; zero disables it.
	StatusInterval time.Duration
	Stdout         io.Writer
}

// RunRelay loads the config, starts every site and relays until ctx is
// done or the process receives SIGINT or SIGTERM.
func RunRelay(ctx context.Context, opts RelayOptions) error {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	cfg, err := config.LoadRelayConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	applyRelayOverrides(cfg, opts)
	runID := xid.New().String()

	var outputs *artifact.OutputManager
	if opts.OutputDir != "" {
		outputs, err = artifact.NewOutputManager(opts.OutputDir, runID)
		if err != nil {
			return err
		}
		placeArtifacts(cfg, outputs)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger, err := logging.NewLoggerWithOptions(level, cfg.Logging.LogFile, cfg.Logging.Format, cfg.Logging.LogEveryN)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()

	logger.SetRunID(runID)
	logger.LogStartup(cfg.Relay.Name, cfg.SiteNames(), opts.ConfigPath)

	mode, err := analyzer.ParseMode(cfg.Relay.Analyzer)
	if err != nil {
		return err
	}
	an, err := analyzer.New(mode)
	if err != nil {
		return err
	}

	var recorder *capture.Recorder
	if cfg.Capture.PcapFile != "" {
		recorder, err = capture.NewRecorder(cfg.Capture.PcapFile)
		if err != nil {
			return err
		}
		defer recorder.Close()
	}

	sites, err := cfg.BuildSites(logger)
	if err != nil {
		return err
	}

	sink := metrics.NewSink(runID)
	dopts := distributor.Options{
		Logger:     logger,
		Metrics:    sink,
		Analyzer:   an,
		QueueDepth: cfg.Relay.QueueDepth,
	}
	if recorder != nil {
		dopts.Recorder = recorder
	}
	d := distributor.New(dopts)
	if err := d.SetSites(sites); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Start(runCtx); err != nil {
		logger.Error("start relay: %v", err)
		return err
	}
	fmt.Fprintf(out, "Relay %s running with %d sites (run %s)\n", cfg.Relay.Name, len(sites), runID)

	status := progress.NewStatusLine(cfg.Relay.Name, opts.StatusInterval)
	statusDone := make(chan struct{})
	go func() {
		defer close(statusDone)
		status.Run(runCtx, d.Stats)
	}()

	<-runCtx.Done()
	<-statusDone
	fmt.Fprintf(out, "\nShutting down relay...\n")
	d.Stop()

	summary := d.Stats()
	fmt.Fprint(out, metrics.FormatSummary(summary))
	if err := metrics.NewWriter(cfg.Metrics.CSVFile, cfg.Metrics.SummaryFile).WriteSummary(summary); err != nil {
		logger.Error("write metrics: %v", err)
	}

	if mode != analyzer.ModeNone {
		if err := an.Execute(context.Background()); err != nil {
			return err
		}
		rows, err := an.Results()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Traffic census:")
		for _, r := range rows {
			fmt.Fprintf(out, "  %-16s %-22s %d\n", r.Site, r.Type, r.Count)
		}
	}

	if outputs != nil {
		outputs.SetRelay(cfg.Relay.Name, opts.ConfigPath, siteInfo(cfg))
		if err := outputs.Finalize(summary, 0, nil); err != nil {
			logger.Error("write run artifacts: %v", err)
		} else {
			fmt.Fprintf(out, "Run artifacts written to: %s\n", outputs.OutputDir())
		}
	}

	if recorder != nil {
		absPath, _ := filepath.Abs(cfg.Capture.PcapFile)
		fmt.Fprintf(out, "Datagrams captured: %d\n", recorder.Count())
		fmt.Fprintf(out, "PCAP written to: %s\n", absPath)
	}
	return nil
}

func applyRelayOverrides(cfg *config.RelayConfig, opts RelayOptions) {
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Logging.Format = opts.LogFormat
	}
	if opts.LogEvery > 0 {
		cfg.Logging.LogEveryN = opts.LogEvery
	}
	if opts.PcapFile != "" {
		cfg.Capture.PcapFile = opts.PcapFile
	}
	if opts.SummaryFile != "" {
		cfg.Metrics.SummaryFile = opts.SummaryFile
	}
	if opts.CSVFile != "" {
		cfg.Metrics.CSVFile = opts.CSVFile
	}
}

// placeArtifacts points every unset output file into the run directory.
func placeArtifacts(cfg *config.RelayConfig, outputs *artifact.OutputManager) {
	if cfg.Metrics.SummaryFile == "" {
		cfg.Metrics.SummaryFile = outputs.SummaryJSONPath()
	}
	if cfg.Metrics.CSVFile == "" {
		cfg.Metrics.CSVFile = outputs.MetricsPath()
	}
	if cfg.Capture.PcapFile == "" {
		cfg.Capture.PcapFile = outputs.PCAPPath()
	}
}

func siteInfo(cfg *config.RelayConfig) []artifact.SiteInfo {
	out := make([]artifact.SiteInfo, len(cfg.Sites))
	for i, s := range cfg.Sites {
		out[i] = artifact.SiteInfo{Name: s.Name, Provider: s.Provider, Family: s.Family}
	}
	return out
}
