package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tturner/simbridge/internal/app"
)

type relayFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	logEvery    int
	pcapFile    string
	summaryFile string
	csvFile     string
	outputDir   string
	status      time.Duration
}

func newRelayCmd() *cobra.Command {
	flags := &relayFlags{}

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the relay",
		Long: `Start every configured site and relay PDUs between them until
interrupted. Each PDU received on one site is re-encoded for and delivered
to every other live site whose filter accepts it.

Press Ctrl+C to stop the relay. A metrics summary is printed on exit.`,
		Example: `  # Run with a config file
  simbridge relay --config relay.yaml

  # Debug logging and a capture of relayed traffic
  simbridge relay --config relay.yaml --log-level debug --pcap relay.pcap

  # Keep every artifact of the run together
  simbridge relay --config relay.yaml --output-dir runs/today --status-interval 2s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.configPath == "" {
				return missingFlagError(cmd, "--config")
			}
			return app.RunRelay(cmd.Context(), app.RelayOptions{
				ConfigPath:     flags.configPath,
				LogLevel:       flags.logLevel,
				LogFormat:      flags.logFormat,
				LogEvery:       flags.logEvery,
				PcapFile:       flags.pcapFile,
				SummaryFile:    flags.summaryFile,
				CSVFile:        flags.csvFile,
				OutputDir:      flags.outputDir,
				StatusInterval: flags.status,
				Stdout:         cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Relay config file (.yaml or .toml)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Override logging.level (silent, error, info, verbose, debug)")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "Override logging.format (text, json)")
	cmd.Flags().IntVar(&flags.logEvery, "log-every", 0, "Log one in N per-PDU messages")
	cmd.Flags().StringVar(&flags.pcapFile, "pcap", "", "Record relayed datagrams to this pcap file")
	cmd.Flags().StringVar(&flags.summaryFile, "summary", "", "Write the metrics summary as JSON")
	cmd.Flags().StringVar(&flags.csvFile, "csv", "", "Write per-site metrics as CSV")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Write run.json, summaries, CSV and capture into this directory")
	cmd.Flags().DurationVar(&flags.status, "status-interval", 0, "Redraw a status line on stderr at this interval (0 disables)")

	return cmd
}
