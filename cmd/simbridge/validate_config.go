package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tturner/simbridge/internal/config"
)

func newValidateConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate a relay config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if configPath == "" {
				return missingFlagError(cmd, "--config")
			}
			cfg, err := config.LoadRelayConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: OK\n", configPath)
			for _, s := range cfg.Sites {
				fmt.Fprintf(out, "  %-16s %-18s %s\n", s.Name, s.Provider, s.Family)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Relay config file (.yaml or .toml)")
	return cmd
}
