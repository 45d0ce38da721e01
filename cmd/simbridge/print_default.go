package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tturner/simbridge/internal/config"
)

func newPrintDefaultCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "print-default",
		Short: "Print a default relay config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath != "" {
				if err := config.WriteDefaultRelayConfig(outputPath); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Wrote %s\n", outputPath)
				return nil
			}
			data, err := config.MarshalDefault()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&outputPath, "output", "", "Write to file instead of stdout")
	return cmd
}
