package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/simbridge/internal/app"
)

type emitBytesFlags struct {
	pduType  string
	family   string
	exercise int
}

func newEmitBytesCmd() *cobra.Command {
	flags := &emitBytesFlags{}

	cmd := &cobra.Command{
		Use:   "emit-bytes",
		Short: "Emit the hex encoding of a sample PDU",
		Long: `Encode a populated sample PDU in the chosen protocol family and print
it as hex, without sending anything. Output feeds decode-bytes.`,
		Example: `  simbridge emit-bytes --type entity-state
  simbridge emit-bytes --type fire --family objmodel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return app.RunEmitBytes(app.EmitBytesOptions{
				Type:     flags.pduType,
				Family:   flags.family,
				Exercise: flags.exercise,
				Out:      cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&flags.pduType, "type", "entity-state", "PDU type (entity-state, fire, detonation, environmental-process)")
	cmd.Flags().StringVar(&flags.family, "family", "dis", "Protocol family (dis, objmodel)")
	cmd.Flags().IntVar(&flags.exercise, "exercise", 1, "Exercise id")

	return cmd
}
