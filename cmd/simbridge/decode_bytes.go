package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/simbridge/internal/app"
)

func newDecodeBytesCmd() *cobra.Command {
	var hexData, fam string

	cmd := &cobra.Command{
		Use:   "decode-bytes",
		Short: "Decode a hex datagram and print its PDUs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if hexData == "" {
				return missingFlagError(cmd, "--hex")
			}
			return app.RunDecodeBytes(app.DecodeBytesOptions{
				Hex:    hexData,
				Family: fam,
				Out:    cmd.OutOrStdout(),
			})
		},
	}
	cmd.Flags().StringVar(&hexData, "hex", "", "Datagram as hex (spaces and colons ignored)")
	cmd.Flags().StringVar(&fam, "family", "dis", "Protocol family (dis, objmodel)")
	return cmd
}
