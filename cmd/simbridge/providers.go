package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tturner/simbridge/internal/family"
	"github.com/tturner/simbridge/internal/netdetect"
	"github.com/tturner/simbridge/internal/provider"
)

func newProvidersCmd() *cobra.Command {
	var showInterfaces bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List transport providers and protocol families",
		Long: `List the transport providers and protocol families a site can use.

With --interfaces, also list the network interfaces usable as a multicast
site's "interface" setting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Providers:")
			for _, k := range provider.Recognized() {
				status := "implemented"
				if !provider.IsImplemented(k) {
					status = "recognized, not implemented"
				}
				fmt.Fprintf(out, "  %-18s %s\n", k, status)
			}
			fmt.Fprintln(out, "Families:")
			for _, name := range family.Names() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			if !showInterfaces {
				return nil
			}

			interfaces, err := netdetect.ListInterfaces()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Interfaces:")
			for _, iface := range interfaces {
				flags := ""
				if !iface.IsUp {
					flags += " down"
				}
				if iface.IsLoopback {
					flags += " loopback"
				}
				if iface.Multicast {
					flags += " multicast"
				}
				fmt.Fprintf(out, "  %-12s %s%s\n", iface.Name, netdetect.GetInterfaceAddressString(iface), flags)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showInterfaces, "interfaces", false, "Also list network interfaces")
	return cmd
}
