package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-blebox/internal/discovery"
)

func newDiscoverCmd(opts *rootOptions) *cobra.Command {
	var (
		timeout time.Duration
		iface   string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Browse mDNS for boxes on the local network",
		Long: `Discover browses the ` + discovery.ServiceType + ` mDNS service for the given
timeout and lists every box that answered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hosts, err := discovery.Collect(cmd.Context(), discovery.Options{
				Interface: iface,
				Timeout:   timeout,
				Logger:    opts.cliLogger(),
			})
			if err != nil {
				return fmt.Errorf("browsing mdns: %w", err)
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(hosts)
			}
			printHosts(cmd.OutOrStdout(), hosts)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", discovery.DefaultTimeout, "How long to listen for answers")
	cmd.Flags().StringVar(&iface, "interface", "", "Network interface to browse on (default: all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print hosts as JSON")
	return cmd
}

// printHosts writes one line per host, or a notice when none answered.
func printHosts(w io.Writer, hosts []discovery.Host) {
	if len(hosts) == 0 {
		fmt.Fprintln(w, "No boxes found.")
		return
	}
	fmt.Fprintf(w, "%-32s %-22s %s\n", "INSTANCE", "ADDRESS", "HOST")
	for _, h := range hosts {
		fmt.Fprintf(w, "%-32s %-22s %s\n", h.Instance, h.Address(), h.HostName)
	}
	fmt.Fprintf(w, "\n%d box(es) found.\n", len(hosts))
}
