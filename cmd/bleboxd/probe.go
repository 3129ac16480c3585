package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-blebox/internal/blebox/session"
	"github.com/nerrad567/gray-logic-blebox/internal/bridge"
)

func newProbeCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe <host[:port]>",
		Short: "Identify one box and print its features",
		Long: `Probe opens a single box, refreshes its state once and prints its
identity and decoded features as JSON. Decode problems are reported on
stderr; the features that did decode are still printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.cliLogger()
			addr := session.NormalizeAddress(args[0])

			dev, err := session.Open(cmd.Context(), session.NewClient(addr, timeout), session.Options{
				Addr:            addr,
				FreshnessWindow: -1,
				Logger:          log,
			})
			if err != nil {
				return fmt.Errorf("opening %s: %w", addr, err)
			}

			if err := dev.Refresh(cmd.Context()); err != nil {
				if unreachable(err) {
					return fmt.Errorf("refreshing %s: %w", addr, err)
				}
				log.Warn("state decoded with errors", "addr", addr, "error", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(bridge.Describe(dev))
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", session.DefaultTimeout, "Per-request timeout")
	return cmd
}

// unreachable reports whether err means the box did not answer usefully.
func unreachable(err error) bool {
	return errors.Is(err, session.ErrTimeout) ||
		errors.Is(err, session.ErrConnection) ||
		errors.Is(err, session.ErrHTTPStatus) ||
		errors.Is(err, session.ErrClient)
}
