package main

import (
	"fmt"
	"time"

	"github.com/cuemby/pipectl/pkg/health"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		checks, err := health.ForBackend(resolved.APIURL)
		if err != nil {
			return err
		}

		cfg := health.DefaultConfig()
		cfg.Retries, _ = cmd.Flags().GetInt("retries")
		cfg.Timeout = resolved.Timeout

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Backend: %s", resolved.APIURL)
		if resolved.Profile != "" {
			fmt.Fprintf(out, " (profile %s)", resolved.Profile)
		}
		fmt.Fprintln(out)

		for _, check := range checks {
			result, err := health.Wait(cmd.Context(), check, cfg)
			if err != nil {
				fmt.Fprintf(out, "✗ %s: %s\n", check.Type(), result.Message)
				return err
			}
			fmt.Fprintf(out, "✓ %s: %s (%s)\n", check.Type(), result.Message, result.Duration.Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("retries", 1, "Consecutive failures tolerated per probe")
}
