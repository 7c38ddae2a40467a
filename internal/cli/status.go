package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent probe result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		out := cmd.OutOrStdout()

		status, err := appInstance.Queries.CurrentStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to read status: %w", err)
		}
		if !status.HasData {
			fmt.Fprintln(out, "No data yet. Start the monitor with: netpulse run")
			return nil
		}

		state := "ONLINE"
		if !status.Online() {
			state = "OFFLINE"
		}
		fmt.Fprintf(out, "Status:   %s\n", state)
		fmt.Fprintf(out, "Result:   %s\n", status.Status)
		fmt.Fprintf(out, "Target:   %s\n", status.Target)
		fmt.Fprintf(out, "Latency:  %s\n", formatLatency(status.LatencyMS))
		fmt.Fprintf(out, "Sampled:  %s\n", formatTime(status.Timestamp))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
