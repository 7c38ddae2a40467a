package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"netpulse/internal/query"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize connectivity for a window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		asJSON, _ := cmd.Flags().GetBool("json")
		limit, _ := cmd.Flags().GetInt("limit")

		r, label, err := rangeFromFlags(cmd, appInstance.Queries.Now())
		if err != nil {
			return err
		}
		report, err := appInstance.Queries.Report(ctx, r, limit)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(cmd, report, label)
		return nil
	},
}

func printReport(cmd *cobra.Command, report *query.Report, label string) {
	out := cmd.OutOrStdout()
	sum := report.Summary

	fmt.Fprintf(out, "Report (%s)\n\n", label)
	if sum.Samples == 0 {
		fmt.Fprintln(out, "No data in this window.")
		return
	}

	fmt.Fprintf(out, "  Samples:      %d (%d ok, %d timeout, %d error)\n", sum.Samples, sum.OK, sum.Timeouts, sum.Errors)
	fmt.Fprintf(out, "  Uptime:       %.2f%%\n", sum.UptimePercent)
	fmt.Fprintf(out, "  Failovers:    %d\n", sum.Failovers)
	fmt.Fprintf(out, "  Covered:      %s .. %s\n", formatTime(sum.First), formatTime(sum.Last))
	if lat := sum.Latency; lat != nil {
		fmt.Fprintf(out, "  Latency:      mean %.1f ms, median %.1f ms, p95 %.1f ms\n", lat.Mean, lat.Median, lat.P95)
		fmt.Fprintf(out, "                min %.1f ms, max %.1f ms, stddev %.1f ms\n", lat.Min, lat.Max, lat.StdDev)
	}
	fmt.Fprintf(out, "  Outages:      %d (%s total)\n", report.OutageCount, sum.OutageTime)
	if report.LastOutage != nil {
		fmt.Fprintf(out, "  Last outage:  %s (%.1f s)\n", formatTime(report.LastOutage.Start), report.LastOutage.Seconds())
	} else {
		fmt.Fprintln(out, "  Last outage:  none")
	}

	if len(report.Outages) > 0 {
		fmt.Fprintln(out)
		printOutages(cmd, report.Outages)
	}
}

func init() {
	addRangeFlags(reportCmd)
	reportCmd.Flags().IntP("limit", "n", 10, "outages to list under the summary (0 for all)")
	reportCmd.Flags().Bool("json", false, "print the report as JSON")
	rootCmd.AddCommand(reportCmd)
}
