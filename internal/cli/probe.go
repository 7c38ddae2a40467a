package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"netpulse/internal/config"
	"netpulse/internal/monitor"
	"netpulse/internal/probe"
	"netpulse/internal/storage/models"
)

var probeCmd = &cobra.Command{
	Use:   "probe [target...]",
	Short: "Probe targets once without recording anything",
	Long: `Probe targets once to check the prober setup. Nothing is written to the store.

Without arguments, runs one failover round against the configured primary and
secondary, exactly as the monitor would. With arguments, probes each target
concurrently and prints a table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		strategyName, _ := cmd.Flags().GetString("strategy")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		workers, _ := cmd.Flags().GetInt64("workers")

		cfg := appInstance.Config
		if strategyName != "" {
			cfg.Probe.Strategy = strategyName
		}
		if !cmd.Flags().Changed("timeout") {
			timeout = cfg.Probe.Timeout
		}
		strategy, err := probe.NewStrategy(cfg.Probe.Strategy, probe.Options{
			Privileged: cfg.Probe.Privileged,
			TCPPort:    cfg.Probe.TCPPort,
			PingBinary: cfg.Probe.PingBinary,
		})
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return runFailoverRound(ctx, cmd, cfg, strategy, timeout)
		}
		return runBatchProbe(ctx, cmd, strategy, args, timeout, workers)
	},
}

func runFailoverRound(ctx context.Context, cmd *cobra.Command, cfg config.Config, strategy probe.Strategy, timeout time.Duration) error {
	out := cmd.OutOrStdout()
	sched, err := monitor.NewScheduler(monitor.Config{
		Primary:   cfg.Targets.Primary,
		Secondary: cfg.Targets.Secondary,
		Interval:  cfg.Probe.Interval,
		Timeout:   timeout,
	}, strategy, appInstance.Storage, monitor.WithLogger(appInstance.Logger.Named("probe")))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Probing %s (secondary %s) with %s, timeout %s\n\n",
		cfg.Targets.Primary, orDash(cfg.Targets.Secondary), strategy.Name(), timeout)

	sample := sched.Resolve(ctx)
	switch {
	case sample.Status != models.StatusOK:
		fmt.Fprintf(out, "  OFFLINE   %s (no target answered)\n", sample.Status)
	case sample.Target != cfg.Targets.Primary:
		fmt.Fprintf(out, "  ONLINE    %s via %s (primary unreachable)\n", formatLatency(sample.LatencyMS), sample.Target)
	default:
		fmt.Fprintf(out, "  ONLINE    %s via %s\n", formatLatency(sample.LatencyMS), sample.Target)
	}
	return nil
}

func runBatchProbe(ctx context.Context, cmd *cobra.Command, strategy probe.Strategy, targets []string, timeout time.Duration, workers int64) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Probing %d targets with %s...\n\n", len(targets), strategy.Name())

	progress := func(r probe.Result, current, total int) {
		if r.OK() {
			fmt.Fprintf(out, "  [%d/%d] %-40s %.1f ms\n", current, total, truncateName(r.Target, 40), durationMS(r.Latency))
		} else {
			fmt.Fprintf(out, "  [%d/%d] %-40s %s\n", current, total, truncateName(r.Target, 40), r.Status)
		}
	}

	batch := probe.Batch(ctx, strategy, targets, timeout, workers, progress)

	fmt.Fprintf(out, "\nResults:\n")
	fmt.Fprintln(out, strings.Repeat("─", 60))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTARGET\tLATENCY\tSTATUS")
	fmt.Fprintln(w, "-\t------\t-------\t------")
	for i, r := range batch.Results {
		latStr := "N/A"
		if r.OK() {
			latStr = fmt.Sprintf("%.1f ms", durationMS(r.Latency))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, truncateName(r.Target, 35), latStr, r.Status)
	}
	w.Flush()

	fmt.Fprintf(out, "\nSummary: %d probed, %d succeeded, %d failed (%.1fs)\n",
		len(batch.Results), batch.Succeeded, batch.Failed, batch.Duration.Seconds())
	return nil
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncateName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	return name[:maxLen-3] + "..."
}

func init() {
	probeCmd.Flags().StringP("strategy", "s", "", "probe strategy (icmp, tcp, http, exec); default from config")
	probeCmd.Flags().DurationP("timeout", "t", time.Second, "per-probe timeout; default from config")
	probeCmd.Flags().Int64P("workers", "j", 8, "concurrent probes when targets are given")
	probeCmd.RegisterFlagCompletionFunc("strategy", completeStrategies)
	rootCmd.AddCommand(probeCmd)
}
