package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"netpulse/internal/outage"
)

var outagesCmd = &cobra.Command{
	Use:   "outages",
	Short: "List outage episodes, newest first",
	Long: `List outage episodes inside a window, newest first.

An outage is a run of consecutive failing samples; runs shorter than the
configured minimum duration are dropped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		out := cmd.OutOrStdout()
		limit, _ := cmd.Flags().GetInt("limit")

		r, label, err := rangeFromFlags(cmd, appInstance.Queries.Now())
		if err != nil {
			return err
		}
		total, err := appInstance.Queries.OutageCount(ctx, r)
		if err != nil {
			return fmt.Errorf("failed to count outages: %w", err)
		}
		episodes, err := appInstance.Queries.ListOutages(ctx, r, limit)
		if err != nil {
			return fmt.Errorf("failed to list outages: %w", err)
		}

		if len(episodes) == 0 {
			fmt.Fprintf(out, "No outages (%s).\n", label)
			return nil
		}

		printOutages(cmd, episodes)
		fmt.Fprintf(out, "\nShowing %d of %d outages (%s)\n", len(episodes), total, label)
		return nil
	},
}

func printOutages(cmd *cobra.Command, episodes []outage.Episode) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tDURATION (S)\tFAILURES\tTYPE")
	fmt.Fprintln(w, "-----\t---\t------------\t--------\t----")
	for _, ep := range episodes {
		end := formatTime(ep.End)
		if ep.Open {
			end += " (ongoing)"
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%s\n",
			formatTime(ep.Start), end, ep.Seconds(), ep.Failures, ep.Kind)
	}
	w.Flush()
}

func init() {
	addRangeFlags(outagesCmd)
	outagesCmd.Flags().IntP("limit", "n", 50, "maximum number of outages to show (0 for all)")
	rootCmd.AddCommand(outagesCmd)
}
