package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"netpulse/internal/export"
	"netpulse/internal/paths"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export samples or outages as CSV",
}

var exportSamplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Export raw samples (timestamp, target, latency_ms, status)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, func(ctx context.Context, w io.Writer) (int, error) {
			r, _, err := rangeFromFlags(cmd, appInstance.Queries.Now())
			if err != nil {
				return 0, err
			}
			return export.Samples(ctx, appInstance.Queries, r, w)
		})
	},
}

var exportOutagesCmd = &cobra.Command{
	Use:   "outages",
	Short: "Export outage episodes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runExport(cmd, func(ctx context.Context, w io.Writer) (int, error) {
			r, _, err := rangeFromFlags(cmd, appInstance.Queries.Now())
			if err != nil {
				return 0, err
			}
			return export.Outages(ctx, appInstance.Queries, r, limit, w)
		})
	},
}

// runExport writes to --output, or stdout when it is empty or "-".
func runExport(cmd *cobra.Command, write func(ctx context.Context, w io.Writer) (int, error)) error {
	ctx := context.Background()
	output, _ := cmd.Flags().GetString("output")

	if output == "" || output == "-" {
		_, err := write(ctx, cmd.OutOrStdout())
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	n, err := write(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(output)
		return fmt.Errorf("export failed: %w", err)
	}
	paths.ChownToRealUser(output)
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", n, output)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{exportSamplesCmd, exportOutagesCmd} {
		addRangeFlags(c)
		c.Flags().StringP("output", "o", "", "output file (default stdout)")
		exportCmd.AddCommand(c)
	}
	exportOutagesCmd.Flags().IntP("limit", "n", 0, "maximum number of outages (0 for all)")
	rootCmd.AddCommand(exportCmd)
}
