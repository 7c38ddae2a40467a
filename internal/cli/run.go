package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"netpulse/internal/httpapi"
	"netpulse/internal/monitor"
	"netpulse/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the monitor",
	Long: `Start probing the configured targets and recording every result.

With --tui the dashboard runs in the same process; quitting it stops the
monitor. With --listen the read-only JSON API is served as well.
SIGINT and SIGTERM stop everything gracefully.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		withTUI, _ := cmd.Flags().GetBool("tui")
		listen, _ := cmd.Flags().GetString("listen")
		if !cmd.Flags().Changed("listen") {
			listen = appInstance.Config.HTTP.Listen
		}

		sched, err := appInstance.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := appInstance.Logger
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return sched.Run(gctx)
		})

		if listen != "" {
			srv := httpapi.NewServer(logger.Named("http"), appInstance.Queries, sched.Stats)
			g.Go(func() error {
				return srv.Serve(gctx, listen)
			})
		}

		if withTUI {
			g.Go(func() error {
				return runDashboard(gctx, stop, sched)
			})
		} else {
			cfg := sched.Config()
			fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s (secondary %s) every %s. Press Ctrl+C to stop.\n",
				cfg.Primary, orDash(cfg.Secondary), cfg.Interval)
			if listen != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "API listening on %s\n", listen)
			}
		}

		err = g.Wait()
		st := sched.Stats()
		logger.Info("monitor stopped",
			zap.Uint64("ticks", st.Ticks),
			zap.Uint64("failures", st.Failures),
			zap.Uint64("store_errors", st.StoreErrors),
		)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// runDashboard blocks until the dashboard exits or ctx ends. Leaving the
// dashboard cancels the whole run.
func runDashboard(ctx context.Context, stop context.CancelFunc, sched *monitor.Scheduler) error {
	p := tui.NewProgram(tui.Deps{
		Queries:   appInstance.Queries,
		Dashboard: appInstance.Config.Dashboard,
		Stats:     sched.Stats,
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-done:
		}
	}()

	_, err := p.Run()
	stop()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func init() {
	runCmd.Flags().Bool("tui", false, "show the dashboard while monitoring")
	runCmd.Flags().String("listen", "", `serve the JSON API on this address, e.g. "127.0.0.1:8080"`)
	rootCmd.AddCommand(runCmd)
}
