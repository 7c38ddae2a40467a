package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"netpulse/internal/app"
	"netpulse/internal/config"
)

var (
	appInstance *app.App
	version     = "dev"
)

// Command annotations read by PersistentPreRunE.
const (
	// annotationNoApp marks commands that never touch the config or store.
	annotationNoApp = "netpulse.noapp"
	// annotationTUI marks commands that own the terminal, so logs stay in the file.
	annotationTUI = "netpulse.tui"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "netpulse",
	Short: "netpulse - connectivity and latency monitor",
	Long: `netpulse - connectivity and latency monitor

  Probes a primary target (and a secondary on failure) every interval,
  records every result, and turns runs of failures into outage episodes.

  Quick start:
    netpulse run --tui
    netpulse status
    netpulse outages --window 7d
    netpulse export samples -o samples.csv

  Core features:
    • ICMP, TCP, HTTP and system ping probes with failover
    • Append-only SQLite or bbolt sample log
    • Outage detection with configurable minimum duration
    • Terminal dashboard and a read-only JSON API`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !needsApp(cmd) || appInstance != nil {
			return nil
		}
		var err error
		appInstance, err = app.New(appOptions(cmd))
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

// Execute executes the root command
func Execute() {
	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when a command fails.
	closeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func closeApp() error {
	if appInstance == nil {
		return nil
	}
	err := appInstance.Close()
	appInstance = nil
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (debug logs on stderr)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "sample store path")
	rootCmd.PersistentFlags().String("driver", "", "sample store driver (sqlite, bolt, memory)")

	rootCmd.RegisterFlagCompletionFunc("driver", completeDrivers)
	rootCmd.RegisterFlagCompletionFunc("log-level", completeLogLevels)

	rootCmd.AddCommand(versionCmd)
}

// appOptions turns global flags into app options. Flags win over the config
// file and NETPULSE_* variables.
func appOptions(cmd *cobra.Command) app.Options {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	verbose, _ := flags.GetBool("verbose")
	level, _ := flags.GetString("log-level")
	db, _ := flags.GetString("db")
	driver, _ := flags.GetString("driver")
	tui := ownsTerminal(cmd)

	opts := app.Options{
		ConfigPath: path,
		Override: func(cfg *config.Config) {
			if driver != "" {
				cfg.Storage.Driver = driver
			}
			if db != "" {
				cfg.Storage.Path = db
			}
			if level != "" {
				cfg.Log.Level = level
			}
			if verbose {
				cfg.Log.Level = "debug"
				cfg.Log.Console = true
			}
			if tui {
				cfg.Log.Console = false
			}
		},
	}
	if !tui {
		opts.Console = os.Stderr
	}
	return opts
}

// needsApp reports whether cmd reads the config or the store. Shell
// completion requests and help never do.
func needsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "help":
		return false
	}
	return cmd.Annotations[annotationNoApp] != "true"
}

// ownsTerminal reports whether cmd runs the full-screen dashboard.
func ownsTerminal(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationTUI] == "true" {
		return true
	}
	if f := cmd.Flags().Lookup("tui"); f != nil {
		return f.Value.String() == "true"
	}
	return false
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{annotationNoApp: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "netpulse %s\n", version)
	},
}
