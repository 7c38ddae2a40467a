package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"netpulse/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the dashboard against the configured store",
	Long: `Launch the full-screen dashboard in read-only mode. Use it next to a running
"netpulse run"; with the bolt driver the store is locked by the monitor, so
prefer sqlite when watching from a second process.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationTUI: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tui.NewProgram(tui.Deps{
			Queries:   appInstance.Queries,
			Dashboard: appInstance.Config.Dashboard,
		})
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
