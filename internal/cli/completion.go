package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"netpulse/internal/config"
	"netpulse/internal/probe"
	"netpulse/internal/query"
)

func filterPrefix(options []string, toComplete string) []string {
	var completions []string
	for _, o := range options {
		if strings.HasPrefix(strings.ToLower(o), strings.ToLower(toComplete)) {
			completions = append(completions, o)
		}
	}
	return completions
}

// completeWindows provides completion for --window flags.
func completeWindows(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	options := make([]string, len(query.Windows))
	for i, w := range query.Windows {
		options[i] = w.String()
	}
	return filterPrefix(options, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeStrategies provides completion for --strategy flags.
func completeStrategies(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(probe.Strategies, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDrivers provides completion for --driver.
func completeDrivers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(config.Drivers, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeLogLevels provides completion for --log-level.
func completeLogLevels(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix([]string{"debug", "info", "warn", "error"}, toComplete), cobra.ShellCompDirectiveNoFileComp
}
