package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"netpulse/internal/config"
	"netpulse/internal/paths"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (file, environment and flags merged)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(appInstance.Config)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path, _ = paths.DefaultConfigFile()
		}
		fmt.Fprintf(out, "# config file: %s\n", path)
		if appInstance.StorePath != "" {
			fmt.Fprintf(out, "# store:       %s\n", appInstance.StorePath)
		}
		fmt.Fprintln(out)
		_, err = out.Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a config file with the default settings",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoApp: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")

		if path == "" {
			var err error
			if path, err = paths.DefaultConfigFile(); err != nil {
				return err
			}
		}

		if _, err := os.Stat(path); err == nil && !force {
			fmt.Fprintf(cmd.OutOrStdout(), "Overwrite %s? [y/N]: ", path)
			var response string
			fmt.Fscanln(cmd.InOrStdin(), &response)
			if response != "y" && response != "Y" {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		if err := config.Save(path, config.Default()); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing file without asking")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
