package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/sbgecom/internal/config"
	"github.com/muurk/sbgecom/internal/ui"
)

var (
	configPath  string
	configForce bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configCmd.PersistentFlags().StringVar(&configPath, "file", "", "Configuration file (default: the user configuration directory)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage connection profiles and bridge settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with example profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if !configForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
		if err := config.DefaultRegistry().SaveTo(path); err != nil {
			return err
		}
		return report(cmd, "configuration written", map[string]string{"path": path},
			ui.Field{Key: "Path", Value: path},
			ui.Field{Key: "Next", Value: "edit the serial and ethernet profiles"})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration in effect",
	Long: `Print the configuration file with environment overrides applied.
A missing file shows the built-in defaults.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		reg, err := config.LoadFrom(path)
		if err != nil {
			return err
		}
		reg.ApplyEnv()

		if opts.format == formatJSON {
			return printJSON(cmd.OutOrStdout(), reg)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
		return enc.Encode(reg)
	},
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}
