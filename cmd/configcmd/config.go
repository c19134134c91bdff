// Package configcmd holds the configuration helper commands.
package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rahulcharvekar/reconciliation-service/cmd/root"
	"github.com/rahulcharvekar/reconciliation-service/internal/config"
)

var force bool

// Cmd represents the config command
var Cmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage the configuration file",
	Annotations: map[string]string{root.SkipContainer: "true"},
}

var initCmd = &cobra.Command{
	Use:         "init [path]",
	Short:       "Write the default configuration as YAML",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{root.SkipContainer: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:         "validate",
	Short:       "Load and validate the configuration without starting anything",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{root.SkipContainer: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := root.LoadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (store driver %s, MT940 inbox %s, VAN inbox %s)\n",
			cfg.Store.Driver, cfg.MT940.InboxDir, cfg.VAN.InboxDir)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	Cmd.AddCommand(initCmd, validateCmd)
}
