// Package mt940 holds the command that runs one MT940 poll cycle.
package mt940

import (
	"github.com/spf13/cobra"

	"github.com/rahulcharvekar/reconciliation-service/cmd/common"
	"github.com/rahulcharvekar/reconciliation-service/cmd/root"
)

// Cmd represents the mt940 command
var Cmd = &cobra.Command{
	Use:   "mt940",
	Short: "Ingest the MT940 statements waiting in the inbox",
	Long: `Process every stable .mt940, .sta and .zip file in the MT940 inbox once.

Each file is claimed, deduplicated by content hash, decoded and validated
statement by statement, then archived under archive/YYYY/MM/DD or moved to
quarantine.

Example:
  reconciliation-service mt940 --config config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := root.GetContainer().GetService().PollMT940(cmd.Context())
		if err != nil {
			return err
		}
		common.PrintReport(cmd.OutOrStdout(), report)
		return nil
	},
}
