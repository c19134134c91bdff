// Package van holds the command that runs one VAN feed poll cycle.
package van

import (
	"github.com/spf13/cobra"

	"github.com/rahulcharvekar/reconciliation-service/cmd/common"
	"github.com/rahulcharvekar/reconciliation-service/cmd/root"
)

// Cmd represents the van command
var Cmd = &cobra.Command{
	Use:   "van",
	Short: "Ingest the VAN credit feeds waiting in the inbox",
	Long: `Process every stable .csv file in the VAN inbox once.

Rows failing validation are recorded as import errors against the run; the
file itself is archived unless it could not be read at all.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := root.GetContainer().GetService().PollVAN(cmd.Context())
		if err != nil {
			return err
		}
		common.PrintReport(cmd.OutOrStdout(), report)
		return nil
	},
}
