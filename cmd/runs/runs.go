// Package runs holds the command listing recent import runs.
package runs

import (
	"github.com/spf13/cobra"

	"github.com/rahulcharvekar/reconciliation-service/cmd/common"
	"github.com/rahulcharvekar/reconciliation-service/cmd/root"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
)

var (
	limit      int
	showErrors bool
)

// Cmd represents the runs command
var Cmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent import runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := root.GetContainer().GetService()
		recent, err := svc.RecentRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := common.PrintRuns(out, recent); err != nil {
			return err
		}
		if !showErrors {
			return nil
		}
		for _, run := range recent {
			errs, err := svc.RunErrors(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			common.PrintErrors(out, run, errs)
		}
		return nil
	},
}

func init() {
	Cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultListLimit, "Number of runs to show")
	Cmd.Flags().BoolVarP(&showErrors, "errors", "e", false, "Also print the import errors of each run")
}
