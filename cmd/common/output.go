// Package common contains shared functionality for command handlers
package common

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/rahulcharvekar/reconciliation-service/internal/ingest"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

// StatusColor picks the colour of a run status.
func StatusColor(s models.RunStatus) *color.Color {
	switch s {
	case models.StatusImported:
		return green
	case models.StatusPartial:
		return yellow
	case models.StatusFailed:
		return red
	default:
		return bold
	}
}

func dispositionColor(d ingest.Disposition) *color.Color {
	switch d {
	case ingest.DispositionArchived, ingest.DispositionDuplicate:
		return green
	case ingest.DispositionQuarantined:
		return yellow
	default:
		return red
	}
}

// PrintReport writes a poll report: a summary line, then one line per file.
func PrintReport(w io.Writer, r ingest.PollReport) {
	bold.Fprintf(w, "%s poll: ", r.Format)
	fmt.Fprintf(w, "%d discovered, %d archived, %d duplicate, %d quarantined\n",
		r.Discovered, r.Archived, r.Duplicates, r.Quarantined)

	for _, f := range r.Files {
		dispositionColor(f.Disposition).Fprintf(w, "  %-11s ", f.Disposition)
		fmt.Fprintf(w, "%s", f.File)
		if f.RunID != 0 {
			fmt.Fprintf(w, " run=%d", f.RunID)
		}
		if f.Status != "" {
			fmt.Fprint(w, " ")
			StatusColor(f.Status).Fprint(w, f.Status)
			fmt.Fprintf(w, " processed=%d failed=%d", f.Processed, f.Failed)
		}
		if f.Error != "" {
			red.Fprintf(w, " (%s)", f.Error)
		}
		fmt.Fprintln(w)
	}
}

// PrintRuns writes a table of import runs.
func PrintRuns(w io.Writer, runs []models.ImportRun) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No import runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tRECEIVED\tTOTAL\tOK\tFAILED\tFILE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.FileType, StatusColor(r.Status).Sprint(r.Status),
			r.ReceivedAt.Format("2006-01-02 15:04:05"),
			r.TotalRecords, r.ProcessedRecords, r.FailedRecords, r.Filename)
	}
	return tw.Flush()
}

// PrintErrors writes the ImportErrors of one run.
func PrintErrors(w io.Writer, run models.ImportRun, errs []models.ImportError) {
	if len(errs) == 0 {
		return
	}
	bold.Fprintf(w, "Run %d (%s):\n", run.ID, run.Filename)
	for _, e := range errs {
		line := "-"
		if e.LineNo > 0 {
			line = fmt.Sprint(e.LineNo)
		}
		red.Fprintf(w, "  %-22s", e.Code)
		fmt.Fprintf(w, " line %-5s %s\n", line, e.Message)
	}
}
