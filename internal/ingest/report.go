package ingest

import (
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

// Disposition is where a file ended up after a poll.
type Disposition string

const (
	DispositionArchived    Disposition = "ARCHIVED"
	DispositionDuplicate   Disposition = "DUPLICATE"
	DispositionQuarantined Disposition = "QUARANTINED"
	// DispositionSkipped means the file left the inbox before it could be
	// claimed and no run was recorded.
	DispositionSkipped Disposition = "SKIPPED"
	// DispositionStuck means a final move failed and the file is still in
	// the processing directory.
	DispositionStuck Disposition = "PROCESSING"
)

// FileResult describes one file handled by a poll.
type FileResult struct {
	File        string           `json:"file"`
	Disposition Disposition      `json:"disposition"`
	Destination string           `json:"destination,omitempty"`
	RunID       int64            `json:"run_id,omitempty"`
	Status      models.RunStatus `json:"status,omitempty"`
	Processed   int              `json:"processed"`
	Failed      int              `json:"failed"`
	Error       string           `json:"error,omitempty"`
}

// PollReport summarises one poll cycle of one format.
type PollReport struct {
	Format      string       `json:"format"`
	Discovered  int          `json:"discovered"`
	Archived    int          `json:"archived"`
	Duplicates  int          `json:"duplicates"`
	Quarantined int          `json:"quarantined"`
	Files       []FileResult `json:"files"`
}

func (r *PollReport) add(res FileResult) {
	switch res.Disposition {
	case DispositionArchived:
		r.Archived++
	case DispositionDuplicate:
		r.Duplicates++
	case DispositionQuarantined:
		r.Quarantined++
	}
	r.Files = append(r.Files, res)
}
