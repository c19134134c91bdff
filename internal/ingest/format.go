// Package ingest drives files through the intake lifecycle and hands their
// content to a format specific decode and persist step.
package ingest

import (
	"context"

	"github.com/rahulcharvekar/reconciliation-service/internal/fileutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/validation"
)

// Format is the capability an inbox family provides to the orchestrator.
type Format interface {
	Name() string
	Layout() fileutils.Layout
	Extensions() []string

	// DecodeAndPersist decodes the claimed file and records its content
	// against run, which is already stored with status NEW. Record-level
	// rejections are part of the Outcome; a returned error means the file
	// could not be processed at all and is quarantined.
	DecodeAndPersist(ctx context.Context, file IntakeFile, run *models.ImportRun) (Outcome, error)
}

// IntakeFile is a file claimed into the processing directory.
type IntakeFile struct {
	// Name is the file's original name in the inbox.
	Name string
	// Path is its current location under the processing directory.
	Path string
	Size int64
	Hash string
}

// Outcome is the result of a successful DecodeAndPersist.
type Outcome struct {
	Summary validation.Summary
	// Quarantine asks for the file to be quarantined even though its run was
	// committed.
	Quarantine bool
	Reason     string
}
