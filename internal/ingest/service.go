package ingest

import (
	"context"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
)

// Service is the entry point used by the CLI, the HTTP triggers and the
// scheduler.
type Service struct {
	orchestrator *Orchestrator
	store        store.Store
	mt940        Format
	van          Format
}

// NewService wires the two pipelines behind one facade.
func NewService(o *Orchestrator, st store.Store, mt940Format, vanFormat Format) *Service {
	return &Service{orchestrator: o, store: st, mt940: mt940Format, van: vanFormat}
}

// PollMT940 runs one MT940 poll cycle.
func (s *Service) PollMT940(ctx context.Context) (PollReport, error) {
	return s.orchestrator.Poll(ctx, s.mt940)
}

// PollVAN runs one VAN poll cycle.
func (s *Service) PollVAN(ctx context.Context) (PollReport, error) {
	return s.orchestrator.Poll(ctx, s.van)
}

// RecentRuns lists the latest import runs, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	return s.store.ListImportRuns(ctx, limit)
}

// RunErrors lists the ImportErrors recorded for a run.
func (s *Service) RunErrors(ctx context.Context, runID int64) ([]models.ImportError, error) {
	return s.store.ListImportErrors(ctx, runID)
}
