package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rahulcharvekar/reconciliation-service/internal/fileutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
)

// Clock returns the current time.
type Clock func() time.Time

// Options tune the orchestrator. A zero MaxFileSize or nil Clock selects the
// default; a zero StabilityWindow skips the wait, a negative one selects the
// default.
type Options struct {
	StabilityWindow time.Duration
	MaxFileSize     int64
	Clock           Clock
}

// Orchestrator runs the per-file state machine
// DISCOVERED -> PROCESSING -> ARCHIVED | QUARANTINED for any Format.
type Orchestrator struct {
	store           store.Store
	logger          logging.Logger
	stabilityWindow time.Duration
	maxFileSize     int64
	now             Clock
}

// NewOrchestrator creates an orchestrator over st.
func NewOrchestrator(st store.Store, logger logging.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = fileutils.DefaultMaxFileSize
	}
	if opts.StabilityWindow < 0 {
		opts.StabilityWindow = fileutils.DefaultStabilityWindow
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Orchestrator{
		store:           st,
		logger:          logger,
		stabilityWindow: opts.StabilityWindow,
		maxFileSize:     opts.MaxFileSize,
		now:             opts.Clock,
	}
}

// Poll processes every stable file in the format's inbox, one at a time.
// Per-file failures are contained in the report; only a failure to prepare
// or list the inbox is returned as an error.
func (o *Orchestrator) Poll(ctx context.Context, f Format) (PollReport, error) {
	report := PollReport{Format: f.Name(), Files: []FileResult{}}
	layout := f.Layout()
	if err := layout.Ensure(); err != nil {
		return report, err
	}

	files, err := fileutils.DiscoverStableFiles(ctx, layout.Inbox, f.Extensions(), o.stabilityWindow)
	if err != nil {
		return report, fmt.Errorf("discovering %s files: %w", f.Name(), err)
	}
	report.Discovered = len(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.add(o.processFile(ctx, f, layout, path))
	}

	o.logger.Info("Poll completed",
		logging.F(logging.FieldFormat, f.Name()),
		logging.F("discovered", report.Discovered),
		logging.F("archived", report.Archived),
		logging.F("duplicates", report.Duplicates),
		logging.F("quarantined", report.Quarantined))
	return report, nil
}

func (o *Orchestrator) processFile(ctx context.Context, f Format, layout fileutils.Layout, inboxPath string) FileResult {
	name := filepath.Base(inboxPath)
	log := o.logger.WithFields(logging.F(logging.FieldFile, name), logging.F(logging.FieldFormat, f.Name()))
	received := o.now()
	result := FileResult{File: name}
	log.Info("Discovered file")

	path, err := fileutils.MoveToProcessing(inboxPath, layout.Processing)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("File claimed elsewhere, skipping")
		result.Disposition = DispositionSkipped
		return result
	}
	if err != nil {
		log.WithError(err).Error("Failed to claim file")
		run := o.recordRejectedFile(ctx, log, f, name, 0, received, parsererror.CodeIOError, err)
		return o.quarantine(log, result, run, inboxPath, layout.Quarantine, "claim failed", err)
	}
	log.Debug("Moved to processing", logging.F(logging.FieldDestination, path))

	info, err := os.Stat(path)
	if err != nil {
		run := o.recordRejectedFile(ctx, log, f, name, 0, received, parsererror.CodeIOError, err)
		return o.quarantine(log, result, run, path, layout.Quarantine, "stat failed", err)
	}
	if info.Size() > o.maxFileSize {
		tooLarge := &parsererror.FileTooLargeError{Path: name, Size: info.Size(), Limit: o.maxFileSize}
		run := o.recordRejectedFile(ctx, log, f, name, info.Size(), received, parsererror.CodeFileTooLarge, tooLarge)
		return o.quarantine(log, result, run, path, layout.Quarantine, "file too large", tooLarge)
	}

	hash, err := fileutils.ComputeContentHash(path)
	if err != nil {
		run := o.recordRejectedFile(ctx, log, f, name, info.Size(), received, parsererror.CodeIOError, err)
		return o.quarantine(log, result, run, path, layout.Quarantine, "hash failed", err)
	}
	log = log.WithField(logging.FieldHash, hash)

	if prior, err := o.store.FindImportRunByHash(ctx, hash); err == nil {
		log.Info("Duplicate file, archiving", logging.F(logging.FieldRunID, prior.ID))
		return o.archiveDuplicate(log, result, prior, path, layout.Archive)
	} else if !errors.Is(err, store.ErrNotFound) {
		log.WithError(err).Error("Duplicate lookup failed")
		return o.quarantine(log, result, nil, path, layout.Quarantine, "duplicate lookup failed", err)
	}

	run := &models.ImportRun{
		Filename:    name,
		ContentHash: hash,
		FileSize:    info.Size(),
		ReceivedAt:  received,
		FileType:    models.FileType(f.Name()),
		Status:      models.StatusNew,
	}
	err = o.store.WithinTx(ctx, func(tx store.Tx) error { return tx.CreateImportRun(ctx, run) })
	if errors.Is(err, store.ErrDuplicate) {
		// Another poll claimed the same content between lookup and insert.
		log.Info("Duplicate file claimed concurrently, archiving")
		return o.archiveDuplicate(log, result, models.ImportRun{}, path, layout.Archive)
	}
	if err != nil {
		log.WithError(err).Error("Failed to create import run")
		return o.quarantine(log, result, nil, path, layout.Quarantine, "import run not created", err)
	}
	log = log.WithField(logging.FieldRunID, run.ID)

	intake := IntakeFile{Name: name, Path: path, Size: info.Size(), Hash: hash}
	outcome, err := f.DecodeAndPersist(ctx, intake, run)
	if err != nil {
		log.WithError(err).Error("File processing failed")
		o.failRun(ctx, log, run, err)
		return o.quarantine(log, result, run, path, layout.Quarantine, "processing failed", err)
	}

	result.Processed, result.Failed = outcome.Summary.Processed, outcome.Summary.Failed
	log.Info("File processed",
		logging.F(logging.FieldStatus, run.Status),
		logging.F("processed", outcome.Summary.Processed),
		logging.F("failed", outcome.Summary.Failed))

	if outcome.Quarantine {
		return o.quarantine(log, result, run, path, layout.Quarantine, outcome.Reason, nil)
	}
	return o.archive(log, result, run, path, layout.Archive)
}

// recordRejectedFile stores a FAILED run without hash for a file rejected
// before deduplication, together with its ImportError. The record is written
// even if ctx has been cancelled.
func (o *Orchestrator) recordRejectedFile(ctx context.Context, log logging.Logger, f Format, name string, size int64,
	received time.Time, code parsererror.Code, cause error) *models.ImportRun {
	ctx = context.WithoutCancel(ctx)
	run := &models.ImportRun{
		Filename:     name,
		FileSize:     size,
		ReceivedAt:   received,
		FileType:     models.FileType(f.Name()),
		Status:       models.StatusFailed,
		ErrorMessage: cause.Error(),
	}
	err := o.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.CreateImportRun(ctx, run); err != nil {
			return err
		}
		return tx.CreateImportError(ctx, &models.ImportError{
			ImportRunID: run.ID,
			Code:        string(code),
			Message:     cause.Error(),
			CreatedAt:   o.now(),
		})
	})
	if err != nil {
		log.WithError(err).Error("Failed to record rejected file")
		return nil
	}
	return run
}

// failRun marks run FAILED after an unhandled processing error. The record
// is written even if ctx has been cancelled. A run interrupted by
// cancellation releases its content hash so the file can be dropped again.
func (o *Orchestrator) failRun(ctx context.Context, log logging.Logger, run *models.ImportRun, cause error) {
	ctx = context.WithoutCancel(ctx)
	run.Status = models.StatusFailed
	run.ErrorMessage = cause.Error()
	if interrupted(cause) {
		run.ContentHash = ""
	}
	err := o.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.UpdateImportRun(ctx, run); err != nil {
			return err
		}
		return tx.CreateImportError(ctx, &models.ImportError{
			ImportRunID: run.ID,
			Code:        string(parsererror.CodeOf(cause)),
			Message:     cause.Error(),
			CreatedAt:   o.now(),
		})
	})
	if err != nil {
		log.WithError(err).Error("Failed to record run failure")
	}
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func withRun(result FileResult, run *models.ImportRun) FileResult {
	if run != nil {
		result.RunID = run.ID
		result.Status = run.Status
	}
	return result
}

func (o *Orchestrator) quarantine(log logging.Logger, result FileResult, run *models.ImportRun, path, dir, reason string, cause error) FileResult {
	result = withRun(result, run)
	if cause != nil {
		result.Error = cause.Error()
	}
	dest, err := fileutils.MoveToQuarantine(path, dir, reason)
	if err != nil {
		log.WithError(err).Error("Failed to quarantine file", logging.F(logging.FieldReason, reason))
		result.Disposition = DispositionStuck
		result.Error = err.Error()
		return result
	}
	log.Warn("Quarantined file", logging.F(logging.FieldReason, reason), logging.F(logging.FieldDestination, dest))
	result.Disposition = DispositionQuarantined
	result.Destination = dest
	return result
}

func (o *Orchestrator) archive(log logging.Logger, result FileResult, run *models.ImportRun, path, dir string) FileResult {
	result = withRun(result, run)
	dest, err := fileutils.MoveToArchive(path, dir, o.now())
	if err != nil {
		log.WithError(err).Error("Failed to archive file")
		result.Disposition = DispositionStuck
		result.Error = err.Error()
		return result
	}
	log.Info("Archived file", logging.F(logging.FieldDestination, dest))
	result.Disposition = DispositionArchived
	result.Destination = dest
	return result
}

func (o *Orchestrator) archiveDuplicate(log logging.Logger, result FileResult, prior models.ImportRun, path, dir string) FileResult {
	result = o.archive(log, result, nil, path, dir)
	if result.Disposition == DispositionArchived {
		result.Disposition = DispositionDuplicate
	}
	result.RunID = prior.ID
	return result
}
