package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
)

func TestPoll_EmptyInbox(t *testing.T) {
	h := newHarness(t)
	report := h.poll(h.mt940)
	assert.Equal(t, "MT940", report.Format)
	assert.Zero(t, report.Discovered)
	assert.NotNil(t, report.Files)
	assert.Empty(t, h.runs())

	for _, dir := range []string{h.mt940.Layout().Processing, h.mt940.Layout().Archive, h.mt940.Layout().Quarantine} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPoll_IgnoresOtherExtensions(t *testing.T) {
	h := newHarness(t)
	h.drop(h.mt940, "notes.txt", "hello")
	h.drop(h.van, "statement.sta", partialMT940())

	assert.Zero(t, h.poll(h.mt940).Discovered)
	assert.Zero(t, h.poll(h.van).Discovered)
	assert.Len(t, filesUnder(t, h.mt940.Layout().Inbox), 1)
}

func TestPoll_DuplicateContentArchivedWithoutRun(t *testing.T) {
	h := newHarness(t)
	h.drop(h.mt940, "first.sta", partialMT940())
	first := h.poll(h.mt940)
	require.Equal(t, 1, first.Archived)

	h.drop(h.mt940, "second.sta", partialMT940())
	second := h.poll(h.mt940)
	assert.Equal(t, 1, second.Duplicates)
	assert.Zero(t, second.Archived)

	runs := h.runs()
	require.Len(t, runs, 1)
	assert.Equal(t, runs[0].ID, second.Files[0].RunID)
	assert.Len(t, h.store.Transactions(), 1)
	assert.Len(t, filesUnder(t, h.mt940.Layout().Archive), 2)
	assert.True(t, h.logger.HasEntry("INFO", "Duplicate file, archiving"))
}

func TestPoll_DuplicateOfFailedRun(t *testing.T) {
	h := newHarness(t)
	h.drop(h.mt940, "bad.sta", "garbage without fields\n")
	h.poll(h.mt940)

	h.drop(h.mt940, "bad-again.sta", "garbage without fields\n")
	report := h.poll(h.mt940)
	assert.Equal(t, 1, report.Duplicates, "any prior run with the same content counts")
	assert.Len(t, h.runs(), 1)
}

func TestPoll_OversizeFile(t *testing.T) {
	h := newHarness(t, func(o *Options, _ *MT940Options) { o.MaxFileSize = 64 })
	h.drop(h.mt940, "huge.sta", partialMT940())

	report := h.poll(h.mt940)
	assert.Equal(t, 1, report.Quarantined)
	assert.Contains(t, report.Files[0].Error, "exceeding")

	runs := h.runs()
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, models.StatusFailed, run.Status)
	assert.Empty(t, run.ContentHash)
	assert.Greater(t, run.FileSize, int64(64))

	errs := h.errorsFor(run.ID)
	require.Len(t, errs, 1)
	assert.Equal(t, string(parsererror.CodeFileTooLarge), errs[0].Code)

	// Oversize runs carry no hash, so they never block a later retry.
	h.drop(h.mt940, "huge.sta", partialMT940())
	assert.Equal(t, 1, h.poll(h.mt940).Quarantined)
	assert.Len(t, h.runs(), 2)
}

func TestPoll_EveryFileLeavesProcessing(t *testing.T) {
	h := newHarness(t)
	h.drop(h.mt940, "a.sta", partialMT940())
	h.drop(h.mt940, "b.sta", partialMT940())
	h.drop(h.mt940, "c.mt940", "nothing to see\n")
	h.drop(h.mt940, "d.sta", brokenMessageFile())

	report := h.poll(h.mt940)
	assert.Equal(t, 4, report.Discovered)
	assert.Equal(t, report.Discovered, report.Archived+report.Duplicates+report.Quarantined)

	assert.Empty(t, filesUnder(t, h.mt940.Layout().Inbox))
	assert.Empty(t, filesUnder(t, h.mt940.Layout().Processing))
	total := len(filesUnder(t, h.mt940.Layout().Archive)) + len(filesUnder(t, h.mt940.Layout().Quarantine))
	assert.Equal(t, 4, total)

	for _, f := range report.Files {
		assert.NotEqual(t, DispositionStuck, f.Disposition, f.File)
		assert.True(t, strings.HasPrefix(filepath.Base(f.Destination), f.File+"_"), f.Destination)
	}
}

func TestPoll_CancelledContext(t *testing.T) {
	h := newHarness(t)
	h.drop(h.mt940, "a.sta", partialMT940())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.orch.Poll(ctx, h.mt940)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, filesUnder(t, h.mt940.Layout().Inbox), 1, "nothing claimed")
}

// cancellingFormat cancels the poll just as a file's content is processed.
type cancellingFormat struct {
	Format
	cancel context.CancelFunc
}

func (f cancellingFormat) DecodeAndPersist(ctx context.Context, file IntakeFile, run *models.ImportRun) (Outcome, error) {
	f.cancel()
	return f.Format.DecodeAndPersist(ctx, file, run)
}

func TestPoll_CancelledMidFileAllowsRedrop(t *testing.T) {
	h := newHarness(t)
	h.drop(h.mt940, "statement.sta", partialMT940())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	report, _ := h.orch.Poll(ctx, cancellingFormat{Format: h.mt940, cancel: cancel})
	require.Len(t, report.Files, 1)
	assert.Equal(t, DispositionQuarantined, report.Files[0].Disposition)

	runs := h.runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.StatusFailed, runs[0].Status, "failure is recorded after cancellation")
	assert.Empty(t, runs[0].ContentHash)
	assert.Contains(t, runs[0].ErrorMessage, context.Canceled.Error())
	require.Len(t, h.errorsFor(runs[0].ID), 1)
	assert.Empty(t, h.store.Transactions())

	h.drop(h.mt940, "statement.sta", partialMT940())
	again := h.poll(h.mt940)
	assert.Equal(t, 1, again.Archived)
	assert.Zero(t, again.Duplicates)
	assert.Equal(t, models.StatusPartial, again.Files[0].Status)
	assert.Len(t, h.store.Transactions(), 1)
}

func TestProcessFile_VanishedBeforeClaim(t *testing.T) {
	h := newHarness(t)
	layout := h.mt940.Layout()
	require.NoError(t, layout.Ensure())

	res := h.orch.processFile(context.Background(), h.mt940, layout, filepath.Join(layout.Inbox, "gone.sta"))
	assert.Equal(t, DispositionSkipped, res.Disposition)
	assert.Zero(t, res.RunID)
	assert.Empty(t, res.Error)
	assert.Empty(t, h.runs())
	assert.Empty(t, filesUnder(t, layout.Quarantine))
	assert.True(t, h.logger.HasEntry("INFO", "File claimed elsewhere, skipping"))
}
