package common

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/internal/ingest"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

func init() {
	color.NoColor = true
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, ingest.PollReport{
		Format: "MT940", Discovered: 2, Archived: 1, Quarantined: 1,
		Files: []ingest.FileResult{
			{File: "a.sta", Disposition: ingest.DispositionArchived, RunID: 4, Status: models.StatusPartial, Processed: 1, Failed: 1},
			{File: "b.sta", Disposition: ingest.DispositionQuarantined, Error: "decode failed"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "MT940 poll: 2 discovered, 1 archived, 0 duplicate, 1 quarantined")
	assert.Contains(t, out, "ARCHIVED    a.sta run=4 PARTIAL processed=1 failed=1")
	assert.Contains(t, out, "QUARANTINED b.sta (decode failed)")
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintRuns(&buf, nil))
	assert.Equal(t, "No import runs recorded.\n", buf.String())

	buf.Reset()
	require.NoError(t, PrintRuns(&buf, []models.ImportRun{{
		ID: 3, FileType: models.FileTypeVAN, Status: models.StatusImported, Filename: "feed.csv",
		ReceivedAt: time.Date(2024, 3, 7, 9, 30, 0, 0, time.UTC), TotalRecords: 2, ProcessedRecords: 2,
	}}))
	assert.Contains(t, buf.String(), "ID")
	assert.Contains(t, buf.String(), "2024-03-07 09:30:00")
	assert.Contains(t, buf.String(), "feed.csv")
}

func TestPrintErrors(t *testing.T) {
	var buf bytes.Buffer
	PrintErrors(&buf, models.ImportRun{ID: 1, Filename: "x"}, nil)
	assert.Empty(t, buf.String())

	PrintErrors(&buf, models.ImportRun{ID: 1, Filename: "feed.csv"}, []models.ImportError{
		{Code: "MISSING_VIRTUAL_ACCOUNT", LineNo: 3, Message: "virtual account number is empty"},
		{Code: "FILE_TOO_LARGE", Message: "too big"},
	})
	out := buf.String()
	assert.Contains(t, out, "Run 1 (feed.csv):")
	assert.Contains(t, out, "line 3")
	assert.Contains(t, out, "line -")
}

func TestStatusColor(t *testing.T) {
	assert.Same(t, green, StatusColor(models.StatusImported))
	assert.Same(t, red, StatusColor(models.StatusFailed))
	assert.Same(t, bold, StatusColor(models.StatusNew))
}
