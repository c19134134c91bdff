package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/internal/fileutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
	"github.com/rahulcharvekar/reconciliation-service/internal/validation"
	"github.com/rahulcharvekar/reconciliation-service/internal/vanparser"
)

var fixedNow = time.Date(2024, time.March, 7, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type harness struct {
	t      *testing.T
	store  *store.Memory
	logger *logging.MockLogger
	orch   *Orchestrator
	mt940  *MT940Format
	van    *VANFormat
}

func newLayout(root string) fileutils.Layout {
	return fileutils.Layout{
		Inbox:      filepath.Join(root, "inbox"),
		Processing: filepath.Join(root, "processing"),
		Archive:    filepath.Join(root, "archive"),
		Quarantine: filepath.Join(root, "quarantine"),
	}
}

func newHarness(t *testing.T, opts ...func(*Options, *MT940Options)) *harness {
	t.Helper()
	root := t.TempDir()
	st := store.NewMemory()
	logger := logging.NewMockLogger()

	orchOpts := Options{StabilityWindow: 0, MaxFileSize: 1 << 20, Clock: fixedClock}
	mtOpts := MT940Options{
		Layout:                       newLayout(filepath.Join(root, "mt940")),
		Tolerance:                    validation.DefaultTolerance,
		QuarantineOnStatementFailure: true,
		Clock:                        fixedClock,
	}
	for _, o := range opts {
		o(&orchOpts, &mtOpts)
	}

	return &harness{
		t:      t,
		store:  st,
		logger: logger,
		orch:   NewOrchestrator(st, logger, orchOpts),
		mt940:  NewMT940Format(st, logger, mtOpts),
		van:    NewVANFormat(st, logger, newLayout(filepath.Join(root, "van")), fixedClock),
	}
}

func (h *harness) drop(f Format, name, content string) {
	h.t.Helper()
	dir := f.Layout().Inbox
	require.NoError(h.t, os.MkdirAll(dir, 0o755))
	require.NoError(h.t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func (h *harness) poll(f Format) PollReport {
	h.t.Helper()
	report, err := h.orch.Poll(context.Background(), f)
	require.NoError(h.t, err)
	return report
}

func (h *harness) runs() []models.ImportRun {
	h.t.Helper()
	runs, err := h.store.ListImportRuns(context.Background(), 100)
	require.NoError(h.t, err)
	return runs
}

func (h *harness) errorsFor(runID int64) []models.ImportError {
	h.t.Helper()
	errs, err := h.store.ListImportErrors(context.Background(), runID)
	require.NoError(h.t, err)
	return errs
}

// filesUnder lists regular files below dir, recursively.
func filesUnder(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.Mode().IsRegular() {
			out = append(out, path)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

// mt940Message renders one enveloped statement.
func mt940Message(ref, opening string, lines []string, closing string) string {
	var sb strings.Builder
	sb.WriteString("{1:F01BANKDEFFAXXX0000000000}{2:I940BANKDEFFXXXXN}{4:\n")
	sb.WriteString(":20:" + ref + "\n")
	sb.WriteString(":25:BANKDEFF/DE89370400440532013000\n")
	sb.WriteString(":28C:1/1\n")
	sb.WriteString(":60F:" + opening + "\n")
	for _, l := range lines {
		sb.WriteString(l + "\n")
	}
	sb.WriteString(":62F:" + closing + "\n")
	sb.WriteString("-}\n")
	return sb.String()
}

// partialMT940 is the two statement file whose second statement does not
// reconcile by 5.00.
func partialMT940() string {
	return mt940Message("STMT1", "C240306EUR100,00",
		[]string{":61:2403060306C50,00NTRFINV-1//BANK-1", ":86:/EREF/E2E-1/REMI/Invoice 1"},
		"C240306EUR150,00") +
		mt940Message("STMT2", "C240306EUR100,00",
			[]string{":61:240306C50,00NTRFINV-2//BANK-2", ":86:Invoice 2"},
			"C240306EUR155,00")
}

func vanCSV(t *testing.T, rows ...map[string]string) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(csvLine(vanparser.Headers))
	for _, r := range rows {
		rec := make([]string, len(vanparser.Headers))
		for i, h := range vanparser.Headers {
			rec[i] = r[h]
		}
		sb.WriteString(csvLine(rec))
	}
	return sb.String()
}

func csvLine(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",") + "\n"
}

func vanRow(van, amount string) map[string]string {
	return map[string]string{
		vanparser.HeaderMainAccount:     "50200012345678",
		vanparser.HeaderVirtualAccount:  van,
		vanparser.HeaderTransactionRef:  "UTR-" + van,
		vanparser.HeaderTransactionDate: "2024-03-06",
		vanparser.HeaderValueDate:       "2024-03-06",
		vanparser.HeaderAmount:          amount,
		vanparser.HeaderChannel:         "IMPS",
		vanparser.HeaderCreditedAt:      "2024-03-06 11:00:00",
	}
}
