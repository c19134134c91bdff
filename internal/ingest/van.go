package ingest

import (
	"context"
	"time"

	"github.com/rahulcharvekar/reconciliation-service/internal/fileutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
	"github.com/rahulcharvekar/reconciliation-service/internal/validation"
	"github.com/rahulcharvekar/reconciliation-service/internal/vanparser"
)

// VANFormat is the virtual account credit feed pipeline. Rejected rows are
// recorded on the run and never quarantine the file.
type VANFormat struct {
	store  store.Store
	logger logging.Logger
	layout fileutils.Layout
	now    Clock
}

var _ Format = (*VANFormat)(nil)

// NewVANFormat creates the VAN pipeline writing to st.
func NewVANFormat(st store.Store, logger logging.Logger, layout fileutils.Layout, clock Clock) *VANFormat {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if clock == nil {
		clock = time.Now
	}
	return &VANFormat{store: st, logger: logger, layout: layout, now: clock}
}

func (f *VANFormat) Name() string { return string(models.FileTypeVAN) }
func (f *VANFormat) Layout() fileutils.Layout { return f.layout }
func (f *VANFormat) Extensions() []string { return vanparser.FileExtensions }

func (f *VANFormat) DecodeAndPersist(ctx context.Context, file IntakeFile, run *models.ImportRun) (Outcome, error) {
	log := f.logger.WithFields(logging.F(logging.FieldFile, file.Name), logging.F(logging.FieldRunID, run.ID))

	rows, err := vanparser.ParseFile(file.Path, log)
	if err != nil {
		return Outcome{}, err
	}

	summary := validation.NewSummary(len(rows))
	// run only takes the staged state once the transaction commits.
	staged := *run
	err = f.store.WithinTx(ctx, func(tx store.Tx) error {
		staged.Status = models.StatusParsed
		staged.TotalRecords = len(rows)
		if err := tx.UpdateImportRun(ctx, &staged); err != nil {
			return err
		}

		for i, row := range rows {
			if err := validation.ValidateVANRow(row); err != nil {
				code := parsererror.CodeOf(err)
				summary = summary.Reject(validation.RecordError{
					Index:   i + 1,
					LineNo:  row.LineNo,
					Code:    code,
					Message: err.Error(),
				})
				log.Warn("VAN row rejected", logging.F(logging.FieldLine, row.LineNo), logging.F(logging.FieldCode, code))
				if err := tx.CreateImportError(ctx, &models.ImportError{
					ImportRunID: staged.ID,
					LineNo:      row.LineNo,
					Code:        string(code),
					Message:     err.Error(),
					CreatedAt:   f.now(),
				}); err != nil {
					return err
				}
				continue
			}

			txn := row.Transaction(staged.ID)
			if err := tx.CreateVANTransaction(ctx, &txn); err != nil {
				return err
			}
			summary = summary.Accept()
		}

		finishRun(&staged, summary, "rows")
		return tx.UpdateImportRun(ctx, &staged)
	})
	if err != nil {
		return Outcome{}, err
	}
	*run = staged
	return Outcome{Summary: summary}, nil
}
