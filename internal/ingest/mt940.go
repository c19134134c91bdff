package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahulcharvekar/reconciliation-service/internal/fileutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/mt940"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
	"github.com/rahulcharvekar/reconciliation-service/internal/validation"
)

// MT940Options configure the MT940 pipeline.
type MT940Options struct {
	Layout    fileutils.Layout
	Tolerance decimal.Decimal
	// MaxArchiveSize caps the uncompressed size of zip members.
	MaxArchiveSize int64
	// QuarantineOnStatementFailure quarantines a committed file when any of
	// its statements failed to decode or persist.
	QuarantineOnStatementFailure bool
	Clock                        Clock
}

// MT940Format is the SWIFT MT940 pipeline.
type MT940Format struct {
	store  store.Store
	logger logging.Logger
	opts   MT940Options
}

var _ Format = (*MT940Format)(nil)

// NewMT940Format creates the MT940 pipeline writing to st.
func NewMT940Format(st store.Store, logger logging.Logger, opts MT940Options) *MT940Format {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if opts.MaxArchiveSize <= 0 {
		opts.MaxArchiveSize = fileutils.DefaultMaxFileSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &MT940Format{store: st, logger: logger, opts: opts}
}

func (f *MT940Format) Name() string { return string(models.FileTypeMT940) }
func (f *MT940Format) Layout() fileutils.Layout { return f.opts.Layout }
func (f *MT940Format) Extensions() []string { return mt940.FileExtensions }

// PersistedStatement is a stored statement with its stored transactions.
type PersistedStatement struct {
	File         models.StatementFile
	Transactions []models.StatementTransaction
}

// messageResult is the fate of one decoded message.
type messageResult struct {
	persisted *PersistedStatement
	rejection *validation.RecordError
	// fatal marks failures other than business rule rejections.
	fatal bool
}

// DecodeAndPersist decodes every message of the file and stores each valid
// statement inside its own savepoint of a single transaction, so one bad
// statement never leaves partial rows behind nor blocks its siblings.
func (f *MT940Format) DecodeAndPersist(ctx context.Context, file IntakeFile, run *models.ImportRun) (Outcome, error) {
	log := f.logger.WithFields(logging.F(logging.FieldFile, file.Name), logging.F(logging.FieldRunID, run.ID))

	data, err := os.ReadFile(file.Path)
	if err != nil {
		return Outcome{}, fmt.Errorf("reading %s: %w", file.Name, err)
	}
	messages, err := mt940.DecodeFile(file.Name, data, f.opts.MaxArchiveSize)
	if err != nil {
		return Outcome{}, err
	}

	summary := validation.NewSummary(len(messages))
	flagged := false

	// run only takes the staged state once the transaction commits.
	staged := *run
	err = f.store.WithinTx(ctx, func(tx store.Tx) error {
		staged.Status = models.StatusParsed
		staged.TotalRecords = len(messages)
		if err := tx.UpdateImportRun(ctx, &staged); err != nil {
			return err
		}

		for _, msg := range messages {
			res := f.processMessage(ctx, tx, &staged, msg)
			if res.rejection == nil {
				summary = summary.Accept()
				log.Debug("Statement stored",
					logging.F(logging.FieldStatementRef, msg.Statement.Reference),
					logging.F(logging.FieldCount, len(res.persisted.Transactions)))
				continue
			}

			summary = summary.Reject(*res.rejection)
			flagged = flagged || res.fatal
			log.Warn("Statement rejected",
				logging.F(logging.FieldMessage, msg.Index),
				logging.F(logging.FieldStatementRef, msg.Statement.Reference),
				logging.F(logging.FieldCode, res.rejection.Code),
				logging.F(logging.FieldReason, res.rejection.Message))
			if err := tx.CreateImportError(ctx, &models.ImportError{
				ImportRunID: staged.ID,
				LineNo:      res.rejection.LineNo,
				Code:        string(res.rejection.Code),
				Message:     res.rejection.Message,
				CreatedAt:   f.opts.Clock(),
			}); err != nil {
				return err
			}
		}

		finishRun(&staged, summary, "statements")
		return tx.UpdateImportRun(ctx, &staged)
	})
	if err != nil {
		return Outcome{}, err
	}
	*run = staged

	outcome := Outcome{Summary: summary}
	if flagged && f.opts.QuarantineOnStatementFailure {
		outcome.Quarantine = true
		outcome.Reason = "statement decode or persistence failure"
	}
	return outcome, nil
}

func (f *MT940Format) processMessage(ctx context.Context, tx store.Tx, run *models.ImportRun, msg mt940.DecodedMessage) messageResult {
	reject := func(code parsererror.Code, err error, fatal bool) messageResult {
		return messageResult{
			fatal: fatal,
			rejection: &validation.RecordError{
				Index:   msg.Index,
				LineNo:  msg.Line,
				Code:    code,
				Message: fmt.Sprintf("%s message #%d: %v", msg.Source, msg.Index, err),
			},
		}
	}

	if msg.Err != nil {
		return reject(parsererror.CodeDecodeError, msg.Err, true)
	}

	validated, err := validation.ValidateStatement(msg.Statement, f.opts.Tolerance)
	if err != nil {
		return reject(parsererror.CodeOf(err), err, false)
	}

	var persisted PersistedStatement
	err = tx.Savepoint(ctx, func() error {
		var err error
		persisted, err = persistStatement(ctx, tx, run.ID, validated)
		return err
	})
	if err != nil {
		var ve *parsererror.ValidationError
		if errors.As(err, &ve) {
			return reject(ve.Code, err, false)
		}
		return reject(parsererror.CodePersistenceError, err, true)
	}
	return messageResult{persisted: &persisted}
}

// persistStatement writes the statement graph. Unique violations on the
// statement or a transaction fingerprint come back as validation errors.
func persistStatement(ctx context.Context, tx store.Tx, runID int64, v validation.ValidatedStatement) (PersistedStatement, error) {
	stmt := v.Statement

	account, err := tx.FindOrCreateBankAccount(ctx, accountSeed(stmt.Account, stmt.Currency))
	if err != nil {
		return PersistedStatement{}, err
	}

	sf := models.StatementFile{
		ImportRunID:   runID,
		BankAccountID: account.ID,
		StatementRef:  stmt.Reference,
		Sequence:      stmt.Sequence,
		StatementDate: stmt.Closing.Date,
		Currency:      stmt.Currency,
		OpeningDC:     stmt.Opening.DC,
		OpeningAmount: stmt.Opening.Amount.Decimal,
		ClosingDC:     stmt.Closing.DC,
		ClosingAmount: stmt.Closing.Amount.Decimal,
		IsInterim:     stmt.Interim,
	}
	if err := tx.CreateStatementFile(ctx, &sf); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return PersistedStatement{}, &parsererror.ValidationError{
				Code:    parsererror.CodeDuplicateStatement,
				Subject: stmt.Reference,
				Reason:  fmt.Sprintf("statement %s sequence %s already imported for account %s", stmt.Reference, stmt.Sequence, stmt.Account),
			}
		}
		return PersistedStatement{}, err
	}

	for _, b := range stmt.Balances() {
		if err := tx.CreateStatementBalance(ctx, &models.StatementBalance{
			StatementFileID: sf.ID,
			Type:            b.Type,
			DC:              b.DC,
			Date:            b.Date,
			Currency:        b.Currency,
			Amount:          b.Amount.Decimal,
		}); err != nil {
			return PersistedStatement{}, err
		}
	}

	out := PersistedStatement{File: sf}
	owner := make(map[int]int, 2*len(stmt.Transactions))
	for _, t := range stmt.Transactions {
		st := models.StatementTransaction{
			StatementFileID:    sf.ID,
			LineNo:             t.Line,
			ValueDate:          t.ValueDate,
			EntryDate:          t.EntryDate,
			DC:                 t.DC,
			FundsCode:          t.FundsCode,
			Amount:             t.Amount,
			SignedAmount:       t.SignedAmount(),
			Currency:           t.Currency,
			TxnTypeCode:        t.TypeCode,
			CustomerReference:  t.CustomerRef,
			BankReference:      t.BankRef,
			EntryReference:     t.EntryReference,
			Narrative:          t.Narrative,
			ExtIdempotencyHash: t.Fingerprint,
		}
		if err := tx.CreateStatementTransaction(ctx, &st); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return PersistedStatement{}, &parsererror.ValidationError{
					Code:    parsererror.CodeDuplicateTransaction,
					Subject: stmt.Reference,
					Reason:  fmt.Sprintf("transaction on line %d was already imported (fingerprint %s)", t.Line, t.Fingerprint),
				}
			}
			return PersistedStatement{}, err
		}
		for _, seg := range t.Segments {
			if err := tx.CreateTransactionSegment(ctx, &models.Transaction86Segment{
				TransactionID: st.ID,
				Key:           seg.Key,
				Value:         seg.Value,
				Seq:           seg.Seq,
			}); err != nil {
				return PersistedStatement{}, err
			}
		}
		owner[t.Line] = t.Line
		if t.NarrativeLine > 0 {
			owner[t.NarrativeLine] = t.Line
		}
		out.Transactions = append(out.Transactions, st)
	}

	for _, field := range stmt.Fields {
		if err := tx.CreateRawStatementLine(ctx, &models.RawStatementLine{
			StatementFileID: sf.ID,
			LineNo:          field.Line,
			TxnLineNo:       owner[field.Line],
			Tag:             field.Tag,
			RawText:         field.Raw,
		}); err != nil {
			return PersistedStatement{}, err
		}
	}
	return out, nil
}

var (
	bicPattern  = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
	ibanPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
)

// accountSeed derives the bank account identity from a :25: value. Both
// "BIC/ACCOUNT" and a bare account are understood; AccountNo keeps the full
// value.
func accountSeed(identifier, currency string) models.BankAccount {
	acct := models.BankAccount{AccountNo: identifier, Currency: currency, IsActive: true}
	number := identifier
	if bic, rest, found := strings.Cut(identifier, "/"); found && bicPattern.MatchString(bic) {
		acct.BankBIC = bic
		number = rest
	}
	if compact := strings.ReplaceAll(number, " ", ""); ibanPattern.MatchString(compact) {
		acct.IBAN = compact
	}
	return acct
}

// finishRun writes the terminal status and counters of a summary into run.
func finishRun(run *models.ImportRun, s validation.Summary, noun string) {
	run.ProcessedRecords = s.Processed
	run.FailedRecords = s.Failed
	run.Status = s.Status()
	run.ErrorMessage = ""
	if s.Failed > 0 {
		run.ErrorMessage = fmt.Sprintf("%d of %d %s rejected", s.Failed, s.Total, noun)
	}
}
