package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
)

type tx struct {
	q          querier
	d          dialect
	savepoints int
}

// insert runs an INSERT ... RETURNING id and returns the new id.
func (t *tx) insert(ctx context.Context, op, query string, args ...any) (int64, error) {
	var id int64
	err := t.q.QueryRowContext(ctx, t.d.rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, mapError(op, err)
}

func (t *tx) exec(ctx context.Context, op, query string, args ...any) error {
	_, err := t.q.ExecContext(ctx, t.d.rebind(query), args...)
	return mapError(op, err)
}

func (t *tx) Savepoint(ctx context.Context, fn func() error) error {
	t.savepoints++
	name := fmt.Sprintf("sp_%d", t.savepoints)
	if err := t.exec(ctx, "savepoint", "SAVEPOINT "+name); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rbErr := t.exec(ctx, "rollback to savepoint", "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("%w (after: %v)", rbErr, err)
		}
		// Releasing after a rollback drops the savepoint itself.
		if relErr := t.exec(ctx, "release savepoint", "RELEASE SAVEPOINT "+name); relErr != nil {
			return fmt.Errorf("%w (after: %v)", relErr, err)
		}
		return err
	}
	return t.exec(ctx, "release savepoint", "RELEASE SAVEPOINT "+name)
}

func (t *tx) CreateImportRun(ctx context.Context, r *models.ImportRun) error {
	id, err := t.insert(ctx, "create import run",
		`INSERT INTO import_run (filename, content_hash, file_size, received_at, file_type,
			total_records, processed_records, failed_records, status, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Filename, nullIfEmpty(r.ContentHash), r.FileSize, timestampValue(r.ReceivedAt), string(r.FileType),
		r.TotalRecords, r.ProcessedRecords, r.FailedRecords, string(r.Status), nullIfEmpty(r.ErrorMessage))
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func (t *tx) UpdateImportRun(ctx context.Context, r *models.ImportRun) error {
	res, err := t.q.ExecContext(ctx, t.d.rebind(
		`UPDATE import_run SET filename = ?, content_hash = ?, file_size = ?, file_type = ?,
			total_records = ?, processed_records = ?, failed_records = ?, status = ?, error_message = ?
		 WHERE id = ?`),
		r.Filename, nullIfEmpty(r.ContentHash), r.FileSize, string(r.FileType),
		r.TotalRecords, r.ProcessedRecords, r.FailedRecords, string(r.Status), nullIfEmpty(r.ErrorMessage), r.ID)
	if err != nil {
		return mapError("update import run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapError(fmt.Sprintf("update import run %d", r.ID), sql.ErrNoRows)
	}
	return nil
}

func (t *tx) FindOrCreateBankAccount(ctx context.Context, seed models.BankAccount) (models.BankAccount, error) {
	acct := seed
	var iban, bic, holder sql.NullString
	err := t.q.QueryRowContext(ctx, t.d.rebind(
		`SELECT id, iban, bank_bic, holder_name, is_active FROM bank_account
		 WHERE account_no = ? AND currency = ?`), seed.AccountNo, seed.Currency).
		Scan(&acct.ID, &iban, &bic, &holder, &acct.IsActive)
	if err == nil {
		acct.IBAN, acct.BankBIC, acct.HolderName = iban.String, bic.String, holder.String
		return acct, nil
	}
	if err = mapError("find bank account", err); !errors.Is(err, store.ErrNotFound) {
		return models.BankAccount{}, err
	}

	acct.IsActive = true
	acct.ID, err = t.insert(ctx, "create bank account",
		`INSERT INTO bank_account (account_no, currency, iban, bank_bic, holder_name, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		seed.AccountNo, seed.Currency, nullIfEmpty(seed.IBAN), nullIfEmpty(seed.BankBIC), nullIfEmpty(seed.HolderName), true)
	if err != nil {
		return models.BankAccount{}, err
	}
	return acct, nil
}

func (t *tx) CreateStatementFile(ctx context.Context, sf *models.StatementFile) error {
	var statementDate any
	if !sf.StatementDate.IsZero() {
		statementDate = dateValue(sf.StatementDate)
	}
	id, err := t.insert(ctx, "create statement file",
		`INSERT INTO statement_file (import_run_id, bank_account_id, statement_ref, sequence, statement_date,
			currency, opening_dc, opening_amount, closing_dc, closing_amount, is_interim)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sf.ImportRunID, sf.BankAccountID, sf.StatementRef, sf.Sequence, statementDate,
		sf.Currency, string(sf.OpeningDC), sf.OpeningAmount.String(), string(sf.ClosingDC), sf.ClosingAmount.String(), sf.IsInterim)
	if err != nil {
		return err
	}
	sf.ID = id
	return nil
}

func (t *tx) CreateStatementBalance(ctx context.Context, b *models.StatementBalance) error {
	id, err := t.insert(ctx, "create statement balance",
		`INSERT INTO statement_balance (statement_file_id, balance_type, dc, balance_date, currency, amount)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.StatementFileID, string(b.Type), string(b.DC), dateValue(b.Date), b.Currency, b.Amount.String())
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (t *tx) CreateStatementTransaction(ctx context.Context, st *models.StatementTransaction) error {
	id, err := t.insert(ctx, "create statement transaction",
		`INSERT INTO statement_transaction (statement_file_id, line_no, value_date, entry_date, dc, funds_code,
			amount, signed_amount, currency, txn_type_code, customer_reference, bank_reference,
			entry_reference, narrative, ext_idempotency_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.StatementFileID, st.LineNo, dateValue(st.ValueDate), optionalDate(st.EntryDate), string(st.DC), nullIfEmpty(st.FundsCode),
		st.Amount.String(), st.SignedAmount.String(), st.Currency, st.TxnTypeCode, nullIfEmpty(st.CustomerReference), nullIfEmpty(st.BankReference),
		nullIfEmpty(st.EntryReference), nullIfEmpty(st.Narrative), st.ExtIdempotencyHash)
	if err != nil {
		return err
	}
	st.ID = id
	return nil
}

func (t *tx) CreateTransactionSegment(ctx context.Context, seg *models.Transaction86Segment) error {
	id, err := t.insert(ctx, "create transaction segment",
		`INSERT INTO transaction_86_segment (transaction_id, seg_key, seg_value, seq) VALUES (?, ?, ?, ?)`,
		seg.TransactionID, seg.Key, seg.Value, seg.Seq)
	if err != nil {
		return err
	}
	seg.ID = id
	return nil
}

func (t *tx) CreateRawStatementLine(ctx context.Context, l *models.RawStatementLine) error {
	id, err := t.insert(ctx, "create raw statement line",
		`INSERT INTO raw_statement_line (statement_file_id, line_no, txn_line_no, tag, raw_text) VALUES (?, ?, ?, ?, ?)`,
		l.StatementFileID, l.LineNo, nullIfZero(l.TxnLineNo), l.Tag, l.RawText)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

func (t *tx) CreateVANTransaction(ctx context.Context, v *models.VANTransaction) error {
	id, err := t.insert(ctx, "create van transaction",
		`INSERT INTO van_transaction (import_run_id, line_no, main_account_number, virtual_account_number,
			transaction_ref, bank_reference, remitter_name, remitter_account, remitter_ifsc, remitter_vpa,
			transaction_date, value_date, amount, channel, narration, payment_status, customer_code,
			invoice_ref, credited_at, branch_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ImportRunID, v.LineNo, v.MainAccountNumber, v.VirtualAccountNumber,
		nullIfEmpty(v.TransactionRef), nullIfEmpty(v.BankReference), nullIfEmpty(v.RemitterName),
		nullIfEmpty(v.RemitterAccount), nullIfEmpty(v.RemitterIFSC), nullIfEmpty(v.RemitterVPA),
		optionalDate(v.TransactionDate), optionalDate(v.ValueDate), v.Amount.String(), nullIfEmpty(v.Channel),
		nullIfEmpty(v.Narration), nullIfEmpty(v.PaymentStatus), nullIfEmpty(v.CustomerCode),
		nullIfEmpty(v.InvoiceRef), optionalTimestamp(v.CreditedAt), nullIfEmpty(v.BranchCode))
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

func (t *tx) CreateImportError(ctx context.Context, e *models.ImportError) error {
	var stmtID any
	if e.StatementFileID != nil {
		stmtID = *e.StatementFileID
	}
	id, err := t.insert(ctx, "create import error",
		`INSERT INTO import_error (import_run_id, statement_file_id, line_no, code, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ImportRunID, stmtID, nullIfZero(e.LineNo), e.Code, e.Message, timestampValue(e.CreatedAt))
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}
