// Package storetest is a behavioural test suite shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.Store

var received = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("import run lifecycle", func(t *testing.T) { testImportRuns(t, newStore(t)) })
	t.Run("empty hashes do not collide", func(t *testing.T) { testEmptyHashes(t, newStore(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("savepoint", func(t *testing.T) { testSavepoint(t, newStore(t)) })
	t.Run("statement graph", func(t *testing.T) { testStatementGraph(t, newStore(t)) })
	t.Run("van and errors", func(t *testing.T) { testVANAndErrors(t, newStore(t)) })
}

func newRun(hash string) *models.ImportRun {
	return &models.ImportRun{
		Filename:    "stmt.sta",
		ContentHash: hash,
		FileSize:    42,
		ReceivedAt:  received,
		FileType:    models.FileTypeMT940,
		Status:      models.StatusNew,
	}
}

func createRun(t *testing.T, s store.Store, run *models.ImportRun) {
	t.Helper()
	require.NoError(t, s.WithinTx(context.Background(), func(tx store.Tx) error {
		return tx.CreateImportRun(context.Background(), run)
	}))
}

func testImportRuns(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.FindImportRunByHash(ctx, "abc")
	assert.ErrorIs(t, err, store.ErrNotFound)

	run := newRun("abc")
	createRun(t, s, run)
	require.NotZero(t, run.ID)

	found, err := s.FindImportRunByHash(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, run.ID, found.ID)
	assert.Equal(t, models.StatusNew, found.Status)
	assert.True(t, received.Equal(found.ReceivedAt))

	dup := newRun("abc")
	err = s.WithinTx(ctx, func(tx store.Tx) error { return tx.CreateImportRun(ctx, dup) })
	assert.ErrorIs(t, err, store.ErrDuplicate)

	run.Status = models.StatusPartial
	run.TotalRecords, run.ProcessedRecords, run.FailedRecords = 2, 1, 1
	run.ErrorMessage = "one statement rejected"
	require.NoError(t, s.WithinTx(ctx, func(tx store.Tx) error { return tx.UpdateImportRun(ctx, run) }))

	got, err := s.GetImportRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartial, got.Status)
	assert.Equal(t, 1, got.FailedRecords)
	assert.Equal(t, "one statement rejected", got.ErrorMessage)

	_, err = s.GetImportRun(ctx, 987654)
	assert.ErrorIs(t, err, store.ErrNotFound)

	second := newRun("def")
	createRun(t, s, second)
	runs, err := s.ListImportRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")
}

func testEmptyHashes(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, b := newRun(""), newRun("")
	a.Status, b.Status = models.StatusFailed, models.StatusFailed
	createRun(t, s, a)
	createRun(t, s, b)
	assert.NotEqual(t, a.ID, b.ID)

	_, err := s.FindImportRunByHash(ctx, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.CreateImportRun(ctx, newRun("rolled-back")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.FindImportRunByHash(ctx, "rolled-back")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testSavepoint(t *testing.T, s store.Store) {
	ctx := context.Background()
	run := newRun("sp")
	createRun(t, s, run)

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		kept := tx.Savepoint(ctx, func() error {
			return tx.CreateImportError(ctx, &models.ImportError{ImportRunID: run.ID, Code: "KEPT", Message: "kept", CreatedAt: received})
		})
		require.NoError(t, kept)

		undone := tx.Savepoint(ctx, func() error {
			require.NoError(t, tx.CreateImportError(ctx, &models.ImportError{ImportRunID: run.ID, Code: "UNDONE", Message: "undone", CreatedAt: received}))
			return errors.New("statement failed")
		})
		require.Error(t, undone)

		return tx.CreateImportError(ctx, &models.ImportError{ImportRunID: run.ID, Code: "AFTER", Message: "after", CreatedAt: received})
	})
	require.NoError(t, err)

	errs, err := s.ListImportErrors(ctx, run.ID)
	require.NoError(t, err)
	var codes []string
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{"KEPT", "AFTER"}, codes)
}

func testStatementGraph(t *testing.T, s store.Store) {
	ctx := context.Background()
	run := newRun("graph")
	createRun(t, s, run)

	entry := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		acct, err := tx.FindOrCreateBankAccount(ctx, models.BankAccount{AccountNo: "DE89", Currency: "EUR", IBAN: "DE89"})
		require.NoError(t, err)
		again, err := tx.FindOrCreateBankAccount(ctx, models.BankAccount{AccountNo: "DE89", Currency: "EUR"})
		require.NoError(t, err)
		assert.Equal(t, acct.ID, again.ID)
		assert.Equal(t, "DE89", again.IBAN)
		assert.True(t, again.IsActive)

		other, err := tx.FindOrCreateBankAccount(ctx, models.BankAccount{AccountNo: "DE89", Currency: "USD"})
		require.NoError(t, err)
		assert.NotEqual(t, acct.ID, other.ID)

		sf := &models.StatementFile{
			ImportRunID: run.ID, BankAccountID: acct.ID, StatementRef: "S1", Sequence: "1/1",
			StatementDate: entry, Currency: "EUR",
			OpeningDC: models.Credit, OpeningAmount: decimal.RequireFromString("100.00"),
			ClosingDC: models.Credit, ClosingAmount: decimal.RequireFromString("150.00"),
		}
		require.NoError(t, tx.CreateStatementFile(ctx, sf))
		dupStmt := *sf
		dupStmt.ID = 0
		assert.ErrorIs(t, tx.Savepoint(ctx, func() error {
			return tx.CreateStatementFile(ctx, &dupStmt)
		}), store.ErrDuplicate)

		require.NoError(t, tx.CreateStatementBalance(ctx, &models.StatementBalance{
			StatementFileID: sf.ID, Type: models.BalanceOpening, DC: models.Credit, Date: entry,
			Currency: "EUR", Amount: decimal.RequireFromString("100.00"),
		}))

		txn := &models.StatementTransaction{
			StatementFileID: sf.ID, LineNo: 6, ValueDate: entry, EntryDate: &entry,
			DC: models.Credit, Amount: decimal.RequireFromString("50.00"), SignedAmount: decimal.RequireFromString("50.00"),
			Currency: "EUR", TxnTypeCode: "NTRF", CustomerReference: "REF1", Narrative: "n",
			ExtIdempotencyHash: "fp-1",
		}
		require.NoError(t, tx.CreateStatementTransaction(ctx, txn))
		dupTxn := *txn
		dupTxn.ID = 0
		assert.ErrorIs(t, tx.Savepoint(ctx, func() error {
			return tx.CreateStatementTransaction(ctx, &dupTxn)
		}), store.ErrDuplicate)

		require.NoError(t, tx.CreateTransactionSegment(ctx, &models.Transaction86Segment{TransactionID: txn.ID, Key: "FULL", Value: "n", Seq: 1}))
		return tx.CreateRawStatementLine(ctx, &models.RawStatementLine{StatementFileID: sf.ID, LineNo: 6, TxnLineNo: 6, Tag: "61", RawText: ":61:..."})
	})
	require.NoError(t, err)

	n, err := s.CountStatementTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testVANAndErrors(t *testing.T, s store.Store) {
	ctx := context.Background()
	run := newRun("van")
	run.FileType = models.FileTypeVAN
	createRun(t, s, run)

	credited := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		for i := 0; i < 2; i++ {
			if err := tx.CreateVANTransaction(ctx, &models.VANTransaction{
				ImportRunID: run.ID, LineNo: i + 2, MainAccountNumber: "M", VirtualAccountNumber: "V",
				TransactionRef: "UTR", Amount: decimal.RequireFromString("10.50"), CreditedAt: &credited,
			}); err != nil {
				return err
			}
		}
		return tx.CreateImportError(ctx, &models.ImportError{ImportRunID: run.ID, LineNo: 4, Code: "MISSING_VIRTUAL_ACCOUNT", Message: "empty", CreatedAt: received})
	})
	require.NoError(t, err)

	count, err := s.CountVANTransactions(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	errs, err := s.ListImportErrors(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, 4, errs[0].LineNo)
	assert.Nil(t, errs[0].StatementFileID)

	none, err := s.CountVANTransactions(ctx, run.ID+1000)
	require.NoError(t, err)
	assert.Zero(t, none)
}
