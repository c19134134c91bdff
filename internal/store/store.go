// Package store defines the persistence boundary of the ingestion pipeline
// and an in-memory implementation of it.
package store

import (
	"context"
	"errors"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate wraps a unique constraint violation from any backend.
	ErrDuplicate = errors.New("store: duplicate")
)

// DefaultListLimit applies when ListImportRuns is given no positive limit.
const DefaultListLimit = 50

// Store is the read side and the transaction entry point.
type Store interface {
	// FindImportRunByHash returns the run owning hash, or ErrNotFound.
	FindImportRunByHash(ctx context.Context, hash string) (models.ImportRun, error)
	GetImportRun(ctx context.Context, id int64) (models.ImportRun, error)
	// ListImportRuns returns up to limit runs, newest first.
	ListImportRuns(ctx context.Context, limit int) ([]models.ImportRun, error)
	ListImportErrors(ctx context.Context, runID int64) ([]models.ImportError, error)
	CountStatementTransactions(ctx context.Context) (int, error)
	CountVANTransactions(ctx context.Context, runID int64) (int, error)

	// WithinTx runs fn in one transaction, committed when fn returns nil and
	// rolled back otherwise.
	WithinTx(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx is the write side, valid only inside WithinTx. Create methods assign the
// new ID to their argument.
type Tx interface {
	CreateImportRun(ctx context.Context, run *models.ImportRun) error
	UpdateImportRun(ctx context.Context, run *models.ImportRun) error

	// FindOrCreateBankAccount returns the account keyed by AccountNo and
	// Currency, creating it from seed when absent.
	FindOrCreateBankAccount(ctx context.Context, seed models.BankAccount) (models.BankAccount, error)
	CreateStatementFile(ctx context.Context, sf *models.StatementFile) error
	CreateStatementBalance(ctx context.Context, b *models.StatementBalance) error
	CreateStatementTransaction(ctx context.Context, t *models.StatementTransaction) error
	CreateTransactionSegment(ctx context.Context, s *models.Transaction86Segment) error
	CreateRawStatementLine(ctx context.Context, l *models.RawStatementLine) error

	CreateVANTransaction(ctx context.Context, t *models.VANTransaction) error
	CreateImportError(ctx context.Context, e *models.ImportError) error

	// Savepoint runs fn as a nested unit: when fn fails, everything it wrote
	// is undone and the enclosing transaction stays usable.
	Savepoint(ctx context.Context, fn func() error) error
}
