// Package sqlstore implements store.Store over database/sql for SQLite
// (modernc.org/sqlite) and PostgreSQL (lib/pq).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
)

// Store is a SQL backed store.Store.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  logging.Logger
}

var _ store.Store = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects with the named driver and creates the schema when missing.
// For SQLite the DSN is a file path or ":memory:".
func Open(ctx context.Context, driver, dsn string, logger logging.Logger) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection also keeps
		// ":memory:" databases alive across calls.
		db.SetMaxOpenConns(1)
	}

	s, err := New(ctx, db, driver, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database handle and migrates it.
func New(ctx context.Context, db *sql.DB, driver string, logger logging.Logger) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	s := &Store{db: db, dialect: d, logger: logger}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.bootstrap {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, s.dialect.expand(stmt)); err != nil {
			return err
		}
	}
	s.logger.Debug("Database schema ready", logging.F("driver", s.dialect.name))
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) WithinTx(ctx context.Context, fn func(store.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				s.logger.WithError(rbErr).Warn("Rollback failed")
			}
		}
	}()

	if err = fn(&tx{q: sqlTx, d: s.dialect}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return mapError("commit", err)
	}
	return nil
}

const importRunColumns = `id, filename, content_hash, file_size, received_at, file_type,
	total_records, processed_records, failed_records, status, error_message`

func scanImportRun(row interface{ Scan(...any) error }) (models.ImportRun, error) {
	var (
		r        models.ImportRun
		hash     sql.NullString
		received string
		errMsg   sql.NullString
	)
	err := row.Scan(&r.ID, &r.Filename, &hash, &r.FileSize, &received, &r.FileType,
		&r.TotalRecords, &r.ProcessedRecords, &r.FailedRecords, &r.Status, &errMsg)
	if err != nil {
		return r, err
	}
	r.ContentHash = hash.String
	r.ErrorMessage = errMsg.String
	if r.ReceivedAt, err = parseTimestamp(received); err != nil {
		return r, err
	}
	return r, nil
}

func (s *Store) FindImportRunByHash(ctx context.Context, hash string) (models.ImportRun, error) {
	if hash == "" {
		return models.ImportRun{}, store.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT `+importRunColumns+` FROM import_run WHERE content_hash = ?`), hash)
	r, err := scanImportRun(row)
	return r, mapError("find import run by hash", err)
}

func (s *Store) GetImportRun(ctx context.Context, id int64) (models.ImportRun, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT `+importRunColumns+` FROM import_run WHERE id = ?`), id)
	r, err := scanImportRun(row)
	return r, mapError(fmt.Sprintf("get import run %d", id), err)
}

func (s *Store) ListImportRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		`SELECT `+importRunColumns+` FROM import_run ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, mapError("list import runs", err)
	}
	defer rows.Close()

	var out []models.ImportRun
	for rows.Next() {
		r, err := scanImportRun(rows)
		if err != nil {
			return nil, mapError("scan import run", err)
		}
		out = append(out, r)
	}
	return out, mapError("list import runs", rows.Err())
}

func (s *Store) ListImportErrors(ctx context.Context, runID int64) ([]models.ImportError, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		`SELECT id, import_run_id, statement_file_id, line_no, code, message, created_at
		 FROM import_error WHERE import_run_id = ? ORDER BY id`), runID)
	if err != nil {
		return nil, mapError("list import errors", err)
	}
	defer rows.Close()

	var out []models.ImportError
	for rows.Next() {
		var (
			e       models.ImportError
			stmtID  sql.NullInt64
			lineNo  sql.NullInt64
			created string
		)
		if err := rows.Scan(&e.ID, &e.ImportRunID, &stmtID, &lineNo, &e.Code, &e.Message, &created); err != nil {
			return nil, mapError("scan import error", err)
		}
		if stmtID.Valid {
			id := stmtID.Int64
			e.StatementFileID = &id
		}
		e.LineNo = int(lineNo.Int64)
		if e.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, mapError("list import errors", rows.Err())
}

func (s *Store) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...).Scan(&n)
	return n, mapError(op, err)
}

func (s *Store) CountStatementTransactions(ctx context.Context) (int, error) {
	return s.count(ctx, "count statement transactions", `SELECT COUNT(*) FROM statement_transaction`)
}

func (s *Store) CountVANTransactions(ctx context.Context, runID int64) (int, error) {
	return s.count(ctx, "count van transactions", `SELECT COUNT(*) FROM van_transaction WHERE import_run_id = ?`, runID)
}

// Values are written as text so both dialects read them back the same way.

func timestampValue(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func optionalTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timestampValue(*t)
}

func dateValue(t time.Time) string {
	return t.Format("2006-01-02")
}

func optionalDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dateValue(*t)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}
