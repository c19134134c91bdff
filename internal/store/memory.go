package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

type statementKey struct {
	accountID int64
	ref, seq  string
}

type accountKey struct {
	accountNo, currency string
}

type memState struct {
	nextID       int64
	runs         []models.ImportRun
	accounts     []models.BankAccount
	statements   []models.StatementFile
	balances     []models.StatementBalance
	transactions []models.StatementTransaction
	segments     []models.Transaction86Segment
	rawLines     []models.RawStatementLine
	van          []models.VANTransaction
	importErrors []models.ImportError

	hashes       map[string]int64
	accountKeys  map[accountKey]int64
	stmtKeys     map[statementKey]int64
	fingerprints map[string]int64
}

func newMemState() *memState {
	return &memState{
		hashes:       map[string]int64{},
		accountKeys:  map[accountKey]int64{},
		stmtKeys:     map[statementKey]int64{},
		fingerprints: map[string]int64{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		nextID:       s.nextID,
		runs:         append([]models.ImportRun(nil), s.runs...),
		accounts:     append([]models.BankAccount(nil), s.accounts...),
		statements:   append([]models.StatementFile(nil), s.statements...),
		balances:     append([]models.StatementBalance(nil), s.balances...),
		transactions: append([]models.StatementTransaction(nil), s.transactions...),
		segments:     append([]models.Transaction86Segment(nil), s.segments...),
		rawLines:     append([]models.RawStatementLine(nil), s.rawLines...),
		van:          append([]models.VANTransaction(nil), s.van...),
		importErrors: append([]models.ImportError(nil), s.importErrors...),
		hashes:       cloneMap(s.hashes),
		accountKeys:  cloneMap(s.accountKeys),
		stmtKeys:     cloneMap(s.stmtKeys),
		fingerprints: cloneMap(s.fingerprints),
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// Memory is a Store held in process memory. Transactions are serialised and
// work on a private copy that replaces the committed state on success.
type Memory struct {
	mu    sync.Mutex
	state *memState
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: newMemState()}
}

func (m *Memory) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Memory) FindImportRunByHash(_ context.Context, hash string) (models.ImportRun, error) {
	st := m.snapshot()
	if id, ok := st.hashes[hash]; ok && hash != "" {
		return st.run(id)
	}
	return models.ImportRun{}, ErrNotFound
}

func (m *Memory) GetImportRun(_ context.Context, id int64) (models.ImportRun, error) {
	return m.snapshot().run(id)
}

func (s *memState) run(id int64) (models.ImportRun, error) {
	for _, r := range s.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return models.ImportRun{}, fmt.Errorf("import run %d: %w", id, ErrNotFound)
}

func (m *Memory) ListImportRuns(_ context.Context, limit int) ([]models.ImportRun, error) {
	st := m.snapshot()
	runs := append([]models.ImportRun(nil), st.runs...)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *Memory) ListImportErrors(_ context.Context, runID int64) ([]models.ImportError, error) {
	var out []models.ImportError
	for _, e := range m.snapshot().importErrors {
		if e.ImportRunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) CountStatementTransactions(context.Context) (int, error) {
	return len(m.snapshot().transactions), nil
}

func (m *Memory) CountVANTransactions(_ context.Context, runID int64) (int, error) {
	n := 0
	for _, t := range m.snapshot().van {
		if t.ImportRunID == runID {
			n++
		}
	}
	return n, nil
}

// Transactions returns a copy of the committed statement transactions.
func (m *Memory) Transactions() []models.StatementTransaction {
	return append([]models.StatementTransaction(nil), m.snapshot().transactions...)
}

// StatementFiles returns a copy of the committed statement files.
func (m *Memory) StatementFiles() []models.StatementFile {
	return append([]models.StatementFile(nil), m.snapshot().statements...)
}

// RawLines returns a copy of the committed raw statement lines.
func (m *Memory) RawLines() []models.RawStatementLine {
	return append([]models.RawStatementLine(nil), m.snapshot().rawLines...)
}

// Segments returns a copy of the committed narrative segments.
func (m *Memory) Segments() []models.Transaction86Segment {
	return append([]models.Transaction86Segment(nil), m.snapshot().segments...)
}

// Balances returns a copy of the committed statement balances.
func (m *Memory) Balances() []models.StatementBalance {
	return append([]models.StatementBalance(nil), m.snapshot().balances...)
}

// Accounts returns a copy of the committed bank accounts.
func (m *Memory) Accounts() []models.BankAccount {
	return append([]models.BankAccount(nil), m.snapshot().accounts...)
}

func (m *Memory) WithinTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{state: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *Memory) Close() error { return nil }

type memTx struct {
	state *memState
}

func (t *memTx) Savepoint(_ context.Context, fn func() error) error {
	saved := t.state.clone()
	if err := fn(); err != nil {
		t.state = saved
		return err
	}
	return nil
}

func (t *memTx) CreateImportRun(_ context.Context, run *models.ImportRun) error {
	s := t.state
	if run.ContentHash != "" {
		if _, ok := s.hashes[run.ContentHash]; ok {
			return fmt.Errorf("import run hash %s: %w", run.ContentHash, ErrDuplicate)
		}
	}
	run.ID = s.id()
	s.runs = append(s.runs, *run)
	if run.ContentHash != "" {
		s.hashes[run.ContentHash] = run.ID
	}
	return nil
}

func (t *memTx) UpdateImportRun(_ context.Context, run *models.ImportRun) error {
	s := t.state
	for i := range s.runs {
		if s.runs[i].ID != run.ID {
			continue
		}
		if old := s.runs[i].ContentHash; old != run.ContentHash {
			if run.ContentHash != "" {
				if _, taken := s.hashes[run.ContentHash]; taken {
					return fmt.Errorf("import run hash %s: %w", run.ContentHash, ErrDuplicate)
				}
				s.hashes[run.ContentHash] = run.ID
			}
			delete(s.hashes, old)
		}
		s.runs[i] = *run
		return nil
	}
	return fmt.Errorf("import run %d: %w", run.ID, ErrNotFound)
}

func (t *memTx) FindOrCreateBankAccount(_ context.Context, seed models.BankAccount) (models.BankAccount, error) {
	s := t.state
	key := accountKey{seed.AccountNo, seed.Currency}
	if id, ok := s.accountKeys[key]; ok {
		for _, a := range s.accounts {
			if a.ID == id {
				return a, nil
			}
		}
	}
	seed.ID = s.id()
	seed.IsActive = true
	s.accounts = append(s.accounts, seed)
	s.accountKeys[key] = seed.ID
	return seed, nil
}

func (t *memTx) CreateStatementFile(_ context.Context, sf *models.StatementFile) error {
	s := t.state
	key := statementKey{sf.BankAccountID, sf.StatementRef, sf.Sequence}
	if _, ok := s.stmtKeys[key]; ok {
		return fmt.Errorf("statement %s/%s: %w", sf.StatementRef, sf.Sequence, ErrDuplicate)
	}
	sf.ID = s.id()
	s.statements = append(s.statements, *sf)
	s.stmtKeys[key] = sf.ID
	return nil
}

func (t *memTx) CreateStatementBalance(_ context.Context, b *models.StatementBalance) error {
	b.ID = t.state.id()
	t.state.balances = append(t.state.balances, *b)
	return nil
}

func (t *memTx) CreateStatementTransaction(_ context.Context, txn *models.StatementTransaction) error {
	s := t.state
	if _, ok := s.fingerprints[txn.ExtIdempotencyHash]; ok {
		return fmt.Errorf("transaction %s: %w", txn.ExtIdempotencyHash, ErrDuplicate)
	}
	txn.ID = s.id()
	s.transactions = append(s.transactions, *txn)
	s.fingerprints[txn.ExtIdempotencyHash] = txn.ID
	return nil
}

func (t *memTx) CreateTransactionSegment(_ context.Context, seg *models.Transaction86Segment) error {
	seg.ID = t.state.id()
	t.state.segments = append(t.state.segments, *seg)
	return nil
}

func (t *memTx) CreateRawStatementLine(_ context.Context, l *models.RawStatementLine) error {
	l.ID = t.state.id()
	t.state.rawLines = append(t.state.rawLines, *l)
	return nil
}

func (t *memTx) CreateVANTransaction(_ context.Context, v *models.VANTransaction) error {
	v.ID = t.state.id()
	t.state.van = append(t.state.van, *v)
	return nil
}

func (t *memTx) CreateImportError(_ context.Context, e *models.ImportError) error {
	e.ID = t.state.id()
	t.state.importErrors = append(t.state.importErrors, *e)
	return nil
}
