package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
	"github.com/rahulcharvekar/reconciliation-service/internal/store/sqlstore"
	"github.com/rahulcharvekar/reconciliation-service/internal/store/storetest"
)

func openSQLite(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite,
		filepath.Join(t.TempDir(), "ingest.db"), logging.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	storetest.Run(t, openSQLite)
}

func TestSQLite_InMemory(t *testing.T) {
	s, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.CreateImportRun(ctx, &models.ImportRun{Filename: "a", ContentHash: "h", FileType: models.FileTypeVAN, Status: models.StatusNew})
	}))
	run, err := s.FindImportRunByHash(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "a", run.Filename)
}

func TestSQLite_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.db")
	for i := 0; i < 2; i++ {
		s, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, path, nil)
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), "oracle", "", nil)
	assert.Error(t, err)
}
