package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
	"github.com/rahulcharvekar/reconciliation-service/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return store.NewMemory() })
}

func TestMemory_CancelledContext(t *testing.T) {
	m := store.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.WithinTx(ctx, func(store.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemory_ReadsSeeOnlyCommittedState(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.WithinTx(ctx, func(tx store.Tx) error {
		return tx.CreateImportRun(ctx, &models.ImportRun{ContentHash: "x", Status: models.StatusNew})
	}))

	before := m.Accounts()
	require.NoError(t, m.WithinTx(ctx, func(tx store.Tx) error {
		_, err := tx.FindOrCreateBankAccount(ctx, models.BankAccount{AccountNo: "A", Currency: "EUR"})
		return err
	}))
	assert.Empty(t, before)
	assert.Len(t, m.Accounts(), 1)
}
