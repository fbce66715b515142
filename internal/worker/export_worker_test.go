package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export/memory"
	"tally/internal/storage"
)

type fakeStorage struct {
	rows        map[int64]core.Transaction
	owners      map[int64]string
	exported    map[int64]bool
	exportError map[int64]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		rows:        make(map[int64]core.Transaction),
		owners:      make(map[int64]string),
		exported:    make(map[int64]bool),
		exportError: make(map[int64]bool),
	}
}

func (f *fakeStorage) add(t core.Transaction, owner string) {
	f.rows[t.ID] = t
	f.owners[t.ID] = owner
}

func (f *fakeStorage) ExportRow(_ context.Context, id int64) (core.Transaction, string, error) {
	t, ok := f.rows[id]
	if !ok {
		return core.Transaction{}, "", core.ErrNotFound
	}
	return t, f.owners[id], nil
}

func (f *fakeStorage) PendingExport(_ context.Context, limit int) ([]storage.PendingTransaction, error) {
	var pending []storage.PendingTransaction
	for id := range f.rows {
		if !f.exported[id] && !f.exportError[id] {
			pending = append(pending, storage.PendingTransaction{ID: id, Version: 1})
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (f *fakeStorage) MarkExported(_ context.Context, id int64) error {
	f.exported[id] = true
	f.exportError[id] = false
	return nil
}

func (f *fakeStorage) MarkExportError(_ context.Context, id int64) error {
	f.exportError[id] = true
	return nil
}

func sampleTransaction(id int64) core.Transaction {
	return core.Transaction{
		ID:        id,
		AccountID: 1,
		Title:     "groceries",
		Amount:    core.Money{Cents: 2500},
		Kind:      core.Expense,
		Date:      core.NewDate(2024, 3, 15),
	}
}

func TestHandleExportMessage(t *testing.T) {
	store := newFakeStorage()
	store.add(sampleTransaction(1), "alice@example.com")
	statement := memory.NewWriter()
	w := NewExportWorker(store, statement, 10)

	err := w.HandleExportMessage(context.Background(), amqp.NewTransactionExportMessage(1, 1))
	require.NoError(t, err)

	rows := statement.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "alice@example.com", rows[0].OwnerEmail)
	assert.Equal(t, "groceries", rows[0].Transaction.Title)
	assert.True(t, store.exported[1])
}

func TestHandleExportMessageMissingTransaction(t *testing.T) {
	w := NewExportWorker(newFakeStorage(), memory.NewWriter(), 10)

	// Deleted rows must not requeue forever
	err := w.HandleExportMessage(context.Background(), amqp.NewTransactionExportMessage(99, 1))
	assert.NoError(t, err)
}

func TestHandleExportMessageStatementFailure(t *testing.T) {
	store := newFakeStorage()
	store.add(sampleTransaction(1), "alice@example.com")
	statement := memory.NewWriter()
	statement.SetError(errors.New("sheet unavailable"))
	w := NewExportWorker(store, statement, 10)

	err := w.HandleExportMessage(context.Background(), amqp.NewTransactionExportMessage(1, 1))
	assert.Error(t, err)
	assert.True(t, store.exportError[1])
	assert.False(t, store.exported[1])
}

func TestProcessPending(t *testing.T) {
	store := newFakeStorage()
	store.add(sampleTransaction(1), "alice@example.com")
	store.add(sampleTransaction(2), "bob@example.com")
	store.exported[2] = true
	statement := memory.NewWriter()
	w := NewExportWorker(store, statement, 10)

	require.NoError(t, w.ProcessPending(context.Background()))
	assert.Len(t, statement.Rows(), 1)
	assert.True(t, store.exported[1])
}

func TestProcessPendingEmpty(t *testing.T) {
	w := NewExportWorker(newFakeStorage(), memory.NewWriter(), 10)
	assert.NoError(t, w.ProcessPending(context.Background()))
}
