package transactions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

type fakeRepo struct {
	txs      map[int64]core.Transaction
	versions map[int64]int64
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		txs:      make(map[int64]core.Transaction),
		versions: make(map[int64]int64),
		nextID:   1,
	}
}

func (f *fakeRepo) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = f.nextID
	f.nextID++
	f.txs[t.ID] = t
	f.versions[t.ID] = 1
	return t, nil
}

func (f *fakeRepo) TransactionsByAccount(_ context.Context, accountID int64) ([]core.Transaction, error) {
	var list []core.Transaction
	for _, t := range f.txs {
		if t.AccountID == accountID {
			list = append(list, t)
		}
	}
	return list, nil
}

func (f *fakeRepo) Transaction(_ context.Context, accountID, id int64) (core.Transaction, error) {
	t, ok := f.txs[id]
	if !ok || t.AccountID != accountID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, int64, error) {
	existing, ok := f.txs[t.ID]
	if !ok || existing.AccountID != t.AccountID {
		return core.Transaction{}, 0, core.ErrNotFound
	}
	f.txs[t.ID] = t
	f.versions[t.ID]++
	return t, f.versions[t.ID], nil
}

func (f *fakeRepo) DeleteTransaction(_ context.Context, accountID, id int64) error {
	t, ok := f.txs[id]
	if !ok || t.AccountID != accountID {
		return core.ErrNotFound
	}
	delete(f.txs, id)
	return nil
}

type fakePublisher struct {
	published []int64
	versions  []int64
	err       error
}

func (f *fakePublisher) PublishTransactionExport(_ context.Context, id, version int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, id)
	f.versions = append(f.versions, version)
	return nil
}

func TestCreate(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	tx, err := svc.Create(ctx, 1, "groceries", "25.50", "expense", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, int64(2550), tx.Amount.Cents)
	assert.Equal(t, core.Expense, tx.Kind)
	assert.Equal(t, "2024-03-15", tx.Date.String())
	assert.Equal(t, []int64{tx.ID}, pub.published)
}

func TestCreateDateFallback(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	tx, err := svc.Create(context.Background(), 1, "coffee", "3,50", "expense", "not-a-date")
	require.NoError(t, err)
	assert.Equal(t, core.Today().String(), tx.Date.String())

	tx, err = svc.Create(context.Background(), 1, "coffee", "3.50", "expense", "")
	require.NoError(t, err)
	assert.Equal(t, core.Today().String(), tx.Date.String())
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "bad amount", "abc", "expense", "2024-03-15")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.Create(ctx, 1, "bad kind", "10", "transfer", "2024-03-15")
	assert.ErrorIs(t, err, core.ErrInvalidKind)
}

func TestCreateStoresWhatWasSubmitted(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()

	// Only the amount must parse and the kind must be income or expense.
	// Blank titles and zero or negative amounts go through untouched.
	tx, err := svc.Create(ctx, 1, "   ", "10", "income", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "   ", tx.Title)

	tx, err = svc.Create(ctx, 1, "zero", "0", "expense", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, int64(0), tx.Amount.Cents)

	tx, err = svc.Create(ctx, 1, "correction", "-12.50", "expense", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, int64(-1250), tx.Amount.Cents)
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewService(repo, pub)

	tx, err := svc.Create(context.Background(), 1, "groceries", "25.50", "expense", "2024-03-15")
	require.NoError(t, err, "publish failure must not fail the request")
	assert.Contains(t, repo.txs, tx.ID)
}

func TestUpdate(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	tx, err := svc.Create(ctx, 1, "groceries", "25.50", "expense", "2024-03-15")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 1, tx.ID, "weekly groceries", "30", "expense", "2024-03-16")
	require.NoError(t, err)
	assert.Equal(t, "weekly groceries", updated.Title)
	assert.Equal(t, int64(3000), updated.Amount.Cents)
	assert.Equal(t, []int64{tx.ID, tx.ID}, pub.published)

	_, err = svc.Update(ctx, 2, tx.ID, "stolen", "30", "expense", "2024-03-16")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdatePublishesRowVersion(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	tx, err := svc.Create(ctx, 1, "groceries", "25.50", "expense", "2024-03-15")
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, tx.ID, "groceries", "26", "expense", "2024-03-15")
	require.NoError(t, err)
	_, err = svc.Update(ctx, 1, tx.ID, "groceries", "27", "expense", "2024-03-15")
	require.NoError(t, err)

	// The message carries the row version the store assigned, not a literal.
	assert.Equal(t, []int64{1, 2, 3}, pub.versions)
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	tx, err := svc.Create(ctx, 1, "groceries", "25.50", "expense", "2024-03-15")
	require.NoError(t, err)
	published := len(pub.published)

	assert.ErrorIs(t, svc.Delete(ctx, 2, tx.ID), core.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, 1, tx.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, tx.ID), core.ErrNotFound)
	assert.Len(t, pub.published, published, "deletes do not publish export messages")
}

func TestGetAndList(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()

	tx, err := svc.Create(ctx, 1, "salary", "1000", "income", "2024-03-01")
	require.NoError(t, err)

	got, err := svc.Get(ctx, 1, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx, got)

	_, err = svc.Get(ctx, 2, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
