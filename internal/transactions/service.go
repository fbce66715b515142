// Package transactions orchestrates transaction CRUD across the SQLite
// store and the AMQP export queue.
package transactions

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
)

// Repository is the transaction persistence surface the service needs.
type Repository interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	TransactionsByAccount(ctx context.Context, accountID int64) ([]core.Transaction, error)
	Transaction(ctx context.Context, accountID, id int64) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, int64, error)
	DeleteTransaction(ctx context.Context, accountID, id int64) error
}

// Publisher pushes export messages onto the queue. A nil Publisher is fine,
// publishing is then skipped.
type Publisher interface {
	PublishTransactionExport(ctx context.Context, id, version int64) error
}

type Service struct {
	repo      Repository
	publisher Publisher
}

func NewService(repo Repository, publisher Publisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// Create parses the raw form values, validates the result and saves it.
// An empty or malformed date falls back to today.
func (s *Service) Create(ctx context.Context, accountID int64, title, amountStr, kindStr, dateStr string) (core.Transaction, error) {
	t, err := parseTransaction(accountID, title, amountStr, kindStr, dateStr)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.repo.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	// Non-blocking: the record is saved locally either way. New rows start
	// at version 1.
	if err := s.publishExport(ctx, saved.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", saved.ID, "error", err)
	}

	return saved, nil
}

// List returns all transactions for the account, newest first.
func (s *Service) List(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	return s.repo.TransactionsByAccount(ctx, accountID)
}

// Get returns one transaction scoped to the account.
func (s *Service) Get(ctx context.Context, accountID, id int64) (core.Transaction, error) {
	return s.repo.Transaction(ctx, accountID, id)
}

// Update overwrites a transaction's fields and re-queues it for export.
func (s *Service) Update(ctx context.Context, accountID, id int64, title, amountStr, kindStr, dateStr string) (core.Transaction, error) {
	t, err := parseTransaction(accountID, title, amountStr, kindStr, dateStr)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = id

	updated, version, err := s.repo.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.publishExport(ctx, updated.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", updated.ID, "error", err)
	}

	return updated, nil
}

// Delete removes a transaction. Deleted rows are not exported.
func (s *Service) Delete(ctx context.Context, accountID, id int64) error {
	return s.repo.DeleteTransaction(ctx, accountID, id)
}

func (s *Service) publishExport(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Export publisher not available, skipping message")
		return nil
	}
	return s.publisher.PublishTransactionExport(ctx, id, version)
}

func parseTransaction(accountID int64, title, amountStr, kindStr, dateStr string) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return core.Transaction{}, err
	}

	kind, err := core.ParseKind(kindStr)
	if err != nil {
		return core.Transaction{}, err
	}

	date, err := core.ParseDate(dateStr)
	if err != nil {
		date = core.Today()
	}

	t := core.Transaction{
		AccountID: accountID,
		Title:     title,
		Amount:    core.Money{Cents: cents},
		Kind:      kind,
		Date:      date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
