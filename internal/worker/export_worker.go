// Package worker drains the export queue, writing transactions to the
// external statement.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/storage"
)

// Storage is the persistence surface the worker needs.
type Storage interface {
	ExportRow(ctx context.Context, id int64) (core.Transaction, string, error)
	PendingExport(ctx context.Context, limit int) ([]storage.PendingTransaction, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

type ExportWorker struct {
	storage   Storage
	statement export.StatementWriter
	batchSize int
}

func NewExportWorker(storage Storage, statement export.StatementWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		statement: statement,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export message from the queue.
// A transaction deleted since the message was published is acked silently.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"id", msg.ID,
		"version", msg.Version)

	if err := w.exportTransaction(ctx, msg.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before export, skipping", "id", msg.ID)
			return nil
		}
		return err
	}
	return nil
}

// ProcessPending exports transactions the queue missed. This is a backup
// sweep in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, p := range pending {
		if err := w.exportTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", p.ID, "error", err)
		}
	}

	return nil
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id int64) error {
	t, ownerEmail, err := w.storage.ExportRow(ctx, id)
	if err != nil {
		return fmt.Errorf("load export row: %w", err)
	}

	ref, err := w.statement.AppendTransaction(ctx, ownerEmail, t)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to statement: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		// The row landed on the statement; only the local flag failed.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", id,
		"statement_ref", ref,
		"title", t.Title,
		"amount_cents", t.Amount.Cents)

	return nil
}
