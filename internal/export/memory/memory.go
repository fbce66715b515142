// Package memory is an in-memory StatementWriter used in tests and local
// development when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
	ports "tally/internal/export"
)

type Row struct {
	OwnerEmail  string
	Transaction core.Transaction
}

type Writer struct {
	mu   sync.Mutex
	rows []Row
	err  error
}

var _ ports.StatementWriter = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) AppendTransaction(_ context.Context, ownerEmail string, t core.Transaction) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.rows = append(w.rows, Row{OwnerEmail: ownerEmail, Transaction: t})
	return fmt.Sprintf("mem:%d", len(w.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() []Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Row, len(w.rows))
	copy(out, w.rows)
	return out
}

// SetError makes subsequent appends fail, for exercising error paths.
func (w *Writer) SetError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}
