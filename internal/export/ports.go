// Package export defines the outbound statement surface the worker writes to.
package export

import (
	"context"

	"tally/internal/core"
)

// StatementWriter appends a transaction row to an external statement and
// returns an opaque reference to where it landed.
type StatementWriter interface {
	AppendTransaction(ctx context.Context, ownerEmail string, t core.Transaction) (string, error)
}
