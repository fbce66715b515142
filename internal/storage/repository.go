package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (username, email, password_hash) VALUES (?, ?, ?)`,
		a.Username, a.Email, a.PasswordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Account{}, core.ErrDuplicateEmail
		}
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("create account id: %w", err)
	}
	a.ID = id

	slog.InfoContext(ctx, "Account created", "id", a.ID, "email", a.Email)
	return a, nil
}

func (r *SQLiteRepository) AccountByEmail(ctx context.Context, email string) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash FROM accounts WHERE email = ?`,
		email).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("account by email: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) Account(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash FROM accounts WHERE id = ?`,
		id).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("account by id: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET username = ?, email = ?, password_hash = ? WHERE id = ?`,
		a.Username, a.Email, a.PasswordHash, a.ID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.ErrDuplicateEmail
		}
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (account_id, title, amount_cents, kind, tx_date) VALUES (?, ?, ?, ?, ?)`,
		t.AccountID, t.Title, t.Amount.Cents, string(t.Kind), t.Date.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"account_id", t.AccountID,
		"title", t.Title,
		"amount_cents", t.Amount.Cents,
		"kind", t.Kind)

	return t, nil
}

func (r *SQLiteRepository) TransactionsByAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, title, amount_cents, kind, tx_date
		 FROM transactions WHERE account_id = ?
		 ORDER BY tx_date DESC, id DESC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("transactions by account: %w", err)
	}
	defer rows.Close()

	var list []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transactions by account rows: %w", err)
	}
	return list, nil
}

// Transaction fetches one record, scoped to its owning account. Asking for
// another account's transaction yields ErrNotFound, same as a missing row.
func (r *SQLiteRepository) Transaction(ctx context.Context, accountID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, title, amount_cents, kind, tx_date
		 FROM transactions WHERE id = ? AND account_id = ?`,
		id, accountID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// UpdateTransaction overwrites the row, bumps its version and clears the
// export flags so the change is picked up again. The new version is
// returned for the export message.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE transactions
		 SET title = ?, amount_cents = ?, kind = ?, tx_date = ?,
		     version = version + 1, exported = FALSE, export_error = FALSE,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND account_id = ?
		 RETURNING version`,
		t.Title, t.Amount.Cents, string(t.Kind), t.Date.String(), t.ID, t.AccountID).
		Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, 0, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, 0, fmt.Errorf("update transaction: %w", err)
	}
	return t, version, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, accountID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND account_id = ?`,
		id, accountID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "account_id", accountID)
	return nil
}

// PendingTransaction holds the minimal data for export queue messages.
type PendingTransaction struct {
	ID      int64
	Version int64
}

// PendingExport returns transactions not yet written to the external statement.
func (r *SQLiteRepository) PendingExport(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version FROM transactions
		 WHERE exported = FALSE AND export_error = FALSE
		 ORDER BY id LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("pending export: %w", err)
	}
	defer rows.Close()

	var pending []PendingTransaction
	for rows.Next() {
		var p PendingTransaction
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending export rows: %w", err)
	}
	return pending, nil
}

// ExportRow returns a transaction together with its owner's email, the shape
// a statement row needs.
func (r *SQLiteRepository) ExportRow(ctx context.Context, id int64) (core.Transaction, string, error) {
	var (
		t         core.Transaction
		cents     int64
		kind      string
		date      string
		ownerMail string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.account_id, t.title, t.amount_cents, t.kind, t.tx_date, a.email
		 FROM transactions t JOIN accounts a ON a.id = t.account_id
		 WHERE t.id = ?`,
		id).Scan(&t.ID, &t.AccountID, &t.Title, &cents, &kind, &date, &ownerMail)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, "", core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, "", fmt.Errorf("export row: %w", err)
	}

	t.Amount = core.Money{Cents: cents}
	t.Kind = core.Kind(kind)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, "", fmt.Errorf("export row date: %w", err)
	}
	t.Date = d
	return t, ownerMail, nil
}

// MarkExported marks a transaction as written to the external statement.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported = TRUE, export_error = FALSE WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

// MarkExportError flags a transaction whose export failed so the periodic
// sweep stops retrying it until it changes again.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_error = TRUE WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t     core.Transaction
		cents int64
		kind  string
		date  string
	)
	if err := row.Scan(&t.ID, &t.AccountID, &t.Title, &cents, &kind, &date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Amount = core.Money{Cents: cents}
	t.Kind = core.Kind(kind)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction date: %w", err)
	}
	t.Date = d
	return t, nil
}
