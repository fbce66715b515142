// Package demo is a small standalone service for generic user records,
// kept separate from the main app. It exists to try out API shapes
// without touching the transaction store.
package demo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// UserRecord is a free-form user entry identified by a UUID.
type UserRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

// NewStore opens (and initializes) the demo database. It lives apart from
// the main transaction store on purpose.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init users table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AddUser(ctx context.Context, name, email string) (UserRecord, error) {
	rec := UserRecord{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		CreatedAt: time.Now().UTC(),
	}
	if rec.Name == "" {
		return UserRecord{}, fmt.Errorf("name cannot be empty")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Email, rec.CreatedAt)
	if err != nil {
		return UserRecord{}, fmt.Errorf("insert user: %w", err)
	}
	return rec, nil
}

func (s *Store) Users(ctx context.Context) ([]UserRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var list []UserRecord
	for rows.Next() {
		var rec UserRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users rows: %w", err)
	}
	return list, nil
}

// Handler returns the demo service's routes: POST /adduser takes a form,
// GET /users returns JSON.
func Handler(store *Store) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /adduser", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		rec, err := store.AddUser(r.Context(), r.Form.Get("name"), r.Form.Get("email"))
		if err != nil {
			slog.ErrorContext(r.Context(), "Add user failed", "error", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rec)
	})

	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		list, err := store.Users(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "List users failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []UserRecord{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	})

	return mux
}
