// Package accounts handles registration, credential checks and profile
// maintenance for registered identities.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tally/internal/core"
)

// dummyHash keeps Authenticate's timing flat when the email is unknown.
var dummyHash = []byte("$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Repository is the account persistence surface the service needs.
type Repository interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	AccountByEmail(ctx context.Context, email string) (core.Account, error)
	Account(ctx context.Context, id int64) (core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) error
}

type Service struct {
	repo Repository
	cost int
}

func NewService(repo Repository, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 12
	}
	return &Service{repo: repo, cost: bcryptCost}
}

// Signup registers a new account. The email is lowercased before storage so
// lookups are case insensitive. Returns ErrDuplicateEmail when taken.
// Fields are stored as submitted; the forms carry the only input hints.
func (s *Service) Signup(ctx context.Context, username, email, password string) (core.Account, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return core.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.repo.CreateAccount(ctx, core.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account registered", "id", account.ID, "username", account.Username)
	return account, nil
}

// Authenticate checks an email/password pair. It returns
// ErrInvalidCredentials for both unknown emails and wrong passwords so a
// caller cannot tell which half failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (core.Account, error) {
	account, err := s.repo.AccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Burn a compare anyway so unknown emails take as long as wrong passwords.
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return core.Account{}, core.ErrInvalidCredentials
		}
		return core.Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return core.Account{}, core.ErrInvalidCredentials
	}

	return account, nil
}

// Profile returns the account for the given id.
func (s *Service) Profile(ctx context.Context, id int64) (core.Account, error) {
	return s.repo.Account(ctx, id)
}

// UpdateProfile overwrites the account's username, email and password.
// The password is rehashed; an empty password keeps the current one.
func (s *Service) UpdateProfile(ctx context.Context, id int64, username, email, password string) error {
	account, err := s.repo.Account(ctx, id)
	if err != nil {
		return err
	}

	account.Username = strings.TrimSpace(username)
	account.Email = normalizeEmail(email)
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = string(hash)
	}

	return s.repo.UpdateAccount(ctx, account)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
