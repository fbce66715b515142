package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind distinguishes money coming in from money going out.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Account is a registered identity. PasswordHash holds a bcrypt hash,
	// never the plaintext credential.
	Account struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
	}

	// Transaction is a single income or expense record owned by one account.
	Transaction struct {
		ID        int64
		AccountID int64
		Title     string
		Amount    Money
		Kind      Kind
		Date      Date
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// ParseKind validates a kind submitted as text.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, the form it is stored in.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Validate checks the fields the schema constrains. Titles and amounts are
// stored as submitted; only the kind and date have a required shape.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}
