package core

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"income", Income, true},
		{"expense", Expense, true},
		{" Income ", Income, true},
		{"EXPENSE", Expense, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-03-15" {
		t.Fatalf("expected 2024-03-15, got %s", d)
	}
	if _, err := ParseDate("15/03/2024"); err == nil {
		t.Fatal("expected error for non ISO date")
	}
	if _, err := ParseDate(""); err == nil {
		t.Fatal("expected error for empty date")
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Title:  "groceries",
		Amount: Money{Cents: 2500},
		Kind:   Expense,
		Date:   NewDate(2024, 3, 15),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Titles and amounts carry no required shape: whatever was submitted
	// is stored as-is.
	for _, mutate := range []func(*Transaction){
		func(tx *Transaction) { tx.Title = "  " },
		func(tx *Transaction) { tx.Amount.Cents = 0 },
		func(tx *Transaction) { tx.Amount.Cents = -100 },
	} {
		tx := valid
		mutate(&tx)
		if err := tx.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	t.Run("bad kind", func(t *testing.T) {
		tx := valid
		tx.Kind = "transfer"
		if err := tx.Validate(); !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("expected ErrInvalidKind, got %v", err)
		}
	})

	t.Run("zero date", func(t *testing.T) {
		tx := valid
		tx.Date = Date{}
		if err := tx.Validate(); err == nil {
			t.Fatal("expected error for zero date")
		}
	})
}
