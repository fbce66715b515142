package core

import "testing"

func TestSummarize(t *testing.T) {
	list := []Transaction{
		{Title: "salary", Amount: Money{Cents: 10000}, Kind: Income},
		{Title: "refund", Amount: Money{Cents: 500}, Kind: Income},
		{Title: "groceries", Amount: Money{Cents: 2500}, Kind: Expense},
		{Title: "coffee", Amount: Money{Cents: 1500}, Kind: Expense},
	}
	s := Summarize(list)
	if s.Income.Cents != 10500 {
		t.Fatalf("expected income 10500, got %d", s.Income.Cents)
	}
	if s.Expense.Cents != 4000 {
		t.Fatalf("expected expense 4000, got %d", s.Expense.Cents)
	}
	if s.Balance.Cents != 6500 {
		t.Fatalf("expected balance 6500, got %d", s.Balance.Cents)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Income.Cents != 0 || s.Expense.Cents != 0 || s.Balance.Cents != 0 {
		t.Fatalf("expected all-zero summary, got %+v", s)
	}
}

func TestSummarizeNegativeBalance(t *testing.T) {
	s := Summarize([]Transaction{
		{Amount: Money{Cents: 1000}, Kind: Income},
		{Amount: Money{Cents: 2500}, Kind: Expense},
	})
	if s.Balance.Cents != -1500 {
		t.Fatalf("expected balance -1500, got %d", s.Balance.Cents)
	}
	if s.Balance.Decimal() != "-15.00" {
		t.Fatalf("expected -15.00, got %s", s.Balance.Decimal())
	}
}
