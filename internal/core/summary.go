package core

// Summary holds the aggregate totals shown on an account's dashboard.
type Summary struct {
	Income  Money
	Expense Money
	Balance Money
}

// Summarize folds a transaction list into income/expense totals and the
// net balance. Pure, single pass; an empty list yields all-zero totals.
func Summarize(list []Transaction) Summary {
	var s Summary
	for _, t := range list {
		switch t.Kind {
		case Income:
			s.Income.Cents += t.Amount.Cents
		case Expense:
			s.Expense.Cents += t.Amount.Cents
		}
	}
	s.Balance.Cents = s.Income.Cents - s.Expense.Cents
	return s
}
