package http

import (
	"errors"
	"log/slog"
	"net/http"

	"tally/internal/core"
	"tally/internal/session"
)

type transactionRow struct {
	ID     int64
	Title  string
	Amount string
	Kind   string
	Date   string
}

type dashboardPage struct {
	Flash        *Flash
	Name         string
	Income       string
	Expense      string
	Balance      string
	Transactions []transactionRow
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess session.Session) {
	list, err := s.listTransactions(r.Context(), sess.AccountID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard list failed", "error", err, "account_id", sess.AccountID)
		setFlash(w, "error", "Could not load your transactions. Please try again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	summary := core.Summarize(list)
	page := dashboardPage{
		Flash:   popFlash(w, r),
		Name:    sess.Name,
		Income:  summary.Income.Decimal(),
		Expense: summary.Expense.Decimal(),
		Balance: summary.Balance.Decimal(),
	}
	for _, t := range list {
		page.Transactions = append(page.Transactions, newTransactionRow(t))
	}

	s.render(w, r, "dashboard.html", page)
}

type transactionFormPage struct {
	Flash       *Flash
	Name        string
	Transaction transactionRow
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request, sess session.Session) {
	s.render(w, r, "add.html", transactionFormPage{
		Flash: popFlash(w, r),
		Name:  sess.Name,
		Transaction: transactionRow{
			Kind: string(core.Expense),
			Date: core.Today().String(),
		},
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request, sess session.Session) {
	if err := r.ParseForm(); err != nil {
		setFlash(w, "error", "Invalid form submission.")
		http.Redirect(w, r, "/add", http.StatusSeeOther)
		return
	}

	_, err := s.transactions.Create(r.Context(), sess.AccountID,
		r.Form.Get("title"), r.Form.Get("amount"), r.Form.Get("kind"), r.Form.Get("date"))
	if err != nil {
		setFlash(w, "error", formError(err))
		http.Redirect(w, r, "/add", http.StatusSeeOther)
		return
	}

	s.invalidateTransactions(sess.AccountID)
	setFlash(w, "success", "Transaction added.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request, sess session.Session) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	t, err := s.transactions.Get(r.Context(), sess.AccountID, id)
	if err != nil {
		s.transactionLookupFailed(w, r, err, sess.AccountID, id)
		return
	}

	s.render(w, r, "edit.html", transactionFormPage{
		Flash:       popFlash(w, r),
		Name:        sess.Name,
		Transaction: newTransactionRow(t),
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, sess session.Session) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		setFlash(w, "error", "Invalid form submission.")
		http.Redirect(w, r, "/edit/"+r.PathValue("id"), http.StatusSeeOther)
		return
	}

	_, err := s.transactions.Update(r.Context(), sess.AccountID, id,
		r.Form.Get("title"), r.Form.Get("amount"), r.Form.Get("kind"), r.Form.Get("date"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.transactionLookupFailed(w, r, err, sess.AccountID, id)
			return
		}
		setFlash(w, "error", formError(err))
		http.Redirect(w, r, "/edit/"+r.PathValue("id"), http.StatusSeeOther)
		return
	}

	s.invalidateTransactions(sess.AccountID)
	setFlash(w, "success", "Transaction updated.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request, sess session.Session) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	t, err := s.transactions.Get(r.Context(), sess.AccountID, id)
	if err != nil {
		s.transactionLookupFailed(w, r, err, sess.AccountID, id)
		return
	}

	s.render(w, r, "delete.html", transactionFormPage{
		Flash:       popFlash(w, r),
		Name:        sess.Name,
		Transaction: newTransactionRow(t),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, sess session.Session) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := s.transactions.Delete(r.Context(), sess.AccountID, id); err != nil {
		s.transactionLookupFailed(w, r, err, sess.AccountID, id)
		return
	}

	s.invalidateTransactions(sess.AccountID)
	setFlash(w, "success", "Transaction deleted.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// transactionLookupFailed handles missing rows, including another account's
// rows, which deliberately look identical to missing ones.
func (s *Server) transactionLookupFailed(w http.ResponseWriter, r *http.Request, err error, accountID, id int64) {
	if !errors.Is(err, core.ErrNotFound) {
		slog.ErrorContext(r.Context(), "Transaction lookup failed", "error", err, "account_id", accountID, "id", id)
	}
	setFlash(w, "error", "Transaction not found.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func newTransactionRow(t core.Transaction) transactionRow {
	return transactionRow{
		ID:     t.ID,
		Title:  t.Title,
		Amount: t.Amount.Decimal(),
		Kind:   string(t.Kind),
		Date:   t.Date.String(),
	}
}

func formError(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Please enter a valid amount."
	case errors.Is(err, core.ErrInvalidKind):
		return "Please pick income or expense."
	default:
		return err.Error()
	}
}
