package http

import (
	"errors"
	"log/slog"
	"net/http"

	"tally/internal/core"
	"tally/internal/session"
)

type authPage struct {
	Flash *Flash
	Email string
}

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "signup.html", authPage{Flash: popFlash(w, r)})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setFlash(w, "error", "Invalid form submission.")
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	username := r.Form.Get("username")
	email := r.Form.Get("email")
	password := r.Form.Get("password")

	account, err := s.accounts.Signup(r.Context(), username, email, password)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			setFlash(w, "error", "That email is already registered.")
		} else {
			setFlash(w, "error", err.Error())
		}
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	slog.InfoContext(r.Context(), "Signup completed", "account_id", account.ID)
	setFlash(w, "success", "Account created. Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", authPage{Flash: popFlash(w, r)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setFlash(w, "error", "Invalid form submission.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	email := r.Form.Get("email")
	password := r.Form.Get("password")

	account, err := s.accounts.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			setFlash(w, "error", "Invalid email or password.")
		} else {
			slog.ErrorContext(r.Context(), "Login failed", "error", err)
			setFlash(w, "error", "Something went wrong. Please try again.")
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := s.sessions.Start(w, account); err != nil {
		slog.ErrorContext(r.Context(), "Failed to start session", "error", err, "account_id", account.ID)
		setFlash(w, "error", "Something went wrong. Please try again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.End(w)
	setFlash(w, "success", "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type profilePage struct {
	Flash    *Flash
	Name     string
	Username string
	Email    string
}

func (s *Server) handleProfileForm(w http.ResponseWriter, r *http.Request, sess session.Session) {
	account, err := s.accounts.Profile(r.Context(), sess.AccountID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Profile load failed", "error", err, "account_id", sess.AccountID)
		s.sessions.End(w)
		setFlash(w, "error", "Please log in to continue.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	s.render(w, r, "profile.html", profilePage{
		Flash:    popFlash(w, r),
		Name:     sess.Name,
		Username: account.Username,
		Email:    account.Email,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, sess session.Session) {
	if err := r.ParseForm(); err != nil {
		setFlash(w, "error", "Invalid form submission.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	username := r.Form.Get("username")
	email := r.Form.Get("email")
	password := r.Form.Get("password")

	if err := s.accounts.UpdateProfile(r.Context(), sess.AccountID, username, email, password); err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			setFlash(w, "error", "That email is already registered.")
		} else {
			setFlash(w, "error", err.Error())
		}
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	setFlash(w, "success", "Profile updated.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
