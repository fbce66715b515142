// Package http serves the web UI: auth pages, the dashboard and
// transaction CRUD forms.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tally/internal/accounts"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/session"
	"tally/internal/transactions"
	appweb "tally/web"
)

// Deps carries everything the server needs. Storage may be unavailable at
// startup; the server then runs degraded and tells users so instead of
// crashing.
type Deps struct {
	Accounts     *accounts.Service
	Transactions *transactions.Service
	Sessions     *session.Manager
	StoreReady   bool
}

type Server struct {
	http.Server
	templates    *template.Template
	accounts     *accounts.Service
	transactions *transactions.Service
	sessions     *session.Manager
	storeReady   bool
	rateLimiter  *rateLimiter

	// Per-account dashboard list cache, invalidated on every mutation.
	txCache      *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		accounts:     deps.Accounts,
		transactions: deps.Transactions,
		sessions:     deps.Sessions,
		storeReady:   deps.StoreReady,
		rateLimiter:  newRateLimiter(),
		txCache:      cache.NewLRUCache[[]core.Transaction](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.txCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.handleHome))
	mux.HandleFunc("GET /signup", s.withSecurityHeaders(s.handleSignupForm))
	mux.HandleFunc("POST /signup", s.withSecurityHeaders(s.withStore(s.handleSignup)))
	mux.HandleFunc("GET /login", s.withSecurityHeaders(s.handleLoginForm))
	mux.HandleFunc("POST /login", s.withSecurityHeaders(s.withStore(s.handleLogin)))
	mux.HandleFunc("GET /logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("POST /logout", s.withSecurityHeaders(s.handleLogout))

	mux.HandleFunc("GET /dashboard", s.withSecurityHeaders(s.withStore(s.requireSession(s.handleDashboard))))
	mux.HandleFunc("GET /add", s.withSecurityHeaders(s.withStore(s.requireSession(s.handleAddForm))))
	mux.HandleFunc("POST /add", s.withSecurityHeaders(s.withStore(s.requireSession(s.handleAdd))))
	mux.HandleFunc("GET /edit/{id}", s.withSecurityHeaders(s.withStore(s.requireSession(s.handleEditForm))))
	mux.HandleFunc("POST /edit/{id}", s.withSecurityHeaders(s.withStore(s.requireSession(s.handleEdit))))
	mux.HandleFunc("GET /delete/{id}", s.withSecurityHeaders(s.withStore(s.requireSession(s.handleDeleteForm))))
	mux.HandleFunc("POST /delete/{id}", s.withSecurityHeaders(s.withStore(s.requireSession(s.handleDelete))))
	mux.HandleFunc("GET /profile", s.withSecurityHeaders(s.withStore(s.requireSession(s.handleProfileForm))))
	mux.HandleFunc("POST /profile", s.withSecurityHeaders(s.withStore(s.requireSession(s.handleProfile))))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// sessionHandler runs with a verified session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess session.Session)

// requireSession is the single auth guard: every protected route goes
// through here. Unauthenticated requests bounce to the login page.
func (s *Server) requireSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Current(r)
		if err != nil {
			setFlash(w, "error", "Please log in to continue.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, sess)
	}
}

// withStore rejects store-backed operations while storage is unavailable.
func (s *Server) withStore(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady {
			slog.WarnContext(r.Context(), "Request rejected, store unavailable", "url", r.URL.Path)
			setFlash(w, "error", "The service is temporarily unavailable. Please try again later.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func (s *Server) cacheKey(accountID int64) string {
	return strconv.FormatInt(accountID, 10)
}

func (s *Server) invalidateTransactions(accountID int64) {
	s.txCache.Delete(s.cacheKey(accountID))
}

func (s *Server) listTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	key := s.cacheKey(accountID)

	if list, found := s.txCache.Get(key); found {
		slog.DebugContext(ctx, "Transaction list cache hit", "account_id", accountID, "count", len(list))
		result := make([]core.Transaction, len(list))
		copy(result, list)
		return result, nil
	}

	list, err := s.transactions.List(ctx, accountID)
	if err != nil {
		return nil, err
	}

	s.txCache.Set(key, list)
	return list, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.storeReady {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
