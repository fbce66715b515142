// Package session manages login sessions via a signed JWT cookie.
package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tally/internal/core"
)

const cookieName = "tally_session"

// ErrNoSession is returned when the request carries no valid session.
// Missing, expired and tampered cookies all look the same to callers.
var ErrNoSession = fmt.Errorf("no active session")

// Session identifies the logged-in account for one request.
type Session struct {
	AccountID int64
	Name      string
}

type claims struct {
	jwt.RegisteredClaims
	AccountID int64  `json:"uid"`
	Name      string `json:"name"`
}

// Manager signs and verifies session cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Start issues a session cookie for the account.
func (m *Manager) Start(w http.ResponseWriter, account core.Account) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		AccountID: account.ID,
		Name:      account.Username,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Current returns the session carried by the request, or ErrNoSession.
func (m *Manager) Current(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, ErrNoSession
	}

	var c claims
	token, err := jwt.ParseWithClaims(cookie.Value, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Session{}, ErrNoSession
	}

	return Session{AccountID: c.AccountID, Name: c.Name}, nil
}

// End clears the session cookie.
func (m *Manager) End(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
