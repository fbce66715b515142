package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

func requestWithCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestStartAndCurrent(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, core.Account{ID: 42, Username: "alice"}))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, int(time.Hour.Seconds()), cookies[0].MaxAge)

	sess, err := m.Current(requestWithCookies(t, rec))
	require.NoError(t, err)
	assert.Equal(t, int64(42), sess.AccountID)
	assert.Equal(t, "alice", sess.Name)
}

func TestCurrentNoCookie(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	_, err := m.Current(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentTamperedToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, core.Account{ID: 42, Username: "alice"}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	cookie := rec.Result().Cookies()[0]
	cookie.Value += "tampered"
	req.AddCookie(cookie)

	_, err := m.Current(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentWrongSecret(t *testing.T) {
	issuer := NewManager("secret-one", time.Hour)
	verifier := NewManager("secret-two", time.Hour)

	rec := httptest.NewRecorder()
	require.NoError(t, issuer.Start(rec, core.Account{ID: 42, Username: "alice"}))

	_, err := verifier.Current(requestWithCookies(t, rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, core.Account{ID: 42, Username: "alice"}))

	_, err := m.Current(requestWithCookies(t, rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEnd(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	rec := httptest.NewRecorder()
	m.End(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
