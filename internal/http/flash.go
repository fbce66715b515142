package http

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const flashCookie = "tally_flash"

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Level   string // "success" or "error"
	Message string
}

func setFlash(w http.ResponseWriter, level, message string) {
	value := base64.URLEncoding.EncodeToString([]byte(level + "|" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie. Returns nil when absent
// or malformed.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	decoded, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	level, message, ok := strings.Cut(string(decoded), "|")
	if !ok || message == "" {
		return nil
	}
	return &Flash{Level: level, Message: message}
}
