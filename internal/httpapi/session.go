package httpapi

import (
	"net/http"
	"time"

	"ecovia.org/internal/auth"
)

// SessionCookieName is the cookie carrying the session token. The cookie
// is the whole session: there is no server-side session table, so logout
// only clears this browser's copy.
const SessionCookieName = "authToken"

// SessionManager reads and writes the session cookie. Secure is set in
// production only so local development over plain HTTP keeps working.
type SessionManager struct {
	secure bool
	maxAge time.Duration
}

func NewSessionManager(secure bool) *SessionManager {
	return &SessionManager{secure: secure, maxAge: auth.SessionTTL}
}

// Start sets the session cookie for an issued token.
func (m *SessionManager) Start(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Read returns the raw cookie value if present. No validation happens
// here; the guard and handlers verify the token themselves.
func (m *SessionManager) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// End deletes the session cookie.
func (m *SessionManager) End(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
