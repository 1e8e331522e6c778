// Package auth builds the cookie session store used for per-browser state
// that does not need an account, such as the checkout shipping draft.
package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionMaxAge keeps drafts for 30 days.
const SessionMaxAge = 86400 * 30

func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(SessionMaxAge)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
