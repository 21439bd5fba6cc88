// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// SessionCookie is the name of the cookie carrying the opaque session token.
const SessionCookie = "gatehouse_session"

type contextKey int

const sessionContextKey contextKey = iota

// sessionFrom returns the session attached to the request context.
// The session middleware guarantees it is present on every handler.
func sessionFrom(ctx context.Context) *auth.WebSession {
	session, _ := ctx.Value(sessionContextKey).(*auth.WebSession)
	return session
}

// withSession ensures every request carries a server-side session. A valid
// cookie resolves to its existing session; anything else gets a fresh
// anonymous session so flash messages work before login.
func (h *Handlers) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if cookie, err := r.Cookie(SessionCookie); err == nil {
			session, validateErr := h.auth.ValidateSession(ctx, cookie.Value)
			if validateErr == nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionContextKey, session)))
				return
			}
		}

		session, token, err := h.auth.BeginSession(ctx)
		if err != nil {
			errutil.LogError(h.logger, "begin session", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		h.setSessionCookie(w, token, session.ExpiresAt)
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionContextKey, session)))
	})
}

// requireAuth gates a route behind an authenticated session.
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r.Context())
		if session == nil || !session.IsAuthenticated() {
			http.Redirect(w, r, "/login/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
