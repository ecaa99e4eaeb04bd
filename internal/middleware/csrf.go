package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

type csrfContextKey string

// csrfTokenCtxKey is the context key for the CSRF token.
const csrfTokenCtxKey csrfContextKey = "csrf_token"

// safeMethods are the methods CSRFProtect lets through without a token.
var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// CSRFProtect issues a per-session CSRF token and validates it on every
// state-changing request. Console forms echo the token in the csrf_token
// field; the X-CSRF-Token header is accepted too. Every console form is a
// plain url-encoded POST, so there is no multipart handling here.
//
// This middleware must run inside scs LoadAndSave (i.e., after RequireAuth)
// so the session is available.
func CSRFProtect(sm *scs.SessionManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sm.GetString(r.Context(), "csrf_token")
		if token == "" {
			token = newCSRFToken()
			sm.Put(r.Context(), "csrf_token", token)
		}

		if !safeMethods[r.Method] && !csrfTokensMatch(token, requestCSRFToken(r)) {
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
			return
		}

		// Store token in context for template rendering.
		ctx := context.WithValue(r.Context(), csrfTokenCtxKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestCSRFToken pulls the submitted token from the header or, failing
// that, from the csrf_token form field.
func requestCSRFToken(r *http.Request) string {
	if t := r.Header.Get("X-CSRF-Token"); t != "" {
		return t
	}
	_ = r.ParseForm()
	return r.FormValue("csrf_token")
}

// CSRFTokenFromContext retrieves the CSRF token from the request context.
func CSRFTokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(csrfTokenCtxKey).(string)
	return s
}

// newCSRFToken returns a 32-byte hex-encoded random string.
func newCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand should never fail on supported platforms.
		panic("middleware: csrf token entropy: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// csrfTokensMatch compares in constant time; an empty token never matches.
func csrfTokensMatch(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
