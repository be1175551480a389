package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// ScopeCookieName is the cookie identifying a browser. Everything the
	// browser would keep in local storage is stored server-side under it.
	ScopeCookieName = "tg_portal_scope"

	scopeMaxAge = 365 * 24 * time.Hour
)

// Scopes issues and reads browser scope cookies.
type Scopes struct {
	Secure bool
}

// FromRequest returns the scope carried by the request, if any.
func (s Scopes) FromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(ScopeCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}

// Ensure returns the request's scope, issuing a new cookie when it has none.
func (s Scopes) Ensure(w http.ResponseWriter, r *http.Request) string {
	if scope, ok := s.FromRequest(r); ok {
		return scope
	}

	scope := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ScopeCookieName,
		Value:    scope,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(scopeMaxAge.Seconds()),
	})
	return scope
}

// Middleware makes sure every request has a scope and puts it into the context.
func (s Scopes) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := s.Ensure(w, r)
		next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
	})
}
