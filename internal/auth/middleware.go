package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// RecordReader is the read side of the session store.
type RecordReader interface {
	Read(ctx context.Context, scope string) (*SessionRecord, error)
}

// Guard gates protected routes on the presence of a session record.
// It does not care whether the record came from a real or a demo login.
type Guard struct {
	records   RecordReader
	scopes    Scopes
	loginPath string
	logger    *zap.Logger
}

// NewGuard creates a Guard redirecting unauthenticated page views to loginPath.
func NewGuard(records RecordReader, scopes Scopes, loginPath string, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		records:   records,
		scopes:    scopes,
		loginPath: loginPath,
		logger:    logger,
	}
}

// Pages redirects visitors without a session to the login page.
func (g *Guard) Pages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := g.lookup(r)
		if rec == nil {
			http.Redirect(w, r, g.loginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithRecord(r.Context(), rec)))
	})
}

// API answers 401 to requests without a session.
func (g *Guard) API(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := g.lookup(r)
		if rec == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "no active session")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithRecord(r.Context(), rec)))
	})
}

// lookup reads the record for the request's scope. Store failures are
// treated as "no session" so the visitor falls back to logging in again.
func (g *Guard) lookup(r *http.Request) *SessionRecord {
	scope, ok := ScopeFromContext(r.Context())
	if !ok {
		scope, ok = g.scopes.FromRequest(r)
	}
	if !ok {
		return nil
	}

	rec, err := g.records.Read(r.Context(), scope)
	if err != nil {
		g.logger.Warn("session lookup failed", zap.String("scope", scope), zap.Error(err))
		return nil
	}
	return rec
}

// RequireOrigin refuses requests whose session did not come from the given origin.
// Use after Guard.
func RequireOrigin(origin Origin) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, err := RecordFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "no active session")
				return
			}
			if rec.Origin != origin {
				writeError(w, http.StatusForbidden, "forbidden", "not available for "+string(rec.Origin)+" sessions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
