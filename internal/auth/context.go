package auth

import (
	"context"
	"errors"
)

// unexported, collision-proof context keys
type (
	recordContextKey struct{}
	scopeContextKey  struct{}
)

var (
	// ErrNoRecordInContext is returned when no session record is found in context
	ErrNoRecordInContext = errors.New("no session record in context")
)

// WithRecord returns a context carrying the session record.
func WithRecord(ctx context.Context, rec *SessionRecord) context.Context {
	return context.WithValue(ctx, recordContextKey{}, rec)
}

// RecordFromContext extracts the session record placed by Guard
func RecordFromContext(ctx context.Context) (*SessionRecord, error) {
	rec, ok := ctx.Value(recordContextKey{}).(*SessionRecord)
	if !ok || rec == nil {
		return nil, ErrNoRecordInContext
	}
	return rec, nil
}

// MustRecordFromContext panics if no record in context (use after Guard)
func MustRecordFromContext(ctx context.Context) *SessionRecord {
	rec, err := RecordFromContext(ctx)
	if err != nil {
		panic("expected session record in context")
	}
	return rec
}

// WithScope returns a context carrying the browser scope id.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext returns the browser scope id, if any.
func ScopeFromContext(ctx context.Context) (string, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(string)
	return scope, ok && scope != ""
}
