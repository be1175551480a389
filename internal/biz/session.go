package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
)

// Local storage keys of the session record.
const (
	KeyUser             = "user"
	KeySessionToken     = "session_token"
	KeySessionOrigin    = "session_origin"
	KeySessionCreatedAt = "session_created_at"
)

var sessionKeys = []string{KeyUser, KeySessionToken, KeySessionOrigin, KeySessionCreatedAt}

// LocalStorage is string key/value storage partitioned by browser scope.
type LocalStorage interface {
	// Get returns the values present among keys; missing keys are left out.
	Get(ctx context.Context, scope string, keys ...string) (map[string]string, error)
	// SetMany writes all entries in one operation, overwriting existing values.
	SetMany(ctx context.Context, scope string, entries map[string]string) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, scope string, keys ...string) error
	// Close releases the storage.
	Close() error
}

// SessionStore keeps one session record per browser scope.
type SessionStore struct {
	storage LocalStorage
	now     func() time.Time
}

// NewSessionStore creates a SessionStore over storage.
func NewSessionStore(storage LocalStorage) *SessionStore {
	return &SessionStore{storage: storage, now: time.Now}
}

// Write replaces the scope's record.
func (s *SessionStore) Write(ctx context.Context, scope string, profile auth.Profile, credential string, origin auth.Origin) error {
	user, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	entries := map[string]string{
		KeyUser:             string(user),
		KeySessionToken:     credential,
		KeySessionOrigin:    string(origin),
		KeySessionCreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.storage.SetMany(ctx, scope, entries); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Read returns the scope's record, or nil when there is none. A record with
// a missing field or an undecodable profile counts as none.
func (s *SessionStore) Read(ctx context.Context, scope string) (*auth.SessionRecord, error) {
	values, err := s.storage.Get(ctx, scope, sessionKeys...)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	rawUser, ok := values[KeyUser]
	if !ok {
		return nil, nil
	}
	token, ok := values[KeySessionToken]
	if !ok || token == "" {
		return nil, nil
	}

	var profile auth.Profile
	if err := json.Unmarshal([]byte(rawUser), &profile); err != nil {
		return nil, nil
	}

	rec := &auth.SessionRecord{
		Profile:    profile,
		Credential: token,
		Origin:     auth.ParseOrigin(values[KeySessionOrigin]),
	}
	if created, err := time.Parse(time.RFC3339, values[KeySessionCreatedAt]); err == nil {
		rec.CreatedAt = created
	}
	return rec, nil
}

// Clear removes the scope's record. Clearing an empty scope is fine.
func (s *SessionStore) Clear(ctx context.Context, scope string) error {
	if err := s.storage.Delete(ctx, scope, sessionKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
