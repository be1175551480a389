package biz

import (
	"context"
	"fmt"
	"strconv"
)

const (
	KeyPrefNotifications = "pref_notifications"
	KeyPrefEmailUpdates  = "pref_email_updates"
)

// Preferences are the portal's notification toggles.
type Preferences struct {
	Notifications bool `json:"notifications"`
	EmailUpdates  bool `json:"emailUpdates"`
}

// DefaultPreferences is what a browser starts with.
func DefaultPreferences() Preferences {
	return Preferences{Notifications: true, EmailUpdates: false}
}

// PreferenceStore keeps Preferences per browser scope.
type PreferenceStore struct {
	storage LocalStorage
}

// NewPreferenceStore creates a PreferenceStore over storage.
func NewPreferenceStore(storage LocalStorage) *PreferenceStore {
	return &PreferenceStore{storage: storage}
}

// Get returns the scope's preferences, defaulting any missing or bad value.
func (p *PreferenceStore) Get(ctx context.Context, scope string) (Preferences, error) {
	prefs := DefaultPreferences()

	values, err := p.storage.Get(ctx, scope, KeyPrefNotifications, KeyPrefEmailUpdates)
	if err != nil {
		return prefs, fmt.Errorf("failed to read preferences: %w", err)
	}
	if v, err := strconv.ParseBool(values[KeyPrefNotifications]); err == nil {
		prefs.Notifications = v
	}
	if v, err := strconv.ParseBool(values[KeyPrefEmailUpdates]); err == nil {
		prefs.EmailUpdates = v
	}
	return prefs, nil
}

// Set stores the scope's preferences.
func (p *PreferenceStore) Set(ctx context.Context, scope string, prefs Preferences) error {
	err := p.storage.SetMany(ctx, scope, map[string]string{
		KeyPrefNotifications: strconv.FormatBool(prefs.Notifications),
		KeyPrefEmailUpdates:  strconv.FormatBool(prefs.EmailUpdates),
	})
	if err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
