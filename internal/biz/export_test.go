package biz_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/data"
)

func TestPreferenceStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := data.NewMemoryStorage()
	prefs := biz.NewPreferenceStore(storage)

	got, err := prefs.Get(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, biz.DefaultPreferences(), got)

	want := biz.Preferences{Notifications: false, EmailUpdates: true}
	require.NoError(t, prefs.Set(ctx, testScope, want))

	got, err = prefs.Get(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// a garbled value falls back to its default
	require.NoError(t, storage.SetMany(ctx, testScope, map[string]string{biz.KeyPrefNotifications: "maybe"}))
	got, err = prefs.Get(ctx, testScope)
	require.NoError(t, err)
	assert.True(t, got.Notifications)
	assert.True(t, got.EmailUpdates)
}

func TestPreferencesSurviveLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := data.NewMemoryStorage()
	sessions := biz.NewSessionStore(storage)
	prefs := biz.NewPreferenceStore(storage)

	require.NoError(t, sessions.Write(ctx, testScope, auth.Profile{ID: 1, FirstName: "A"}, "tok", auth.OriginReal))
	require.NoError(t, prefs.Set(ctx, testScope, biz.Preferences{EmailUpdates: true}))
	require.NoError(t, sessions.Clear(ctx, testScope))

	got, err := prefs.Get(ctx, testScope)
	require.NoError(t, err)
	assert.True(t, got.EmailUpdates)
}

func TestBuildExport(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 12, 1, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		rec          *auth.SessionRecord
		wantJoinDate string
		wantUsername string
	}{
		{
			name: "auth date wins",
			rec: &auth.SessionRecord{
				Profile:   auth.Profile{ID: 1, FirstName: "Ivan", LastName: "Ivanov", Username: "ivan", AuthDate: time.Date(2024, 11, 20, 8, 0, 0, 0, time.UTC).Unix()},
				CreatedAt: created,
			},
			wantJoinDate: "2024-11-20",
			wantUsername: "@ivan",
		},
		{
			name: "falls back to session time",
			rec: &auth.SessionRecord{
				Profile:   auth.Profile{ID: 1, FirstName: "Ivan"},
				CreatedAt: created,
			},
			wantJoinDate: "2024-12-01",
		},
		{
			name:         "no dates",
			rec:          &auth.SessionRecord{Profile: auth.Profile{ID: 1, FirstName: "Ivan"}},
			wantJoinDate: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := biz.BuildExport(tt.rec, biz.DefaultPreferences())
			assert.Equal(t, tt.rec.Profile.DisplayName(), doc.Name)
			assert.Equal(t, tt.wantUsername, doc.Username)
			assert.Equal(t, tt.wantJoinDate, doc.JoinDate)
			assert.Len(t, doc.Articles, len(biz.Articles))
		})
	}
}

func TestMarshalExport(t *testing.T) {
	t.Parallel()

	rec := &auth.SessionRecord{Profile: biz.DemoProfile(time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC))}
	body, err := biz.MarshalExport(biz.BuildExport(rec, biz.Preferences{Notifications: true}))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Алексей Петров", got["name"])
	assert.Equal(t, "@alex_petrov", got["username"])
	assert.Equal(t, "2024-12-02", got["joinDate"])
	assert.Equal(t, map[string]any{"notifications": true, "emailUpdates": false}, got["settings"])
	assert.Len(t, got["articles"], 4)
}
