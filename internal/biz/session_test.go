package biz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/data"
)

func TestSessionStore_WriteRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions := biz.NewSessionStore(data.NewMemoryStorage())
	profile := auth.Profile{ID: 42, FirstName: "Мария", LastName: "Иванова", Username: "masha", PhotoURL: "https://t.me/i/userpic/1.jpg"}

	require.NoError(t, sessions.Write(ctx, testScope, profile, "tok-42", auth.OriginReal))

	rec, err := sessions.Read(ctx, testScope)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, profile, rec.Profile)
	assert.Equal(t, "tok-42", rec.Credential)
	assert.Equal(t, auth.OriginReal, rec.Origin)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSessionStore_ScopesAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions := biz.NewSessionStore(data.NewMemoryStorage())
	require.NoError(t, sessions.Write(ctx, "scope-a", auth.Profile{ID: 1, FirstName: "A"}, "tok-a", auth.OriginReal))

	rec, err := sessions.Read(ctx, "scope-b")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSessionStore_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions := biz.NewSessionStore(data.NewMemoryStorage())

	// clearing nothing is fine
	require.NoError(t, sessions.Clear(ctx, testScope))

	require.NoError(t, sessions.Write(ctx, testScope, auth.Profile{ID: 1, FirstName: "A"}, "tok", auth.OriginDemo))
	require.NoError(t, sessions.Clear(ctx, testScope))
	require.NoError(t, sessions.Clear(ctx, testScope))

	rec, err := sessions.Read(ctx, testScope)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSessionStore_IncompleteRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries map[string]string
	}{
		{name: "empty", entries: map[string]string{}},
		{name: "user only", entries: map[string]string{biz.KeyUser: `{"id":1,"first_name":"A"}`}},
		{name: "token only", entries: map[string]string{biz.KeySessionToken: "tok"}},
		{name: "empty token", entries: map[string]string{biz.KeyUser: `{"id":1,"first_name":"A"}`, biz.KeySessionToken: ""}},
		{name: "corrupt user", entries: map[string]string{biz.KeyUser: `{not json`, biz.KeySessionToken: "tok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			storage := data.NewMemoryStorage()
			if len(tt.entries) > 0 {
				require.NoError(t, storage.SetMany(ctx, testScope, tt.entries))
			}

			rec, err := biz.NewSessionStore(storage).Read(ctx, testScope)
			require.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestSessionStore_OriginDefaultsToDemo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		origin *string
		want   auth.Origin
	}{
		{name: "real", origin: ptr("real"), want: auth.OriginReal},
		{name: "demo", origin: ptr("demo"), want: auth.OriginDemo},
		{name: "unknown", origin: ptr("admin"), want: auth.OriginDemo},
		{name: "missing", origin: nil, want: auth.OriginDemo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			storage := data.NewMemoryStorage()
			entries := map[string]string{
				biz.KeyUser:         `{"id":1,"first_name":"A"}`,
				biz.KeySessionToken: "tok",
			}
			if tt.origin != nil {
				entries[biz.KeySessionOrigin] = *tt.origin
			}
			require.NoError(t, storage.SetMany(ctx, testScope, entries))

			rec, err := biz.NewSessionStore(storage).Read(ctx, testScope)
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, tt.want, rec.Origin)
			assert.True(t, rec.CreatedAt.IsZero())
		})
	}
}

func ptr[T any](v T) *T { return &v }
