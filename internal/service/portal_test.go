package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/data"
)

func TestPortalService_Portal(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 12, 2, 12, 0, 0, 0, time.UTC)
	svc := &portalService{prefs: biz.NewPreferenceStore(data.NewMemoryStorage()), now: func() time.Time { return now }}

	rec := &auth.SessionRecord{
		Profile:   auth.Profile{ID: 1, FirstName: "мария", LastName: "Иванова", Username: "masha"},
		Origin:    auth.OriginReal,
		CreatedAt: now.Add(-3 * time.Minute),
	}
	view, err := svc.Portal(context.Background(), "s1", rec)
	require.NoError(t, err)

	assert.Equal(t, "мария Иванова", view.Name)
	assert.Equal(t, "@masha", view.Handle)
	assert.Equal(t, "МИ", view.Initials)
	assert.False(t, view.Demo)
	assert.Equal(t, "3 minutes ago", view.SignedIn)
	assert.Len(t, view.Articles, len(biz.Articles))
	assert.True(t, view.Preferences.Notifications)
	assert.False(t, view.Preferences.EmailUpdates)
}

func TestPortalService_PortalDemo(t *testing.T) {
	t.Parallel()

	svc := NewPortalService(biz.NewPreferenceStore(data.NewMemoryStorage()))
	rec := &auth.SessionRecord{Profile: biz.DemoProfile(time.Now()), Origin: auth.OriginDemo}

	view, err := svc.Portal(context.Background(), "s1", rec)
	require.NoError(t, err)
	assert.True(t, view.Demo)
	assert.Equal(t, "АП", view.Initials)
	assert.Empty(t, view.SignedIn)
}

func TestInitials(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "I", initials(auth.Profile{FirstName: "ivan"}))
	assert.Empty(t, initials(auth.Profile{}))
}

func TestContainerID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tg-login-abc", ContainerID("abc"))
}
