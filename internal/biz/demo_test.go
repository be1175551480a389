package biz_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz/mocks"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/data"
)

func TestDemoFallback_Run(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ui := mocks.NewMockPresenter(ctrl)
	expectBusyCycle(ui, biz.Notice{Level: biz.LevelSuccess, Message: biz.MsgSignedIn})

	sessions := biz.NewSessionStore(data.NewMemoryStorage())
	demo := biz.NewDemoFallback(sessions, 20*time.Millisecond, nil)

	start := time.Now()
	res := demo.Run(context.Background(), testScope, ui)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.True(t, res.OK())
	assert.Equal(t, biz.PortalPath, res.Redirect)

	rec, err := sessions.Read(context.Background(), testScope)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, biz.DemoTelegramID, rec.Profile.ID)
	assert.Equal(t, "Алексей", rec.Profile.FirstName)
	assert.Equal(t, "Петров", rec.Profile.LastName)
	assert.Equal(t, "alex_petrov", rec.Profile.Username)
	assert.Equal(t, biz.DemoCredential, rec.Credential)
	assert.Equal(t, auth.OriginDemo, rec.Origin)
	assert.True(t, rec.IsDemo())
}

func TestDemoFallback_Cancelled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ui := mocks.NewMockPresenter(ctrl)
	expectBusyCycle(ui, biz.Notice{Level: biz.LevelError, Message: biz.MsgAuthFailed})

	sessions := biz.NewSessionStore(data.NewMemoryStorage())
	demo := biz.NewDemoFallback(sessions, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := demo.Run(ctx, testScope, ui)
	assert.Equal(t, auth.OutcomeFailed, res.Outcome)

	rec, err := sessions.Read(context.Background(), testScope)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestDemoFallback_OverlappingRuns(t *testing.T) {
	t.Parallel()

	sessions := biz.NewSessionStore(data.NewMemoryStorage())
	board := biz.NewStatusBoard(0)
	slow := biz.NewDemoFallback(sessions, 300*time.Millisecond, nil)
	fast := biz.NewDemoFallback(sessions, 10*time.Millisecond, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		slow.Run(context.Background(), testScope, board.For(testScope))
	}()

	require.Eventually(t, func() bool { return board.Get(testScope).Busy }, time.Second, time.Millisecond)
	res := fast.Run(context.Background(), testScope, board.For(testScope))
	require.True(t, res.OK())
	assert.True(t, board.Get(testScope).Busy, "the slow run is still in flight")

	wg.Wait()
	assert.False(t, board.Get(testScope).Busy)
	assert.Zero(t, board.Len())
}

func TestDemoProfile(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 12, 2, 10, 0, 0, 0, time.UTC)
	p := biz.DemoProfile(now)
	assert.Equal(t, "Алексей Петров", p.DisplayName())
	assert.Equal(t, "@alex_petrov", p.Handle())
	assert.Equal(t, now.Unix(), p.AuthDate)
	assert.Empty(t, p.PhotoURL)
}
