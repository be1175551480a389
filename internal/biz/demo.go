package biz

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
)

// DemoCredential marks a session produced without the backend.
const DemoCredential = "demo-session-token"

// DemoTelegramID is the identifier of the synthetic demo account.
const DemoTelegramID int64 = 123456789

// MsgDemoMode is shown when the widget is not configured.
const MsgDemoMode = "Telegram login is not configured; demo mode is available"

// DemoProfile returns the fixed synthetic profile, issued at now.
func DemoProfile(now time.Time) auth.Profile {
	return auth.Profile{
		ID:        DemoTelegramID,
		FirstName: "Алексей",
		LastName:  "Петров",
		Username:  "alex_petrov",
		AuthDate:  now.Unix(),
	}
}

// DemoFallback signs a browser in as the demo account without any backend call.
type DemoFallback struct {
	sessions *SessionStore
	delay    time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDemoFallback creates a DemoFallback that waits delay before completing.
func NewDemoFallback(sessions *SessionStore, delay time.Duration, logger *zap.Logger) *DemoFallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemoFallback{
		sessions: sessions,
		delay:    delay,
		logger:   logger,
		now:      time.Now,
	}
}

// Run waits the configured delay, then writes the demo session for scope.
// If ctx ends first nothing is written.
func (d *DemoFallback) Run(ctx context.Context, scope string, ui Presenter) auth.Result {
	ui.SetBusy(true)
	defer ui.SetBusy(false)

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		d.logger.Info("demo login cancelled", zap.String("scope", scope), zap.Error(ctx.Err()))
		return fail(ui, auth.OutcomeFailed, MsgAuthFailed)
	case <-timer.C:
	}

	if err := d.sessions.Write(ctx, scope, DemoProfile(d.now()), DemoCredential, auth.OriginDemo); err != nil {
		d.logger.Error("failed to store demo session", zap.String("scope", scope), zap.Error(err))
		return fail(ui, auth.OutcomeFailed, MsgStoreFailed)
	}

	d.logger.Info("demo login succeeded", zap.String("scope", scope))
	ui.Notify(Notice{Level: LevelSuccess, Message: MsgSignedIn})
	return auth.Result{Outcome: auth.OutcomeAuthenticated, Redirect: PortalPath}
}
