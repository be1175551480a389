package biz

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
)

//go:generate mockgen -destination=mocks/exchanger_mock.go -package=mocks . Exchanger

// User-visible messages.
const (
	MsgAuthFailed  = "Authorization failed"
	MsgUnreachable = "Could not reach server"
	MsgStoreFailed = "Could not save session"
	MsgSignedIn    = "Signed in"
)

// PortalPath is where a successful login lands.
const PortalPath = "/portal"

// Exchanger trades a widget payload for a backend session.
type Exchanger interface {
	Exchange(ctx context.Context, payload auth.IdentityPayload) (*auth.ExchangeResponse, error)
}

// CallbackHandler runs the exchange for a widget payload and records the
// resulting session.
type CallbackHandler struct {
	exchanger Exchanger
	sessions  *SessionStore
	logger    *zap.Logger
}

// NewCallbackHandler creates a CallbackHandler.
func NewCallbackHandler(exchanger Exchanger, sessions *SessionStore, logger *zap.Logger) *CallbackHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallbackHandler{
		exchanger: exchanger,
		sessions:  sessions,
		logger:    logger,
	}
}

// Handle exchanges payload for scope. The presenter is busy for the whole
// call and idle again on every return path. The session is only written
// when the backend accepted the payload.
func (h *CallbackHandler) Handle(ctx context.Context, scope string, payload auth.IdentityPayload, ui Presenter) auth.Result {
	ui.SetBusy(true)
	defer ui.SetBusy(false)

	log := h.logger.With(zap.String("scope", scope), zap.Int64("telegram_id", payload.ID))

	if err := payload.Validate(); err != nil {
		log.Info("rejected malformed widget payload", zap.Error(err))
		return fail(ui, auth.OutcomeRejected, MsgAuthFailed)
	}

	resp, err := h.exchanger.Exchange(ctx, payload)
	if err != nil {
		var rejected *auth.RejectedError
		switch {
		case errors.As(err, &rejected):
			log.Info("backend rejected login", zap.Int("status", rejected.Status), zap.String("reason", rejected.Message))
			msg := rejected.Message
			if msg == "" {
				msg = MsgAuthFailed
			}
			return fail(ui, auth.OutcomeRejected, msg)
		case errors.Is(err, auth.ErrUnreachable):
			log.Warn("backend unreachable", zap.Error(err))
			return fail(ui, auth.OutcomeUnreachable, MsgUnreachable)
		default:
			log.Error("exchange failed", zap.Error(err))
			return fail(ui, auth.OutcomeFailed, MsgAuthFailed)
		}
	}

	if resp == nil || resp.User == nil || resp.SessionToken == "" {
		log.Error("exchange returned no session")
		return fail(ui, auth.OutcomeFailed, MsgAuthFailed)
	}

	if err := h.sessions.Write(ctx, scope, *resp.User, resp.SessionToken, auth.OriginReal); err != nil {
		log.Error("failed to store session", zap.Error(err))
		return fail(ui, auth.OutcomeFailed, MsgStoreFailed)
	}

	log.Info("login succeeded")
	ui.Notify(Notice{Level: LevelSuccess, Message: MsgSignedIn})
	return auth.Result{Outcome: auth.OutcomeAuthenticated, Redirect: PortalPath}
}

func fail(ui Presenter, outcome auth.Outcome, msg string) auth.Result {
	ui.Notify(Notice{Level: LevelError, Message: msg})
	return auth.Result{Outcome: outcome, Message: msg}
}
