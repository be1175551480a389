package service

import (
	"context"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/api"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/widget"
)

// authService is the AuthService implementation
type authService struct {
	loader      *widget.Loader
	widgetCfg   widget.Config
	callbacks   *biz.CallbackHandler
	demo        *biz.DemoFallback
	demoEnabled bool
	sessions    *biz.SessionStore
	board       *biz.StatusBoard
}

// AuthDeps groups what NewAuthService needs.
type AuthDeps struct {
	Loader      *widget.Loader
	Widget      widget.Config
	Callbacks   *biz.CallbackHandler
	Demo        *biz.DemoFallback
	DemoEnabled bool
	Sessions    *biz.SessionStore
	Board       *biz.StatusBoard
}

// NewAuthService creates the AuthService
func NewAuthService(deps AuthDeps) api.AuthService {
	return &authService{
		loader:      deps.Loader,
		widgetCfg:   deps.Widget,
		callbacks:   deps.Callbacks,
		demo:        deps.Demo,
		demoEnabled: deps.DemoEnabled,
		sessions:    deps.Sessions,
		board:       deps.Board,
	}
}

// ContainerID is the widget container of a browser's login page.
func ContainerID(scope string) string {
	return "tg-login-" + scope
}

// LoginPage mounts a widget (replacing any earlier one for this browser)
func (s *authService) LoginPage(ctx context.Context, scope string) (*api.LoginView, error) {
	view := &api.LoginView{
		Configured:   s.widgetCfg.Configured(),
		RedirectMode: s.widgetCfg.RedirectMode(),
		ContainerID:  ContainerID(scope),
		DemoEnabled:  s.demoEnabled,
		Notice:       s.Status(scope).Notice,
	}

	if !view.Configured {
		// unconfigured is informational: the demo path stands in
		if view.Notice == nil {
			view.Notice = &api.NoticeDTO{Level: string(biz.LevelInfo), Message: biz.MsgDemoMode}
		}
		return view, nil
	}

	var cb widget.Callback
	if !s.widgetCfg.RedirectMode() {
		cb = func(ctx context.Context, payload auth.IdentityPayload) auth.Result {
			return s.callbacks.Handle(ctx, scope, payload, s.board.For(scope))
		}
	}

	m, err := s.loader.Mount(view.ContainerID, s.widgetCfg, cb)
	if err != nil {
		return nil, err
	}
	view.MountKey = m.Key()
	view.WidgetHTML = s.loader.Render(view.ContainerID)
	return view, nil
}

// DispatchWidget routes the callback through the loader's dispatch table.
// The loader retires the mount once the login succeeds.
func (s *authService) DispatchWidget(ctx context.Context, scope, mountKey string, payload auth.IdentityPayload) (auth.Result, error) {
	return s.loader.Dispatch(ctx, ContainerID(scope), mountKey, payload)
}

// RedirectLanding runs the same handshake for redirect-mode widgets
func (s *authService) RedirectLanding(ctx context.Context, scope string, payload auth.IdentityPayload) auth.Result {
	if !s.widgetCfg.Configured() || !s.widgetCfg.RedirectMode() {
		return auth.Result{Outcome: auth.OutcomeRejected, Message: biz.MsgAuthFailed}
	}
	res := s.callbacks.Handle(ctx, scope, payload, s.board.For(scope))
	if res.OK() {
		s.loader.Unmount(ContainerID(scope))
	}
	return res
}

// Demo runs the demo fallback if it is enabled
func (s *authService) Demo(ctx context.Context, scope string) (auth.Result, error) {
	if !s.demoEnabled {
		return auth.Result{}, api.ErrDemoDisabled
	}
	res := s.demo.Run(ctx, scope, s.board.For(scope))
	if res.OK() {
		s.loader.Unmount(ContainerID(scope))
	}
	return res, nil
}

// Logout clears the browser's session and login state
func (s *authService) Logout(ctx context.Context, scope string) error {
	if err := s.sessions.Clear(ctx, scope); err != nil {
		return err
	}
	s.loader.Unmount(ContainerID(scope))
	s.board.Forget(scope)
	return nil
}

// Status converts the board entry to the API shape
func (s *authService) Status(scope string) api.StatusResponse {
	st := s.board.Get(scope)
	out := api.StatusResponse{Busy: st.Busy}
	if st.Notice != nil {
		out.Notice = &api.NoticeDTO{Level: string(st.Notice.Level), Message: st.Notice.Message}
	}
	return out
}

// Session reads the browser's record
func (s *authService) Session(ctx context.Context, scope string) (*auth.SessionRecord, error) {
	return s.sessions.Read(ctx, scope)
}
