package api

import (
	"context"
	"errors"
	"html/template"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
)

// ErrDemoDisabled is returned when the demo fallback is switched off.
var ErrDemoDisabled = errors.New("demo login is disabled")

// NoticeDTO is a message shown on a page
type NoticeDTO struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// StatusResponse is the login page's busy indicator and last notice
type StatusResponse struct {
	Busy   bool       `json:"busy"`
	Notice *NoticeDTO `json:"notice,omitempty"`
}

// LoginView is what the login page renders
type LoginView struct {
	Configured   bool
	RedirectMode bool
	ContainerID  string
	MountKey     string
	WidgetHTML   template.HTML
	DemoEnabled  bool
	Notice       *NoticeDTO
}

// UserInfoResponse describes the signed-in user
type UserInfoResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
	Origin   string `json:"origin"`
}

// PreferencesDTO are the portal's notification toggles
type PreferencesDTO struct {
	Notifications bool `json:"notifications"`
	EmailUpdates  bool `json:"emailUpdates"`
}

// ArticleDTO is one entry of the content listing
type ArticleDTO struct {
	ID       int
	Title    string
	Excerpt  string
	Date     string
	Category string
	ReadTime string
}

// PortalView is what the portal page renders
type PortalView struct {
	Name        string
	Handle      string
	PhotoURL    string
	Initials    string
	Demo        bool
	SignedIn    string
	Articles    []ArticleDTO
	Preferences PreferencesDTO
}

// ExportFile is a download
type ExportFile struct {
	Filename string
	Body     []byte
}

// AuthService drives the login handshake (implemented by the service layer)
type AuthService interface {
	// LoginPage mounts a fresh widget for the browser and describes the page.
	LoginPage(ctx context.Context, scope string) (*LoginView, error)
	// DispatchWidget delivers a widget callback to the mount it was issued for.
	DispatchWidget(ctx context.Context, scope, mountKey string, payload auth.IdentityPayload) (auth.Result, error)
	// RedirectLanding handles a payload delivered by a widget in redirect mode.
	RedirectLanding(ctx context.Context, scope string, payload auth.IdentityPayload) auth.Result
	// Demo runs the demo fallback.
	Demo(ctx context.Context, scope string) (auth.Result, error)
	// Logout drops the browser's session.
	Logout(ctx context.Context, scope string) error
	// Status reports the browser's busy indicator and notice.
	Status(scope string) StatusResponse
	// Session returns the browser's session record, or nil.
	Session(ctx context.Context, scope string) (*auth.SessionRecord, error)
}

// PortalService serves the protected area (implemented by the service layer)
type PortalService interface {
	Portal(ctx context.Context, scope string, rec *auth.SessionRecord) (*PortalView, error)
	Export(ctx context.Context, scope string, rec *auth.SessionRecord) (*ExportFile, error)
	Preferences(ctx context.Context, scope string) (PreferencesDTO, error)
	SetPreferences(ctx context.Context, scope string, prefs PreferencesDTO) error
}
