package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/api"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
)

// portalService is the PortalService implementation
type portalService struct {
	prefs *biz.PreferenceStore
	now   func() time.Time
}

// NewPortalService creates the PortalService
func NewPortalService(prefs *biz.PreferenceStore) api.PortalService {
	return &portalService{prefs: prefs, now: time.Now}
}

// Portal builds the portal page view for a signed-in browser
func (s *portalService) Portal(ctx context.Context, scope string, rec *auth.SessionRecord) (*api.PortalView, error) {
	prefs, err := s.prefs.Get(ctx, scope)
	if err != nil {
		return nil, err
	}

	view := &api.PortalView{
		Name:        rec.Profile.DisplayName(),
		Handle:      rec.Profile.Handle(),
		PhotoURL:    rec.Profile.PhotoURL,
		Initials:    initials(rec.Profile),
		Demo:        rec.IsDemo(),
		Preferences: toPreferencesDTO(prefs),
	}
	if !rec.CreatedAt.IsZero() {
		view.SignedIn = humanize.RelTime(rec.CreatedAt, s.now(), "ago", "from now")
	}
	for _, a := range biz.Articles {
		view.Articles = append(view.Articles, api.ArticleDTO{
			ID:       a.ID,
			Title:    a.Title,
			Excerpt:  a.Excerpt,
			Date:     a.Date,
			Category: a.Category,
			ReadTime: a.ReadTime,
		})
	}
	return view, nil
}

// Export builds the data export download
func (s *portalService) Export(ctx context.Context, scope string, rec *auth.SessionRecord) (*api.ExportFile, error) {
	prefs, err := s.prefs.Get(ctx, scope)
	if err != nil {
		return nil, err
	}

	body, err := biz.MarshalExport(biz.BuildExport(rec, prefs))
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return &api.ExportFile{Filename: biz.ExportFilename, Body: body}, nil
}

// Preferences returns the browser's notification toggles
func (s *portalService) Preferences(ctx context.Context, scope string) (api.PreferencesDTO, error) {
	prefs, err := s.prefs.Get(ctx, scope)
	if err != nil {
		return api.PreferencesDTO{}, err
	}
	return toPreferencesDTO(prefs), nil
}

// SetPreferences stores the browser's notification toggles
func (s *portalService) SetPreferences(ctx context.Context, scope string, prefs api.PreferencesDTO) error {
	return s.prefs.Set(ctx, scope, biz.Preferences{
		Notifications: prefs.Notifications,
		EmailUpdates:  prefs.EmailUpdates,
	})
}

func toPreferencesDTO(p biz.Preferences) api.PreferencesDTO {
	return api.PreferencesDTO{Notifications: p.Notifications, EmailUpdates: p.EmailUpdates}
}

func initials(p auth.Profile) string {
	var b strings.Builder
	for _, part := range []string{p.FirstName, p.LastName} {
		if r, _ := utf8.DecodeRuneInString(part); r != utf8.RuneError {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}
