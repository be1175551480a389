package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/api"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/data"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/service"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/widget"
)

const widgetPayload = `{"id":123456789,"first_name":"Ivan","last_name":"Ivanov","username":"ivan","auth_date":1733000000,"hash":"abc123"}`

var mountKeyRe = regexp.MustCompile(`data-mount="([0-9a-f-]+)"`)

type appOptions struct {
	widget      widget.Config
	demoEnabled bool
	rateLimit   int
	backend     http.HandlerFunc
}

type testApp struct {
	server *httptest.Server
	client *http.Client
	loader *widget.Loader
}

// acceptingBackend issues tok-1 for any payload carrying hash abc123.
func acceptingBackend(w http.ResponseWriter, r *http.Request) {
	var p auth.IdentityPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Hash != "abc123" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "invalid hash"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success":       true,
		"user":          map[string]any{"id": p.ID, "first_name": p.FirstName, "last_name": p.LastName, "username": p.Username, "auth_date": p.AuthDate},
		"session_token": "tok-1",
	})
}

func newTestApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()

	backendHandler := opts.backend
	if backendHandler == nil {
		backendHandler = acceptingBackend
	}
	backend := httptest.NewServer(backendHandler)
	t.Cleanup(backend.Close)

	storage := data.NewMemoryStorage()
	sessions := biz.NewSessionStore(storage)
	board := biz.NewStatusBoard(0)
	loader, err := widget.NewLoader(100, nil)
	require.NoError(t, err)

	authSvc := service.NewAuthService(service.AuthDeps{
		Loader:      loader,
		Widget:      opts.widget,
		Callbacks:   biz.NewCallbackHandler(auth.NewExchangeClient(backend.URL, time.Second), sessions, nil),
		Demo:        biz.NewDemoFallback(sessions, 0, nil),
		DemoEnabled: opts.demoEnabled,
		Sessions:    sessions,
		Board:       board,
	})
	portalSvc := service.NewPortalService(biz.NewPreferenceStore(storage))

	scopes := auth.Scopes{}
	router := api.NewRouter(api.RouterDeps{
		Auth:    api.NewAuthHandler(authSvc, nil),
		Portal:  api.NewPortalHandler(portalSvc, nil),
		Scopes:  scopes,
		Guard:   auth.NewGuard(sessions, scopes, "/", nil),
		Limiter: api.NewRateLimiter(opts.rateLimit),
		Health:  api.NewHealthHandler(time.Now(), loader.Len),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{server: srv, client: client, loader: loader}
}

func (a *testApp) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func (a *testApp) mountKey(t *testing.T) string {
	t.Helper()

	resp, body := a.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := mountKeyRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "no widget mount in login page")
	return m[1]
}

func configuredWidget() widget.Config {
	return widget.Config{BotName: "portal_bot", Size: widget.SizeLarge, CornerRadius: 20, RequestAccess: true, UserPic: true}
}

func TestLoginPage_Unconfigured(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, appOptions{widget: widget.Config{BotName: widget.PlaceholderBotName}, demoEnabled: true})

	resp, body := app.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Cookies())
	assert.NotContains(t, body, "telegram-widget.js")
	assert.Contains(t, body, `id="demo-login"`)
	assert.Contains(t, body, biz.MsgDemoMode)
	assert.Equal(t, 0, app.loader.Len())
}

func TestWidgetLogin(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, appOptions{widget: configuredWidget()})

	key := app.mountKey(t)
	resp, body := app.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `data-telegram-login="portal_bot"`)
	assert.Contains(t, body, `data-request-access="write"`)
	assert.Equal(t, 1, app.loader.Len(), "reloading replaces the mount")

	// the first page's widget is gone
	resp, _ = app.do(t, http.MethodPost, "/api/auth/widget/"+key, widgetPayload)
	assert.Equal(t, http.StatusGone, resp.StatusCode)

	key = app.mountKey(t)
	resp, body = app.do(t, http.MethodPost, "/api/auth/widget/"+key, widgetPayload)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var res auth.Result
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, auth.OutcomeAuthenticated, res.Outcome)
	assert.Equal(t, "/portal", res.Redirect)

	// a signed-in browser skips the login page
	resp, _ = app.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/portal", resp.Header.Get("Location"))

	resp, body = app.do(t, http.MethodGet, "/portal", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Ivan Ivanov")
	assert.Contains(t, body, "@ivan")

	resp, body = app.do(t, http.MethodGet, "/api/auth/userinfo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info api.UserInfoResponse
	require.NoError(t, json.Unmarshal([]byte(body), &info))
	assert.Equal(t, int64(123456789), info.ID)
	assert.Equal(t, "real", info.Origin)

	// real sessions may change preferences
	resp, _ = app.do(t, http.MethodPut, "/api/portal/preferences", `{"notifications":false,"emailUpdates":true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, body = app.do(t, http.MethodGet, "/api/portal/preferences", "")
	assert.JSONEq(t, `{"notifications":false,"emailUpdates":true}`, body)
}

func TestWidgetLogin_Rejected(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, appOptions{widget: configuredWidget()})
	key := app.mountKey(t)

	resp, body := app.do(t, http.MethodPost, "/api/auth/widget/"+key, strings.Replace(widgetPayload, "abc123", "forged", 1))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "invalid hash")

	_, body = app.do(t, http.MethodGet, "/api/auth/status", "")
	assert.JSONEq(t, `{"busy":false,"notice":{"level":"error","message":"invalid hash"}}`, body)

	resp, _ = app.do(t, http.MethodGet, "/portal", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	// the mount survives a failed attempt
	resp, _ = app.do(t, http.MethodPost, "/api/auth/widget/"+key, widgetPayload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWidgetLogin_BackendDown(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, appOptions{
		widget: configuredWidget(),
		backend: func(w http.ResponseWriter, _ *http.Request) {
			hj, ok := w.(http.Hijacker)
			if !ok {
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
		},
	})
	key := app.mountKey(t)

	resp, body := app.do(t, http.MethodPost, "/api/auth/widget/"+key, widgetPayload)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, biz.MsgUnreachable)
}

func TestWidgetLogin_ConcurrentDelivery(t *testing.T) {
	t.Parallel()

	var exchanges atomic.Int32
	app := newTestApp(t, appOptions{
		widget: configuredWidget(),
		backend: func(w http.ResponseWriter, r *http.Request) {
			exchanges.Add(1)
			time.Sleep(100 * time.Millisecond)
			acceptingBackend(w, r)
		},
	})
	key := app.mountKey(t)

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := app.client.Post(app.server.URL+"/api/auth/widget/"+key, "application/json", strings.NewReader(widgetPayload))
			if err != nil {
				codes <- 0
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	var got []int
	for c := range codes {
		got = append(got, c)
	}
	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, got)
	assert.Equal(t, int32(1), exchanges.Load(), "one delivery reaches the backend")

	// the key is spent once the login succeeded
	resp, _ := app.do(t, http.MethodPost, "/api/auth/widget/"+key, widgetPayload)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestWidgetLogin_BadBody(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, appOptions{widget: configuredWidget()})
	key := app.mountKey(t)

	resp, _ := app.do(t, http.MethodPost, "/api/auth/widget/"+key, `{"id":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRedirectLanding(t *testing.T) {
	t.Parallel()

	cfg := configuredWidget()
	cfg.AuthURL = "http://portal.example/auth/telegram/redirect"
	app := newTestApp(t, appOptions{widget: cfg})

	_, body := app.do(t, http.MethodGet, "/", "")
	assert.Contains(t, body, `data-auth-url="http://portal.example/auth/telegram/redirect"`)
	assert.NotContains(t, body, "data-onauth")

	q := url.Values{
		"id":         {"123456789"},
		"first_name": {"Ivan"},
		"auth_date":  {"1733000000"},
		"hash":       {"abc123"},
	}
	resp, _ := app.do(t, http.MethodGet, "/auth/telegram/redirect?"+q.Encode(), "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/portal", resp.Header.Get("Location"))

	resp, _ = app.do(t, http.MethodGet, "/portal", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDemoLogin_AndLogout(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, appOptions{demoEnabled: true})

	resp, _ := app.do(t, http.MethodGet, "/portal", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body := app.do(t, http.MethodPost, "/api/auth/demo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = app.do(t, http.MethodGet, "/portal", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Алексей Петров")
	assert.Contains(t, body, "Новые возможности платформы")

	// demo sessions are read-only
	resp, _ = app.do(t, http.MethodPut, "/api/portal/preferences", `{"notifications":false,"emailUpdates":true}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = app.do(t, http.MethodGet, "/api/portal/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), biz.ExportFilename)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "Алексей Петров", doc["name"])
	assert.Equal(t, "@alex_petrov", doc["username"])

	resp, body = app.do(t, http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"logged out"}`, body)

	resp, _ = app.do(t, http.MethodGet, "/portal", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	resp, _ = app.do(t, http.MethodGet, "/api/auth/userinfo", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// logging out twice is fine
	resp, _ = app.do(t, http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDemoLogin_Disabled(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, appOptions{demoEnabled: false})

	resp, _ := app.do(t, http.MethodPost, "/api/auth/demo", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, appOptions{demoEnabled: true, rateLimit: 1})

	resp, _ := app.do(t, http.MethodPost, "/api/auth/demo", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := app.do(t, http.MethodPost, "/api/auth/demo", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "rate_limited")

	// status polling is not throttled
	resp, _ = app.do(t, http.MethodGet, "/api/auth/status", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, appOptions{widget: configuredWidget()})
	app.mountKey(t)

	resp, body := app.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h api.HealthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &h))
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 1, h.Mounts)
	assert.Empty(t, resp.Cookies(), "health does not issue a scope")
}
