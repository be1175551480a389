package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
)

// RouterDeps groups the handlers and middleware NewRouter wires together.
type RouterDeps struct {
	Auth    *AuthHandler
	Portal  *PortalHandler
	Scopes  auth.Scopes
	Guard   *auth.Guard
	Limiter *RateLimiter
	Health  http.Handler
	Logger  *zap.Logger
}

// NewRouter wires the handlers: /health is public, every other route carries
// the browser scope cookie. Protected pages sit behind Guard.Pages, protected
// /api routes behind Guard.API, and the login handshake behind the limiter.
func NewRouter(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()
	if deps.Logger != nil {
		r.Use(RequestLogger(deps.Logger))
	}

	// Health check endpoint (public, no scope cookie)
	health := deps.Health
	if health == nil {
		health = NewHealthHandler(time.Time{}, nil)
	}
	r.Handle("/health", health).Methods(http.MethodGet)

	// Everything else is browser-scoped
	site := r.NewRoute().Subrouter()
	site.Use(deps.Scopes.Middleware)

	// Protected pages redirect to the login page
	pages := site.NewRoute().Subrouter()
	pages.Use(deps.Guard.Pages)
	deps.Portal.RegisterPages(pages)

	// Protected API answers 401
	protected := site.PathPrefix("/api").Subrouter()
	protected.Use(deps.Guard.API)
	deps.Auth.RegisterProtected(protected)
	deps.Portal.RegisterAPI(protected, auth.RequireOrigin(auth.OriginReal))

	// Public login routes
	deps.Auth.RegisterRoutes(site, deps.Limiter.Middleware)

	return r
}
