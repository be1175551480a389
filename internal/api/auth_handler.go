package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/widget"
)

// maxPayloadBytes bounds widget callback bodies.
const maxPayloadBytes = 16 << 10

// AuthHandler handles the login page and the handshake endpoints
type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the public login routes.
// The handshake routes go through limit, which may be nil.
func (h *AuthHandler) RegisterRoutes(r *mux.Router, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.Handle("/auth/telegram/redirect", limit(http.HandlerFunc(h.redirectLanding))).Methods(http.MethodGet)

	r.Handle("/api/auth/widget/{mount}", limit(http.HandlerFunc(h.widgetCallback))).Methods(http.MethodPost)
	r.Handle("/api/auth/demo", limit(http.HandlerFunc(h.demo))).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/status", h.status).Methods(http.MethodGet)
}

// RegisterProtected registers routes that need a session. Mount under Guard.API.
func (h *AuthHandler) RegisterProtected(r *mux.Router) {
	r.HandleFunc("/auth/userinfo", h.userinfo).Methods(http.MethodGet)
}

// index renders the login page, or sends a signed-in browser to the portal
func (h *AuthHandler) index(w http.ResponseWriter, r *http.Request) {
	scope := scopeOf(r)

	rec, err := h.svc.Session(r.Context(), scope)
	if err != nil {
		h.logger.Warn("session lookup failed", zap.String("scope", scope), zap.Error(err))
	}
	if rec != nil {
		http.Redirect(w, r, "/portal", http.StatusFound)
		return
	}

	view, err := h.svc.LoginPage(r.Context(), scope)
	if err != nil {
		h.logger.Error("failed to mount widget", zap.String("scope", scope), zap.Error(err))
		http.Error(w, "failed to render login page", http.StatusInternalServerError)
		return
	}

	if err := renderPage(w, loginTemplate, view); err != nil {
		h.logger.Error("failed to render login page", zap.Error(err))
	}
}

// widgetCallback delivers the widget's onauth payload to its mount
func (h *AuthHandler) widgetCallback(w http.ResponseWriter, r *http.Request) {
	mountKey := mux.Vars(r)["mount"]

	var payload auth.IdentityPayload
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.svc.DispatchWidget(r.Context(), scopeOf(r), mountKey, payload)
	if err != nil {
		if errors.Is(err, widget.ErrStaleMount) {
			writeJSON(w, http.StatusGone, map[string]string{"error": "stale widget, reload the page"})
			return
		}
		if errors.Is(err, widget.ErrMountBusy) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "login already in progress"})
			return
		}
		h.logger.Error("widget dispatch failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, resultStatus(res), res)
}

// redirectLanding handles widgets configured with an auth URL
func (h *AuthHandler) redirectLanding(w http.ResponseWriter, r *http.Request) {
	payload, err := auth.PayloadFromQuery(r.URL.Query())
	if err != nil {
		h.logger.Info("malformed redirect payload", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	res := h.svc.RedirectLanding(r.Context(), scopeOf(r), payload)
	if !res.OK() {
		// the notice is picked up by the login page
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, res.Redirect, http.StatusFound)
}

// demo signs the browser in with the synthetic profile
func (h *AuthHandler) demo(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Demo(r.Context(), scopeOf(r))
	if err != nil {
		if errors.Is(err, ErrDemoDisabled) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, resultStatus(res), res)
}

// logout clears the browser's session
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), scopeOf(r)); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear session"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// status reports the login page's busy indicator and notice
func (h *AuthHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status(scopeOf(r)))
}

// userinfo returns current user information
func (h *AuthHandler) userinfo(w http.ResponseWriter, r *http.Request) {
	rec, err := auth.RecordFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	writeJSON(w, http.StatusOK, UserInfoResponse{
		ID:       rec.Profile.ID,
		Name:     rec.Profile.DisplayName(),
		Username: rec.Profile.Username,
		PhotoURL: rec.Profile.PhotoURL,
		Origin:   string(rec.Origin),
	})
}

func resultStatus(res auth.Result) int {
	switch res.Outcome {
	case auth.OutcomeAuthenticated:
		return http.StatusOK
	case auth.OutcomeRejected:
		return http.StatusUnauthorized
	case auth.OutcomeUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// scopeOf returns the scope put into the context by auth.Scopes.Middleware.
func scopeOf(r *http.Request) string {
	scope, _ := auth.ScopeFromContext(r.Context())
	return scope
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
