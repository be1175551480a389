package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
)

// PortalHandler serves the protected area
type PortalHandler struct {
	svc    PortalService
	logger *zap.Logger
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(svc PortalService, logger *zap.Logger) *PortalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalHandler{svc: svc, logger: logger}
}

// RegisterPages registers HTML routes. Mount under Guard.Pages.
func (h *PortalHandler) RegisterPages(r *mux.Router) {
	r.HandleFunc("/portal", h.portal).Methods(http.MethodGet)
}

// RegisterAPI registers JSON routes. Mount under Guard.API.
// realOnly guards the writes demo sessions may not make.
func (h *PortalHandler) RegisterAPI(r *mux.Router, realOnly func(http.Handler) http.Handler) {
	r.HandleFunc("/portal/export", h.export).Methods(http.MethodGet)
	r.HandleFunc("/portal/preferences", h.getPreferences).Methods(http.MethodGet)
	r.Handle("/portal/preferences", realOnly(http.HandlerFunc(h.putPreferences))).Methods(http.MethodPut)
}

// portal renders the content page
func (h *PortalHandler) portal(w http.ResponseWriter, r *http.Request) {
	rec := auth.MustRecordFromContext(r.Context())

	view, err := h.svc.Portal(r.Context(), scopeOf(r), rec)
	if err != nil {
		h.logger.Error("failed to build portal view", zap.Error(err))
		http.Error(w, "failed to render portal", http.StatusInternalServerError)
		return
	}

	if err := renderPage(w, portalTemplate, view); err != nil {
		h.logger.Error("failed to render portal", zap.Error(err))
	}
}

// export downloads the user's data as JSON
func (h *PortalHandler) export(w http.ResponseWriter, r *http.Request) {
	rec := auth.MustRecordFromContext(r.Context())

	file, err := h.svc.Export(r.Context(), scopeOf(r), rec)
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Body)
}

func (h *PortalHandler) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.svc.Preferences(r.Context(), scopeOf(r))
	if err != nil {
		h.logger.Error("failed to read preferences", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read preferences"})
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *PortalHandler) putPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs PreferencesDTO
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes)).Decode(&prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.SetPreferences(r.Context(), scopeOf(r), prefs); err != nil {
		h.logger.Error("failed to store preferences", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store preferences"})
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
