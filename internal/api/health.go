package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime,omitempty"`
	Mounts    int    `json:"mounts"`
}

// HealthHandler reports liveness plus the number of live widget mounts.
type HealthHandler struct {
	started time.Time
	mounts  func() int
}

// NewHealthHandler creates a health handler. mounts may be nil.
func NewHealthHandler(started time.Time, mounts func() int) *HealthHandler {
	return &HealthHandler{started: started, mounts: mounts}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
	}
	if !h.started.IsZero() {
		resp.Uptime = strings.TrimSpace(humanize.RelTime(h.started, time.Now(), "", ""))
	}
	if h.mounts != nil {
		resp.Mounts = h.mounts()
	}
	writeJSON(w, http.StatusOK, resp)
}
