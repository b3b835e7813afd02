package api

import (
	"net/http"

	"github.com/rekindle/rekindle/internal/contacts"
)

type HealthHandler struct {
	store   *contacts.Store
	version string
}

func NewHealthHandler(store *contacts.Store, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	DB      string `json:"db"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: h.version, DB: "ok"}

	if err := h.store.Conn().PingContext(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.DB = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
