package api

import (
	"net/http"

	"github.com/rekindle/rekindle/internal/contacts"
)

type SettingsHandler struct {
	store *contacts.Store
}

func NewSettingsHandler(store *contacts.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.GetSettings(r.Context(), GetUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Update handles PATCH /api/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch contacts.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	st, err := h.store.UpdateSettings(r.Context(), GetUserID(r), patch)
	if err != nil {
		writeStoreError(w, err, "settings not found", "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Stats handles GET /api/stats.
func (h *SettingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Stats(r.Context(), GetUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
