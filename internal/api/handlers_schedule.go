package api

import (
	"net/http"
	"time"

	"github.com/rekindle/rekindle/internal/schedule"
)

// ScheduleHandler serves chat export recommendations and pending reminders.
type ScheduleHandler struct {
	svc *schedule.Service
}

// NewScheduleHandler creates a ScheduleHandler.
func NewScheduleHandler(svc *schedule.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// ChatExportNeeded handles GET /api/recommendations/chat-export-needed.
func (h *ScheduleHandler) ChatExportNeeded(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Recommendations(r.Context(), GetUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get recommendations")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type promptRequest struct {
	ContactID    int64 `json:"contact_id"`
	DurationDays *int  `json:"duration_days"`
}

// LogPrompt handles POST /api/recommendations/log-chat-export-prompt.
func (h *ScheduleHandler) LogPrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ContactID <= 0 {
		writeError(w, http.StatusBadRequest, "contact_id is required")
		return
	}
	if err := h.svc.LogPrompt(r.Context(), GetUserID(r), req.ContactID); err != nil {
		writeStoreError(w, err, "contact not found", "failed to log prompt")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SnoozePrompt handles POST /api/recommendations/snooze-chat-export-prompt.
// A missing or zero duration_days uses the default snooze.
func (h *ScheduleHandler) SnoozePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ContactID <= 0 {
		writeError(w, http.StatusBadRequest, "contact_id is required")
		return
	}
	days := 0
	if req.DurationDays != nil {
		if *req.DurationDays < 0 {
			writeError(w, http.StatusBadRequest, "duration_days must not be negative")
			return
		}
		days = *req.DurationDays
	}

	until, err := h.svc.SnoozePrompt(r.Context(), GetUserID(r), req.ContactID, days)
	if err != nil {
		writeStoreError(w, err, "contact not found", "failed to snooze prompt")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success      bool      `json:"success"`
		SnoozedUntil time.Time `json:"snoozed_until"`
	}{true, until})
}

// PendingReminders handles GET /api/reminders/pending.
func (h *ScheduleHandler) PendingReminders(w http.ResponseWriter, r *http.Request) {
	rems, err := h.svc.PendingReminders(r.Context(), GetUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reminders")
		return
	}
	writeJSON(w, http.StatusOK, rems)
}
