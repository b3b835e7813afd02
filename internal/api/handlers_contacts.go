package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/schedule"
	"github.com/rekindle/rekindle/internal/suggest"
)

type ContactHandler struct {
	store *contacts.Store
	orch  *contacts.Orchestrator
	now   func() time.Time
}

func NewContactHandler(store *contacts.Store, orch *contacts.Orchestrator, now func() time.Time) *ContactHandler {
	return &ContactHandler{store: store, orch: orch, now: now}
}

// contactView adds reminder state derived at request time.
type contactView struct {
	contacts.Contact
	ReminderStatus       schedule.Status `json:"reminder_status"`
	DaysSinceLastContact *int            `json:"days_since_last_contact"`
}

func (h *ContactHandler) view(c contacts.Contact) contactView {
	now := h.now()
	v := contactView{Contact: c, ReminderStatus: schedule.ReminderStatus(c, now)}
	if d := schedule.DaysSinceLastContact(c, now); d >= 0 {
		v.DaysSinceLastContact = &d
	}
	return v
}

// List handles GET /api/contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	cs, err := h.store.ListContacts(r.Context(), GetUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	out := make([]contactView, len(cs))
	for i, c := range cs {
		out[i] = h.view(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/contacts.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req contacts.Contact
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.ID = 0
	req.UserID = GetUserID(r)

	c, err := h.store.CreateContact(r.Context(), req)
	if err != nil {
		writeStoreError(w, err, "contact not found", "failed to create contact")
		return
	}
	writeJSON(w, http.StatusCreated, h.view(c))
}

// Get handles GET /api/contacts/{id}.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}
	c, err := h.store.GetContact(r.Context(), GetUserID(r), id)
	if err != nil {
		writeStoreError(w, err, "contact not found", "failed to get contact")
		return
	}
	writeJSON(w, http.StatusOK, h.view(c))
}

// Update handles PATCH /api/contacts/{id}.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}
	var patch contacts.ContactPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	c, err := h.store.UpdateContact(r.Context(), GetUserID(r), id, patch)
	if err != nil {
		writeStoreError(w, err, "contact not found", "failed to update contact")
		return
	}
	writeJSON(w, http.StatusOK, h.view(c))
}

// Delete handles DELETE /api/contacts/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}
	if err := h.store.DeleteContact(r.Context(), GetUserID(r), id); err != nil {
		writeStoreError(w, err, "contact not found", "failed to delete contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMessages handles GET /api/contacts/{id}/messages.
func (h *ContactHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}
	if _, err := h.store.GetContact(r.Context(), GetUserID(r), id); err != nil {
		writeStoreError(w, err, "contact not found", "failed to get contact")
		return
	}
	msgs, err := h.store.ListMessages(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type addMessageRequest struct {
	Timestamp *time.Time `json:"timestamp"`
	Sender    string     `json:"sender"`
	Content   string     `json:"content"`
}

// AddMessage handles POST /api/contacts/{id}/messages.
func (h *ContactHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}
	var req addMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Sender) == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "sender and content are required")
		return
	}
	if _, err := h.store.GetContact(r.Context(), GetUserID(r), id); err != nil {
		writeStoreError(w, err, "contact not found", "failed to get contact")
		return
	}

	m := contacts.Message{ContactID: id, Sender: req.Sender, Content: req.Content, Timestamp: h.now()}
	if req.Timestamp != nil {
		m.Timestamp = *req.Timestamp
	}
	stored, err := h.store.AddMessage(r.Context(), m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create message")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// analysisView is the analysis block of import and suggestion responses.
type analysisView struct {
	Topics               []string   `json:"topics"`
	Sentiment            string     `json:"sentiment"`
	RelationshipStrength int        `json:"relationship_strength"`
	InteractionFrequency string     `json:"interaction_frequency"`
	ConversationThemes   []string   `json:"conversation_themes"`
	LastInteractionDate  *time.Time `json:"last_interaction_date,omitempty"`
	MessagePreview       string     `json:"message_preview"`
	ContextNotes         string     `json:"context_notes,omitempty"`
}

func newAnalysisView(a *suggest.ChatAnalysis) *analysisView {
	if a == nil {
		return nil
	}
	v := &analysisView{
		Topics:               a.Topics,
		Sentiment:            a.Sentiment,
		RelationshipStrength: a.RelationshipStrength,
		InteractionFrequency: a.InteractionFrequency,
		ConversationThemes:   a.ConversationThemes,
		LastInteractionDate:  a.LastInteractionDate,
		MessagePreview:       a.MessagePreview,
		ContextNotes:         a.ContextNotes,
	}
	if v.Topics == nil {
		v.Topics = []string{}
	}
	if v.ConversationThemes == nil {
		v.ConversationThemes = []string{}
	}
	if v.Sentiment == "" {
		v.Sentiment = suggest.DefaultSentiment
	}
	if v.RelationshipStrength == 0 {
		v.RelationshipStrength = suggest.DefaultRelationshipStrength
	}
	if v.InteractionFrequency == "" {
		v.InteractionFrequency = suggest.DefaultInteractionFrequency
	}
	return v
}

type importRequest struct {
	ChatText string `json:"chatText"`
}

type importResponse struct {
	Success          bool          `json:"success"`
	MessagesImported int           `json:"messagesImported"`
	Suggestion       string        `json:"suggestion"`
	Source           string        `json:"source"`
	Analysis         *analysisView `json:"analysis,omitempty"`
	Warning          string        `json:"warning,omitempty"`
}

// Import handles POST /api/contacts/{id}/import. The body is either JSON
// {"chatText": "..."} or the raw export as text/plain.
func (h *ContactHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}

	text, err := readChatText(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "chat text is required")
		return
	}

	res, err := h.orch.ImportChat(r.Context(), GetUserID(r), id, text)
	if err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message":          "failed to import chat",
			"messagesImported": res.MessagesImported,
		})
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		Success:          true,
		MessagesImported: res.MessagesImported,
		Suggestion:       res.Suggestion.Text,
		Source:           res.Suggestion.Source,
		Analysis:         newAnalysisView(res.Analysis),
		Warning:          res.Warning,
	})
}

func readChatText(w http.ResponseWriter, r *http.Request) (string, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "text/plain" {
		b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		return string(b), err
	}
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	return req.ChatText, nil
}

// GetSuggestion handles GET /api/contacts/{id}/suggestion.
func (h *ContactHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}
	if _, err := h.store.GetContact(r.Context(), GetUserID(r), id); err != nil {
		writeStoreError(w, err, "contact not found", "failed to get contact")
		return
	}
	sg, err := h.store.LatestSuggestion(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "no suggestion found", "failed to get suggestion")
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

type suggestionResponse struct {
	contacts.Suggestion
	Analysis           *analysisView `json:"analysis,omitempty"`
	ToneAnalysis       string        `json:"tone_analysis,omitempty"`
	AlternativeOptions []string      `json:"alternative_options,omitempty"`
}

// GenerateSuggestion handles POST /api/contacts/{id}/suggestion.
func (h *ContactHandler) GenerateSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}
	out, err := h.orch.Refresh(r.Context(), GetUserID(r), id)
	if err != nil {
		writeStoreError(w, err, "contact not found", "failed to generate suggestion")
		return
	}

	resp := suggestionResponse{Suggestion: out.Suggestion, Analysis: newAnalysisView(out.Analysis)}
	if out.Generic != nil {
		resp.ToneAnalysis = out.Generic.ToneAnalysis
		resp.AlternativeOptions = out.Generic.AlternativeOptions
	}
	writeJSON(w, http.StatusOK, resp)
}
