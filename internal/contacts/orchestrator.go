package contacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rekindle/rekindle/internal/chatexport"
	"github.com/rekindle/rekindle/internal/metrics"
	"github.com/rekindle/rekindle/internal/suggest"
)

// AnalysisWindow is how many of the newest messages are sent for analysis.
const AnalysisWindow = 40

// Orchestrator coordinates chat import, suggestion generation and the
// contact fields derived from it.
type Orchestrator struct {
	store   *Store
	gen     suggest.Generator
	window  int
	loc     *time.Location
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(store *Store, gen suggest.Generator, log zerolog.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		store:   store,
		gen:     gen,
		window:  AnalysisWindow,
		loc:     time.Local,
		now:     time.Now,
		log:     log,
		metrics: m,
	}
}

// WithAnalysisWindow overrides the number of messages analysed.
func (o *Orchestrator) WithAnalysisWindow(n int) *Orchestrator {
	if n > 0 {
		o.window = n
	}
	return o
}

// WithLocation sets the zone chat export timestamps are read in.
func (o *Orchestrator) WithLocation(loc *time.Location) *Orchestrator {
	if loc != nil {
		o.loc = loc
	}
	return o
}

// WithClock replaces the clock used to stamp suggestions.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Store returns the underlying store.
func (o *Orchestrator) Store() *Store {
	return o.store
}

// Outcome is the result of one generation attempt.
type Outcome struct {
	Suggestion Suggestion
	Analysis   *suggest.ChatAnalysis  // set when chat history was analysed
	Generic    *suggest.GenericResult // set when there was no history
}

// ImportResult is the result of importing a chat export.
type ImportResult struct {
	Outcome
	MessagesImported int
	Parse            chatexport.Stats
	Warning          string
}

// ImportChat parses a chat export, stores its messages and generates a new
// suggestion from the contact's history. Stored messages stay committed
// even if generation fails afterwards.
func (o *Orchestrator) ImportChat(ctx context.Context, userID, contactID int64, text string) (ImportResult, error) {
	c, err := o.store.GetContact(ctx, userID, contactID)
	if err != nil {
		return ImportResult{}, err
	}

	msgs, stats := chatexport.ParseWithStats(text, contactID, o.loc)
	o.log.Debug().Int64("contact_id", contactID).Int("lines", stats.Lines).
		Int("matched", stats.Matched).Int("skipped", stats.Skipped).Msg("parsed chat export")

	n, err := o.store.InsertMessages(ctx, contactID, msgs)
	if err != nil {
		o.metrics.RecordImport(0, err)
		return ImportResult{}, fmt.Errorf("orchestrator: import messages: %w", err)
	}
	o.metrics.RecordImport(n, nil)

	res := ImportResult{MessagesImported: n, Parse: stats}
	if n == 0 && strings.TrimSpace(text) != "" {
		res.Warning = "no messages could be read from the chat export; check that it is an unmodified WhatsApp export"
		o.log.Warn().Int64("contact_id", contactID).Int("lines", stats.Lines).Msg("chat export produced no messages")
	}

	out, err := o.generate(ctx, c)
	if err != nil {
		return res, err
	}
	res.Outcome = out
	return res, nil
}

// Refresh generates a new suggestion from the stored history.
func (o *Orchestrator) Refresh(ctx context.Context, userID, contactID int64) (Outcome, error) {
	c, err := o.store.GetContact(ctx, userID, contactID)
	if err != nil {
		return Outcome{}, err
	}
	return o.generate(ctx, c)
}

// generate writes exactly one suggestion row for c and then updates the
// contact from the analysis.
func (o *Orchestrator) generate(ctx context.Context, c Contact) (Outcome, error) {
	history, err := o.store.RecentMessages(ctx, c.ID, o.window)
	if err != nil {
		return Outcome{}, fmt.Errorf("orchestrator: load history: %w", err)
	}

	if len(history) == 0 {
		return o.generateGeneric(ctx, c)
	}

	req := suggest.ChatRequest{
		ContactName:      c.Name,
		RelationshipType: c.RelationshipType,
		Messages:         make([]suggest.ChatMessage, len(history)),
	}
	for i, m := range history {
		req.Messages[i] = suggest.ChatMessage{Sender: m.Sender, Content: m.Content, Timestamp: m.Timestamp}
	}

	a := o.gen.AnalyzeChat(ctx, req)
	if strings.TrimSpace(a.Suggestion) == "" {
		a = suggest.FallbackAnalysis(req, suggest.FallbackAnalysisError)
	}

	sg, err := o.persist(ctx, Suggestion{
		ContactID:    c.ID,
		Text:         a.Suggestion,
		Topics:       a.Topics,
		Context:      a.ContextNotes,
		Source:       a.Source,
		ErrorMessage: a.ErrorMessage,
	})
	if err != nil {
		return Outcome{}, err
	}

	o.applyAnalysis(ctx, c, a)
	return Outcome{Suggestion: sg, Analysis: &a}, nil
}

func (o *Orchestrator) generateGeneric(ctx context.Context, c Contact) (Outcome, error) {
	req := suggest.GenericRequest{
		ContactName:      c.Name,
		RelationshipType: c.RelationshipType,
		Interests:        c.Interests,
	}
	r := o.gen.GenericSuggestion(ctx, req)
	if strings.TrimSpace(r.Message) == "" {
		r = suggest.FallbackGeneric(req, suggest.FallbackSuggestionError)
	}

	sg, err := o.persist(ctx, Suggestion{
		ContactID:    c.ID,
		Text:         r.Message,
		Context:      r.ContextRelevance,
		Source:       r.Source,
		ErrorMessage: r.ErrorMessage,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Suggestion: sg, Generic: &r}, nil
}

func (o *Orchestrator) persist(ctx context.Context, sg Suggestion) (Suggestion, error) {
	if sg.Source == "" {
		sg.Source = SourceAI
	}
	sg.CreatedAt = o.now().UTC()

	stored, err := o.store.InsertSuggestion(ctx, sg)
	if err != nil {
		return Suggestion{}, fmt.Errorf("orchestrator: save suggestion: %w", err)
	}
	o.metrics.RecordSuggestion(stored.Source)
	if stored.Source == SourceFallback {
		o.log.Warn().Int64("contact_id", stored.ContactID).Str("reason", stored.ErrorMessage).Msg("stored fallback suggestion")
	}
	return stored, nil
}

// applyAnalysis copies derived fields onto the contact. Each update is
// best-effort: the suggestion is already stored.
func (o *Orchestrator) applyAnalysis(ctx context.Context, c Contact, a suggest.ChatAnalysis) {
	if a.LastInteractionDate != nil {
		if err := o.store.SetLastInteraction(ctx, c.ID, *a.LastInteractionDate); err != nil {
			o.log.Error().Err(err).Int64("contact_id", c.ID).Msg("update last interaction")
		}
	}
	if a.RelationshipStrength > 0 {
		if err := o.store.SetPriority(ctx, c.ID, PriorityFromStrength(a.RelationshipStrength)); err != nil {
			o.log.Error().Err(err).Int64("contact_id", c.ID).Msg("update priority")
		}
	}
	if len(c.Interests) == 0 && len(a.Topics) > 0 {
		if _, err := o.store.BackfillInterests(ctx, c.ID, a.Topics); err != nil {
			o.log.Error().Err(err).Int64("contact_id", c.ID).Msg("backfill interests")
		}
	}
}

// PriorityFromStrength maps a 1-10 relationship strength onto the 1-5
// priority scale.
func PriorityFromStrength(strength int) int {
	p := (strength + 1) / 2
	switch {
	case p < 1:
		return 1
	case p > 5:
		return 5
	}
	return p
}
