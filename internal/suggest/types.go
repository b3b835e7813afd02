// Package suggest turns chat history into conversation starters. Generators
// never fail: any problem with the model yields a fallback result that
// still carries a usable suggestion.
package suggest

import (
	"context"
	"time"
)

// Result sources.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Fallback error messages.
const (
	FallbackAnalysisError   = "AI interaction failed. Using fallback analysis."
	FallbackSuggestionError = "AI interaction failed. Using fallback suggestion."
)

// Defaults reported when the model leaves a field out.
const (
	DefaultSentiment            = "neutral"
	DefaultRelationshipStrength = 5
	DefaultInteractionFrequency = "occasional"
	DefaultRelationshipType     = "friend"
)

// ChatMessage is one line of history handed to the generator.
type ChatMessage struct {
	Sender    string
	Content   string
	Timestamp time.Time
}

// ChatRequest asks for an analysis of recent chat history.
type ChatRequest struct {
	ContactName      string
	RelationshipType string
	Messages         []ChatMessage // oldest first
}

// ChatAnalysis is the outcome of analysing a chat.
type ChatAnalysis struct {
	LastInteractionDate  *time.Time `json:"last_interaction_date"`
	Topics               []string   `json:"topics"`
	Suggestion           string     `json:"suggestion"`
	Sentiment            string     `json:"sentiment"`
	RelationshipStrength int        `json:"relationship_strength,omitempty"` // 1-10, 0 = not reported
	InteractionFrequency string     `json:"interaction_frequency"`
	ContextNotes         string     `json:"context_notes,omitempty"`
	ConversationThemes   []string   `json:"conversation_themes"`
	MessagePreview       string     `json:"message_preview"`
	Source               string     `json:"source"`
	ErrorMessage         string     `json:"error_message,omitempty"`
}

// GenericRequest asks for a starter when there is no chat history.
type GenericRequest struct {
	ContactName      string
	RelationshipType string
	Interests        []string
}

// GenericResult is a suggestion produced without chat history.
type GenericResult struct {
	Message            string   `json:"message"`
	ContextRelevance   string   `json:"context_relevance,omitempty"`
	ToneAnalysis       string   `json:"tone_analysis,omitempty"`
	AlternativeOptions []string `json:"alternative_options,omitempty"`
	Source             string   `json:"source"`
	ErrorMessage       string   `json:"error_message,omitempty"`
}

// Generator produces suggestions. Implementations must not return empty
// suggestion text and must not panic on model failure.
type Generator interface {
	AnalyzeChat(ctx context.Context, req ChatRequest) ChatAnalysis
	GenericSuggestion(ctx context.Context, req GenericRequest) GenericResult
}

// FallbackText is the starter used whenever the model cannot help.
func FallbackText(contactName string) string {
	if contactName == "" {
		contactName = "there"
	}
	return "Hey " + contactName + ", just wanted to check in and see how you're doing!"
}

// FallbackAnalysis builds the analysis returned when the model fails. The
// last interaction date comes from the newest message, if any.
func FallbackAnalysis(req ChatRequest, errMsg string) ChatAnalysis {
	a := ChatAnalysis{
		Topics:               []string{},
		Suggestion:           FallbackText(req.ContactName),
		Sentiment:            DefaultSentiment,
		InteractionFrequency: DefaultInteractionFrequency,
		ConversationThemes:   []string{},
		Source:               SourceFallback,
		ErrorMessage:         errMsg,
	}
	if last, ok := newestTimestamp(req.Messages); ok {
		a.LastInteractionDate = &last
	}
	if n := len(req.Messages); n > 0 {
		a.MessagePreview = preview(req.Messages[n-1].Content)
	}
	return a
}

// FallbackGeneric builds the generic result returned when the model fails.
func FallbackGeneric(req GenericRequest, errMsg string) GenericResult {
	return GenericResult{
		Message:      FallbackText(req.ContactName),
		Source:       SourceFallback,
		ErrorMessage: errMsg,
	}
}

func newestTimestamp(msgs []ChatMessage) (time.Time, bool) {
	var newest time.Time
	for _, m := range msgs {
		if m.Timestamp.After(newest) {
			newest = m.Timestamp
		}
	}
	return newest, !newest.IsZero()
}

func preview(s string) string {
	const max = 80
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
