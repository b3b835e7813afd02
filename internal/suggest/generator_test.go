package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rekindle/rekindle/internal/adapter"
	"github.com/rekindle/rekindle/internal/logger"
)

// fakeLLM replies with a fixed text or error and records the request.
type fakeLLM struct {
	reply string
	err   error
	calls int
	last  adapter.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req adapter.CompletionRequest) (<-chan adapter.StreamChunk, error) {
	f.calls++
	f.last = req
	ch := make(chan adapter.StreamChunk, 1)
	if f.err != nil {
		ch <- adapter.StreamChunk{Error: f.err}
	} else {
		ch <- adapter.StreamChunk{Text: f.reply}
	}
	close(ch)
	return ch, nil
}

func (f *fakeLLM) Info() adapter.ModelInfo { return adapter.ModelInfo{Provider: "fake"} }

func chatRequest() ChatRequest {
	return ChatRequest{
		ContactName:      "Bob",
		RelationshipType: "friend",
		Messages: []ChatMessage{
			{Sender: "Alice", Content: "Hey there", Timestamp: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)},
			{Sender: "Bob", Content: "Hi Alice", Timestamp: time.Date(2024, 1, 15, 14, 31, 0, 0, time.UTC)},
		},
	}
}

func newGen(llm adapter.LLMAdapter) *LLMGenerator {
	return NewLLMGenerator(llm, nil, Options{Location: time.UTC}, logger.Nop())
}

func TestAnalyzeChat_Success(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n" + `{
		"last_interaction_date": "2024-01-15",
		"topics": ["hiking", " ", "jazz"],
		"suggestion": "How was the hike?",
		"sentiment": "positive",
		"relationship_strength": 8,
		"interaction_frequency": "frequent",
		"context_notes": "planning a trip",
		"conversation_themes": ["outdoors"],
		"message_preview": "Hi Alice"
	}` + "\n```"}

	a := newGen(llm).AnalyzeChat(context.Background(), chatRequest())

	if a.Source != SourceAI || a.ErrorMessage != "" {
		t.Errorf("source/error: got %q / %q", a.Source, a.ErrorMessage)
	}
	if a.Suggestion != "How was the hike?" {
		t.Errorf("suggestion: got %q", a.Suggestion)
	}
	if len(a.Topics) != 2 || a.Topics[0] != "hiking" || a.Topics[1] != "jazz" {
		t.Errorf("topics: got %v", a.Topics)
	}
	if a.RelationshipStrength != 8 || a.Sentiment != "positive" {
		t.Errorf("got strength %d sentiment %q", a.RelationshipStrength, a.Sentiment)
	}
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if a.LastInteractionDate == nil || !a.LastInteractionDate.Equal(want) {
		t.Errorf("last interaction: got %v, want %v", a.LastInteractionDate, want)
	}

	if !llm.last.JSON {
		t.Error("expected JSON mode request")
	}
	for _, want := range []string{"[2024-01-15 14:30] Alice: Hey there", "[2024-01-15 14:31] Bob: Hi Alice", "Contact Name: Bob", "Relationship Type: friend"} {
		if !strings.Contains(llm.last.UserMessage, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeChat_DefaultsMissingFields(t *testing.T) {
	llm := &fakeLLM{reply: `{"suggestion": "Hey!", "last_interaction_date": "yesterday-ish"}`}
	req := chatRequest()
	a := newGen(llm).AnalyzeChat(context.Background(), req)

	if a.Sentiment != DefaultSentiment || a.InteractionFrequency != DefaultInteractionFrequency {
		t.Errorf("defaults not applied: %+v", a)
	}
	if a.RelationshipStrength != 0 {
		t.Errorf("absent strength should be 0, got %d", a.RelationshipStrength)
	}
	if a.LastInteractionDate == nil || !a.LastInteractionDate.Equal(req.Messages[1].Timestamp) {
		t.Errorf("expected newest message timestamp, got %v", a.LastInteractionDate)
	}
	if a.Topics == nil {
		t.Error("topics should be an empty slice, not nil")
	}
}

func TestAnalyzeChat_ClampsStrength(t *testing.T) {
	a := newGen(&fakeLLM{reply: `{"suggestion": "x", "relationship_strength": 14}`}).AnalyzeChat(context.Background(), chatRequest())
	if a.RelationshipStrength != 10 {
		t.Errorf("got %d, want 10", a.RelationshipStrength)
	}
}

func TestAnalyzeChat_FallbackCases(t *testing.T) {
	tests := []struct {
		name string
		llm  adapter.LLMAdapter
	}{
		{"no adapter", nil},
		{"adapter error", &fakeLLM{err: errors.New("rate limited")}},
		{"malformed json", &fakeLLM{reply: `{"suggestion": "unterminated`}},
		{"no json", &fakeLLM{reply: "I cannot help with that"}},
		{"empty suggestion", &fakeLLM{reply: `{"suggestion": "  ", "topics": ["x"]}`}},
		{"empty reply", &fakeLLM{reply: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := chatRequest()
			a := newGen(tt.llm).AnalyzeChat(context.Background(), req)

			if a.Source != SourceFallback {
				t.Errorf("source: got %q", a.Source)
			}
			if a.ErrorMessage != FallbackAnalysisError {
				t.Errorf("error message: got %q", a.ErrorMessage)
			}
			if a.Suggestion != "Hey Bob, just wanted to check in and see how you're doing!" {
				t.Errorf("suggestion: got %q", a.Suggestion)
			}
			if a.LastInteractionDate == nil || !a.LastInteractionDate.Equal(req.Messages[1].Timestamp) {
				t.Errorf("last interaction: got %v", a.LastInteractionDate)
			}
			if a.RelationshipStrength != 0 {
				t.Errorf("fallback should not report strength, got %d", a.RelationshipStrength)
			}
		})
	}
}

func TestGenericSuggestion_Success(t *testing.T) {
	llm := &fakeLLM{reply: `{"message": "How's the guitar going?", "tone_analysis": "casual", "alternative_options": ["alt1", "alt2"]}`}
	r := newGen(llm).GenericSuggestion(context.Background(), GenericRequest{
		ContactName: "Sam", RelationshipType: "", Interests: []string{"guitar", "chess"},
	})

	if r.Source != SourceAI || r.Message != "How's the guitar going?" {
		t.Errorf("got %+v", r)
	}
	if len(r.AlternativeOptions) != 2 {
		t.Errorf("alternatives: got %v", r.AlternativeOptions)
	}
	if !strings.Contains(llm.last.UserMessage, "who is my friend") {
		t.Errorf("expected default relationship in prompt: %q", llm.last.UserMessage)
	}
	if !strings.Contains(llm.last.UserMessage, "They are interested in: guitar, chess.") {
		t.Errorf("expected interests in prompt: %q", llm.last.UserMessage)
	}
}

func TestGenericSuggestion_PlainTextReply(t *testing.T) {
	r := newGen(&fakeLLM{reply: `"Long time no see, Sam!"`}).GenericSuggestion(context.Background(), GenericRequest{ContactName: "Sam"})
	if r.Source != SourceAI || r.Message != "Long time no see, Sam!" {
		t.Errorf("got %+v", r)
	}
}

func TestGenericSuggestion_Fallback(t *testing.T) {
	r := newGen(&fakeLLM{err: errors.New("down")}).GenericSuggestion(context.Background(), GenericRequest{ContactName: "Sam"})
	if r.Source != SourceFallback || r.ErrorMessage != FallbackSuggestionError {
		t.Errorf("got %+v", r)
	}
	if r.Message != FallbackText("Sam") {
		t.Errorf("message: got %q", r.Message)
	}
}

func TestFallbackAnalysis_NoMessages(t *testing.T) {
	a := FallbackAnalysis(ChatRequest{ContactName: "Kim"}, FallbackAnalysisError)
	if a.LastInteractionDate != nil {
		t.Errorf("expected nil date, got %v", a.LastInteractionDate)
	}
	if a.Suggestion == "" {
		t.Error("fallback must carry a suggestion")
	}
}

func TestDecodeObject(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	if err := decodeObject("sure! {\"a\": 3} hope that helps", &v); err != nil || v.A != 3 {
		t.Errorf("got %v, %v", v, err)
	}
	if err := decodeObject("no braces", &v); err == nil {
		t.Error("expected error")
	}
}
