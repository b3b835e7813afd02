package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rekindle/rekindle/internal/adapter"
)

// Options tunes the LLM generator.
type Options struct {
	MaxTokens        int     // completion budget
	Temperature      float64 // sampling temperature
	MaxHistoryTokens int     // 0 = send the whole window
	Timeout          time.Duration
	Location         *time.Location // zone for rendering and reading dates; nil = Local
}

// LLMGenerator implements Generator on top of an LLM adapter.
type LLMGenerator struct {
	llm  adapter.LLMAdapter
	tok  *Tokenizer
	opts Options
	log  zerolog.Logger
}

// NewLLMGenerator creates a generator. llm may be nil, in which case every
// call returns the fallback result. tok may be nil to skip history trimming.
func NewLLMGenerator(llm adapter.LLMAdapter, tok *Tokenizer, opts Options, log zerolog.Logger) *LLMGenerator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &LLMGenerator{llm: llm, tok: tok, opts: opts, log: log}
}

var errNoAdapter = errors.New("no AI provider configured")

// analysisResponse is the JSON shape the analysis prompt asks for.
type analysisResponse struct {
	LastInteractionDate  string   `json:"last_interaction_date"`
	Topics               []string `json:"topics"`
	Suggestion           string   `json:"suggestion"`
	Sentiment            string   `json:"sentiment"`
	RelationshipStrength float64  `json:"relationship_strength"`
	InteractionFrequency string   `json:"interaction_frequency"`
	ContextNotes         string   `json:"context_notes"`
	ConversationThemes   []string `json:"conversation_themes"`
	MessagePreview       string   `json:"message_preview"`
}

// AnalyzeChat asks the model to analyse the chat. It never fails.
func (g *LLMGenerator) AnalyzeChat(ctx context.Context, req ChatRequest) ChatAnalysis {
	relType := req.RelationshipType
	if relType == "" {
		relType = DefaultRelationshipType
	}

	lines := make([]string, len(req.Messages))
	for i, m := range req.Messages {
		m.Timestamp = m.Timestamp.In(g.opts.Location)
		lines[i] = formatHistoryLine(m)
	}
	history, dropped := g.tok.FitHistory(lines, g.opts.MaxHistoryTokens)
	if dropped > 0 {
		g.log.Debug().Int("dropped", dropped).Int("kept", len(lines)-dropped).Msg("trimmed chat history to token budget")
	}

	raw, err := g.complete(ctx, analysisSystemPrompt, analysisUserPrompt(history, req.ContactName, relType))
	if err != nil {
		g.log.Warn().Err(err).Str("contact", req.ContactName).Msg("chat analysis failed, using fallback")
		return FallbackAnalysis(req, FallbackAnalysisError)
	}

	var resp analysisResponse
	if err := decodeObject(raw, &resp); err != nil {
		g.log.Warn().Err(err).Str("contact", req.ContactName).Msg("unparsable chat analysis, using fallback")
		return FallbackAnalysis(req, FallbackAnalysisError)
	}
	if strings.TrimSpace(resp.Suggestion) == "" {
		g.log.Warn().Str("contact", req.ContactName).Msg("chat analysis returned no suggestion, using fallback")
		return FallbackAnalysis(req, FallbackAnalysisError)
	}

	a := ChatAnalysis{
		Topics:               cleanList(resp.Topics),
		Suggestion:           strings.TrimSpace(resp.Suggestion),
		Sentiment:            orDefault(resp.Sentiment, DefaultSentiment),
		RelationshipStrength: clampStrength(resp.RelationshipStrength),
		InteractionFrequency: orDefault(resp.InteractionFrequency, DefaultInteractionFrequency),
		ContextNotes:         strings.TrimSpace(resp.ContextNotes),
		ConversationThemes:   cleanList(resp.ConversationThemes),
		MessagePreview:       strings.TrimSpace(resp.MessagePreview),
		Source:               SourceAI,
	}
	if d, ok := parseDate(resp.LastInteractionDate, g.opts.Location); ok {
		a.LastInteractionDate = &d
	} else if last, ok := newestTimestamp(req.Messages); ok {
		a.LastInteractionDate = &last
	}
	return a
}

// genericResponse is the JSON shape the generic prompt asks for.
type genericResponse struct {
	Message            string   `json:"message"`
	ContextRelevance   string   `json:"context_relevance"`
	ToneAnalysis       string   `json:"tone_analysis"`
	AlternativeOptions []string `json:"alternative_options"`
}

// GenericSuggestion asks the model for a starter without chat history. It
// never fails.
func (g *LLMGenerator) GenericSuggestion(ctx context.Context, req GenericRequest) GenericResult {
	relType := req.RelationshipType
	if relType == "" {
		relType = DefaultRelationshipType
	}

	raw, err := g.complete(ctx, genericSystemPrompt, genericUserPrompt(req, relType))
	if err != nil {
		g.log.Warn().Err(err).Str("contact", req.ContactName).Msg("generic suggestion failed, using fallback")
		return FallbackGeneric(req, FallbackSuggestionError)
	}

	var resp genericResponse
	if err := decodeObject(raw, &resp); err != nil {
		// Some models answer with the bare message despite the format request.
		resp = genericResponse{Message: stripQuotes(raw)}
	}
	msg := strings.TrimSpace(resp.Message)
	if msg == "" {
		g.log.Warn().Str("contact", req.ContactName).Msg("generic suggestion was empty, using fallback")
		return FallbackGeneric(req, FallbackSuggestionError)
	}

	return GenericResult{
		Message:            msg,
		ContextRelevance:   strings.TrimSpace(resp.ContextRelevance),
		ToneAnalysis:       strings.TrimSpace(resp.ToneAnalysis),
		AlternativeOptions: cleanList(resp.AlternativeOptions),
		Source:             SourceAI,
	}
}

func (g *LLMGenerator) complete(ctx context.Context, system, user string) (string, error) {
	if g.llm == nil {
		return "", errNoAdapter
	}
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := adapter.Collect(ctx, g.llm, adapter.CompletionRequest{
		SystemPrompt: system,
		UserMessage:  user,
		MaxTokens:    g.opts.MaxTokens,
		Temperature:  g.opts.Temperature,
		JSON:         true,
	})
	g.log.Debug().Str("provider", g.llm.Info().Provider).Dur("took", time.Since(start)).Err(err).Msg("completion finished")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}

// decodeObject unmarshals the JSON object in raw into v. Lenient: it takes
// the text from the first '{' to the last '}' so markdown fences and prose
// around the object are ignored.
func decodeObject(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func clampStrength(f float64) int {
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	n := int(math.Round(f))
	switch {
	case n < 1:
		return 1
	case n > 10:
		return 10
	}
	return n
}

func cleanList(in []string) []string {
	out := []string{}
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

func stripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
