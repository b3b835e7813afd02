package suggest

import (
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer wraps tiktoken for approximate token counting.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer creates a Tokenizer using the cl100k_base encoding
// (used by GPT-4 and a good approximation for the other providers).
func NewTokenizer() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding: %w", err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the approximate number of tokens in s.
func (t *Tokenizer) Count(s string) int {
	return len(t.enc.Encode(s, nil, nil))
}

// Truncate truncates s to at most maxTokens tokens, returning the result.
func (t *Tokenizer) Truncate(s string, maxTokens int) string {
	tokens := t.enc.Encode(s, nil, nil)
	if len(tokens) <= maxTokens {
		return s
	}
	return t.enc.Decode(tokens[:maxTokens])
}

// FitHistory joins lines newline-separated, dropping the oldest lines until
// the result fits in maxTokens. The newest line is always kept, truncated
// if it alone is over budget. A nil Tokenizer or maxTokens <= 0 disables
// trimming.
func (t *Tokenizer) FitHistory(lines []string, maxTokens int) (string, int) {
	if t == nil || maxTokens <= 0 || len(lines) == 0 {
		return strings.Join(lines, "\n"), 0
	}

	total := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		n := t.Count(lines[i]) + 1 // newline
		if total+n > maxTokens && start < len(lines) {
			break
		}
		total += n
		start = i
	}

	kept := lines[start:]
	if len(kept) == 1 && total > maxTokens {
		return t.Truncate(kept[0], maxTokens), start
	}
	return strings.Join(kept, "\n"), start
}
