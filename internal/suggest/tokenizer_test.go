package suggest

import (
	"strings"
	"testing"
)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer()
	if err != nil {
		t.Skipf("tokenizer unavailable: %v", err)
	}
	return tok
}

func TestTokenizer_Count(t *testing.T) {
	tok := newTestTokenizer(t)

	if count := tok.Count("Hello, world!"); count <= 0 {
		t.Errorf("expected positive token count, got %d", count)
	}
	if count := tok.Count(""); count != 0 {
		t.Errorf("expected 0 tokens for empty string, got %d", count)
	}
}

func TestTokenizer_Truncate(t *testing.T) {
	tok := newTestTokenizer(t)

	long := "This is a fairly long string that should have more than five tokens in total."
	truncated := tok.Truncate(long, 5)
	if len(truncated) >= len(long) {
		t.Error("truncated string should be shorter than original")
	}
	if n := tok.Count(truncated); n > 5 {
		t.Errorf("truncated to 5 tokens but Count says %d", n)
	}
	if got := tok.Truncate("Hi", 100); got != "Hi" {
		t.Errorf("short string should not be truncated: got %q", got)
	}
}

func TestTokenizer_FitHistory_DropsOldest(t *testing.T) {
	tok := newTestTokenizer(t)

	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, "[2024-01-15 14:30] Alice: talking about the hiking trip again")
	}
	lines[39] = "[2024-01-15 14:31] Bob: newest line"

	out, dropped := tok.FitHistory(lines, 60)
	if dropped == 0 {
		t.Fatal("expected some lines to be dropped")
	}
	if !strings.HasSuffix(out, "Bob: newest line") {
		t.Errorf("newest line must be kept, got %q", out)
	}
	if n := tok.Count(out); n > 60 {
		t.Errorf("history has %d tokens, budget 60", n)
	}
}

func TestTokenizer_FitHistory_Disabled(t *testing.T) {
	var tok *Tokenizer
	out, dropped := tok.FitHistory([]string{"a", "b"}, 10)
	if out != "a\nb" || dropped != 0 {
		t.Errorf("got %q, %d", out, dropped)
	}
}
