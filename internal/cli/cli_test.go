package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rekindle/rekindle/internal/adapter"
	"github.com/rekindle/rekindle/internal/config"
	"github.com/rekindle/rekindle/internal/inbox"
	"github.com/rekindle/rekindle/internal/suggest"
)

const oldChat = "[1/15/24, 2:30 PM] Bob: Are we still on for Sunday?\n[1/15/24, 2:31 PM] Me: Yes! See you at 10\n"

// setupEnv points config, database and inbox at a temp dir and keeps the
// generator offline so every suggestion is the fallback.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("REKINDLE_CONFIG", filepath.Join(dir, "config.toml"))
	t.Setenv("REKINDLE_DB_PATH", filepath.Join(dir, "rekindle.db"))
	t.Setenv("REKINDLE_INBOX_DIR", filepath.Join(dir, "inbox"))
	t.Setenv("REKINDLE_LOG_LEVEL", "error")
	t.Setenv("REKINDLE_AI_PROVIDER", "openai")

	origAdapter, origTokenizer := newAdapter, newTokenizer
	newAdapter = func(adapter.Options) (adapter.LLMAdapter, error) {
		return nil, errors.New("offline")
	}
	newTokenizer = func() (*suggest.Tokenizer, error) {
		return nil, errors.New("offline")
	}
	t.Cleanup(func() { newAdapter, newTokenizer = origAdapter, origTokenizer })
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, "", args...)
	if err != nil {
		t.Fatalf("rekindle %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	if !strings.HasPrefix(out, "rekindle ") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestInit(t *testing.T) {
	dir := setupEnv(t)

	out := mustRun(t, "init")
	if !strings.Contains(out, "Wrote config") {
		t.Errorf("expected config to be written: %q", out)
	}
	for _, p := range []string{"config.toml", "rekindle.db", filepath.Join("inbox", inbox.IgnoreFile)} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Errorf("%s not created: %v", p, err)
		}
	}

	out = mustRun(t, "init")
	if !strings.Contains(out, "already exists") {
		t.Errorf("second init should keep the config: %q", out)
	}
}

func TestContactCommands(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "contact", "add", "Alice", "Smith", "--interests", "climbing,jazz", "--priority", "3", "--every", "10")
	if !strings.Contains(out, "Added Alice Smith") || !strings.Contains(out, "every 10 days") {
		t.Errorf("add: %q", out)
	}

	out = mustRun(t, "contact", "list")
	if !strings.Contains(out, "Alice Smith") || !strings.Contains(out, "never") {
		t.Errorf("list: %q", out)
	}

	out = mustRun(t, "contact", "show", "alice smith")
	if !strings.Contains(out, "Interests:    climbing, jazz") || !strings.Contains(out, "Priority:     3") {
		t.Errorf("show: %q", out)
	}

	if _, err := runCLI(t, "", "contact", "add", "Bob", "--priority", "9"); err == nil {
		t.Error("priority out of range should fail")
	}

	out, err := runCLI(t, "n\n", "contact", "delete", "Alice Smith")
	if err != nil || !strings.Contains(out, "Aborted.") {
		t.Errorf("delete without confirmation: %q, %v", out, err)
	}
	out, err = runCLI(t, "y\n", "contact", "delete", "1")
	if err != nil || !strings.Contains(out, "Deleted Alice Smith.") {
		t.Errorf("delete: %q, %v", out, err)
	}
	if _, err := runCLI(t, "", "contact", "show", "1"); err == nil {
		t.Error("deleted contact should not be found")
	}
}

func TestImport_FromFilename(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "WhatsApp Chat with Bob.txt")
	if err := os.WriteFile(path, []byte(oldChat), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "import", path)
	if !strings.Contains(out, "Imported 2 messages for Bob.") {
		t.Errorf("import: %q", out)
	}
	if !strings.Contains(out, "Suggestion: Hey Bob") {
		t.Errorf("expected fallback suggestion: %q", out)
	}

	out = mustRun(t, "suggest", "Bob", "--cached")
	if !strings.Contains(out, "Suggestion: Hey Bob") {
		t.Errorf("cached suggestion: %q", out)
	}
}

func TestImport_Errors(t *testing.T) {
	dir := setupEnv(t)

	if _, err := runCLI(t, oldChat, "import", "-"); err == nil {
		t.Error("stdin import without --contact should fail")
	}
	if _, err := runCLI(t, "   ", "import", "-", "--contact", "Bob", "--create"); err == nil {
		t.Error("empty export should fail")
	}
	if _, err := runCLI(t, "", "import", filepath.Join(dir, "missing.txt"), "--contact", "Bob"); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := runCLI(t, oldChat, "import", "-", "--contact", "Nobody"); err == nil {
		t.Error("unknown contact without --create should fail")
	}

	out, err := runCLI(t, "not a chat\n", "import", "-", "--contact", "Carol", "--create")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 0 messages") || !strings.Contains(out, "Warning:") {
		t.Errorf("expected a warning for an unreadable export: %q", out)
	}
}

func TestRecommendAndRemind(t *testing.T) {
	setupEnv(t)

	if out := mustRun(t, "recommend"); !strings.Contains(out, "All chat exports are fresh.") {
		t.Errorf("empty recommend: %q", out)
	}
	if out := mustRun(t, "remind"); !strings.Contains(out, "Nobody is due") {
		t.Errorf("empty remind: %q", out)
	}

	if _, err := runCLI(t, oldChat, "import", "-", "--contact", "Bob", "--create"); err != nil {
		t.Fatalf("import: %v", err)
	}

	out := mustRun(t, "recommend")
	if !strings.Contains(out, "Bob (id: 1)") {
		t.Errorf("Bob's 2024 chat should be stale: %q", out)
	}

	out = mustRun(t, "remind")
	if !strings.Contains(out, "Bob (id: 1)") || !strings.Contains(out, "Hey Bob") {
		t.Errorf("Bob's reminder should be due: %q", out)
	}

	out = mustRun(t, "recommend", "snooze", "Bob", "--days", "3")
	if !strings.Contains(out, "Snoozed Bob until") {
		t.Errorf("snooze: %q", out)
	}
	if out := mustRun(t, "recommend"); strings.Contains(out, "Bob") {
		t.Errorf("snoozed contact still recommended: %q", out)
	}
	if _, err := runCLI(t, "", "recommend", "snooze", "Bob", "--days", "-1"); err == nil {
		t.Error("negative snooze should fail")
	}

	out = mustRun(t, "recommend", "log", "1")
	if !strings.Contains(out, "Logged prompt for Bob.") {
		t.Errorf("log: %q", out)
	}
	if out := mustRun(t, "recommend"); strings.Contains(out, "Bob") {
		t.Errorf("contact in cooldown still recommended: %q", out)
	}
}

func TestSuggest_Generic(t *testing.T) {
	setupEnv(t)
	mustRun(t, "contact", "add", "Dana", "--relationship", "friend")

	out := mustRun(t, "suggest", "Dana", "--cached")
	if !strings.Contains(out, "No suggestion for Dana yet.") {
		t.Errorf("cached: %q", out)
	}
	out = mustRun(t, "suggest", "Dana")
	if !strings.Contains(out, "Suggestion: ") {
		t.Errorf("suggest: %q", out)
	}

	if out := mustRun(t, "status"); !strings.Contains(out, "Suggestions: 1 (1 fallback)") {
		t.Errorf("status: %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-secret-abcd1234")

	out := mustRun(t, "config", "path")
	if strings.TrimSpace(out) != filepath.Join(dir, "config.toml") {
		t.Errorf("path: %q", out)
	}

	mustRun(t, "config", "init")
	if _, err := runCLI(t, "", "config", "init"); err == nil {
		t.Error("config init should refuse to overwrite")
	}
	mustRun(t, "config", "init", "--force")

	out = mustRun(t, "config", "show")
	if strings.Contains(out, "sk-secret") || !strings.Contains(out, "****1234") {
		t.Errorf("secrets not masked: %q", out)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := setupEnv(t)
	alt := filepath.Join(dir, "alt.toml")
	mustRun(t, "--config", alt, "config", "init")
	if _, err := os.Stat(alt); err != nil {
		t.Errorf("--config file not written: %v", err)
	}
}

func TestRunSetup(t *testing.T) {
	cfg := config.Default()
	var out bytes.Buffer
	if err := runSetup(strings.NewReader("3\nkey-123\nclaude-test\n"), &out, &cfg); err != nil {
		t.Fatalf("runSetup: %v", err)
	}
	if cfg.AI.Provider != adapter.ProviderClaude || cfg.Keys.Anthropic != "key-123" || cfg.AI.Model != "claude-test" {
		t.Errorf("unexpected config: %+v / %+v", cfg.AI, cfg.Keys)
	}

	cfg = config.Default()
	if err := runSetup(strings.NewReader("9\n"), &out, &cfg); err != nil {
		t.Fatalf("runSetup: %v", err)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("unrecognized choice should keep the provider, got %q", cfg.AI.Provider)
	}
}

func TestExport(t *testing.T) {
	dir := setupEnv(t)
	if _, err := runCLI(t, oldChat, "import", "-", "--contact", "Bob", "--create"); err != nil {
		t.Fatalf("import: %v", err)
	}

	out := mustRun(t, "export")
	if !strings.Contains(out, "# Rekindle report") || !strings.Contains(out, "| Bob |") {
		t.Errorf("markdown export: %q", out)
	}

	path := filepath.Join(dir, "out.json")
	out = mustRun(t, "export", "--format", "json", "-o", path)
	if !strings.Contains(out, "Exported 1 contacts") {
		t.Errorf("json export: %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), `"name": "Bob"`) {
		t.Errorf("json file: %s, %v", data, err)
	}

	if _, err := runCLI(t, "", "export", "--format", "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestDescribeCounts(t *testing.T) {
	if got := describeCounts(nil); got != "0" {
		t.Errorf("empty: %q", got)
	}
	if got := describeCounts(map[string]int{"fallback": 1, "ai": 3}); got != "4 (3 ai, 1 fallback)" {
		t.Errorf("got %q", got)
	}
}
