package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/db"
	"github.com/rekindle/rekindle/internal/logger"
	"github.com/rekindle/rekindle/internal/schedule"
	"github.com/rekindle/rekindle/internal/suggest"
)

type stubGenerator struct{}

func (stubGenerator) AnalyzeChat(_ context.Context, req suggest.ChatRequest) suggest.ChatAnalysis {
	a := suggest.FallbackAnalysis(req, "")
	a.Suggestion = "ask " + req.ContactName + " about the trip"
	a.Topics = []string{"travel"}
	a.Source = suggest.SourceAI
	return a
}

func (stubGenerator) GenericSuggestion(_ context.Context, req suggest.GenericRequest) suggest.GenericResult {
	return suggest.GenericResult{Message: "say hi to " + req.ContactName, Source: suggest.SourceAI}
}

func newTestServer(t *testing.T) (*Server, *contacts.Store) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "mcp.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := contacts.NewStore(database)
	orch := contacts.NewOrchestrator(store, stubGenerator{}, logger.Nop(), nil).WithLocation(time.UTC)
	sched := schedule.NewService(store, schedule.DefaultPolicy(), 0, logger.Nop(), nil)
	return NewServer(orch, sched, contacts.DefaultUserID, "test", logger.Nop()), store
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return tc.Text
}

func TestImportChat_ByName(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleImportChat(ctx, callRequest(map[string]any{
		"contact_name": "Alice",
		"chat_text":    "[1/15/24, 2:30 PM] Alice: Back from Lisbon!\n[1/15/24, 2:31 PM] Me: How was it?",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Imported 2 messages") || !strings.Contains(text, "ask Alice about the trip") {
		t.Errorf("unexpected result: %q", text)
	}

	c, err := store.FindContactByName(ctx, contacts.DefaultUserID, "alice")
	if err != nil {
		t.Fatalf("contact not created: %v", err)
	}
	n, _ := store.CountMessages(ctx, c.ID)
	if n != 2 {
		t.Errorf("messages stored: got %d, want 2", n)
	}
}

func TestImportChat_MissingArgs(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, _ := s.handleImportChat(ctx, callRequest(map[string]any{"contact_name": "Alice"}))
	if !res.IsError {
		t.Error("expected error without chat_text")
	}
	res, _ = s.handleImportChat(ctx, callRequest(map[string]any{"chat_text": "hi"}))
	if !res.IsError {
		t.Error("expected error without a contact")
	}
	res, _ = s.handleImportChat(ctx, callRequest(map[string]any{"chat_text": "hi", "contact_id": float64(99)}))
	if !res.IsError || resultText(t, res) != "contact not found" {
		t.Error("expected contact not found")
	}
}

func TestRecommendationTools(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, -3, 0)
	c, err := store.CreateContact(ctx, contacts.Contact{UserID: contacts.DefaultUserID, Name: "Bob", LastMessageDate: &old})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	res, _ := s.handleChatExportNeeded(ctx, callRequest(nil))
	if !strings.Contains(resultText(t, res), "Bob") {
		t.Errorf("Bob should need an export: %s", resultText(t, res))
	}

	res, _ = s.handleSnoozePrompt(ctx, callRequest(map[string]any{"contact_id": float64(c.ID), "duration_days": float64(3)}))
	if res.IsError {
		t.Fatalf("snooze failed: %s", resultText(t, res))
	}
	res, _ = s.handleChatExportNeeded(ctx, callRequest(nil))
	if strings.Contains(resultText(t, res), "Bob") {
		t.Error("snoozed contact should not be recommended")
	}

	res, _ = s.handleSnoozePrompt(ctx, callRequest(map[string]any{"contact_id": float64(c.ID), "duration_days": float64(-1)}))
	if !res.IsError {
		t.Error("negative duration should fail")
	}

	res, _ = s.handleLogPrompt(ctx, callRequest(map[string]any{"contact_id": float64(c.ID)}))
	if res.IsError {
		t.Fatalf("log prompt failed: %s", resultText(t, res))
	}
	h, err := store.GetPromptHistory(ctx, contacts.DefaultUserID, c.ID)
	if err != nil {
		t.Fatalf("prompt history: %v", err)
	}
	if h.SnoozedUntil != nil {
		t.Error("logging a prompt should clear the snooze")
	}

	res, _ = s.handleLogPrompt(ctx, callRequest(map[string]any{}))
	if !res.IsError {
		t.Error("expected error without contact_id")
	}
}

func TestGetSuggestion(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	c, err := store.CreateContact(ctx, contacts.Contact{UserID: contacts.DefaultUserID, Name: "Carol"})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	res, _ := s.handleGetSuggestion(ctx, callRequest(map[string]any{"contact_id": float64(c.ID)}))
	if !strings.HasPrefix(resultText(t, res), "No suggestion yet") {
		t.Errorf("unexpected: %s", resultText(t, res))
	}

	res, _ = s.handleGetSuggestion(ctx, callRequest(map[string]any{"contact_id": float64(c.ID), "refresh": true}))
	if got := resultText(t, res); got != "say hi to Carol" {
		t.Errorf("refresh: got %q", got)
	}

	res, _ = s.handleGetSuggestion(ctx, callRequest(map[string]any{"contact_id": float64(c.ID)}))
	if got := resultText(t, res); got != "say hi to Carol" {
		t.Errorf("stored: got %q", got)
	}
}

func TestListContacts(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	res, _ := s.handleListContacts(ctx, callRequest(nil))
	if resultText(t, res) != "No contacts yet." {
		t.Errorf("unexpected: %s", resultText(t, res))
	}

	if _, err := store.CreateContact(ctx, contacts.Contact{UserID: contacts.DefaultUserID, Name: "Dana"}); err != nil {
		t.Fatalf("create contact: %v", err)
	}
	res, _ = s.handleListContacts(ctx, callRequest(nil))
	if !strings.Contains(resultText(t, res), "Dana") {
		t.Errorf("missing contact: %s", resultText(t, res))
	}
}

func TestServerRegistersTools(t *testing.T) {
	s, _ := newTestServer(t)
	tools := s.MCPServer().ListTools()
	for _, name := range []string{"list_contacts", "chat_export_needed", "pending_reminders", "log_chat_export_prompt", "snooze_chat_export_prompt", "import_chat", "get_suggestion"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}
