package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/schedule"
)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func storeError(action string, err error) *mcp.CallToolResult {
	if errors.Is(err, contacts.ErrNotFound) {
		return mcp.NewToolResultError("contact not found")
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}

func (s *Server) handleListContacts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cs, err := s.store.ListContacts(ctx, s.userID)
	if err != nil {
		return storeError("list contacts", err), nil
	}
	if len(cs) == 0 {
		return mcp.NewToolResultText("No contacts yet."), nil
	}

	now := time.Now()
	var sb strings.Builder
	for _, c := range cs {
		fmt.Fprintf(&sb, "- %s (id: %d, reminder: %s", c.Name, c.ID, schedule.ReminderStatus(c, now))
		if d := schedule.DaysSinceLastContact(c, now); d >= 0 {
			fmt.Fprintf(&sb, ", last contact %d days ago", d)
		}
		sb.WriteString(")\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleChatExportNeeded(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := s.sched.Recommendations(ctx, s.userID)
	if err != nil {
		return storeError("get recommendations", err), nil
	}
	return jsonResult(recs)
}

func (s *Server) handlePendingReminders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rems, err := s.sched.PendingReminders(ctx, s.userID)
	if err != nil {
		return storeError("get reminders", err), nil
	}
	return jsonResult(rems)
}

func (s *Server) handleLogPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("contact_id")
	if err != nil || id <= 0 {
		return mcp.NewToolResultError("missing required parameter: contact_id"), nil
	}
	if err := s.sched.LogPrompt(ctx, s.userID, int64(id)); err != nil {
		return storeError("log prompt", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Logged chat export prompt for contact %d.", id)), nil
}

func (s *Server) handleSnoozePrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("contact_id")
	if err != nil || id <= 0 {
		return mcp.NewToolResultError("missing required parameter: contact_id"), nil
	}
	days := req.GetInt("duration_days", 0)
	if days < 0 {
		return mcp.NewToolResultError("duration_days must not be negative"), nil
	}

	until, err := s.sched.SnoozePrompt(ctx, s.userID, int64(id), days)
	if err != nil {
		return storeError("snooze prompt", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Snoozed contact %d until %s.", id, until.Format("2006-01-02 15:04"))), nil
}

func (s *Server) handleImportChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("chat_text")
	if err != nil || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("missing required parameter: chat_text"), nil
	}

	id := int64(req.GetInt("contact_id", 0))
	if id <= 0 {
		name := strings.TrimSpace(req.GetString("contact_name", ""))
		if name == "" {
			return mcp.NewToolResultError("either contact_id or contact_name is required"), nil
		}
		c, err := s.store.FindContactByName(ctx, s.userID, name)
		if errors.Is(err, contacts.ErrNotFound) {
			c, err = s.store.CreateContact(ctx, contacts.Contact{UserID: s.userID, Name: name})
		}
		if err != nil {
			return storeError("resolve contact", err), nil
		}
		id = c.ID
	}

	res, err := s.orch.ImportChat(ctx, s.userID, id, text)
	if err != nil {
		return storeError("import chat", err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Imported %d messages.\n", res.MessagesImported)
	if res.Warning != "" {
		fmt.Fprintf(&sb, "Warning: %s\n", res.Warning)
	}
	fmt.Fprintf(&sb, "Suggestion (%s): %s\n", res.Suggestion.Source, res.Suggestion.Text)
	if a := res.Analysis; a != nil && len(a.Topics) > 0 {
		fmt.Fprintf(&sb, "Topics: %s\n", strings.Join(a.Topics, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetSuggestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("contact_id")
	if err != nil || id <= 0 {
		return mcp.NewToolResultError("missing required parameter: contact_id"), nil
	}

	if req.GetBool("refresh", false) {
		out, err := s.orch.Refresh(ctx, s.userID, int64(id))
		if err != nil {
			return storeError("generate suggestion", err), nil
		}
		return mcp.NewToolResultText(out.Suggestion.Text), nil
	}

	if _, err := s.store.GetContact(ctx, s.userID, int64(id)); err != nil {
		return storeError("get contact", err), nil
	}
	sg, err := s.store.LatestSuggestion(ctx, int64(id))
	if errors.Is(err, contacts.ErrNotFound) {
		return mcp.NewToolResultText("No suggestion yet. Import a chat or call again with refresh=true."), nil
	}
	if err != nil {
		return storeError("get suggestion", err), nil
	}
	return mcp.NewToolResultText(sg.Text), nil
}
