// Package mcp exposes rekindle's recommendations, reminders and chat
// import as Model Context Protocol tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/schedule"
)

// Server holds the tool handlers and the MCP server they are registered on.
type Server struct {
	orch   *contacts.Orchestrator
	store  *contacts.Store
	sched  *schedule.Service
	userID int64
	log    zerolog.Logger
	srv    *server.MCPServer
}

// NewServer creates a Server acting on behalf of userID.
func NewServer(orch *contacts.Orchestrator, sched *schedule.Service, userID int64, version string, log zerolog.Logger) *Server {
	s := &Server{
		orch:   orch,
		store:  orch.Store(),
		sched:  sched,
		userID: userID,
		log:    log,
		srv:    server.NewMCPServer("rekindle", version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info().Int64("user_id", s.userID).Msg("mcp server listening on stdio")
	return server.ServeStdio(s.srv)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.srv
}

func (s *Server) registerTools() {
	s.srv.AddTool(mcp.NewTool("list_contacts",
		mcp.WithDescription("List the user's contacts with their reminder status."),
	), s.handleListContacts)

	s.srv.AddTool(mcp.NewTool("chat_export_needed",
		mcp.WithDescription("List up to three contacts whose WhatsApp chat export is stale and should be refreshed."),
	), s.handleChatExportNeeded)

	s.srv.AddTool(mcp.NewTool("pending_reminders",
		mcp.WithDescription("List contacts whose reminder is due, each with its current conversation starter."),
	), s.handlePendingReminders)

	s.srv.AddTool(mcp.NewTool("log_chat_export_prompt",
		mcp.WithDescription("Record that the user was just asked to export a chat for a contact. Starts the prompt cooldown and clears any snooze."),
		mcp.WithNumber("contact_id", mcp.Required(), mcp.Description("Contact id")),
	), s.handleLogPrompt)

	s.srv.AddTool(mcp.NewTool("snooze_chat_export_prompt",
		mcp.WithDescription("Stop asking about a contact's chat export for a number of days."),
		mcp.WithNumber("contact_id", mcp.Required(), mcp.Description("Contact id")),
		mcp.WithNumber("duration_days", mcp.Description("Days to snooze; defaults to 7")),
	), s.handleSnoozePrompt)

	s.srv.AddTool(mcp.NewTool("import_chat",
		mcp.WithDescription("Import a WhatsApp chat export for a contact and generate a fresh conversation starter."),
		mcp.WithString("chat_text", mcp.Required(), mcp.Description("Raw text of the WhatsApp export")),
		mcp.WithNumber("contact_id", mcp.Description("Contact id; either this or contact_name is required")),
		mcp.WithString("contact_name", mcp.Description("Contact name; created if it does not exist")),
	), s.handleImportChat)

	s.srv.AddTool(mcp.NewTool("get_suggestion",
		mcp.WithDescription("Get the current conversation starter for a contact."),
		mcp.WithNumber("contact_id", mcp.Required(), mcp.Description("Contact id")),
		mcp.WithBoolean("refresh", mcp.Description("Generate a new suggestion instead of returning the stored one")),
	), s.handleGetSuggestion)
}
