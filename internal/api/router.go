// Package api exposes rekindle over HTTP.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/metrics"
	"github.com/rekindle/rekindle/internal/schedule"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Store         *contacts.Store
	Orchestrator  *contacts.Orchestrator
	Schedule      *schedule.Service
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
	APIKey        string
	DefaultUserID int64
	Version       string
	Now           func() time.Time // nil = time.Now
}

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(d Deps) *chi.Mux {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DefaultUserID <= 0 {
		d.DefaultUserID = contacts.DefaultUserID
	}

	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(d.Logger))
	r.Use(Recovery(d.Logger))
	r.Use(Instrument(d.Metrics))

	healthH := NewHealthHandler(d.Store, d.Version)
	contactH := NewContactHandler(d.Store, d.Orchestrator, d.Now)
	scheduleH := NewScheduleHandler(d.Schedule)
	settingsH := NewSettingsHandler(d.Store)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerAuth(d.APIKey))
		r.Use(UserExtractor(d.Store, d.DefaultUserID))

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", contactH.List)
			r.Post("/", contactH.Create)
			r.Get("/{id}", contactH.Get)
			r.Patch("/{id}", contactH.Update)
			r.Delete("/{id}", contactH.Delete)
			r.Get("/{id}/messages", contactH.ListMessages)
			r.Post("/{id}/messages", contactH.AddMessage)
			r.Post("/{id}/import", contactH.Import)
			r.Get("/{id}/suggestion", contactH.GetSuggestion)
			r.Post("/{id}/suggestion", contactH.GenerateSuggestion)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/chat-export-needed", scheduleH.ChatExportNeeded)
			r.Post("/log-chat-export-prompt", scheduleH.LogPrompt)
			r.Post("/snooze-chat-export-prompt", scheduleH.SnoozePrompt)
		})

		r.Get("/reminders/pending", scheduleH.PendingReminders)

		r.Get("/settings", settingsH.Get)
		r.Patch("/settings", settingsH.Update)
		r.Get("/stats", settingsH.Stats)
	})

	return r
}
