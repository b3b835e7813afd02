// Package export renders a user's contacts, their reminder state and latest
// suggestions into portable formats.
package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/schedule"
)

// ContactRecord is one contact with the state derived for it.
type ContactRecord struct {
	Contact              contacts.Contact
	Status               schedule.Status
	DaysSinceLastContact int // -1 = unknown
	Messages             int
	Suggestion           *contacts.Suggestion
}

// ExportData is passed to every Exporter.
type ExportData struct {
	GeneratedAt     time.Time
	Contacts        []ContactRecord
	Recommendations []schedule.Recommendation
	Reminders       []schedule.PendingReminder
}

// Exporter renders ExportData to a string in a specific format.
type Exporter interface {
	Export(data ExportData) (string, error)
}

// registry maps format names to Exporter implementations.
var registry = map[string]Exporter{
	"markdown": &MarkdownExporter{},
	"json":     &JSONExporter{},
}

// Get returns the Exporter registered under name, and whether it was found.
func Get(name string) (Exporter, bool) {
	e, ok := registry[name]
	return e, ok
}

// ValidFormats returns the supported export format names, sorted.
func ValidFormats() []string {
	formats := make([]string, 0, len(registry))
	for k := range registry {
		formats = append(formats, k)
	}
	sort.Strings(formats)
	return formats
}

// Collect gathers everything stored for userID as of now.
func Collect(ctx context.Context, store *contacts.Store, sched *schedule.Service, userID int64, now time.Time) (ExportData, error) {
	cs, err := store.ListContacts(ctx, userID)
	if err != nil {
		return ExportData{}, err
	}

	data := ExportData{GeneratedAt: now, Contacts: make([]ContactRecord, 0, len(cs))}
	for _, c := range cs {
		n, err := store.CountMessages(ctx, c.ID)
		if err != nil {
			return ExportData{}, err
		}
		rec := ContactRecord{
			Contact:              c,
			Status:               schedule.ReminderStatus(c, now),
			DaysSinceLastContact: schedule.DaysSinceLastContact(c, now),
			Messages:             n,
		}
		sg, err := store.LatestSuggestion(ctx, c.ID)
		switch {
		case err == nil:
			rec.Suggestion = &sg
		case !errors.Is(err, contacts.ErrNotFound):
			return ExportData{}, err
		}
		data.Contacts = append(data.Contacts, rec)
	}

	if data.Recommendations, err = sched.Recommendations(ctx, userID); err != nil {
		return ExportData{}, fmt.Errorf("export: %w", err)
	}
	if data.Reminders, err = sched.PendingReminders(ctx, userID); err != nil {
		return ExportData{}, fmt.Errorf("export: %w", err)
	}
	return data, nil
}
