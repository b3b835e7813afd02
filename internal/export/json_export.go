package export

import (
	"encoding/json"
	"time"
)

// JSONExporter renders ExportData as structured JSON.
type JSONExporter struct{}

type jsonOutput struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Contacts        []jsonContact    `json:"contacts"`
	ExportNeeded    []jsonContactRef `json:"chat_export_needed"`
	PendingReminder []jsonContactRef `json:"pending_reminders"`
}

type jsonContact struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	RelationshipType     string          `json:"relationship_type,omitempty"`
	Interests            []string        `json:"interests,omitempty"`
	Priority             int             `json:"priority_level"`
	Favorite             bool            `json:"is_favorite"`
	LastContactDate      *time.Time      `json:"last_contact_date,omitempty"`
	DaysSinceLastContact *int            `json:"days_since_last_contact,omitempty"`
	ReminderFrequency    *int            `json:"reminder_frequency,omitempty"`
	ReminderStatus       string          `json:"reminder_status"`
	Messages             int             `json:"messages"`
	Suggestion           *jsonSuggestion `json:"suggestion,omitempty"`
}

type jsonSuggestion struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type jsonContactRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e *JSONExporter) Export(data ExportData) (string, error) {
	out := jsonOutput{
		GeneratedAt:     data.GeneratedAt,
		Contacts:        make([]jsonContact, 0, len(data.Contacts)),
		ExportNeeded:    make([]jsonContactRef, 0, len(data.Recommendations)),
		PendingReminder: make([]jsonContactRef, 0, len(data.Reminders)),
	}

	for _, r := range data.Contacts {
		c := r.Contact
		jc := jsonContact{
			ID:                c.ID,
			Name:              c.Name,
			RelationshipType:  c.RelationshipType,
			Interests:         c.Interests,
			Priority:          c.PriorityLevel,
			Favorite:          c.IsFavorite,
			LastContactDate:   c.LastContactDate,
			ReminderFrequency: c.ReminderFrequency,
			ReminderStatus:    string(r.Status),
			Messages:          r.Messages,
		}
		if r.DaysSinceLastContact >= 0 {
			d := r.DaysSinceLastContact
			jc.DaysSinceLastContact = &d
		}
		if sg := r.Suggestion; sg != nil {
			jc.Suggestion = &jsonSuggestion{Text: sg.Text, Source: sg.Source, CreatedAt: sg.CreatedAt}
		}
		out.Contacts = append(out.Contacts, jc)
	}
	for _, rec := range data.Recommendations {
		out.ExportNeeded = append(out.ExportNeeded, jsonContactRef{ID: rec.ID, Name: rec.Name})
	}
	for _, rem := range data.Reminders {
		out.PendingReminder = append(out.PendingReminder, jsonContactRef{ID: rem.ContactID, Name: rem.ContactName, Suggestion: rem.Suggestion})
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
