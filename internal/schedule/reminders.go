package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/rekindle/rekindle/internal/contacts"
)

// PendingReminder pairs a due contact with its current suggestion.
type PendingReminder struct {
	ContactID   int64  `json:"contactId"`
	ContactName string `json:"contactName"`
	Suggestion  string `json:"suggestion"`
}

// Status values returned by ReminderStatus.
type Status string

const (
	StatusNone     Status = "none"
	StatusUpcoming Status = "upcoming"
	StatusDue      Status = "due"
	StatusOverdue  Status = "overdue"
)

// startOfDay truncates t to midnight in t's own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DueDate returns the calendar day on which the contact's reminder falls,
// in loc. ok is false if the contact has no last contact date
// or no reminder frequency.
func DueDate(c contacts.Contact, loc *time.Location) (due time.Time, ok bool) {
	if c.LastContactDate == nil || c.ReminderFrequency == nil {
		return time.Time{}, false
	}
	last := c.LastContactDate.In(loc)
	return startOfDay(last.AddDate(0, 0, *c.ReminderFrequency)), true
}

// IsDue reports whether the contact's reminder day is today or earlier.
func IsDue(c contacts.Contact, now time.Time) bool {
	due, ok := DueDate(c, now.Location())
	if !ok {
		return false
	}
	return !due.After(startOfDay(now))
}

// PendingReminders returns a reminder for each due contact that has a
// current suggestion, ordered by contact id.
func PendingReminders(cs []contacts.Contact, latest map[int64]contacts.Suggestion, now time.Time) []PendingReminder {
	out := []PendingReminder{}
	for _, c := range cs {
		if !IsDue(c, now) {
			continue
		}
		sg, ok := latest[c.ID]
		if !ok {
			continue
		}
		out = append(out, PendingReminder{ContactID: c.ID, ContactName: c.Name, Suggestion: sg.Text})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ContactID < out[j].ContactID })
	return out
}

// ReminderStatus classifies a contact relative to its reminder day.
// Contacts within two days of it are upcoming.
func ReminderStatus(c contacts.Contact, now time.Time) Status {
	due, ok := DueDate(c, now.Location())
	if !ok {
		return StatusNone
	}
	today := startOfDay(now)
	switch {
	case due.Equal(today):
		return StatusDue
	case due.Before(today):
		return StatusOverdue
	case !due.After(today.AddDate(0, 0, 2)):
		return StatusUpcoming
	}
	return StatusNone
}

// DaysSinceLastContact returns whole calendar days since the last contact,
// or -1 when it is unknown.
func DaysSinceLastContact(c contacts.Contact, now time.Time) int {
	if c.LastContactDate == nil {
		return -1
	}
	last := startOfDay(c.LastContactDate.In(now.Location()))
	today := startOfDay(now)
	return int(math.Round(today.Sub(last).Hours() / 24))
}
