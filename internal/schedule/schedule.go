// Package schedule decides which contacts need attention: who should be
// asked for a fresh chat export, and whose reminder is due.
package schedule

import (
	"sort"
	"time"

	"github.com/rekindle/rekindle/internal/contacts"
)

const (
	DefaultReminderFrequencyDays = contacts.DefaultReminderFrequency
	PromptCooldownDays           = 7
	StalenessThresholdDays       = 30
	RecommendationCap            = 3
	DefaultSnoozeDays            = 7
)

// Policy holds the tunables of the recommendation engine.
type Policy struct {
	StalenessDays int
	CooldownDays  int
	Cap           int
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		StalenessDays: StalenessThresholdDays,
		CooldownDays:  PromptCooldownDays,
		Cap:           RecommendationCap,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.StalenessDays <= 0 {
		p.StalenessDays = d.StalenessDays
	}
	if p.CooldownDays <= 0 {
		p.CooldownDays = d.CooldownDays
	}
	if p.Cap <= 0 {
		p.Cap = d.Cap
	}
	return p
}

// Recommendation names a contact whose chat should be re-exported.
type Recommendation struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Recommend returns up to policy.Cap contacts of userID that are stale and
// not in cooldown or snoozed. Most stale contacts come first.
func Recommend(userID int64, cs []contacts.Contact, history []contacts.PromptHistory, now time.Time, policy Policy) []Recommendation {
	policy = policy.normalized()

	byContact := make(map[int64]contacts.PromptHistory, len(history))
	for _, h := range history {
		if h.UserID == userID {
			byContact[h.ContactID] = h
		}
	}

	staleBefore := now.AddDate(0, 0, -policy.StalenessDays)
	cooldownBefore := now.AddDate(0, 0, -policy.CooldownDays)

	type candidate struct {
		c     contacts.Contact
		since time.Time
	}
	var picked []candidate
	for _, c := range cs {
		if c.UserID != userID {
			continue
		}
		if !isStale(c, now, staleBefore) {
			continue
		}
		if h, ok := byContact[c.ID]; ok {
			if !h.LastPromptedAt.Before(cooldownBefore) {
				continue
			}
			if h.SnoozedUntil != nil && !h.SnoozedUntil.Before(now) {
				continue
			}
		}
		picked = append(picked, candidate{c: c, since: oldestDate(c)})
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if !picked[i].since.Equal(picked[j].since) {
			return picked[i].since.Before(picked[j].since)
		}
		return picked[i].c.ID < picked[j].c.ID
	})

	out := []Recommendation{}
	for _, p := range picked {
		if len(out) == policy.Cap {
			break
		}
		out = append(out, Recommendation{ID: p.c.ID, Name: p.c.Name})
	}
	return out
}

// isStale reports whether the last message is older than the staleness
// threshold or the last contact is older than the reminder interval. A
// missing date never counts as stale.
func isStale(c contacts.Contact, now, staleBefore time.Time) bool {
	if c.LastMessageDate != nil && c.LastMessageDate.Before(staleBefore) {
		return true
	}
	if c.ReminderFrequency != nil && *c.ReminderFrequency > 0 && c.LastContactDate != nil {
		if c.LastContactDate.Before(now.AddDate(0, 0, -*c.ReminderFrequency)) {
			return true
		}
	}
	return false
}

func oldestDate(c contacts.Contact) time.Time {
	switch {
	case c.LastMessageDate != nil && c.LastContactDate != nil:
		if c.LastMessageDate.Before(*c.LastContactDate) {
			return *c.LastMessageDate
		}
		return *c.LastContactDate
	case c.LastMessageDate != nil:
		return *c.LastMessageDate
	case c.LastContactDate != nil:
		return *c.LastContactDate
	}
	return time.Time{}
}
