package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/metrics"
)

// Source is the storage the scheduling service reads and writes.
// *contacts.Store implements it.
type Source interface {
	GetContact(ctx context.Context, userID, id int64) (contacts.Contact, error)
	ListContacts(ctx context.Context, userID int64) ([]contacts.Contact, error)
	ListPromptHistory(ctx context.Context, userID int64) ([]contacts.PromptHistory, error)
	LogPrompt(ctx context.Context, userID, contactID int64, at time.Time) error
	SnoozePrompt(ctx context.Context, userID, contactID int64, until, at time.Time) error
	LatestSuggestions(ctx context.Context, userID int64) (map[int64]contacts.Suggestion, error)
	GetSettings(ctx context.Context, userID int64) (contacts.Settings, error)
}

// Service evaluates recommendations and reminders on demand.
type Service struct {
	src        Source
	policy     Policy
	snoozeDays int
	clock      func() time.Time
	loc        *time.Location
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

// NewService creates a Service. A zero policy means DefaultPolicy and
// snoozeDays <= 0 means DefaultSnoozeDays.
func NewService(src Source, policy Policy, snoozeDays int, log zerolog.Logger, m *metrics.Metrics) *Service {
	if snoozeDays <= 0 {
		snoozeDays = DefaultSnoozeDays
	}
	return &Service{
		src:        src,
		policy:     policy.normalized(),
		snoozeDays: snoozeDays,
		clock:      time.Now,
		loc:        time.Local,
		log:        log,
		metrics:    m,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.clock = now
	return s
}

// WithLocation sets the zone whose calendar days reminders are due on.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().In(s.loc)
}

// Policy returns the effective recommendation policy.
func (s *Service) Policy() Policy {
	return s.policy
}

// Recommendations lists the contacts the user should re-export a chat for.
func (s *Service) Recommendations(ctx context.Context, userID int64) ([]Recommendation, error) {
	cs, err := s.src.ListContacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("schedule: list contacts: %w", err)
	}
	history, err := s.src.ListPromptHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("schedule: list prompt history: %w", err)
	}
	recs := Recommend(userID, cs, history, s.now(), s.policy)
	s.log.Debug().Int64("user_id", userID).Int("candidates", len(cs)).Int("recommended", len(recs)).
		Msg("evaluated chat export recommendations")
	return recs, nil
}

// LogPrompt records that the user was just prompted about contactID.
func (s *Service) LogPrompt(ctx context.Context, userID, contactID int64) error {
	if _, err := s.src.GetContact(ctx, userID, contactID); err != nil {
		return err
	}
	if err := s.src.LogPrompt(ctx, userID, contactID, s.now()); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	s.metrics.RecordPromptLogged()
	return nil
}

// SnoozePrompt suppresses prompts about contactID for days days and
// returns the time the snooze ends. days <= 0 uses the default.
func (s *Service) SnoozePrompt(ctx context.Context, userID, contactID int64, days int) (time.Time, error) {
	if _, err := s.src.GetContact(ctx, userID, contactID); err != nil {
		return time.Time{}, err
	}
	if days <= 0 {
		days = s.snoozeDays
	}
	now := s.now()
	until := now.AddDate(0, 0, days)
	if err := s.src.SnoozePrompt(ctx, userID, contactID, until, now); err != nil {
		return time.Time{}, fmt.Errorf("schedule: %w", err)
	}
	s.metrics.RecordPromptSnoozed()
	s.log.Info().Int64("contact_id", contactID).Time("until", until).Msg("chat export prompt snoozed")
	return until, nil
}

// PendingReminders lists the user's due reminders. It returns an empty
// list when the user has turned reminders off.
func (s *Service) PendingReminders(ctx context.Context, userID int64) ([]PendingReminder, error) {
	settings, err := s.src.GetSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("schedule: get settings: %w", err)
	}
	if !settings.ReminderEnabled {
		return []PendingReminder{}, nil
	}

	cs, err := s.src.ListContacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("schedule: list contacts: %w", err)
	}
	latest, err := s.src.LatestSuggestions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("schedule: latest suggestions: %w", err)
	}
	return PendingReminders(cs, latest, s.now()), nil
}
